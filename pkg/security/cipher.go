package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var keyIDInfo = []byte("marginly credential key id")

// Cipher seals and opens credential envelopes with one AES-256-GCM key.
type Cipher struct {
	aead  cipher.AEAD
	keyID string
	rand  io.Reader
}

// NewCipherFromHex builds a Cipher from a 64 character hex key.
func NewCipherFromHex(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: key is not hex", ErrInvalidKey)
	}
	return NewCipher(key)
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	keyID, err := fingerprint(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead, keyID: keyID, rand: rand.Reader}, nil
}

// KeyID identifies the key in logs without revealing it.
func (c *Cipher) KeyID() string {
	return c.keyID
}

func (c *Cipher) Seal(plaintext []byte) (Envelope, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return Envelope{}, fmt.Errorf("generate iv: %w", err)
	}
	sealed := c.aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - TagSize
	return NewEnvelope(iv, sealed[split:], sealed[:split])
}

func (c *Cipher) Open(env Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)
	plaintext, err := c.aead.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// EncryptString seals value and returns the serialized envelope.
func (c *Cipher) EncryptString(value string) (string, error) {
	env, err := c.Seal([]byte(value))
	if err != nil {
		return "", err
	}
	return env.String(), nil
}

// DecryptString parses and opens a serialized envelope.
func (c *Cipher) DecryptString(raw string) (string, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return "", err
	}
	plaintext, err := c.Open(env)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func fingerprint(key []byte) (string, error) {
	out := make([]byte, 8)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, keyIDInfo), out); err != nil {
		return "", fmt.Errorf("derive key id: %w", err)
	}
	return hex.EncodeToString(out), nil
}
