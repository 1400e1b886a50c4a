package security

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// IVSize is the per-record nonce length. Existing rows were written with
	// 16-byte IVs so GCM runs with a non-standard nonce size.
	IVSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	envelopeSeparator = ":"
)

var (
	ErrMalformedEnvelope = errors.New("security: malformed envelope")
	ErrDecrypt           = errors.New("security: decryption failed")
	ErrInvalidKey        = errors.New("security: invalid encryption key")
)

// Envelope is one AES-256-GCM sealed value. The serialized form is
// hex(iv):hex(tag):hex(ciphertext).
type Envelope struct {
	IV         []byte
	Tag        []byte
	Ciphertext []byte
}

// NewEnvelope validates the parts and returns an Envelope holding them.
func NewEnvelope(iv, tag, ciphertext []byte) (Envelope, error) {
	env := Envelope{IV: iv, Tag: tag, Ciphertext: ciphertext}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// ParseEnvelope decodes the serialized form.
func ParseEnvelope(raw string) (Envelope, error) {
	parts := strings.Split(strings.TrimSpace(raw), envelopeSeparator)
	if len(parts) != 3 {
		return Envelope{}, fmt.Errorf("%w: expected 3 parts, got %d", ErrMalformedEnvelope, len(parts))
	}

	decoded := make([][]byte, len(parts))
	for i, part := range parts {
		b, err := hex.DecodeString(part)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: part %d is not hex", ErrMalformedEnvelope, i)
		}
		decoded[i] = b
	}

	return NewEnvelope(decoded[0], decoded[1], decoded[2])
}

// IsEnvelope reports whether raw looks like a serialized envelope. Legacy rows
// hold plaintext tokens which never parse.
func IsEnvelope(raw string) bool {
	_, err := ParseEnvelope(raw)
	return err == nil
}

func (e Envelope) Validate() error {
	if len(e.IV) != IVSize {
		return fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedEnvelope, IVSize, len(e.IV))
	}
	if len(e.Tag) != TagSize {
		return fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedEnvelope, TagSize, len(e.Tag))
	}
	return nil
}

func (e Envelope) String() string {
	return strings.Join([]string{
		hex.EncodeToString(e.IV),
		hex.EncodeToString(e.Tag),
		hex.EncodeToString(e.Ciphertext),
	}, envelopeSeparator)
}
