package security_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/marginly/marginly-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelopeRoundTrip(t *testing.T) {
	iv := bytes.Repeat([]byte{0x01}, security.IVSize)
	tag := bytes.Repeat([]byte{0x02}, security.TagSize)
	env, err := security.NewEnvelope(iv, tag, []byte("cipher"))
	require.NoError(t, err)

	parsed, err := security.ParseEnvelope(env.String())
	require.NoError(t, err)
	assert.Equal(t, env, parsed)
}

func TestParseEnvelopeRejectsMalformedInput(t *testing.T) {
	iv := strings.Repeat("01", security.IVSize)
	tag := strings.Repeat("02", security.TagSize)

	cases := map[string]string{
		"plaintext":    "shpat_plaintext_token",
		"two parts":    iv + ":" + tag,
		"four parts":   iv + ":" + tag + ":aa:bb",
		"non hex":      iv + ":" + tag + ":zz",
		"short iv":     "0102:" + tag + ":aa",
		"short tag":    iv + ":0102:aa",
		"empty string": "",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := security.ParseEnvelope(raw)
			assert.True(t, errors.Is(err, security.ErrMalformedEnvelope), "got %v", err)
			assert.False(t, security.IsEnvelope(raw))
		})
	}
}

func TestParseEnvelopeAllowsEmptyCiphertext(t *testing.T) {
	raw := strings.Repeat("01", security.IVSize) + ":" + strings.Repeat("02", security.TagSize) + ":"
	env, err := security.ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Empty(t, env.Ciphertext)
}
