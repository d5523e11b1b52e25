package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashConcatMatchesHashData(t *testing.T) {
	a, b := []byte("link"), []byte("nonce")
	joined := append(append([]byte{}, a...), b...)

	assert.Equal(t, HashData(joined), HashConcat(a, b))
	assert.NotEqual(t, HashData(a), HashConcat(a, b))
}

func TestParseHash(t *testing.T) {
	h := HashData([]byte("x"))

	parsed, err := ParseHash("0x" + h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ParseHash("abcd")
	assert.Error(t, err)
	_, err = ParseHash("zz")
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	id, err := IdentityFromPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, pub, id.PublicKey())
	assert.False(t, id.IsZero())

	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = IdentityFromPublicKey(pub[:10])
	assert.Error(t, err)
}

func TestMarshalText(t *testing.T) {
	h := HashData([]byte("x"))
	b, err := h.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, h.String(), string(b))

	b, err = Identity{0xab}.MarshalText()
	require.NoError(t, err)
	assert.Len(t, b, 64)
	assert.Equal(t, "ab00", string(b[:4]))
}
