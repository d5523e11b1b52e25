package testutils

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/store"
	"github.com/eigerco/curator/pkg/db/pebble"
)

func RandomHash(t *testing.T) crypto.Hash {
	var hash crypto.Hash
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}

// RandomIdentity returns the identity of a freshly generated ed25519 key.
func RandomIdentity(t *testing.T) crypto.Identity {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	id, err := crypto.IdentityFromPublicKey(pub)
	require.NoError(t, err)
	return id
}

func RandomNonce(t *testing.T, size int) []byte {
	nonce := make([]byte, size)
	_, err := rand.Read(nonce)
	require.NoError(t, err)
	return nonce
}

// NewStore returns a store over an in-memory pebble database, closed when
// the test ends.
func NewStore(t *testing.T) *store.Store {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	s := store.New(kv)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
