package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
)

// Identity is a participant's ed25519 public key. Whoever holds the matching
// private key has signing authority for it; signature checks happen before a
// transition reaches the ledger.
type Identity [Ed25519PublicSize]byte

func IdentityFromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	if len(pub) != Ed25519PublicSize {
		return Identity{}, fmt.Errorf("public key: want %d bytes, got %d", Ed25519PublicSize, len(pub))
	}
	return Identity(pub), nil
}

func (id Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(id[:])
}

func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

func ParseIdentity(s string) (Identity, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return IdentityFromPublicKey(b)
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
