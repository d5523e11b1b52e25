package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

type Hash [HashSize]byte

// HashData returns the blake2b-256 digest of data.
func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

// HashConcat hashes the concatenation of parts without building an
// intermediate buffer.
func HashConcat(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a 32-byte hex string, with or without a 0x prefix.
func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("decode hash: want %d bytes, got %d", HashSize, len(b))
	}
	return Hash(b), nil
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
