// Package address derives stable record keys from a namespace and seed values.
package address

import (
	"encoding/binary"
	"fmt"

	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/pkg/codec"
)

// Namespace separates record kinds. Its byte value also prefixes the storage
// key so each kind occupies a contiguous key range.
type Namespace byte

const (
	Registry Namespace = iota + 1
	Topic
	Profile
	Balance
	Submission
	Link
	Vote
	Escrow
	TokenClass
	TokenAccount
	TokenSupply
)

func (ns Namespace) String() string {
	switch ns {
	case Registry:
		return "registry"
	case Topic:
		return "topic"
	case Profile:
		return "profile"
	case Balance:
		return "balance"
	case Submission:
		return "submission"
	case Link:
		return "link"
	case Vote:
		return "vote"
	case Escrow:
		return "escrow"
	case TokenClass:
		return "token-class"
	case TokenAccount:
		return "token-account"
	case TokenSupply:
		return "token-supply"
	default:
		return fmt.Sprintf("namespace(%d)", byte(ns))
	}
}

// Key is a derived record address.
type Key = crypto.Hash

// Derive returns H(namespace ‖ len(seed₀) ‖ seed₀ ‖ …). Seeds are length
// prefixed so no two seed lists share an address.
func Derive(ns Namespace, seeds ...[]byte) Key {
	parts := make([][]byte, 0, 1+2*len(seeds))
	parts = append(parts, []byte(ns.String()))
	for _, s := range seeds {
		parts = append(parts, codec.AppendCompact(nil, uint64(len(s))), s)
	}
	return crypto.HashConcat(parts...)
}

// StorageKey is the KV key a record with address k in namespace ns lives under.
func StorageKey(ns Namespace, k Key) []byte {
	key := make([]byte, 1+len(k))
	key[0] = byte(ns)
	copy(key[1:], k[:])
	return key
}

// Range returns the [start, end) bounds covering every key in ns.
func Range(ns Namespace) (start, end []byte) {
	return []byte{byte(ns)}, []byte{byte(ns) + 1}
}

// Uint64 encodes n as an 8-byte little-endian seed.
func Uint64(n uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, n)
}
