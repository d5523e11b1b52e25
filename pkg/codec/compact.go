package codec

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// AppendCompact appends the variable-length (1-9 bytes) encoding of x. The
// number of leading one bits in the prefix byte gives the count of trailing
// little-endian bytes; the remaining prefix bits carry the most significant part.
func AppendCompact(dst []byte, x uint64) []byte {
	var l uint8
	for l = 0; l < 8; l++ {
		if x < (1 << (7 * (uint64(l) + 1))) {
			break
		}
	}
	if l == 8 {
		dst = append(dst, math.MaxUint8)
		return binary.LittleEndian.AppendUint64(dst, x)
	}

	prefix := uint8(uint64(256) - uint64(1)<<(8-l) + x>>(8*l))
	dst = append(dst, prefix)
	for i := uint8(0); i < l; i++ {
		dst = append(dst, byte(x>>(8*i)))
	}
	return dst
}

// ReadCompact decodes a compact natural from the front of b and reports how
// many bytes it consumed.
func ReadCompact(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrUnexpectedEOF
	}
	prefix := b[0]
	l := bits.LeadingZeros8(^prefix)
	if l == 8 {
		if len(b) < 9 {
			return 0, 0, ErrUnexpectedEOF
		}
		x := binary.LittleEndian.Uint64(b[1:9])
		if x < 1<<56 {
			return 0, 0, ErrCompactNonCanon
		}
		return x, 9, nil
	}
	if len(b) < 1+l {
		return 0, 0, ErrUnexpectedEOF
	}

	var x uint64
	for i := 0; i < l; i++ {
		x |= uint64(b[1+i]) << (8 * i)
	}
	x |= uint64(prefix&(math.MaxUint8>>(l+1))) << (8 * l)

	if l > 0 && x < 1<<(7*l) {
		return 0, 0, ErrCompactNonCanon
	}
	return x, 1 + l, nil
}
