package safemath

import (
	"errors"
	"math/bits"
)

var (
	ErrOverflow  = errors.New("number overflow")
	ErrUnderflow = errors.New("number underflow")
)

func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func Sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}

// CheckedAdd64 is Add64 reporting overflow as ErrOverflow.
func CheckedAdd64(a, b uint64) (uint64, error) {
	v, ok := Add64(a, b)
	if !ok {
		return 0, ErrOverflow
	}
	return v, nil
}

// CheckedSub64 is Sub64 reporting a negative result as ErrUnderflow.
func CheckedSub64(a, b uint64) (uint64, error) {
	v, ok := Sub64(a, b)
	if !ok {
		return 0, ErrUnderflow
	}
	return v, nil
}

// Sqrt64 returns floor(sqrt(x)).
func Sqrt64(x uint64) uint64 {
	if x < 2 {
		return x
	}
	// start from a power of two no smaller than the root and descend
	r := uint64(1) << ((bits.Len64(x) + 1) / 2)
	for {
		next := (r + x/r) / 2
		if next >= r {
			return r
		}
		r = next
	}
}
