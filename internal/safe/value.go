package safe

import (
	"math"
)

// Uint64ToInt64 safely converts an uint64 value to int64, clamping to math.MaxInt64 if overflow
// would occur.
// Returns the converted value and a boolean indicating whether clamping occurred.
func Uint64ToInt64(val uint64) (int64, bool) {
	if val > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(val), false
}

// UintptrOffset returns addr-base as a signed offset. Addresses below base
// yield a negative offset. The result is clamped to the int64 range.
func UintptrOffset(addr, base uintptr) (int64, bool) {
	if addr >= base {
		return Uint64ToInt64(uint64(addr - base))
	}
	neg, clamped := Uint64ToInt64(uint64(base - addr))
	return -neg, clamped
}
