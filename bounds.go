package harrislist

import (
	"cmp"
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedBounds is returned when a key type has no finite minimum and
// maximum that can serve as sentinel keys.
var ErrUnsupportedBounds = errors.New("key type has no sentinel bounds")

// Less reports whether a sorts before b. It must be a strict weak order;
// a and b name the same entry when neither sorts before the other, even if
// a != b.
type Less[K comparable] func(a, b K) bool

// Bounds supplies the two reserved sentinel keys of a list. Every real key
// must sort strictly between them.
type Bounds[K any] interface {
	MinBound() K
	MaxBound() K
}

// Range is a Bounds with explicit sentinel keys.
type Range[K any] struct {
	Min K
	Max K
}

func (r Range[K]) MinBound() K { return r.Min }
func (r Range[K]) MaxBound() K { return r.Max }

// OrderedBounds returns the type's extreme values as sentinels for the
// builtin numeric types. Floats use the infinities. Strings and named types
// have no usable maximum and yield ErrUnsupportedBounds.
func OrderedBounds[K cmp.Ordered]() (Bounds[K], error) {
	var zero K
	var lo, hi any
	switch any(zero).(type) {
	case int:
		lo, hi = int(math.MinInt), int(math.MaxInt)
	case int8:
		lo, hi = int8(math.MinInt8), int8(math.MaxInt8)
	case int16:
		lo, hi = int16(math.MinInt16), int16(math.MaxInt16)
	case int32:
		lo, hi = int32(math.MinInt32), int32(math.MaxInt32)
	case int64:
		lo, hi = int64(math.MinInt64), int64(math.MaxInt64)
	case uint:
		lo, hi = uint(0), uint(math.MaxUint)
	case uint8:
		lo, hi = uint8(0), uint8(math.MaxUint8)
	case uint16:
		lo, hi = uint16(0), uint16(math.MaxUint16)
	case uint32:
		lo, hi = uint32(0), uint32(math.MaxUint32)
	case uint64:
		lo, hi = uint64(0), uint64(math.MaxUint64)
	case uintptr:
		lo, hi = uintptr(0), ^uintptr(0)
	case float32:
		lo, hi = float32(math.Inf(-1)), float32(math.Inf(1))
	case float64:
		lo, hi = math.Inf(-1), math.Inf(1)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBounds, zero)
	}
	return Range[K]{Min: lo.(K), Max: hi.(K)}, nil
}
