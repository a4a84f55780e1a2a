// Package fieldstore holds one field's in-memory data for the record
// currently being written or read: a scalar slot, a 1-D vector, or a
// recursive N-D vector, per spec.md §3 FieldStore[T] and §4.4.
//
// Per Design Note (b), storage is parametrized over exactly the three
// wire types XCDF knows — uint64, int64, float64 — and no further; there
// is no attempt to generalize FieldStore to arbitrary T.
package fieldstore

import (
	"iter"
	"math"

	"github.com/xcdf-go/xcdf/errs"
)

// Numeric is the closed set of concrete types a FieldStore may hold.
type Numeric interface {
	~uint64 | ~int64 | ~float64
}

// Kind distinguishes a scalar field from a vector field. FieldStore
// itself does not distinguish a 1-D vector from a recursive vector — that
// distinction lives in the schema's parent graph, not in storage shape.
type Kind uint8

const (
	Scalar Kind = iota
	Vector
)

// FieldStore is one field's staging area for the record in progress.
// A Scalar store holds at most one value with a present bit; a Vector
// store holds an ordered sequence of zero or more values.
type FieldStore[T Numeric] struct {
	kind    Kind
	scalar  T
	present bool
	values  []T
}

// New returns an empty FieldStore of the given kind.
func New[T Numeric](kind Kind) *FieldStore[T] {
	return &FieldStore[T]{kind: kind}
}

// Kind reports whether the store is Scalar or Vector.
func (fs *FieldStore[T]) Kind() Kind { return fs.kind }

// Add appends value to the store. For a Scalar store this overwrites the
// current value and sets the present bit; for a Vector store it appends
// to the sequence.
func (fs *FieldStore[T]) Add(value T) {
	if fs.kind == Scalar {
		fs.scalar = value
		fs.present = true
		return
	}

	fs.values = append(fs.values, value)
}

// Size returns the number of values currently staged: 0 or 1 for a
// Scalar store, len(values) for a Vector store.
func (fs *FieldStore[T]) Size() int {
	if fs.kind == Scalar {
		if fs.present {
			return 1
		}
		return 0
	}

	return len(fs.values)
}

// At returns the i-th staged value. For a Scalar store only i=0 is valid.
// Returns errs.ErrUnderflow if i is out of range.
func (fs *FieldStore[T]) At(i int) (T, error) {
	if fs.kind == Scalar {
		if i != 0 || !fs.present {
			var zero T
			return zero, errs.ErrUnderflow
		}
		return fs.scalar, nil
	}

	if i < 0 || i >= len(fs.values) {
		var zero T
		return zero, errs.ErrUnderflow
	}

	return fs.values[i], nil
}

// Current returns the scalar store's current value and its present bit.
// It is the "parent.current_value" accessor the vector-length invariant
// (spec.md §3) refers to; calling it on a Vector store returns the zero
// value and false.
func (fs *FieldStore[T]) Current() (T, bool) {
	if fs.kind != Scalar {
		var zero T
		return zero, false
	}

	return fs.scalar, fs.present
}

// Iter yields the store's values in order.
func (fs *FieldStore[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		if fs.kind == Scalar {
			if fs.present && !yield(fs.scalar) {
				return
			}
			return
		}

		for _, v := range fs.values {
			if !yield(v) {
				return
			}
		}
	}
}

// Clear empties the store, ready for the next record. Capacity of the
// underlying vector slice is retained.
func (fs *FieldStore[T]) Clear() {
	fs.present = false
	fs.values = fs.values[:0]
}

// Shrink releases the vector slice's backing array. Use after a block
// flush when the store will sit idle for a while.
func (fs *FieldStore[T]) Shrink() {
	fs.values = nil
}

// Reset clears the store and also zeroes the scalar slot, leaving it
// indistinguishable from a freshly constructed store.
func (fs *FieldStore[T]) Reset() {
	var zero T
	fs.scalar = zero
	fs.present = false
	fs.values = fs.values[:0]
}

// RawBits returns the store's currently staged values as raw 64-bit
// patterns (identity for uint64, reinterpreted for int64/float64), in the
// order block.Codec.CommitRecord expects for one record's worth of one
// field. A Scalar store with no present value yields an empty slice.
func (fs *FieldStore[T]) RawBits() []uint64 {
	if fs.kind == Scalar {
		if !fs.present {
			return nil
		}
		return []uint64{rawBitsOf(fs.scalar)}
	}

	out := make([]uint64, len(fs.values))
	for i, v := range fs.values {
		out[i] = rawBitsOf(v)
	}

	return out
}

// LoadRawBits replaces the store's contents with vals, reinterpreted from
// raw 64-bit patterns back into T. Used on the read path to repopulate a
// FieldStore from block.Codec.RecordValues.
func (fs *FieldStore[T]) LoadRawBits(vals []uint64) {
	if fs.kind == Scalar {
		fs.present = len(vals) > 0
		if fs.present {
			fs.scalar = valueFromRawBits[T](vals[0])
		}
		return
	}

	fs.values = fs.values[:0]
	for _, v := range vals {
		fs.values = append(fs.values, valueFromRawBits[T](v))
	}
}

func rawBitsOf[T Numeric](v T) uint64 {
	switch x := any(v).(type) {
	case uint64:
		return x
	case int64:
		return uint64(x)
	case float64:
		return math.Float64bits(x)
	default:
		return 0
	}
}

func valueFromRawBits[T Numeric](bits uint64) T {
	var zero T
	switch any(zero).(type) {
	case uint64:
		return any(bits).(T)
	case int64:
		return any(int64(bits)).(T)
	case float64:
		return any(math.Float64frombits(bits)).(T)
	default:
		return zero
	}
}
