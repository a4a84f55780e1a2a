package pool

import "sync"

// Typed slice pools used by fieldstore to reuse per-block staging deques
// across flushes, avoiding a fresh allocation per block for each of the
// three field value types (U64, I64, F64).
var (
	uint64SlicePool = sync.Pool{
		New: func() any { return &[]uint64{} },
	}
	int64SlicePool = sync.Pool{
		New: func() any { return &[]int64{} },
	}
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
)

// GetUint64Slice retrieves a zero-length uint64 slice from the pool with at
// least the given capacity. The caller must call the returned cleanup
// function (typically via defer) to return the slice to the pool.
func GetUint64Slice(capacity int) ([]uint64, func()) {
	ptr, _ := uint64SlicePool.Get().(*[]uint64)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]uint64, 0, capacity)
	}
	*ptr = slice

	return slice, func() { uint64SlicePool.Put(ptr) }
}

// GetInt64Slice retrieves a zero-length int64 slice from the pool with at
// least the given capacity. The caller must call the returned cleanup
// function (typically via defer) to return the slice to the pool.
func GetInt64Slice(capacity int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]int64, 0, capacity)
	}
	*ptr = slice

	return slice, func() { int64SlicePool.Put(ptr) }
}

// GetFloat64Slice retrieves a zero-length float64 slice from the pool with
// at least the given capacity. The caller must call the returned cleanup
// function (typically via defer) to return the slice to the pool.
func GetFloat64Slice(capacity int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]float64, 0, capacity)
	}
	*ptr = slice

	return slice, func() { float64SlicePool.Put(ptr) }
}
