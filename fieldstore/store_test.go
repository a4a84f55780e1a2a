package fieldstore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldStore_Scalar(t *testing.T) {
	fs := New[uint64](Scalar)
	assert.Equal(t, 0, fs.Size())

	fs.Add(42)
	assert.Equal(t, 1, fs.Size())

	v, err := fs.At(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	cur, ok := fs.Current()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), cur)

	// Overwrite.
	fs.Add(7)
	assert.Equal(t, 1, fs.Size())
	v, _ = fs.At(0)
	assert.Equal(t, uint64(7), v)

	_, err = fs.At(1)
	require.Error(t, err)
}

func TestFieldStore_Vector(t *testing.T) {
	fs := New[int64](Vector)

	fs.Add(-2)
	fs.Add(0)
	fs.Add(2)
	assert.Equal(t, 3, fs.Size())

	var collected []int64
	for v := range fs.Iter() {
		collected = append(collected, v)
	}
	assert.Equal(t, []int64{-2, 0, 2}, collected)

	v, err := fs.At(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, ok := fs.Current()
	assert.False(t, ok)
}

func TestFieldStore_Clear(t *testing.T) {
	fs := New[float64](Vector)
	fs.Add(1.5)
	fs.Add(2.5)
	fs.Clear()

	assert.Equal(t, 0, fs.Size())
	fs.Add(3.5)
	assert.Equal(t, 1, fs.Size())
}

func TestFieldStore_Reset(t *testing.T) {
	fs := New[uint64](Scalar)
	fs.Add(99)
	fs.Reset()

	assert.Equal(t, 0, fs.Size())
	_, ok := fs.Current()
	assert.False(t, ok)
}

func TestFieldStore_EmptyVectorIterYieldsNothing(t *testing.T) {
	fs := New[float64](Vector)

	count := 0
	for range fs.Iter() {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestFieldStore_RawBitsRoundTrip(t *testing.T) {
	t.Run("scalar u64", func(t *testing.T) {
		fs := New[uint64](Scalar)
		assert.Nil(t, fs.RawBits())
		fs.Add(7)
		assert.Equal(t, []uint64{7}, fs.RawBits())

		out := New[uint64](Scalar)
		out.LoadRawBits(fs.RawBits())
		v, ok := out.Current()
		assert.True(t, ok)
		assert.Equal(t, uint64(7), v)
	})

	t.Run("vector i64 negative values", func(t *testing.T) {
		fs := New[int64](Vector)
		fs.Add(-2)
		fs.Add(0)
		fs.Add(2)

		raw := fs.RawBits()
		out := New[int64](Vector)
		out.LoadRawBits(raw)

		var collected []int64
		for v := range out.Iter() {
			collected = append(collected, v)
		}
		assert.Equal(t, []int64{-2, 0, 2}, collected)
	})

	t.Run("vector f64 including NaN", func(t *testing.T) {
		fs := New[float64](Vector)
		fs.Add(1.5)
		fs.Add(math.NaN())

		out := New[float64](Vector)
		out.LoadRawBits(fs.RawBits())

		v0, _ := out.At(0)
		v1, _ := out.At(1)
		assert.Equal(t, 1.5, v0)
		assert.True(t, math.IsNaN(v1))
	})

	t.Run("empty scalar loads as absent", func(t *testing.T) {
		out := New[uint64](Scalar)
		out.LoadRawBits(nil)
		_, ok := out.Current()
		assert.False(t, ok)
	})
}
