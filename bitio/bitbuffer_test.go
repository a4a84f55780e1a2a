package bitio

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitBuffer_AddGetRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []uint64
		widths []int
	}{
		{"single nibble pair", []uint64{0x0A, 0x0B}, []int{4, 4}},
		{"zero width values", []uint64{0, 5, 0}, []int{0, 3, 0}},
		{"full 64-bit", []uint64{0xFFFFFFFFFFFFFFFF}, []int{64}},
		{"mixed widths", []uint64{1, 3, 7, 15, 31, 63, 127}, []int{1, 2, 3, 4, 5, 6, 7}},
		{"crosses byte boundary", []uint64{0x1F, 0x3}, []int{5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBitBuffer()
			for i, v := range tt.values {
				buf.Add(v, tt.widths[i])
			}

			reader := NewBitBufferFromBytes(buf.Bytes())
			for i, want := range tt.values {
				got, err := reader.Get(tt.widths[i])
				require.NoError(t, err)
				assert.Equal(t, want, got, "value %d", i)
			}
		})
	}
}

func TestBitBuffer_LiteralByteLayout(t *testing.T) {
	buf := NewBitBuffer()
	buf.Add(0x0A, 4)
	buf.Add(0x0B, 4)
	require.Equal(t, []byte{0xBA}, buf.Bytes())
}

func TestBitBuffer_CursorAdvancesBySumOfWidths(t *testing.T) {
	buf := NewBitBuffer()
	widths := []int{1, 5, 12, 0, 33, 64}
	var total uint64
	for _, w := range widths {
		buf.Add(0, w)
		total += uint64(w)
	}
	assert.Equal(t, total, buf.BitLen())
}

func TestBitBuffer_GetUnderflow(t *testing.T) {
	buf := NewBitBuffer()
	buf.Add(1, 3)

	reader := NewBitBufferFromBytes(buf.Bytes())
	_, err := reader.Get(3)
	require.NoError(t, err)

	_, err = reader.Get(1)
	require.Error(t, err)
}

func TestBitBuffer_Skip(t *testing.T) {
	buf := NewBitBuffer()
	buf.Add(0x1, 4)
	buf.Add(0x2, 4)
	buf.Add(0x3, 4)

	reader := NewBitBufferFromBytes(buf.Bytes())
	require.NoError(t, reader.Skip(4))
	v, err := reader.Get(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2), v)

	require.Error(t, reader.Skip(100))
}

func TestBitBuffer_Clear(t *testing.T) {
	buf := NewBitBuffer()
	buf.Add(0xFF, 8)
	buf.Clear()
	assert.Equal(t, uint64(0), buf.BitLen())
	assert.Equal(t, 0, buf.ByteLen())

	buf.Add(0x1, 1)
	assert.Equal(t, []byte{0x1}, buf.Bytes())
}

func TestBitBuffer_Shrink(t *testing.T) {
	buf := NewBitBuffer()
	buf.Reserve(4096)
	buf.Add(0x1, 8)
	require.Greater(t, cap(buf.buf), buf.ByteLen())

	buf.Shrink()
	assert.Equal(t, buf.ByteLen(), cap(buf.buf))
}

func TestBitBuffer_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 2000

	widths := make([]int, n)
	values := make([]uint64, n)
	buf := NewBitBuffer()
	for i := 0; i < n; i++ {
		w := rng.Intn(65)
		widths[i] = w
		var v uint64
		if w > 0 {
			if w == 64 {
				v = rng.Uint64()
			} else {
				v = rng.Uint64() & ((uint64(1) << uint(w)) - 1)
			}
		}
		values[i] = v
		buf.Add(v, w)
	}

	reader := NewBitBufferFromBytes(buf.Bytes())
	for i := 0; i < n; i++ {
		got, err := reader.Get(widths[i])
		require.NoError(t, err)
		assert.Equal(t, values[i], got, "index %d width %d", i, widths[i])
	}
}
