package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBuffer_AppendReadRoundTrip(t *testing.T) {
	fb := NewFrameBuffer()
	defer fb.Release()

	fb.Append([]byte("hello"))
	fb.Append([]byte(" world"))

	got, err := fb.Read(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = fb.Read(6)
	require.NoError(t, err)
	assert.Equal(t, []byte(" world"), got)

	_, err = fb.Read(1)
	require.Error(t, err)
}

func TestFrameBuffer_Checksum(t *testing.T) {
	fb := NewFrameBufferFromBytes([]byte("abcd"))
	defer fb.Release()

	assert.Equal(t, adler32Checksum([]byte("abcd")), fb.Checksum())
}

func TestFrameBuffer_DeflateInflateRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 500)

	fb := NewFrameBufferFromBytes(original)
	defer fb.Release()

	require.NoError(t, fb.Deflate())
	assert.Less(t, fb.Len(), len(original))

	require.NoError(t, fb.Inflate())
	assert.Equal(t, original, fb.Bytes())
}

func TestFrame_WriteReadRoundTrip_Uncompressed(t *testing.T) {
	f := NewFrame(TypeBlockHeader)
	f.PutU32(42)
	f.PutString("hello")
	f.PutU64(0xDEADBEEFCAFEBABE)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, false))

	read, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, TypeBlockHeader, read.Type)

	v32, err := read.GetU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v32)

	s, err := read.GetString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	v64, err := read.GetU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEFCAFEBABE), v64)
}

func TestFrame_WriteReadRoundTrip_Deflated(t *testing.T) {
	f := NewFrame(TypeBlockData)
	for i := 0; i < 1000; i++ {
		f.PutU64(uint64(i))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, true))

	read, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, TypeBlockData, read.Type)

	for i := 0; i < 1000; i++ {
		v, err := read.GetU64()
		require.NoError(t, err)
		assert.Equal(t, uint64(i), v)
	}
}

func TestFrame_ChecksumMismatchDetected(t *testing.T) {
	f := NewFrame(TypeFileHeader)
	f.PutU32(1)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, false))

	raw := buf.Bytes()
	// Flip a bit inside the payload (after the 12-byte header).
	raw[headerSize] ^= 0xFF

	_, err := ReadFrame(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestFrame_UnknownTypeIsCorrupt(t *testing.T) {
	f := NewFrame(Type(0x11111111))
	f.PutChar('x')

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, false))

	_, err := ReadFrame(bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
}

func TestFrame_TruncatedPayloadIsCorrupt(t *testing.T) {
	f := NewFrame(TypeFileTrailer)
	f.PutU64(1)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, false))

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err := ReadFrame(bytes.NewReader(truncated))
	require.Error(t, err)
}
