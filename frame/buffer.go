// Package frame implements the on-wire envelope used by every XCDF frame:
// a growable byte buffer with a read cursor and Adler-32 checksum
// (FrameBuffer), and the typed {type, size, checksum[, inner_type]} header
// that wraps a payload, with optional DEFLATE compression (Frame).
package frame

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/internal/pool"
)

// minChunkSize is the minimum write granularity used when streaming data
// into the DEFLATE writer, per spec.md §4.1 ("Chunk size ≥ 16 KiB").
const minChunkSize = 16 * 1024

// FrameBuffer owns a growable byte sequence plus a sequential read cursor.
// It is the storage underneath a Frame's payload: Frame.Write/Read append
// to and consume from a FrameBuffer, and Deflate/Inflate replace its
// contents in place.
type FrameBuffer struct {
	buf     *pool.ByteBuffer
	readPos int
}

// NewFrameBuffer returns an empty FrameBuffer backed by the frame buffer
// pool.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{buf: pool.GetFrameBuffer()}
}

// NewFrameBufferFromBytes returns a FrameBuffer whose contents are a copy of
// data, read cursor at zero.
func NewFrameBufferFromBytes(data []byte) *FrameBuffer {
	fb := NewFrameBuffer()
	fb.Append(data)
	return fb
}

// Release returns the FrameBuffer's backing storage to the pool. The
// FrameBuffer must not be used afterward.
func (fb *FrameBuffer) Release() {
	fb.buf.ShrinkIfOversized()
	pool.PutFrameBuffer(fb.buf)
	fb.buf = nil
}

// Append writes bytes to the end of the buffer. Amortized O(1) per byte.
func (fb *FrameBuffer) Append(data []byte) {
	fb.buf.MustWrite(data)
}

// Len returns the total number of bytes currently held.
func (fb *FrameBuffer) Len() int {
	return fb.buf.Len()
}

// Remaining returns the number of unread bytes left after the read cursor.
func (fb *FrameBuffer) Remaining() int {
	return fb.buf.Len() - fb.readPos
}

// Bytes returns the entire buffer contents, ignoring the read cursor.
func (fb *FrameBuffer) Bytes() []byte {
	return fb.buf.Bytes()
}

// Read consumes and returns the next n bytes, advancing the cursor.
// Returns errs.ErrUnderflow if fewer than n bytes remain.
func (fb *FrameBuffer) Read(n int) ([]byte, error) {
	if fb.Remaining() < n {
		return nil, errs.ErrUnderflow
	}

	out := fb.buf.Bytes()[fb.readPos : fb.readPos+n]
	fb.readPos += n

	return out, nil
}

// ResetRead rewinds the read cursor to the start of the buffer.
func (fb *FrameBuffer) ResetRead() {
	fb.readPos = 0
}

// Checksum computes the Adler-32 checksum over the entire buffer contents
// exactly as written, per spec.md §4.1 and the invariant in §3 that a
// frame's checksum equals Adler-32 over the payload bytes exactly as
// written to the sink.
func (fb *FrameBuffer) Checksum() uint32 {
	return adler32Checksum(fb.buf.Bytes())
}

// Deflate replaces the buffer's contents with their raw DEFLATE-compressed
// form and resets the read cursor. Returns errs.ErrCorruptFrame wrapping
// the underlying codec error on failure.
func (fb *FrameBuffer) Deflate() error {
	var out bytes.Buffer
	w, err := flate.NewWriter(&out, flate.DefaultCompression)
	if err != nil {
		return errs.ErrCorruptFrame
	}

	src := fb.buf.Bytes()
	for off := 0; off < len(src); off += minChunkSize {
		end := off + minChunkSize
		if end > len(src) {
			end = len(src)
		}
		if _, err := w.Write(src[off:end]); err != nil {
			return errs.ErrCorruptFrame
		}
	}

	if err := w.Close(); err != nil {
		return errs.ErrCorruptFrame
	}

	fb.buf.Reset()
	fb.buf.MustWrite(out.Bytes())
	fb.readPos = 0

	return nil
}

// Inflate replaces the buffer's contents with their DEFLATE-decompressed
// form and resets the read cursor. Returns errs.ErrCorruptFrame wrapping
// the underlying codec error on failure.
func (fb *FrameBuffer) Inflate() error {
	r := flate.NewReader(bytes.NewReader(fb.buf.Bytes()))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return errs.ErrCorruptFrame
	}

	fb.buf.Reset()
	fb.buf.MustWrite(out)
	fb.readPos = 0

	return nil
}
