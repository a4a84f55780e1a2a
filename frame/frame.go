package frame

import (
	"io"

	"github.com/xcdf-go/xcdf/endian"
	"github.com/xcdf-go/xcdf/errs"
)

// wireEndian is the fixed byte order of every frame header and primitive
// accessor below; XCDF's wire format is little-endian regardless of host
// byte order, so this is never CheckEndianness()-dependent.
var wireEndian = endian.GetLittleEndianEngine()

// Type identifies the kind of frame on the wire, per spec.md §4.2.
type Type uint32

// Valid frame types. Any other value after deflate-unwrapping is
// errs.ErrCorruptFrame.
const (
	TypeFileHeader  Type = 0x436FC8A4
	TypeBlockHeader Type = 0x160E17E4
	TypeBlockData   Type = 0x37DF239D
	TypeFileTrailer Type = 0xBD340AF6

	// typeDeflated is the outer type marker used when a frame's payload is
	// DEFLATE-compressed; the real type follows as inner_type.
	typeDeflated Type = 0xD5F5B1FA
)

// headerSize is the fixed size, in bytes, of a frame's on-wire header
// before the payload: u32 type | u32 size | u32 checksum.
const headerSize = 12

// Frame is the sole on-wire unit: a typed, checksummed, optionally
// DEFLATE-wrapped payload.
//
// Uncompressed wire layout: u32 type | u32 size | u32 adler32 | size bytes payload.
// Compressed wire layout:   u32 typeDeflated | u32 deflated_size | u32 adler32 |
//
//	u32 inner_type | deflated_size bytes deflated_payload.
type Frame struct {
	Type    Type
	Payload *FrameBuffer
}

// NewFrame creates a Frame of the given type wrapping an empty payload
// buffer ready for Put* calls.
func NewFrame(t Type) *Frame {
	return &Frame{Type: t, Payload: NewFrameBuffer()}
}

// Source is the minimal read-side capability the Frame codec needs from an
// I/O sink: sequential byte reads plus a one-byte-lookahead peek used to
// detect concatenation or EOF without consuming data.
type Source interface {
	io.Reader
	// Peek reports whether at least one more byte is available without
	// consuming it.
	Peek() (bool, error)
}

// Sink is the minimal write-side capability the Frame codec needs from an
// I/O sink.
type Sink interface {
	io.Writer
}

// Write serializes the frame's header and payload to sink. If deflate is
// true, the payload is DEFLATE-compressed and wrapped with the
// typeDeflated outer marker and inner_type field.
func (f *Frame) Write(sink Sink, deflate bool) error {
	payloadBytes := f.Payload.Bytes()
	checksum := adler32Checksum(payloadBytes)

	if !deflate {
		return writeHeaderAndPayload(sink, uint32(f.Type), uint32(len(payloadBytes)), checksum, payloadBytes)
	}

	compressed := NewFrameBufferFromBytes(payloadBytes)
	defer compressed.Release()
	if err := compressed.Deflate(); err != nil {
		return err
	}

	var hdr [16]byte
	wireEndian.PutUint32(hdr[0:4], uint32(typeDeflated))
	wireEndian.PutUint32(hdr[4:8], uint32(compressed.Len()))
	wireEndian.PutUint32(hdr[8:12], checksum)
	wireEndian.PutUint32(hdr[12:16], uint32(f.Type))

	if _, err := sink.Write(hdr[:]); err != nil {
		return errs.ErrIOError
	}
	if _, err := sink.Write(compressed.Bytes()); err != nil {
		return errs.ErrIOError
	}

	return nil
}

func writeHeaderAndPayload(sink Sink, typ, size, checksum uint32, payload []byte) error {
	var hdr [headerSize]byte
	wireEndian.PutUint32(hdr[0:4], typ)
	wireEndian.PutUint32(hdr[4:8], size)
	wireEndian.PutUint32(hdr[8:12], checksum)

	if _, err := sink.Write(hdr[:]); err != nil {
		return errs.ErrIOError
	}
	if _, err := sink.Write(payload); err != nil {
		return errs.ErrIOError
	}

	return nil
}

// ReadFrame reads one frame from source: header, payload, checksum
// verification, and deflate unwrap if the outer type was typeDeflated.
// A checksum mismatch is errs.ErrChecksumMismatch; any other structural
// problem is errs.ErrCorruptFrame.
func ReadFrame(source io.Reader) (*Frame, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(source, hdr[:]); err != nil {
		return nil, errs.ErrCorruptFrame
	}

	outerType := Type(wireEndian.Uint32(hdr[0:4]))
	size := wireEndian.Uint32(hdr[4:8])
	checksum := wireEndian.Uint32(hdr[8:12])

	if outerType == typeDeflated {
		var innerBuf [4]byte
		if _, err := io.ReadFull(source, innerBuf[:]); err != nil {
			return nil, errs.ErrCorruptFrame
		}
		innerType := Type(wireEndian.Uint32(innerBuf[:]))

		compressed := make([]byte, size)
		if _, err := io.ReadFull(source, compressed); err != nil {
			return nil, errs.ErrCorruptFrame
		}

		payload := NewFrameBufferFromBytes(compressed)
		if err := payload.Inflate(); err != nil {
			return nil, err
		}

		if adler32Checksum(payload.Bytes()) != checksum {
			return nil, errs.ErrChecksumMismatch
		}

		if !isValidType(innerType) {
			return nil, errs.ErrCorruptFrame
		}

		return &Frame{Type: innerType, Payload: payload}, nil
	}

	if !isValidType(outerType) {
		return nil, errs.ErrCorruptFrame
	}

	payloadBytes := make([]byte, size)
	if _, err := io.ReadFull(source, payloadBytes); err != nil {
		return nil, errs.ErrCorruptFrame
	}

	if adler32Checksum(payloadBytes) != checksum {
		return nil, errs.ErrChecksumMismatch
	}

	return &Frame{Type: outerType, Payload: NewFrameBufferFromBytes(payloadBytes)}, nil
}

func isValidType(t Type) bool {
	switch t {
	case TypeFileHeader, TypeBlockHeader, TypeBlockData, TypeFileTrailer:
		return true
	default:
		return false
	}
}

// PeekNextExists performs a non-destructive test for at least one more byte
// being available on source, used to detect file concatenation or EOF.
func PeekNextExists(source Source) (bool, error) {
	return source.Peek()
}

// --- primitive accessors over the frame's payload buffer ---

// PutChar appends a single byte to the payload.
func (f *Frame) PutChar(c byte) {
	f.Payload.Append([]byte{c})
}

// PutU32 appends a little-endian uint32 to the payload.
func (f *Frame) PutU32(v uint32) {
	var b [4]byte
	wireEndian.PutUint32(b[:], v)
	f.Payload.Append(b[:])
}

// PutU64 appends a little-endian uint64 to the payload.
func (f *Frame) PutU64(v uint64) {
	var b [8]byte
	wireEndian.PutUint64(b[:], v)
	f.Payload.Append(b[:])
}

// PutString appends a length-prefixed string: u32 length (including the
// trailing NUL) followed by that many bytes, the last of which is 0.
func (f *Frame) PutString(s string) {
	f.PutU32(uint32(len(s) + 1))
	f.Payload.Append([]byte(s))
	f.Payload.Append([]byte{0})
}

// GetChar consumes and returns a single byte.
func (f *Frame) GetChar() (byte, error) {
	b, err := f.Payload.Read(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// GetU32 consumes and returns a little-endian uint32.
func (f *Frame) GetU32() (uint32, error) {
	b, err := f.Payload.Read(4)
	if err != nil {
		return 0, err
	}

	return wireEndian.Uint32(b), nil
}

// GetU64 consumes and returns a little-endian uint64.
func (f *Frame) GetU64() (uint64, error) {
	b, err := f.Payload.Read(8)
	if err != nil {
		return 0, err
	}

	return wireEndian.Uint64(b), nil
}

// GetString consumes and returns a length-prefixed string, stripping the
// trailing NUL the wire format requires.
func (f *Frame) GetString() (string, error) {
	n, err := f.GetU32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", errs.ErrCorruptFrame
	}

	b, err := f.Payload.Read(int(n))
	if err != nil {
		return "", err
	}

	return string(b[:n-1]), nil
}
