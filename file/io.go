// Package file implements the FileEngine: append, flush-policy, read,
// seek, append-reopen, concatenated-file handling, and trailer management
// over a schema and the block codec, per spec.md §4.5.
package file

import (
	"io"

	"github.com/xcdf-go/xcdf/errs"
)

// Source is the byte-stream capability the engine's read path needs: a
// frame.Source (sequential read + one-byte peek) plus, when the
// underlying stream supports it, absolute positioning. Seekable reports
// whether Seek/Tell are usable; a non-seekable Source still supports
// sequential reading and peek-based concatenation/EOF detection.
type Source interface {
	io.Reader
	Peek() (bool, error)
	Seekable() bool
	Seek(offset int64) error
	Tell() (int64, error)
}

// Sink is the byte-stream capability the engine's write path needs:
// sequential writes plus, when supported, the ability to rewind and
// rewrite the file header's trailer pointer at Close.
type Sink interface {
	io.Writer
	Seekable() bool
	Seek(offset int64) error
	Tell() (int64, error)
}

// source wraps an io.Reader, optionally an io.Seeker, adding a one-byte
// lookahead for Peek and offset tracking for Tell.
type source struct {
	r        io.Reader
	seeker   io.Seeker
	pos      int64
	peeked   bool
	peekByte byte
}

// NewSource wraps r for use as an engine Source. If r also implements
// io.Seeker, Seek/Tell/Seekable become usable.
func NewSource(r io.Reader) Source {
	s := &source{r: r}
	if sk, ok := r.(io.Seeker); ok {
		s.seeker = sk
	}

	return s
}

// Read delivers buffered/peeked bytes first, then reads through to the
// underlying reader. pos tracks every byte physically pulled from r,
// including one outstanding peeked-but-undelivered byte; Tell() corrects
// for that byte being pending rather than delivered.
func (s *source) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	if s.peeked {
		p[0] = s.peekByte
		s.peeked = false
		n = 1
	}

	if n < len(p) {
		m, err := s.r.Read(p[n:])
		s.pos += int64(m)
		n += m
		if err != nil && !(err == io.EOF && n > 0) {
			return n, err
		}
	}

	return n, nil
}

// Peek reports whether at least one more byte is available, without
// delivering it to the next Read call.
func (s *source) Peek() (bool, error) {
	if s.peeked {
		return true, nil
	}

	var b [1]byte
	n, err := s.r.Read(b[:])
	if n == 1 {
		s.peeked = true
		s.peekByte = b[0]
		s.pos++

		return true, nil
	}
	if err == io.EOF || err == nil {
		return false, nil
	}

	return false, errs.ErrIOError
}

func (s *source) Seekable() bool { return s.seeker != nil }

func (s *source) Seek(offset int64) error {
	if s.seeker == nil {
		return errs.ErrSeekUnsupported
	}

	n, err := s.seeker.Seek(offset, io.SeekStart)
	if err != nil {
		return errs.ErrIOError
	}

	s.pos = n
	s.peeked = false

	return nil
}

// Tell returns the offset of the next byte Read will deliver: pos, minus
// one if a peeked byte is pending delivery.
func (s *source) Tell() (int64, error) {
	if s.peeked {
		return s.pos - 1, nil
	}

	return s.pos, nil
}

// sink wraps an io.Writer, optionally an io.Seeker, tracking the write
// offset for Tell.
type sink struct {
	w      io.Writer
	seeker io.Seeker
	base   int64
	pos    int64
}

// NewSink wraps w for use as an engine Sink. If w also implements
// io.Seeker (e.g. *os.File), Seek/Tell/Seekable become usable, enabling
// the file-header trailer-pointer rewrite on Close. Offsets for Tell and
// Seek count from w's position at the time it is wrapped.
func NewSink(w io.Writer) Sink {
	s := &sink{w: w}
	if sk, ok := w.(io.Seeker); ok {
		s.seeker = sk
		if cur, err := sk.Seek(0, io.SeekCurrent); err == nil {
			s.base = cur
		}
	}

	return s
}

func (s *sink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.pos += int64(n)
	if err != nil {
		return n, errs.ErrIOError
	}

	return n, nil
}

func (s *sink) Seekable() bool { return s.seeker != nil }

func (s *sink) Seek(offset int64) error {
	if s.seeker == nil {
		return errs.ErrSeekUnsupported
	}

	n, err := s.seeker.Seek(s.base+offset, io.SeekStart)
	if err != nil {
		return errs.ErrIOError
	}

	s.pos = n - s.base

	return nil
}

func (s *sink) Tell() (int64, error) { return s.pos, nil }

// appendStream implements both Source and Sink over a single
// io.ReadWriteSeeker, sharing one position counter — required for
// append-reopen (spec.md §4.5.4), where the reload-then-replay sequence
// interleaves reads and writes against the same underlying file.
type appendStream struct {
	rw       io.ReadWriteSeeker
	pos      int64
	peeked   bool
	peekByte byte
}

// newAppendStream wraps rw for use as both a Source and a Sink.
func newAppendStream(rw io.ReadWriteSeeker) *appendStream {
	return &appendStream{rw: rw}
}

func (s *appendStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	if s.peeked {
		p[0] = s.peekByte
		s.peeked = false
		n = 1
	}

	if n < len(p) {
		m, err := s.rw.Read(p[n:])
		s.pos += int64(m)
		n += m
		if err != nil && !(err == io.EOF && n > 0) {
			return n, err
		}
	}

	return n, nil
}

func (s *appendStream) Peek() (bool, error) {
	if s.peeked {
		return true, nil
	}

	var b [1]byte
	n, err := s.rw.Read(b[:])
	if n == 1 {
		s.peeked = true
		s.peekByte = b[0]
		s.pos++

		return true, nil
	}
	if err == io.EOF || err == nil {
		return false, nil
	}

	return false, errs.ErrIOError
}

func (s *appendStream) Write(p []byte) (int, error) {
	s.peeked = false

	n, err := s.rw.Write(p)
	s.pos += int64(n)
	if err != nil {
		return n, errs.ErrIOError
	}

	return n, nil
}

func (s *appendStream) Seekable() bool { return true }

func (s *appendStream) Seek(offset int64) error {
	n, err := s.rw.Seek(offset, io.SeekStart)
	if err != nil {
		return errs.ErrIOError
	}

	s.pos = n
	s.peeked = false

	return nil
}

// Tell returns the offset of the next byte Read will deliver: pos, minus
// one if a peeked byte is pending delivery (see source.Tell).
func (s *appendStream) Tell() (int64, error) {
	if s.peeked {
		return s.pos - 1, nil
	}

	return s.pos, nil
}
