package xcdf_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcdf-go/xcdf"
	"github.com/xcdf-go/xcdf/expr"
	"github.com/xcdf-go/xcdf/file"
)

// memSeeker is a minimal in-memory io.ReadWriteSeeker for exercising the
// facade's writer/reader round trip without touching the filesystem.
type memSeeker struct {
	buf []byte
	pos int
}

func (m *memSeeker) Read(p []byte) (int, error) {
	if m.pos >= len(m.buf) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += n
	return n, nil
}

func (m *memSeeker) Write(p []byte) (int, error) {
	if m.pos+len(p) > len(m.buf) {
		grown := make([]byte, m.pos+len(p))
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(m.pos) + offset
	case io.SeekEnd:
		newPos = int64(len(m.buf)) + offset
	}
	m.pos = int(newPos)
	return newPos, nil
}

func TestWriterReaderRoundTripWithFilter(t *testing.T) {
	mem := &memSeeker{}
	w := xcdf.NewWriter(file.NewSink(mem))

	nHit, err := w.AllocateU64Field("nHit", 1, "")
	require.NoError(t, err)
	charge, err := w.AllocateF64Field("charge", 0.01, "nHit")
	require.NoError(t, err)

	records := [][]float64{
		{},
		{0.1},
		{0.9, 0.2},
	}
	for _, charges := range records {
		nHit.Add(uint64(len(charges)))
		for _, c := range charges {
			charge.Add(c)
		}
		require.NoError(t, w.Write())
	}
	require.NoError(t, w.Close())

	mem.pos = 0
	r, err := xcdf.NewReader(file.NewSource(mem))
	require.NoError(t, err)
	assert.EqualValues(t, len(records), r.TotalEvents())

	pred, err := xcdf.Compile("nHit > 0 && charge > 0.5", r.Schema())
	require.NoError(t, err)

	var matched []int
	for {
		ok, err := r.Read()
		require.NoError(t, err)
		if !ok {
			break
		}
		pass, err := expr.Passes(pred, r)
		require.NoError(t, err)
		if pass {
			matched = append(matched, int(r.CurrentEventNumber()))
		}
	}

	assert.Equal(t, []int{2}, matched)
}

func TestCompileRejectsUnknownField(t *testing.T) {
	mem := &memSeeker{}
	w := xcdf.NewWriter(file.NewSink(mem))
	_, err := w.AllocateU64Field("a", 1, "")
	require.NoError(t, err)

	_, err = xcdf.Compile("nosuch + 1", w.Schema())
	assert.Error(t, err)
}

var _ io.ReadWriteSeeker = (*memSeeker)(nil)
