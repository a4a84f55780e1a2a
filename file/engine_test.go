package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_WriteReadRoundTrip_Scalar(t *testing.T) {
	mem := &memSeeker{}
	eng := Create(NewSink(mem))

	a, err := eng.AllocateU64Field("a", 1, "")
	require.NoError(t, err)
	b, err := eng.AllocateF64Field("b", 0.25, "")
	require.NoError(t, err)

	wantA := []uint64{10, 20, 30}
	wantB := []float64{1.0, 2.5, 3.75}

	for i := range wantA {
		a.Add(wantA[i])
		b.Add(wantB[i])
		require.NoError(t, eng.Write())
	}
	require.NoError(t, eng.Close())

	mem.pos = 0
	reader, err := Open(NewSource(mem))
	require.NoError(t, err)
	assert.EqualValues(t, 3, reader.TotalEvents())

	ra, err := reader.U64Field("a")
	require.NoError(t, err)
	rb, err := reader.F64Field("b")
	require.NoError(t, err)

	for i := range wantA {
		ok, err := reader.Read()
		require.NoError(t, err)
		require.True(t, ok)

		v, _ := ra.At(0)
		assert.Equal(t, wantA[i], v)
		fv, _ := rb.At(0)
		assert.InDelta(t, wantB[i], fv, 1e-9)
	}

	ok, err := reader.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_VectorFieldsAndSeek(t *testing.T) {
	mem := &memSeeker{}
	eng := Create(NewSink(mem), WithBlockSize(2))

	n, err := eng.AllocateU64Field("n", 1, "")
	require.NoError(t, err)
	v, err := eng.AllocateI64Field("v", 1, "n")
	require.NoError(t, err)

	records := [][]int64{
		{1, 2, 3},
		{},
		{-5},
		{7, 8},
		{9},
	}

	for _, rec := range records {
		n.Add(uint64(len(rec)))
		for _, x := range rec {
			v.Add(x)
		}
		require.NoError(t, eng.Write())
	}
	require.NoError(t, eng.Close())

	mem.pos = 0
	reader, err := Open(NewSource(mem))
	require.NoError(t, err)
	require.True(t, reader.blockTableDone)
	assert.EqualValues(t, len(records), reader.TotalEvents())

	rv, err := reader.I64Field("v")
	require.NoError(t, err)

	// Seek directly into a later block (block size 2, so record 3 lives
	// in the second block).
	require.NoError(t, reader.Seek(3))
	ok, err := reader.Read()
	require.NoError(t, err)
	require.True(t, ok)

	got := make([]int64, rv.Size())
	for i := 0; i < rv.Size(); i++ {
		got[i], _ = rv.At(i)
	}
	assert.Equal(t, records[3], got)

	// Rewind and re-read the first record.
	require.NoError(t, reader.Rewind())
	ok, err = reader.Read()
	require.NoError(t, err)
	require.True(t, ok)
	got = got[:0]
	for i := 0; i < rv.Size(); i++ {
		x, _ := rv.At(i)
		got = append(got, x)
	}
	assert.Equal(t, records[0], got)
}

func TestEngine_Comments(t *testing.T) {
	mem := &memSeeker{}
	eng := Create(NewSink(mem))
	_, err := eng.AllocateU64Field("a", 1, "")
	require.NoError(t, err)

	require.NoError(t, eng.AddComment("first run"))
	a, err := eng.U64Field("a")
	require.NoError(t, err)
	a.Add(1)
	require.NoError(t, eng.Write())
	require.NoError(t, eng.Close())

	mem.pos = 0
	reader, err := Open(NewSource(mem))
	require.NoError(t, err)
	assert.Equal(t, []string{"first run"}, reader.Comments())
}

func TestEngine_AppendReopen(t *testing.T) {
	mem := &memSeeker{}
	eng := Create(NewSink(mem), WithBlockSize(4))
	a, err := eng.AllocateU64Field("a", 1, "")
	require.NoError(t, err)

	for i := uint64(0); i < 3; i++ { // stays a partial block: 3 < blockSize 4
		a.Add(i)
		require.NoError(t, eng.Write())
	}
	require.NoError(t, eng.Close())

	mem.pos = 0
	appended, err := OpenAppend(mem, WithBlockSize(4))
	require.NoError(t, err)

	aw, err := appended.U64Field("a")
	require.NoError(t, err)
	for i := uint64(3); i < 7; i++ {
		aw.Add(i)
		require.NoError(t, appended.Write())
	}
	require.NoError(t, appended.Close())

	mem.pos = 0
	reader, err := Open(NewSource(mem))
	require.NoError(t, err)
	assert.EqualValues(t, 7, reader.TotalEvents())

	ar, err := reader.U64Field("a")
	require.NoError(t, err)
	for i := uint64(0); i < 7; i++ {
		ok, err := reader.Read()
		require.NoError(t, err)
		require.True(t, ok)
		v, _ := ar.At(0)
		assert.Equal(t, i, v)
	}

	ok, err := reader.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_ConcatenatedSegments(t *testing.T) {
	mem := &memSeeker{}

	eng1 := Create(NewSink(mem))
	a1, err := eng1.AllocateU64Field("a", 1, "")
	require.NoError(t, err)
	for i := uint64(0); i < 2; i++ {
		a1.Add(i)
		require.NoError(t, eng1.Write())
	}
	require.NoError(t, eng1.Close())

	mem.pos = len(mem.buf)

	eng2 := Create(NewSink(mem))
	a2, err := eng2.AllocateU64Field("a", 1, "")
	require.NoError(t, err)
	for i := uint64(2); i < 5; i++ {
		a2.Add(i)
		require.NoError(t, eng2.Write())
	}
	require.NoError(t, eng2.Close())

	mem.pos = 0
	reader, err := Open(NewSource(mem))
	require.NoError(t, err)
	assert.EqualValues(t, 5, reader.TotalEvents())

	av, err := reader.U64Field("a")
	require.NoError(t, err)
	for i := uint64(0); i < 5; i++ {
		ok, err := reader.Read()
		require.NoError(t, err)
		require.True(t, ok)
		v, _ := av.At(0)
		assert.Equal(t, i, v)
	}
}

func TestEngine_CheckGlobals(t *testing.T) {
	mem := &memSeeker{}
	eng := Create(NewSink(mem), WithBlockSize(2))
	a, err := eng.AllocateU64Field("a", 1, "")
	require.NoError(t, err)

	for _, v := range []uint64{5, 1, 9, 3} {
		a.Add(v)
		require.NoError(t, eng.Write())
	}
	require.NoError(t, eng.Close())

	mem.pos = 0
	reader, err := Open(NewSource(mem))
	require.NoError(t, err)

	require.NoError(t, reader.CheckGlobals(context.Background()))
	require.Len(t, reader.trailer.Globals, 1)
	assert.EqualValues(t, 1, reader.trailer.Globals[0].RawGlobalMin)
	assert.EqualValues(t, 9, reader.trailer.Globals[0].RawGlobalMax)
}
