package file

import (
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/frame"
	"github.com/xcdf-go/xcdf/schema"
)

// BlockIndexEntry locates one block for seeking, per spec.md §3.
type BlockIndexEntry struct {
	NextEventNumber uint64 // absolute index of the block's first event
	FilePtr         uint64 // byte offset of the block's header frame
}

// FieldGlobals holds one field's file-wide statistics, materialized in
// the trailer for file-format version >= 3 (spec.md §4.5.5).
type FieldGlobals struct {
	RawGlobalMax uint64
	RawGlobalMin uint64
	TotalBytes   uint64
	Set          bool

	sawFirst bool
}

// Trailer is the decoded/accumulated FileTrailerFrame payload, per
// spec.md §6.
type Trailer struct {
	TotalEventCount uint64
	Blocks          []BlockIndexEntry
	Comments        []string
	Globals         []FieldGlobals
	Aliases         []schema.AliasDescriptor
}

// observe folds one field's block-level (min,max) and byte count into its
// running file-wide global statistics, per spec.md §4.5.5.
func (g *FieldGlobals) observe(blockMin, blockMax uint64, blockBytes uint64, less func(a, b uint64) bool) {
	g.TotalBytes += blockBytes
	if !g.sawFirst {
		g.RawGlobalMin, g.RawGlobalMax = blockMin, blockMax
		g.sawFirst = true
		g.Set = true
		return
	}
	if less(blockMin, g.RawGlobalMin) {
		g.RawGlobalMin = blockMin
	}
	if less(g.RawGlobalMax, blockMax) {
		g.RawGlobalMax = blockMax
	}
}

// WriteTrailer emits a FileTrailerFrame.
func WriteTrailer(sink Sink, version uint32, t *Trailer, deflate bool) error {
	fr := frame.NewFrame(frame.TypeFileTrailer)

	fr.PutU64(t.TotalEventCount)

	fr.PutU32(uint32(len(t.Blocks)))
	for _, b := range t.Blocks {
		fr.PutU64(b.NextEventNumber)
		fr.PutU64(b.FilePtr)
	}

	fr.PutU32(uint32(len(t.Comments)))
	for _, c := range t.Comments {
		fr.PutString(c)
	}

	if version >= 3 {
		fr.PutU32(uint32(len(t.Globals)))
		for _, g := range t.Globals {
			fr.PutU64(g.RawGlobalMax)
			fr.PutU64(g.RawGlobalMin)
			fr.PutU64(g.TotalBytes)
			setByte := byte(0)
			if g.Set {
				setByte = 1
			}
			fr.PutChar(setByte)
		}

		fr.PutU32(uint32(len(t.Aliases)))
		for _, ad := range t.Aliases {
			fr.PutString(ad.Name)
			fr.PutString(ad.Expression)
			fr.PutChar(byte(ad.Type))
		}
	}

	return fr.Write(sink, deflate)
}

// ReadTrailer decodes a FileTrailerFrame from source.
func ReadTrailer(source Source, version uint32) (*Trailer, error) {
	fr, err := frame.ReadFrame(source)
	if err != nil {
		return nil, err
	}
	if fr.Type != frame.TypeFileTrailer {
		return nil, errs.ErrCorruptFrame
	}

	return decodeTrailerPayload(fr, version)
}

// decodeTrailerPayload parses an already-read FileTrailerFrame, for
// callers (the sequential concatenation scan) that dispatch on frame type
// themselves before knowing which decoder to call.
func decodeTrailerPayload(fr *frame.Frame, version uint32) (*Trailer, error) {
	t := &Trailer{}

	var err error
	t.TotalEventCount, err = fr.GetU64()
	if err != nil {
		return nil, errs.ErrCorruptFrame
	}

	nBlocks, err := fr.GetU32()
	if err != nil {
		return nil, errs.ErrCorruptFrame
	}
	t.Blocks = make([]BlockIndexEntry, nBlocks)
	for i := range t.Blocks {
		next, err := fr.GetU64()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		ptr, err := fr.GetU64()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		t.Blocks[i] = BlockIndexEntry{NextEventNumber: next, FilePtr: ptr}
	}

	nComments, err := fr.GetU32()
	if err != nil {
		return nil, errs.ErrCorruptFrame
	}
	t.Comments = make([]string, nComments)
	for i := range t.Comments {
		c, err := fr.GetString()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		t.Comments[i] = c
	}

	if version >= 3 {
		nGlobals, err := fr.GetU32()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		t.Globals = make([]FieldGlobals, nGlobals)
		for i := range t.Globals {
			max, err := fr.GetU64()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			min, err := fr.GetU64()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			total, err := fr.GetU64()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			setByte, err := fr.GetChar()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			t.Globals[i] = FieldGlobals{
				RawGlobalMax: max, RawGlobalMin: min, TotalBytes: total,
				Set: setByte != 0, sawFirst: setByte != 0,
			}
		}

		nAliases, err := fr.GetU32()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		t.Aliases = make([]schema.AliasDescriptor, nAliases)
		for i := range t.Aliases {
			name, err := fr.GetString()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			exprStr, err := fr.GetString()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			typByte, err := fr.GetChar()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			t.Aliases[i] = schema.AliasDescriptor{Name: name, Expression: exprStr, Type: schema.FieldType(typByte)}
		}
	}

	return t, nil
}

// translate shifts every block-index entry's FilePtr by segOff and
// NextEventNumber by eventBase, used when appending a concatenated
// segment's trailer to the combined trailer (spec.md §4.5.2).
func (t *Trailer) translate(segOff, eventBase uint64) {
	for i := range t.Blocks {
		t.Blocks[i].FilePtr += segOff
		t.Blocks[i].NextEventNumber += eventBase
	}
}
