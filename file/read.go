package file

import (
	"context"
	"io"
	"sort"

	"github.com/xcdf-go/xcdf/bitio"
	"github.com/xcdf-go/xcdf/block"
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/frame"
	"github.com/xcdf-go/xcdf/internal/options"
	"github.com/xcdf-go/xcdf/schema"
)

// Open returns a read-mode Engine over source, per spec.md §4.5.1. If
// source is seekable and the file header names a trailer pointer, the
// full block index — and any concatenated segments' indices, translated
// into one address space — is loaded up front, enabling Seek. Otherwise
// the file is read purely sequentially, and concatenated segments /
// end-of-file are discovered as Read advances.
func Open(source Source, opts ...EngineOption) (*Engine, error) {
	cfg := defaultConfig()
	_ = options.Apply(cfg, opts...)

	hdr, err := ReadHeader(source)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		mode:    modeRead,
		source:  source,
		sch:     schema.NewSchema(),
		trailer: &Trailer{},
	}
	if err := loadSchemaFrom(e.sch, hdr); err != nil {
		return nil, err
	}
	e.sch.Freeze()
	e.headerVersion = hdr.Version
	e.handles = newHandles(e.sch)
	e.codec = block.NewCodec(e.sch, cfg.zeroAlign)

	if pos, err := source.Tell(); err == nil {
		e.afterHeaderOffset = pos
	}

	if hdr.TrailerPtr != 0 && source.Seekable() {
		if err := e.loadBlockTable(hdr, source); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// OpenAppend reopens an existing file for further writing, per spec.md
// §4.5.4: the block table (and any concatenated segments) is loaded, the
// last block is replayed into the codec's staging area if it held fewer
// than the configured block size's worth of events, and the write cursor
// is positioned to overwrite the stale trailer (and, if replayed, the
// stale last block) with freshly flushed data.
func OpenAppend(rw io.ReadWriteSeeker, opts ...EngineOption) (*Engine, error) {
	cfg := defaultConfig()
	_ = options.Apply(cfg, opts...)

	stream := newAppendStream(rw)

	hdr, err := ReadHeader(stream)
	if err != nil {
		return nil, err
	}
	if hdr.TrailerPtr == 0 {
		return nil, errs.ErrSchemaViolation
	}

	e := &Engine{
		cfg:     cfg,
		mode:    modeAppend,
		source:  stream,
		sink:    stream,
		sch:     schema.NewSchema(),
		trailer: &Trailer{},
	}
	if err := loadSchemaFrom(e.sch, hdr); err != nil {
		return nil, err
	}
	e.sch.Freeze()
	e.headerVersion = hdr.Version
	e.headerOffset = 0
	e.headerWritten = true
	e.handles = newHandles(e.sch)
	e.codec = block.NewCodec(e.sch, cfg.zeroAlign)

	if err := e.loadBlockTable(hdr, stream); err != nil {
		return nil, err
	}

	e.totalEvents = e.trailer.TotalEventCount
	e.blockCount = len(e.trailer.Blocks)
	e.globals = e.trailer.Globals
	if len(e.globals) != e.sch.NumFields() {
		e.globals = make([]FieldGlobals, e.sch.NumFields())
	}

	truncateAt := int64(hdr.TrailerPtr)
	if n := len(e.trailer.Blocks); n > 0 {
		last := e.trailer.Blocks[n-1]
		lastCount := int(e.trailer.TotalEventCount - last.NextEventNumber)
		if lastCount < e.cfg.blockSize {
			if err := e.replayLastBlock(last, lastCount); err != nil {
				return nil, err
			}
			truncateAt = int64(last.FilePtr)
			e.trailer.Blocks = e.trailer.Blocks[:n-1]
			e.blockCount--
		}
	}

	if err := stream.Seek(truncateAt); err != nil {
		return nil, err
	}

	return e, nil
}

func loadSchemaFrom(sch *schema.Schema, hdr *Header) error {
	for _, fd := range hdr.Fields {
		if err := sch.AddField(fd); err != nil {
			return err
		}
	}
	for _, ad := range hdr.Aliases {
		if err := sch.AddAlias(ad); err != nil {
			return err
		}
	}

	return nil
}

// loadBlockTable reads the trailer at hdr.TrailerPtr and, for as long as a
// matching-schema header with its own trailer pointer follows, folds in
// each additional segment's block index translated into the combined
// address space (spec.md §6's rule for concatenated files).
func (e *Engine) loadBlockTable(hdr *Header, source Source) error {
	if err := source.Seek(int64(hdr.TrailerPtr)); err != nil {
		return err
	}
	tr, err := ReadTrailer(source, hdr.Version)
	if err != nil {
		return err
	}
	e.trailer = tr
	e.blockTableDone = true

	eventBase := tr.TotalEventCount

	for {
		segOff, err := source.Tell()
		if err != nil {
			return err
		}

		has, err := source.Peek()
		if err != nil {
			return err
		}
		if !has {
			break
		}

		nextHdr, err := ReadHeader(source)
		if err != nil {
			// Not a continuation header: treat this as the end of the
			// file rather than a hard failure.
			break
		}
		if !hdr.SchemaEquivalent(nextHdr) {
			return errs.ErrConcatenationMismatch
		}
		if nextHdr.TrailerPtr == 0 {
			break
		}

		if err := source.Seek(segOff + int64(nextHdr.TrailerPtr)); err != nil {
			return err
		}
		nextTr, err := ReadTrailer(source, nextHdr.Version)
		if err != nil {
			return err
		}
		nextTr.translate(uint64(segOff), eventBase)

		e.trailer.Blocks = append(e.trailer.Blocks, nextTr.Blocks...)
		e.trailer.Comments = append(e.trailer.Comments, nextTr.Comments...)
		eventBase += nextTr.TotalEventCount
		e.trailer.TotalEventCount = eventBase
	}

	return nil
}

// replayLastBlock decodes entry's block directly into the codec's staging
// area (rather than a read-only cursor) so that subsequent Write calls
// extend it, per spec.md §4.5.4.
func (e *Engine) replayLastBlock(entry BlockIndexEntry, count int) error {
	if err := e.source.Seek(int64(entry.FilePtr)); err != nil {
		return err
	}

	eventCount, bp, err := readBlockPair(e.source, e.sch.NumFields())
	if err != nil {
		return err
	}

	bb := bitio.NewBitBufferFromBytes(bp.dataBytes)
	if err := e.codec.DecodeData(bb, bp.fields, eventCount); err != nil {
		return err
	}
	e.codec.RetrackAll()

	e.stagedEvents = count

	return nil
}

// blockPair bundles one block's decoded header with its still-encoded
// data payload, for callers that need to hand both off to DecodeData
// after validating frame types.
type blockPair struct {
	fields    []block.FieldHeader
	dataBytes []byte
}

func readBlockPair(source Source, numFields int) (int, blockPair, error) {
	hfr, err := frame.ReadFrame(source)
	if err != nil {
		return 0, blockPair{}, err
	}
	if hfr.Type != frame.TypeBlockHeader {
		return 0, blockPair{}, errs.ErrCorruptBlock
	}

	eventCount, headers, err := block.ReadBlockHeader(hfr, numFields)
	if err != nil {
		return 0, blockPair{}, err
	}

	dfr, err := frame.ReadFrame(source)
	if err != nil {
		return 0, blockPair{}, err
	}
	if dfr.Type != frame.TypeBlockData {
		return 0, blockPair{}, errs.ErrCorruptBlock
	}

	return eventCount, blockPair{fields: headers, dataBytes: dfr.Payload.Bytes()}, nil
}

// Read decodes the next record into every field's handle, per spec.md
// §4.5.1. It returns false, nil at clean end of file.
func (e *Engine) Read() (bool, error) {
	if e.mode != modeRead {
		return false, errs.ErrSchemaViolation
	}
	if e.closed {
		return false, errs.ErrEngineClosed
	}

	for {
		if e.blockLoaded && e.recordInBlock < e.blockEvents {
			for i, h := range e.handles {
				h.loadRawBits(e.codec.RecordValues(i, e.recordInBlock))
			}
			e.recordInBlock++
			e.totalEvents++

			return true, nil
		}

		ok, err := e.loadNextBlock()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
}

func (e *Engine) loadNextBlock() (bool, error) {
	if e.blockTableDone {
		if e.blockIdx >= len(e.trailer.Blocks) {
			e.blockLoaded = false
			return false, nil
		}

		entry := e.trailer.Blocks[e.blockIdx]
		if err := e.source.Seek(int64(entry.FilePtr)); err != nil {
			return false, err
		}
		if err := e.loadBlockAt(entry.FilePtr, entry.NextEventNumber); err != nil {
			return e.recoverOrStop(err)
		}
		e.blockIdx++

		return true, nil
	}

	return e.scanNextBlock()
}

func (e *Engine) loadBlockAt(offset, eventBase uint64) error {
	eventCount, bp, err := readBlockPair(e.source, e.sch.NumFields())
	if err != nil {
		return err
	}

	bb := bitio.NewBitBufferFromBytes(bp.dataBytes)
	if err := e.codec.DecodeData(bb, bp.fields, eventCount); err != nil {
		return err
	}

	e.blockHeaders = bp.fields
	e.blockEvents = eventCount
	e.blockEventBase = eventBase
	e.blockOffset = int64(offset)
	e.recordInBlock = 0
	e.blockLoaded = true

	return nil
}

// scanNextBlock advances purely sequentially, for sources without a
// pre-loaded block table: a file trailer's comments are folded in and
// scanning continues (in case a concatenated segment follows), a matching
// continuation header is accepted silently, and anything else ends the
// file.
func (e *Engine) scanNextBlock() (bool, error) {
	for {
		has, err := e.source.Peek()
		if err != nil {
			return false, err
		}
		if !has {
			e.blockLoaded = false
			return false, nil
		}

		off, _ := e.source.Tell()
		fr, err := frame.ReadFrame(e.source)
		if err != nil {
			return e.recoverOrStop(err)
		}

		switch fr.Type {
		case frame.TypeBlockHeader:
			eventCount, headers, err := block.ReadBlockHeader(fr, e.sch.NumFields())
			if err != nil {
				return e.recoverOrStop(err)
			}

			dfr, err := frame.ReadFrame(e.source)
			if err != nil {
				return e.recoverOrStop(err)
			}
			if dfr.Type != frame.TypeBlockData {
				return e.recoverOrStop(errs.ErrCorruptBlock)
			}

			bb := bitio.NewBitBufferFromBytes(dfr.Payload.Bytes())
			if err := e.codec.DecodeData(bb, headers, eventCount); err != nil {
				return e.recoverOrStop(err)
			}

			e.blockHeaders = headers
			e.blockEvents = eventCount
			e.blockEventBase = e.totalEvents
			e.blockOffset = off
			e.recordInBlock = 0
			e.blockLoaded = true

			return true, nil

		case frame.TypeFileTrailer:
			tr, err := decodeTrailerPayload(fr, e.headerVersion)
			if err != nil {
				return e.recoverOrStop(err)
			}
			e.trailer.Comments = append(e.trailer.Comments, tr.Comments...)

			continue

		case frame.TypeFileHeader:
			nextHdr, err := decodeHeaderPayload(fr)
			if err != nil {
				return e.recoverOrStop(err)
			}

			firstHdr := &Header{Fields: e.sch.Fields(), Aliases: e.sch.Aliases()}
			if !firstHdr.SchemaEquivalent(nextHdr) {
				return false, errs.ErrConcatenationMismatch
			}
			e.headerVersion = nextHdr.Version

			continue

		default:
			return e.recoverOrStop(errs.ErrCorruptFrame)
		}
	}
}

func (e *Engine) recoverOrStop(err error) (bool, error) {
	if e.cfg.recoverMode {
		e.recoveredEvents = e.totalEvents
		e.blockLoaded = false

		return false, nil
	}

	return false, err
}

// Seek repositions the read cursor so the next Read call delivers event
// number absolute, per spec.md §4.5.3. With a complete block table this
// is a direct jump; otherwise it falls back to a linear scan, forward from
// the current position, or from the start (after a Rewind) when absolute
// lies before it.
func (e *Engine) Seek(absolute uint64) error {
	if e.mode != modeRead {
		return errs.ErrSchemaViolation
	}
	if e.closed {
		return errs.ErrEngineClosed
	}
	if e.blockTableDone && absolute >= e.TotalEvents() {
		return errs.ErrEventOutOfRange
	}

	if e.blockLoaded && absolute >= e.blockEventBase && absolute < e.blockEventBase+uint64(e.blockEvents) {
		e.recordInBlock = int(absolute - e.blockEventBase)
		e.totalEvents = absolute

		return nil
	}

	if !e.blockTableDone {
		return e.seekLinear(absolute)
	}

	idx := sort.Search(len(e.trailer.Blocks), func(i int) bool {
		return e.trailer.Blocks[i].NextEventNumber > absolute
	}) - 1
	if idx < 0 {
		idx = 0
	}

	entry := e.trailer.Blocks[idx]
	if err := e.source.Seek(int64(entry.FilePtr)); err != nil {
		return err
	}
	if err := e.loadBlockAt(entry.FilePtr, entry.NextEventNumber); err != nil {
		return err
	}

	e.blockIdx = idx + 1
	e.recordInBlock = int(absolute - e.blockEventBase)
	e.totalEvents = absolute

	return nil
}

func (e *Engine) seekLinear(absolute uint64) error {
	if absolute < e.totalEvents {
		if err := e.Rewind(); err != nil {
			return err
		}
	}

	for e.totalEvents < absolute {
		ok, err := e.Read()
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrEventOutOfRange
		}
	}

	return nil
}

// Rewind resets the read cursor to the first event, per spec.md §4.5.3.
func (e *Engine) Rewind() error {
	if e.mode != modeRead {
		return errs.ErrSchemaViolation
	}
	if e.closed {
		return errs.ErrEngineClosed
	}
	if !e.source.Seekable() {
		return errs.ErrSeekUnsupported
	}

	if err := e.source.Seek(e.afterHeaderOffset); err != nil {
		return err
	}

	e.blockLoaded = false
	e.blockIdx = 0
	e.recordInBlock = 0
	e.blockEvents = 0
	e.totalEvents = 0

	return nil
}

// CheckGlobals recomputes every field's file-wide (min, max, total bytes)
// statistics by scanning every block, per spec.md §4.5.5. It requires a
// complete block table and uses a scratch codec, so it never disturbs an
// in-progress Read cursor.
func (e *Engine) CheckGlobals(ctx context.Context) error {
	if e.mode != modeRead {
		return errs.ErrSchemaViolation
	}
	if !e.blockTableDone {
		return errs.ErrSeekUnsupported
	}

	scratch := block.NewCodec(e.sch, e.cfg.zeroAlign)
	globals := make([]FieldGlobals, e.sch.NumFields())

	for _, entry := range e.trailer.Blocks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := e.source.Seek(int64(entry.FilePtr)); err != nil {
			return err
		}

		eventCount, bp, err := readBlockPair(e.source, e.sch.NumFields())
		if err != nil {
			return err
		}

		bb := bitio.NewBitBufferFromBytes(bp.dataBytes)
		if err := scratch.DecodeData(bb, bp.fields, eventCount); err != nil {
			return err
		}
		scratch.RetrackAll()

		activeMax := scratch.FieldActiveMax()
		valueCounts := scratch.FieldValueCounts()
		for i, fd := range e.sch.Fields() {
			h := bp.fields[i]
			bits := uint64(h.ActiveSize) * uint64(valueCounts[i])
			bytes := (bits + 7) / 8
			globals[i].observe(h.RawActiveMin, activeMax[i], bytes, func(a, b uint64) bool { return lessRaw(fd.Type, a, b) })
		}
	}

	e.trailer.Globals = globals

	return nil
}
