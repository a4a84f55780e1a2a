package file

import (
	"github.com/xcdf-go/xcdf/bitio"
	"github.com/xcdf-go/xcdf/block"
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/fieldstore"
	"github.com/xcdf-go/xcdf/frame"
	"github.com/xcdf-go/xcdf/internal/options"
	"github.com/xcdf-go/xcdf/schema"
)

type mode uint8

const (
	modeWrite mode = iota
	modeRead
	modeAppend
)

// Engine is the FileEngine: the single entry point for writing or reading
// one (possibly concatenated) XCDF file, per spec.md §4.5.
type Engine struct {
	sch  *schema.Schema
	cfg  *config
	mode mode

	sink   Sink
	source Source

	handles []fieldHandle
	codec   *block.Codec

	headerVersion uint32
	headerOffset  int64
	headerWritten bool

	totalEvents  uint64
	blockCount   int
	stagedEvents int

	trailer *Trailer
	globals []FieldGlobals

	closed  bool
	faulted bool

	// read-side cursor over the currently loaded block.
	blockLoaded       bool
	blockOffset       int64
	blockEventBase    uint64
	blockHeaders      []block.FieldHeader
	blockEvents       int
	recordInBlock     int
	blockTableDone    bool
	blockIdx          int
	afterHeaderOffset int64
	recoveredEvents   uint64
}

// Create returns a write-mode Engine over sink, schema initially empty
// and mutable. Call the Allocate*Field methods to build the schema before
// the first Write.
func Create(sink Sink, opts ...EngineOption) *Engine {
	cfg := defaultConfig()
	_ = options.Apply(cfg, opts...)

	return &Engine{
		sch:     schema.NewSchema(),
		cfg:     cfg,
		mode:    modeWrite,
		sink:    sink,
		trailer: &Trailer{},
	}
}

// AllocateU64Field declares an unsigned field and returns its FieldStore
// handle, used to stage each record's value before calling Write.
func (e *Engine) AllocateU64Field(name string, resolution uint64, parentName string) (*fieldstore.FieldStore[uint64], error) {
	if err := e.sch.AddField(schema.NewU64Field(name, resolution, parentName)); err != nil {
		return nil, err
	}

	fs := fieldstore.New[uint64](kindOf(parentName))
	e.handles = append(e.handles, typedHandle[uint64]{fs: fs})

	return fs, nil
}

// AllocateI64Field declares a signed field and returns its FieldStore
// handle.
func (e *Engine) AllocateI64Field(name string, resolution int64, parentName string) (*fieldstore.FieldStore[int64], error) {
	if err := e.sch.AddField(schema.NewI64Field(name, resolution, parentName)); err != nil {
		return nil, err
	}

	fs := fieldstore.New[int64](kindOf(parentName))
	e.handles = append(e.handles, typedHandle[int64]{fs: fs})

	return fs, nil
}

// AllocateF64Field declares a floating-point field and returns its
// FieldStore handle.
func (e *Engine) AllocateF64Field(name string, resolution float64, parentName string) (*fieldstore.FieldStore[float64], error) {
	if err := e.sch.AddField(schema.NewF64Field(name, resolution, parentName)); err != nil {
		return nil, err
	}

	fs := fieldstore.New[float64](kindOf(parentName))
	e.handles = append(e.handles, typedHandle[float64]{fs: fs})

	return fs, nil
}

// AllocateAlias declares a named expression against the schema.
func (e *Engine) AllocateAlias(name, expression string) error {
	return e.sch.AddAlias(schema.NewAliasDescriptor(name, expression))
}

func kindOf(parentName string) fieldstore.Kind {
	if parentName != "" {
		return fieldstore.Vector
	}

	return fieldstore.Scalar
}

// Schema returns the engine's field/alias graph.
func (e *Engine) Schema() *schema.Schema { return e.sch }

// TotalEvents returns the total number of events written so far (write
// mode) or the total known to be in the file (read mode, once the block
// table or a full scan has established it).
func (e *Engine) TotalEvents() uint64 {
	if e.mode == modeRead && e.blockTableDone {
		return e.trailer.TotalEventCount
	}

	return e.totalEvents
}

// CurrentEventNumber reports the index of the next event to be written
// (write mode) or the index of the event last delivered by Read (read
// mode, -1 before the first Read), per spec.md §4.5.2.
func (e *Engine) CurrentEventNumber() int64 {
	if e.mode == modeWrite || e.mode == modeAppend {
		return int64(e.totalEvents)
	}

	return int64(e.totalEvents) - 1
}

// Size returns the current record's value count for the named field (1
// for a scalar), satisfying expr.Binding.
func (e *Engine) Size(name string) int {
	idx, _, ok := e.sch.FieldByName(name)
	if !ok {
		return 0
	}

	return e.handles[idx].size()
}

// At returns the raw bit pattern of the named field's i-th current-record
// value, satisfying expr.Binding.
func (e *Engine) At(name string, i int) uint64 {
	idx, _, ok := e.sch.FieldByName(name)
	if !ok {
		return 0
	}

	bits := e.handles[idx].rawBits()
	if i < 0 || i >= len(bits) {
		return 0
	}

	return bits[i]
}

// U64Field looks up an already-allocated/declared field's typed handle by
// name.
func (e *Engine) U64Field(name string) (*fieldstore.FieldStore[uint64], error) {
	idx, fd, ok := e.sch.FieldByName(name)
	if !ok || fd.Type != schema.U64 {
		return nil, errs.ErrSchemaViolation
	}

	th, ok := e.handles[idx].(typedHandle[uint64])
	if !ok {
		return nil, errs.ErrSchemaViolation
	}

	return th.fs, nil
}

// I64Field looks up an already-allocated/declared field's typed handle by
// name.
func (e *Engine) I64Field(name string) (*fieldstore.FieldStore[int64], error) {
	idx, fd, ok := e.sch.FieldByName(name)
	if !ok || fd.Type != schema.I64 {
		return nil, errs.ErrSchemaViolation
	}

	th, ok := e.handles[idx].(typedHandle[int64])
	if !ok {
		return nil, errs.ErrSchemaViolation
	}

	return th.fs, nil
}

// F64Field looks up an already-allocated/declared field's typed handle by
// name.
func (e *Engine) F64Field(name string) (*fieldstore.FieldStore[float64], error) {
	idx, fd, ok := e.sch.FieldByName(name)
	if !ok || fd.Type != schema.F64 {
		return nil, errs.ErrSchemaViolation
	}

	th, ok := e.handles[idx].(typedHandle[float64])
	if !ok {
		return nil, errs.ErrSchemaViolation
	}

	return th.fs, nil
}

// Write validates and commits the values currently staged in every
// field's handle as the next record, per spec.md §4.5.1. On the first
// call, it freezes the schema and emits the file header. A block flush is
// triggered automatically once the configured thresholds are reached.
func (e *Engine) Write() error {
	if e.mode != modeWrite && e.mode != modeAppend {
		return errs.ErrSchemaViolation
	}
	if e.faulted {
		return errs.ErrEngineFaulted
	}
	if e.closed {
		return errs.ErrEngineClosed
	}

	if !e.headerWritten {
		if err := e.writeHeaderFrame(); err != nil {
			e.faulted = true
			return err
		}
	}

	values := make([][]uint64, len(e.handles))
	for i, fd := range e.sch.Fields() {
		h := e.handles[i]

		expected := 1
		if fd.IsVector() {
			parentRaw := e.handles[fd.ParentIndex].rawBits()
			sum := uint64(0)
			for _, v := range parentRaw {
				sum += v
			}
			expected = int(sum)
		}

		if h.size() != expected {
			return errs.ErrSchemaViolation
		}

		values[i] = h.rawBits()
	}

	if err := e.codec.CommitRecord(values); err != nil {
		e.faulted = true
		return err
	}

	e.totalEvents++
	e.stagedEvents++

	for _, h := range e.handles {
		h.clear()
	}

	if e.codec.ShouldFlush(e.cfg.blockSize, e.cfg.thresholdByteCount) {
		if err := e.flushBlock(); err != nil {
			e.faulted = true
			return err
		}
	}

	return nil
}

func (e *Engine) writeHeaderFrame() error {
	e.sch.Freeze()

	off, err := e.sink.Tell()
	if err != nil {
		return err
	}

	e.headerVersion = CurrentVersion
	e.headerOffset = off
	if err := WriteHeader(e.sink, e.headerVersion, 0, e.sch); err != nil {
		return err
	}

	e.headerWritten = true
	e.codec = block.NewCodec(e.sch, e.cfg.zeroAlign)
	e.globals = make([]FieldGlobals, e.sch.NumFields())

	return nil
}

func (e *Engine) flushBlock() error {
	headers := e.codec.Finalize()
	activeMax := e.codec.FieldActiveMax()
	valueCounts := e.codec.FieldValueCounts()
	eventsInBlock := e.codec.EventCount()

	blockOffset, err := e.sink.Tell()
	if err != nil {
		return err
	}

	hfr := frame.NewFrame(frame.TypeBlockHeader)
	block.WriteBlockHeader(hfr, eventsInBlock, headers)
	if err := hfr.Write(e.sink, e.cfg.deflate); err != nil {
		return err
	}

	bb := bitio.NewBitBuffer()
	e.codec.EncodeData(bb, headers)

	dfr := frame.NewFrame(frame.TypeBlockData)
	dfr.Payload.Append(bb.Bytes())
	if err := dfr.Write(e.sink, e.cfg.deflate); err != nil {
		return err
	}

	e.updateGlobals(headers, activeMax, valueCounts)

	if e.cfg.blockTable {
		e.trailer.Blocks = append(e.trailer.Blocks, BlockIndexEntry{
			NextEventNumber: e.totalEvents - uint64(eventsInBlock),
			FilePtr:         uint64(blockOffset),
		})
	}

	e.blockCount++
	e.stagedEvents = 0
	e.codec.Reset()

	return nil
}

// AddComment appends a free-text comment string to the trailer, emitted
// on Close.
func (e *Engine) AddComment(text string) error {
	if e.mode == modeRead {
		return errs.ErrSchemaViolation
	}

	e.trailer.Comments = append(e.trailer.Comments, text)

	return nil
}

// Comments returns the file's comment strings.
func (e *Engine) Comments() []string { return e.trailer.Comments }

// RemoveComments clears the file's comment strings.
func (e *Engine) RemoveComments() {
	e.trailer.Comments = nil
}

// RecoveredEventCount reports how many events were successfully decoded
// despite a corrupt block, when opened WithRecoverMode().
func (e *Engine) RecoveredEventCount() uint64 { return e.recoveredEvents }

// Close flushes any staged events, writes the trailer (write/append
// mode), and rewrites the file header's trailer pointer if the sink is
// seekable. Idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if e.mode != modeWrite && e.mode != modeAppend {
		return nil
	}

	if !e.headerWritten {
		if err := e.writeHeaderFrame(); err != nil {
			e.faulted = true
			return err
		}
	}

	if e.stagedEvents > 0 {
		if err := e.flushBlock(); err != nil {
			e.faulted = true
			return err
		}
	}

	e.trailer.TotalEventCount = e.totalEvents
	e.trailer.Globals = e.globals
	e.trailer.Aliases = e.sch.Aliases()

	trailerOffset, err := e.sink.Tell()
	if err != nil {
		e.faulted = true
		return err
	}

	if err := WriteTrailer(e.sink, e.headerVersion, e.trailer, e.cfg.deflate); err != nil {
		e.faulted = true
		return err
	}

	if e.sink.Seekable() {
		if err := rewriteTrailerPtr(e.sink, e.headerOffset, e.headerVersion, uint64(trailerOffset), e.sch); err != nil {
			return err
		}
	}

	return nil
}
