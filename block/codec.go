package block

import (
	"github.com/xcdf-go/xcdf/bitio"
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/schema"
)

// Default flush thresholds, per spec.md §4.4 step 2.
const (
	DefaultBlockSize          = 1000
	DefaultThresholdByteCount = 100_000_000
)

// Codec accumulates records for one block and serializes/deserializes
// them against a fixed schema. A single Codec is reused across the
// lifetime of a FileEngine, Reset between blocks.
type Codec struct {
	sch        *schema.Schema
	zeroAlign  bool
	fields     []*FieldState
	eventCount int
}

// NewCodec returns a Codec bound to sch, with zero-align per spec.md
// §4.4 step 3 (a file-level flag, default on).
func NewCodec(sch *schema.Schema, zeroAlign bool) *Codec {
	fields := make([]*FieldState, sch.NumFields())
	for i, fd := range sch.Fields() {
		fields[i] = NewFieldState(fd.Type, fd.RawResolution)
	}

	return &Codec{sch: sch, zeroAlign: zeroAlign, fields: fields}
}

// EventCount returns the number of records staged since the last Reset.
func (c *Codec) EventCount() int { return c.eventCount }

// CommitRecord appends one record's per-field raw bit-pattern values
// (schema field order) to the block's staging area. len(values) must
// equal the schema's field count.
func (c *Codec) CommitRecord(values [][]uint64) error {
	if len(values) != len(c.fields) {
		return errs.ErrSchemaViolation
	}

	for i, v := range values {
		c.fields[i].AddRecord(v)
	}
	c.eventCount++

	return nil
}

// StagedBytes estimates the in-memory footprint of everything staged so
// far, used for the byte-count flush trigger.
func (c *Codec) StagedBytes() int {
	total := 0
	for _, f := range c.fields {
		total += len(f.values) * 8
	}

	return total
}

// ShouldFlush reports whether the block should close given blockSize
// (event-count threshold) and thresholdBytes (byte-count threshold).
func (c *Codec) ShouldFlush(blockSize, thresholdBytes int) bool {
	return c.eventCount >= blockSize || c.StagedBytes() >= thresholdBytes
}

// Finalize computes every field's header (spec.md §4.4 steps 3-4), in
// schema order.
func (c *Codec) Finalize() []FieldHeader {
	headers := make([]FieldHeader, len(c.fields))
	for i, f := range c.fields {
		headers[i] = f.Finalize(c.zeroAlign)
	}

	return headers
}

// EncodeData bit-packs the block's staged values into bb, field-major:
// every value of field 0 first, then every value of field 1, and so on
// (spec.md §4.4 steps 5-6).
func (c *Codec) EncodeData(bb *bitio.BitBuffer, headers []FieldHeader) {
	for i, f := range c.fields {
		h := headers[i]
		for _, v := range f.values {
			bb.Add(f.quantize(v, h), int(h.ActiveSize))
		}
	}
}

// DecodeData unpacks eventCount records' worth of data from bb, field by
// field in schema order. A vector field's run length is derived from its
// already-decoded parent rather than stored on the wire.
func (c *Codec) DecodeData(bb *bitio.BitBuffer, headers []FieldHeader, eventCount int) error {
	c.eventCount = eventCount
	for _, f := range c.fields {
		f.Reset()
	}

	for i, fd := range c.sch.Fields() {
		f := c.fields[i]
		h := headers[i]

		lengths := make([]int, eventCount)
		if fd.ParentIndex < 0 {
			for r := range lengths {
				lengths[r] = 1
			}
		} else {
			parent := c.fields[fd.ParentIndex]
			for r := 0; r < eventCount; r++ {
				start := parent.Offsets[r]
				length := parent.Lengths[r]

				var sum uint64
				for k := start; k < start+length; k++ {
					sum += parent.values[k]
				}
				lengths[r] = int(sum)
			}
		}

		offsets := make([]int, eventCount)
		total := 0
		for r, l := range lengths {
			offsets[r] = total
			total += l
		}

		values := make([]uint64, total)
		for k := 0; k < total; k++ {
			q, err := bb.Get(int(h.ActiveSize))
			if err != nil {
				return errs.ErrCorruptBlock
			}
			values[k] = f.dequantize(q, h)
		}

		f.values = values
		f.Offsets = offsets
		f.Lengths = lengths
	}

	return nil
}

// RecordValues returns record r's raw bit-pattern values for field i,
// valid after DecodeData or after CommitRecord has staged that record.
func (c *Codec) RecordValues(fieldIdx, record int) []uint64 {
	f := c.fields[fieldIdx]
	start := f.Offsets[record]
	length := f.Lengths[record]

	return f.values[start : start+length]
}

// FieldActiveMax returns, per field in schema order, the field's true
// (non-zero-aligned) maximum value observed this block — used alongside
// Finalize's headers to give the file engine an exact block range for
// file-wide global statistics (spec.md §4.5.5).
func (c *Codec) FieldActiveMax() []uint64 {
	maxes := make([]uint64, len(c.fields))
	for i, f := range c.fields {
		maxes[i] = f.ActiveMax()
	}

	return maxes
}

// FieldValueCounts returns, per field in schema order, the number of
// values currently staged for this block — used by the file engine to
// attribute a block's packed byte size across fields for the trailer's
// per-field global statistics (spec.md §4.5.5).
func (c *Codec) FieldValueCounts() []int {
	counts := make([]int, len(c.fields))
	for i, f := range c.fields {
		counts[i] = len(f.values)
	}

	return counts
}

// RetrackAll rebuilds every field's hasValues/activeMin/activeMax/sawNaN
// bookkeeping from its current values, for callers that populated values
// via DecodeData rather than CommitRecord — append-reopen's partial-block
// replay, per spec.md §4.5.4.
func (c *Codec) RetrackAll() {
	for _, f := range c.fields {
		f.Retrack()
	}
}

// Reset clears all field state, ready for the next block.
func (c *Codec) Reset() {
	for _, f := range c.fields {
		f.Reset()
	}
	c.eventCount = 0
}
