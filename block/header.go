// Package block implements the per-block codec: per-field active_min /
// active_max / active_size computation, zero-alignment, and the
// bit-packed serialize/deserialize of one block's worth of records, per
// spec.md §4.4.
//
// A block's on-wire data is laid out field-major: every value belonging
// to the first schema field is packed contiguously, then every value of
// the second field, and so on — not interleaved record-by-record. A
// vector field's total run length (and the boundary between its
// per-record chunks) is never stored explicitly; it is recovered by
// summing the already-decoded values of its parent field, which always
// precedes it in schema order.
package block

import (
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/frame"
)

// FieldHeader is one field's entry in a block header: the 64-bit pattern
// of its (possibly zero-aligned) active_min, and the bit width used to
// store every value's offset from it.
type FieldHeader struct {
	RawActiveMin uint64
	ActiveSize   uint8
}

// WriteBlockHeader appends a block header payload — event count followed
// by each field's (raw_active_min, active_size) pair — to fr.
func WriteBlockHeader(fr *frame.Frame, eventCount int, headers []FieldHeader) {
	fr.PutU32(uint32(eventCount))
	fr.PutU32(uint32(len(headers)))
	for _, h := range headers {
		fr.PutU64(h.RawActiveMin)
		fr.PutChar(h.ActiveSize)
	}
}

// ReadBlockHeader parses a block header payload previously written by
// WriteBlockHeader, verifying that the field count matches numFields.
func ReadBlockHeader(fr *frame.Frame, numFields int) (eventCount int, headers []FieldHeader, err error) {
	ec, err := fr.GetU32()
	if err != nil {
		return 0, nil, errs.ErrCorruptBlock
	}

	n, err := fr.GetU32()
	if err != nil {
		return 0, nil, errs.ErrCorruptBlock
	}
	if int(n) != numFields {
		return 0, nil, errs.ErrCorruptBlock
	}

	headers = make([]FieldHeader, n)
	for i := range headers {
		min, err := fr.GetU64()
		if err != nil {
			return 0, nil, errs.ErrCorruptBlock
		}

		sz, err := fr.GetChar()
		if err != nil {
			return 0, nil, errs.ErrCorruptBlock
		}

		headers[i] = FieldHeader{RawActiveMin: min, ActiveSize: sz}
	}

	return int(ec), headers, nil
}
