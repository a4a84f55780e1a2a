package file

import (
	"math"

	"github.com/xcdf-go/xcdf/block"
	"github.com/xcdf-go/xcdf/schema"
)

// lessRaw compares two raw 64-bit patterns as values of the given field
// type, mirroring block.FieldState's internal ordering so that file-wide
// globals accumulate correctly across the type trichotomy.
func lessRaw(t schema.FieldType, a, b uint64) bool {
	switch t {
	case schema.I64:
		return int64(a) < int64(b)
	case schema.F64:
		fa, fb := math.Float64frombits(a), math.Float64frombits(b)
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return false
		}

		return fa < fb
	default: // U64
		return a < b
	}
}

// updateGlobals folds one just-flushed block's per-field (active_min,
// active_max) range and byte contribution into e.globals, per spec.md
// §4.5.5. Byte contribution is ceil(active_size * value_count / 8), the
// field's share of the block's bit-packed payload.
func (e *Engine) updateGlobals(headers []block.FieldHeader, activeMax []uint64, valueCounts []int) {
	for i, fd := range e.sch.Fields() {
		h := headers[i]
		bits := uint64(h.ActiveSize) * uint64(valueCounts[i])
		bytes := (bits + 7) / 8

		e.globals[i].observe(h.RawActiveMin, activeMax[i], bytes, func(a, b uint64) bool { return lessRaw(fd.Type, a, b) })
	}
}
