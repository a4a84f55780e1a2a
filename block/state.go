package block

import (
	"math"

	"github.com/xcdf-go/xcdf/schema"
)

// FieldState accumulates one field's values for the block currently being
// written, and on the read side holds its fully decoded values plus the
// per-record offset/length bookkeeping its vector descendants need to
// compute their own lengths, per spec.md §4.4.
//
// Values are stored as raw 64-bit patterns regardless of type: the
// pattern itself for U64, uint64(v) for I64, math.Float64bits(v) for F64.
type FieldState struct {
	Type       schema.FieldType
	Resolution uint64

	values []uint64

	activeMin uint64
	activeMax uint64
	hasValues bool
	sawNaN    bool

	// Offsets[r]/Lengths[r] give the slice of values belonging to record
	// r: values[Offsets[r] : Offsets[r]+Lengths[r]].
	Offsets []int
	Lengths []int
}

// NewFieldState returns an empty accumulator for a field of the given
// type and resolution (raw bit pattern, per FieldDescriptor.RawResolution).
func NewFieldState(t schema.FieldType, resolution uint64) *FieldState {
	return &FieldState{Type: t, Resolution: resolution}
}

// Reset empties the state for reuse across blocks, preserving Type and
// Resolution.
func (fs *FieldState) Reset() {
	fs.values = fs.values[:0]
	fs.Offsets = fs.Offsets[:0]
	fs.Lengths = fs.Lengths[:0]
	fs.activeMin = 0
	fs.activeMax = 0
	fs.hasValues = false
	fs.sawNaN = false
}

// AddRecord appends one record's worth of raw bit-pattern values, in
// order, and extends the per-record offset/length bookkeeping.
func (fs *FieldState) AddRecord(vals []uint64) {
	start := len(fs.values)
	for _, v := range vals {
		fs.track(v)
	}

	fs.Offsets = append(fs.Offsets, start)
	fs.Lengths = append(fs.Lengths, len(vals))
}

func (fs *FieldState) track(bits uint64) {
	fs.values = append(fs.values, bits)
	fs.observe(bits)
}

// observe folds one value's bit pattern into the running
// hasValues/activeMin/activeMax/sawNaN bookkeeping without appending it to
// values, used both by track (the normal add path) and by Retrack (the
// append-reopen replay path, where values already hold the loaded block's
// contents and only the bookkeeping needs rebuilding).
func (fs *FieldState) observe(bits uint64) {
	if fs.Type == schema.F64 && math.IsNaN(math.Float64frombits(bits)) {
		fs.sawNaN = true
	}

	if !fs.hasValues {
		fs.activeMin, fs.activeMax = bits, bits
		fs.hasValues = true
		return
	}

	if fs.less(bits, fs.activeMin) {
		fs.activeMin = bits
	}
	if fs.less(fs.activeMax, bits) {
		fs.activeMax = bits
	}
}

// Retrack rebuilds hasValues/activeMin/activeMax/sawNaN from the field's
// current values, for callers that populate values directly (DecodeData)
// rather than incrementally via AddRecord — append-reopen's block replay,
// per spec.md §4.5.4.
func (fs *FieldState) Retrack() {
	fs.hasValues = false
	fs.sawNaN = false
	fs.activeMin = 0
	fs.activeMax = 0

	for _, v := range fs.values {
		fs.observe(v)
	}
}

func (fs *FieldState) less(a, b uint64) bool {
	switch fs.Type {
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

// ActiveMax returns the field's true (non-zero-aligned) maximum value
// observed this block, valid after at least one AddRecord call.
func (fs *FieldState) ActiveMax() uint64 { return fs.activeMax }

// Finalize computes the field's block header: zero-aligned active_min
// (if requested) and the resulting active_size, per spec.md §4.4 steps
// 3-4. A field with no staged values this block gets the zero header.
func (fs *FieldState) Finalize(zeroAlign bool) FieldHeader {
	if !fs.hasValues {
		return FieldHeader{}
	}

	if fs.sawNaN || (fs.Type == schema.F64 && math.Float64frombits(fs.Resolution) <= 0) {
		return FieldHeader{ActiveSize: 64}
	}

	minBits := fs.activeMin
	if zeroAlign {
		minBits = fs.zeroAligned(minBits)
		fs.activeMin = minBits
	}

	return FieldHeader{RawActiveMin: minBits, ActiveSize: fs.computeActiveSize(minBits, fs.activeMax)}
}

func (fs *FieldState) zeroAligned(minBits uint64) uint64 {
	switch fs.Type {
	case schema.I64:
		res := int64(fs.Resolution)
		q := floorDivInt64(int64(minBits), res)
		return uint64(q * res)
	case schema.F64:
		res := math.Float64frombits(fs.Resolution)
		v := math.Float64frombits(minBits)
		return math.Float64bits(math.Floor(v/res) * res)
	default: // U64
		res := fs.Resolution
		return (minBits / res) * res
	}
}

func (fs *FieldState) computeActiveSize(minBits, maxBits uint64) uint8 {
	switch fs.Type {
	case schema.F64:
		res := math.Float64frombits(fs.Resolution)
		span := (math.Float64frombits(maxBits) - math.Float64frombits(minBits)) / res
		return activeSizeForFloatSpan(span)
	case schema.I64:
		diff := uint64(int64(maxBits) - int64(minBits))
		return activeSizeForUintSpan(diff / fs.Resolution)
	default: // U64
		diff := maxBits - minBits
		return activeSizeForUintSpan(diff / fs.Resolution)
	}
}

// quantize converts a raw value into its stored offset-from-min, per
// spec.md §4.4 step 6. When header.ActiveSize is 64 the raw pattern is
// emitted unchanged (the NaN / non-positive-F64-resolution escape hatch).
func (fs *FieldState) quantize(bits uint64, header FieldHeader) uint64 {
	if header.ActiveSize == 64 {
		return bits
	}

	switch fs.Type {
	case schema.I64:
		diff := uint64(int64(bits) - int64(header.RawActiveMin))
		return diff / fs.Resolution
	case schema.F64:
		res := math.Float64frombits(fs.Resolution)
		min := math.Float64frombits(header.RawActiveMin)
		v := math.Float64frombits(bits)
		return uint64((v-min)/res + 0.5) // nearest multiple of res, not truncation
	default: // U64
		return (bits - header.RawActiveMin) / fs.Resolution
	}
}

// dequantize is quantize's inverse, used on the read side.
func (fs *FieldState) dequantize(q uint64, header FieldHeader) uint64 {
	if header.ActiveSize == 64 {
		return q
	}

	switch fs.Type {
	case schema.I64:
		return uint64(int64(header.RawActiveMin) + int64(q*fs.Resolution))
	case schema.F64:
		res := math.Float64frombits(fs.Resolution)
		min := math.Float64frombits(header.RawActiveMin)
		return math.Float64bits(min + float64(q)*res)
	default: // U64
		return header.RawActiveMin + q*fs.Resolution
	}
}
