package expr

import (
	"math"

	"github.com/xcdf-go/xcdf/schema"
)

// asFloat reinterprets a raw 64-bit pattern as a float64 according to its
// declared type t.
func asFloat(raw uint64, t schema.FieldType) float64 {
	switch t {
	case schema.F64:
		return math.Float64frombits(raw)
	case schema.I64:
		return float64(int64(raw))
	default:
		return float64(raw)
	}
}

// asUint reinterprets a raw 64-bit pattern as a uint64 according to t. For
// I64 and U64 the bit pattern is returned unchanged (a two's-complement
// negative value reinterpreted as unsigned is exactly its stored bits,
// mirroring the reference implementation's static_cast<uint64_t>). For F64
// it truncates through a value conversion.
func asUint(raw uint64, t schema.FieldType) uint64 {
	if t == schema.F64 {
		return uint64(math.Float64frombits(raw))
	}
	return raw
}

// truthy reports whether a value is "nonzero" in the C-style sense the
// logical operators use.
func truthy(raw uint64, t schema.FieldType) bool {
	if t == schema.F64 {
		return asFloat(raw, t) != 0
	}
	return raw != 0
}

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func floatBits(v float64) uint64 { return math.Float64bits(v) }

func intBits(v int64) uint64 { return uint64(v) }

// promote implements spec.md §4.6's type promotion rule: F64 dominates
// I64 dominates U64.
func promote(a, b schema.FieldType) schema.FieldType {
	if a == schema.F64 || b == schema.F64 {
		return schema.F64
	}
	if a == schema.I64 || b == schema.I64 {
		return schema.I64
	}
	return schema.U64
}

// convert reinterprets raw (of type from) as type to's raw bit pattern, by
// value (not by bit-pattern truncation), used to bring both operands of a
// binary op to their promoted dominant type.
func convert(raw uint64, from, to schema.FieldType) uint64 {
	if from == to {
		return raw
	}
	switch to {
	case schema.F64:
		return floatBits(asFloat(raw, from))
	case schema.I64:
		if from == schema.F64 {
			return uint64(int64(asFloat(raw, from)))
		}
		return raw // U64 -> I64 keeps the same bit pattern
	default: // schema.U64
		return asUint(raw, from)
	}
}
