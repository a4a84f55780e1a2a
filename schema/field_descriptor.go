package schema

import "math"

// FieldDescriptor describes one column of the record: its name, wire type,
// declared resolution, and optional parent field name, per spec.md §3.
//
// Resolution is stored as a 64-bit bit pattern (RawResolution) regardless
// of type so that FieldDescriptor stays a plain, type-agnostic value; use
// ResolutionU64/ResolutionI64/ResolutionF64 to reinterpret it.
type FieldDescriptor struct {
	Name          string
	Type          FieldType
	RawResolution uint64
	ParentName    string

	// ParentIndex is -1 until the field is added to a Schema, at which
	// point it is resolved to the parent's position in field order (Design
	// Note (a): the parent relation is acyclic and resolved by index).
	ParentIndex int
}

// NewU64Field declares an unsigned integer field. A resolution of 0 is
// normalized to 1, per spec.md §3.
func NewU64Field(name string, resolution uint64, parentName string) FieldDescriptor {
	if resolution == 0 {
		resolution = 1
	}

	return FieldDescriptor{Name: name, Type: U64, RawResolution: resolution, ParentName: parentName, ParentIndex: -1}
}

// NewI64Field declares a signed integer field. A resolution of 0 is
// normalized to 1, per spec.md §3.
func NewI64Field(name string, resolution int64, parentName string) FieldDescriptor {
	if resolution == 0 {
		resolution = 1
	}

	return FieldDescriptor{Name: name, Type: I64, RawResolution: uint64(resolution), ParentName: parentName, ParentIndex: -1}
}

// NewF64Field declares a floating-point field. A resolution ≤ 0 means
// "store the full 64-bit pattern" and is preserved as given (Design Notes,
// "Float resolution near zero"); NaN resolutions are rejected by
// Schema.AddField.
func NewF64Field(name string, resolution float64, parentName string) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: F64, RawResolution: math.Float64bits(resolution), ParentName: parentName, ParentIndex: -1}
}

// ResolutionU64 reinterprets RawResolution as the field's declared
// resolution for a U64 field.
func (fd FieldDescriptor) ResolutionU64() uint64 { return fd.RawResolution }

// ResolutionI64 reinterprets RawResolution as the field's declared
// resolution for an I64 field.
func (fd FieldDescriptor) ResolutionI64() int64 { return int64(fd.RawResolution) }

// ResolutionF64 reinterprets RawResolution as the field's declared
// resolution for an F64 field.
func (fd FieldDescriptor) ResolutionF64() float64 { return math.Float64frombits(fd.RawResolution) }

// IsVector reports whether the field is a vector (its length is governed
// by a parent field) as opposed to a scalar.
func (fd FieldDescriptor) IsVector() bool { return fd.ParentName != "" }
