// Package schema holds the field and alias graph of an XCDF file: an
// ordered sequence of FieldDescriptor plus a set of AliasDescriptor,
// frozen after the first record is written or any read occurs
// (spec.md §3 Schema).
package schema

import (
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/internal/hash"
)

// Schema is the ordered field list and alias set of one XCDF file. It is
// mutable only before Freeze; AddField/AddAlias return
// errs.ErrSchemaFrozen afterward.
type Schema struct {
	fields  []FieldDescriptor
	aliases []AliasDescriptor

	// fieldIndex is the sole name→index lookup path for fields: keyed by
	// xxhash of the name, falling back to a direct string compare against
	// every same-hash candidate — the "hash for speed, string for
	// correctness" split the teacher uses for its name-managed metric
	// lookup path. Aliases are looked up by plain string map, since they
	// are resolved far less often (once per expression compile, not once
	// per field access).
	fieldIndex  map[uint64][]int
	aliasByName map[string]int

	frozen bool
}

// NewSchema returns an empty, mutable Schema.
func NewSchema() *Schema {
	return &Schema{
		fieldIndex:  make(map[uint64][]int),
		aliasByName: make(map[string]int),
	}
}

// lookupByName is the shared hash-then-verify path behind FieldByName and
// every internal by-name resolution (duplicate checks, parent resolution).
func (s *Schema) lookupByName(name string) (int, bool) {
	return s.FieldIndexByHash(hash.ID(name), name)
}

// AddField declares a new field. Validation performed here:
//   - the schema is not frozen
//   - the name is non-empty and not already used
//   - the type tag is one of U64/I64/F64
//   - for F64, the resolution is not NaN
//   - if ParentName is set, it names a previously declared U64 field; if
//     that parent is itself a scalar (no parent of its own) its
//     resolution must be exactly 1 — the rule that lets a recursive
//     vector's immediate parent be another vector, while still pinning
//     every chain's root to a unit-resolution counter field.
//
// On success, fd.ParentIndex is resolved and the field is appended in
// declaration order.
func (s *Schema) AddField(fd FieldDescriptor) error {
	if s.frozen {
		return errs.ErrSchemaFrozen
	}
	if fd.Name == "" {
		return errs.ErrSchemaViolation
	}
	if !fd.Type.Valid() {
		return errs.ErrSchemaViolation
	}
	if fd.Type == F64 && fd.ResolutionF64() != fd.ResolutionF64() { // NaN check
		return errs.ErrInvalidResolution
	}
	if _, exists := s.lookupByName(fd.Name); exists {
		return errs.ErrDuplicateField
	}

	fd.ParentIndex = -1
	if fd.ParentName != "" {
		parentIdx, ok := s.lookupByName(fd.ParentName)
		if !ok {
			return errs.ErrUnknownParent
		}
		parent := s.fields[parentIdx]
		if parent.Type != U64 {
			return errs.ErrInvalidParent
		}
		if !parent.IsVector() && parent.ResolutionU64() != 1 {
			return errs.ErrInvalidParent
		}
		fd.ParentIndex = parentIdx
	}

	idx := len(s.fields)
	s.fields = append(s.fields, fd)

	h := hash.ID(fd.Name)
	s.fieldIndex[h] = append(s.fieldIndex[h], idx)

	return nil
}

// AddAlias declares a new alias. Its expression is not parsed here; that
// happens lazily the first time the expression engine resolves it.
func (s *Schema) AddAlias(ad AliasDescriptor) error {
	if s.frozen {
		return errs.ErrSchemaFrozen
	}
	if ad.Name == "" {
		return errs.ErrSchemaViolation
	}
	if _, exists := s.aliasByName[ad.Name]; exists {
		return errs.ErrDuplicateAlias
	}

	s.aliasByName[ad.Name] = len(s.aliases)
	s.aliases = append(s.aliases, ad)

	return nil
}

// Freeze locks the schema against further mutation. Idempotent.
func (s *Schema) Freeze() { s.frozen = true }

// Frozen reports whether Freeze has been called.
func (s *Schema) Frozen() bool { return s.frozen }

// Fields returns the field descriptors in declaration order. The backing
// slice must not be mutated by the caller.
func (s *Schema) Fields() []FieldDescriptor { return s.fields }

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Aliases returns the alias descriptors in declaration order.
func (s *Schema) Aliases() []AliasDescriptor { return s.aliases }

// FieldByName returns the field's index and descriptor, or ok=false if no
// field with that name exists. Resolves via lookupByName, hashing name
// once and verifying against same-hash candidates.
func (s *Schema) FieldByName(name string) (int, FieldDescriptor, bool) {
	idx, ok := s.lookupByName(name)
	if !ok {
		return 0, FieldDescriptor{}, false
	}

	return idx, s.fields[idx], true
}

// FieldIndexByHash looks up a field's index by the xxhash of its name,
// verifying against every same-hash candidate's actual name to guard
// against hash collisions. This is the lookup primitive FieldByName and
// every internal by-name resolution (duplicate checks, parent
// resolution) are built on; exposed directly for callers that already
// have a precomputed hash and want to avoid rehashing.
func (s *Schema) FieldIndexByHash(h uint64, name string) (int, bool) {
	for _, idx := range s.fieldIndex[h] {
		if s.fields[idx].Name == name {
			return idx, true
		}
	}

	return 0, false
}

// AliasByName returns the alias descriptor, or ok=false if no alias with
// that name exists.
func (s *Schema) AliasByName(name string) (AliasDescriptor, bool) {
	idx, ok := s.aliasByName[name]
	if !ok {
		return AliasDescriptor{}, false
	}

	return s.aliases[idx], true
}

// Field returns the field descriptor at position i.
func (s *Schema) Field(i int) FieldDescriptor { return s.fields[i] }
