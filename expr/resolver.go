package expr

import "github.com/xcdf-go/xcdf/schema"

// NameKind classifies what a Resolver found for a given identifier.
type NameKind uint8

const (
	// NameUnknown means the identifier is neither a field nor an alias.
	NameUnknown NameKind = iota
	// NameField means the identifier names a schema field.
	NameField
	// NameAlias means the identifier names a schema alias; its
	// expression text is parsed afresh at each reference.
	NameAlias
)

// Resolver performs the parse-time static name resolution an expression
// needs: given an identifier, say whether it is a field (and report its
// type and governing parent field name) or an alias (and report its
// expression text, to be parsed recursively), per spec.md §4.6 and the
// alias-descriptor supplement in SPEC_FULL.md.
type Resolver interface {
	Resolve(name string) (kind NameKind, typ schema.FieldType, parent string, aliasExpr string, ok bool)
}

// SchemaResolver adapts a *schema.Schema to Resolver; it is the resolver
// xcdf.Compile uses.
type SchemaResolver struct {
	sch *schema.Schema
}

// NewSchemaResolver returns a Resolver backed by sch's field and alias
// tables.
func NewSchemaResolver(sch *schema.Schema) *SchemaResolver {
	return &SchemaResolver{sch: sch}
}

// Resolve implements Resolver.
func (r *SchemaResolver) Resolve(name string) (NameKind, schema.FieldType, string, string, bool) {
	if _, fd, ok := r.sch.FieldByName(name); ok {
		return NameField, fd.Type, fd.ParentName, "", true
	}
	if ad, ok := r.sch.AliasByName(name); ok {
		return NameAlias, ad.Type, "", ad.Expression, true
	}
	return NameUnknown, 0, "", "", false
}

// Binding is the runtime, per-record data access an evaluated expression
// needs: a field's current vector size, its i-th raw value, and the
// current event number. file.Engine satisfies this directly.
type Binding interface {
	// Size returns the number of values name currently holds (1 for a
	// scalar).
	Size(name string) int
	// At returns the raw 64-bit bit pattern of name's i-th value.
	At(name string, i int) uint64
	// CurrentEventNumber returns the index of the record being evaluated.
	CurrentEventNumber() int64
}
