package schema

// AliasDescriptor is a named expression bound to a schema, evaluated
// lazily by the expression engine against each record, per spec.md §3.
// Type is inferred when the expression is first parsed against its
// schema; it is the zero FieldType (U64) until then.
type AliasDescriptor struct {
	Name       string
	Expression string
	Type       FieldType
}

// NewAliasDescriptor declares an alias with an as-yet-unresolved type.
func NewAliasDescriptor(name, expression string) AliasDescriptor {
	return AliasDescriptor{Name: name, Expression: expression}
}
