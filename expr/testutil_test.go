package expr

import "github.com/xcdf-go/xcdf/schema"

// mapResolver is a minimal Resolver backed by plain Go maps, letting
// tests declare a field/alias set without spinning up a full
// schema.Schema.
type mapResolver struct {
	fields  map[string]fieldSpec
	aliases map[string]string
}

type fieldSpec struct {
	typ    schema.FieldType
	parent string
}

func newMapResolver() *mapResolver {
	return &mapResolver{fields: map[string]fieldSpec{}, aliases: map[string]string{}}
}

func (r *mapResolver) withField(name string, typ schema.FieldType, parent string) *mapResolver {
	r.fields[name] = fieldSpec{typ: typ, parent: parent}
	return r
}

func (r *mapResolver) withAlias(name, exp string) *mapResolver {
	r.aliases[name] = exp
	return r
}

func (r *mapResolver) Resolve(name string) (NameKind, schema.FieldType, string, string, bool) {
	if f, ok := r.fields[name]; ok {
		return NameField, f.typ, f.parent, "", true
	}
	if e, ok := r.aliases[name]; ok {
		return NameAlias, 0, "", e, true
	}
	return NameUnknown, 0, "", "", false
}

// recordBinding is a Binding over a fixed set of per-field value slices,
// used to drive evaluation in tests without an open file.Engine.
type recordBinding struct {
	values  map[string][]uint64
	current int64
}

func newRecordBinding() *recordBinding {
	return &recordBinding{values: map[string][]uint64{}}
}

func (b *recordBinding) setU64(name string, vals ...uint64) *recordBinding {
	b.values[name] = append([]uint64(nil), vals...)
	return b
}

func (b *recordBinding) setI64(name string, vals ...int64) *recordBinding {
	raw := make([]uint64, len(vals))
	for i, v := range vals {
		raw[i] = intBits(v)
	}
	b.values[name] = raw
	return b
}

func (b *recordBinding) setF64(name string, vals ...float64) *recordBinding {
	raw := make([]uint64, len(vals))
	for i, v := range vals {
		raw[i] = floatBits(v)
	}
	b.values[name] = raw
	return b
}

func (b *recordBinding) Size(name string) int { return len(b.values[name]) }

func (b *recordBinding) At(name string, i int) uint64 {
	vals := b.values[name]
	if i < 0 || i >= len(vals) {
		return 0
	}
	return vals[i]
}

func (b *recordBinding) CurrentEventNumber() int64 { return b.current }

// evalAll runs n against b and returns every element's raw bits.
func evalAll(n Node, b Binding) ([]uint64, error) {
	size := n.Size(b)
	out := make([]uint64, size)
	for i := 0; i < size; i++ {
		v, err := n.Eval(b, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
