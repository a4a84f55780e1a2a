package file

import (
	"github.com/xcdf-go/xcdf/fieldstore"
	"github.com/xcdf-go/xcdf/schema"
)

// fieldHandle is the type-erased view of one field's FieldStore[T] the
// Engine needs to bridge the typed public API down to block.Codec's raw
// []uint64 bit-pattern interface.
type fieldHandle interface {
	size() int
	rawBits() []uint64
	loadRawBits(vals []uint64)
	clear()
}

type typedHandle[T fieldstore.Numeric] struct {
	fs *fieldstore.FieldStore[T]
}

func (h typedHandle[T]) size() int                 { return h.fs.Size() }
func (h typedHandle[T]) rawBits() []uint64         { return h.fs.RawBits() }
func (h typedHandle[T]) loadRawBits(vals []uint64) { h.fs.LoadRawBits(vals) }
func (h typedHandle[T]) clear()                    { h.fs.Clear() }

// newHandles builds one fieldHandle per schema field, in declaration
// order, along with the backing typed FieldStore exposed to callers via
// Engine.U64Field/I64Field/F64Field.
func newHandles(sch *schema.Schema) []fieldHandle {
	handles := make([]fieldHandle, sch.NumFields())
	for i, fd := range sch.Fields() {
		kind := fieldstore.Scalar
		if fd.IsVector() {
			kind = fieldstore.Vector
		}

		switch fd.Type {
		case schema.U64:
			handles[i] = typedHandle[uint64]{fs: fieldstore.New[uint64](kind)}
		case schema.I64:
			handles[i] = typedHandle[int64]{fs: fieldstore.New[int64](kind)}
		default: // F64
			handles[i] = typedHandle[float64]{fs: fieldstore.New[float64](kind)}
		}
	}

	return handles
}
