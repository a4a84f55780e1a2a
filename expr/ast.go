// Package expr implements the infix expression language of spec.md §4.6:
// a tokenizer, a precedence-climbing recursive-descent parser, a typed
// AST, and a lazy per-record evaluator with scalar/vector relation
// semantics.
package expr

import (
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/schema"
)

// Node is one AST node: a leaf (field reference, literal,
// currentEventNumber) or an internal node (unary/binary operator,
// function call). Every node reports its own static type and vector
// "parent" identity (empty for a scalar node), and evaluates lazily
// against a Binding for the current record.
type Node interface {
	// Type returns the node's static result type.
	Type() schema.FieldType
	// Parent returns the name of the vector field that governs this
	// node's size, or "" if the node is scalar.
	Parent() string
	// Size returns this node's element count for the record currently
	// exposed by b.
	Size(b Binding) int
	// Eval returns the raw bit pattern of this node's i-th element for
	// the record currently exposed by b.
	Eval(b Binding, i int) (uint64, error)
}

// numberLit is a parsed numeric constant, per spec.md §4.6's "numeric
// parsing attempts" rule.
type numberLit struct {
	typ  schema.FieldType
	bits uint64
}

func (n numberLit) Type() schema.FieldType             { return n.typ }
func (n numberLit) Parent() string                     { return "" }
func (n numberLit) Size(Binding) int                   { return 1 }
func (n numberLit) Eval(Binding, int) (uint64, error)   { return n.bits, nil }

// fieldRef is a leaf bound to a schema field by name.
type fieldRef struct {
	name   string
	typ    schema.FieldType
	parent string
}

func (n fieldRef) Type() schema.FieldType { return n.typ }
func (n fieldRef) Parent() string         { return n.parent }
func (n fieldRef) Size(b Binding) int     { return b.Size(n.name) }
func (n fieldRef) Eval(b Binding, i int) (uint64, error) {
	return b.At(n.name, i), nil
}

// currentEventNum is the "currentEventNumber" leaf, always scalar U64.
type currentEventNum struct{}

func (currentEventNum) Type() schema.FieldType { return schema.U64 }
func (currentEventNum) Parent() string         { return "" }
func (currentEventNum) Size(Binding) int       { return 1 }
func (currentEventNum) Eval(b Binding, _ int) (uint64, error) {
	return uint64(b.CurrentEventNumber()), nil
}

// unaryOp identifies one of the two grammar-level unary operators.
type unaryOp uint8

const (
	opLogicalNot unaryOp = iota
	opBitwiseNot
)

type unaryNode struct {
	op  unaryOp
	arg Node
}

func (n unaryNode) Type() schema.FieldType {
	if n.op == opLogicalNot {
		return schema.U64
	}
	return n.arg.Type()
}

func (n unaryNode) Parent() string     { return n.arg.Parent() }
func (n unaryNode) Size(b Binding) int { return n.arg.Size(b) }

func (n unaryNode) Eval(b Binding, i int) (uint64, error) {
	v, err := n.arg.Eval(b, i)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case opLogicalNot:
		return boolBits(!truthy(v, n.arg.Type())), nil
	default: // opBitwiseNot
		if n.arg.Type() == schema.F64 {
			return 0, errs.ErrTypeError
		}
		return ^v, nil
	}
}

// relation is the SCALAR/SCALAR_FIRST/SCALAR_SECOND/VECTOR_VECTOR
// classification of spec.md §4.6, computed once from each operand's
// static Parent() identity rather than its per-record size.
type relation uint8

const (
	relScalar relation = iota
	relScalarFirst
	relScalarSecond
	relVectorVector
)

// relate classifies the vector relationship of lhs and rhs, failing with
// ErrIncompatibleVectors if both are vectors with distinct parents.
func relate(lhs, rhs Node) (relation, string, error) {
	lp, rp := lhs.Parent(), rhs.Parent()

	switch {
	case lp == "" && rp == "":
		return relScalar, "", nil
	case lp == "":
		return relScalarFirst, rp, nil
	case rp == "":
		return relScalarSecond, lp, nil
	case lp == rp:
		return relVectorVector, lp, nil
	default:
		return 0, "", errs.ErrIncompatibleVectors
	}
}

// evalPair evaluates lhs/rhs at index i according to rel, applying
// SCALAR_FIRST/SCALAR_SECOND broadcast.
func evalPair(b Binding, lhs, rhs Node, rel relation, i int) (uint64, uint64, error) {
	li, ri := i, i
	switch rel {
	case relScalar, relScalarFirst:
		li = 0
	case relScalarSecond:
		ri = 0
	}

	lv, err := lhs.Eval(b, li)
	if err != nil {
		return 0, 0, err
	}
	rv, err := rhs.Eval(b, ri)
	if err != nil {
		return 0, 0, err
	}

	return lv, rv, nil
}

func sizeOf(b Binding, lhs, rhs Node, rel relation) int {
	switch rel {
	case relScalarFirst:
		return rhs.Size(b)
	case relScalarSecond:
		return lhs.Size(b)
	case relVectorVector:
		return lhs.Size(b)
	default: // relScalar
		return 1
	}
}
