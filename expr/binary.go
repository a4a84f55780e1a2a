package expr

import (
	"math"

	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/schema"
)

// binaryOp identifies one infix operator from spec.md §4.6's grammar.
type binaryOp uint8

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opMod
	opPow
	opGT
	opLT
	opGE
	opLE
	opEQ
	opNE
	opBitAnd
	opBitOr
	opLogAnd
	opLogOr
)

// binaryNode is every infix operator node: the grammar's precedence
// levels all produce the same shape, differing only in op.
type binaryNode struct {
	op       binaryOp
	lhs, rhs Node
	rel      relation
	parent   string
	typ      schema.FieldType
}

// newBinaryNode builds a binaryNode, resolving the vector relation and
// the statically-known result type up front (construction time is parse
// time, so IncompatibleVectors is reported as a parse-time failure, same
// as the reference implementation computing the relation once from each
// operand's field identity rather than per evaluation).
func newBinaryNode(op binaryOp, lhs, rhs Node) (Node, error) {
	rel, parent, err := relate(lhs, rhs)
	if err != nil {
		return nil, err
	}

	typ, err := binaryResultType(op, lhs.Type(), rhs.Type())
	if err != nil {
		return nil, err
	}

	return binaryNode{op: op, lhs: lhs, rhs: rhs, rel: rel, parent: parent, typ: typ}, nil
}

// binaryResultType determines a binary operator's static result type,
// and rejects the float/bitwise combination that spec.md §4.6 calls out
// as a TypeError regardless of operand values.
func binaryResultType(op binaryOp, lt, rt schema.FieldType) (schema.FieldType, error) {
	switch op {
	case opPow:
		return schema.F64, nil
	case opMod:
		return schema.U64, nil
	case opGT, opLT, opGE, opLE, opEQ, opNE, opLogAnd, opLogOr:
		return schema.U64, nil
	case opBitAnd, opBitOr:
		dom := promote(lt, rt)
		if dom == schema.F64 {
			return 0, errs.ErrTypeError
		}
		return dom, nil
	default: // opAdd, opSub, opMul, opDiv
		return promote(lt, rt), nil
	}
}

func (n binaryNode) Type() schema.FieldType { return n.typ }
func (n binaryNode) Parent() string         { return n.parent }
func (n binaryNode) Size(b Binding) int     { return sizeOf(b, n.lhs, n.rhs, n.rel) }

func (n binaryNode) Eval(b Binding, i int) (uint64, error) {
	lv, rv, err := evalPair(b, n.lhs, n.rhs, n.rel, i)
	if err != nil {
		return 0, err
	}

	lt, rt := n.lhs.Type(), n.rhs.Type()

	switch n.op {
	case opAdd, opSub, opMul, opDiv:
		dom := promote(lt, rt)
		return arith(n.op, dom, convert(lv, lt, dom), convert(rv, rt, dom))
	case opMod:
		a, bb := asUint(lv, lt), asUint(rv, rt)
		if bb == 0 {
			return 0, nil
		}
		return a % bb, nil
	case opPow:
		return floatBits(math.Pow(asFloat(lv, lt), asFloat(rv, rt))), nil
	case opGT, opLT, opGE, opLE, opEQ, opNE:
		dom := promote(lt, rt)
		return boolBits(compare(n.op, dom, convert(lv, lt, dom), convert(rv, rt, dom))), nil
	case opLogAnd:
		return boolBits(truthy(lv, lt) && truthy(rv, rt)), nil
	case opLogOr:
		return boolBits(truthy(lv, lt) || truthy(rv, rt)), nil
	case opBitAnd:
		return lv & rv, nil
	case opBitOr:
		return lv | rv, nil
	default:
		return 0, errs.ErrParseError
	}
}

// arith applies +,-,*,/ over two values already converted to their
// common dominant type dom.
func arith(op binaryOp, dom schema.FieldType, a, b uint64) (uint64, error) {
	if dom == schema.F64 {
		af, bf := math.Float64frombits(a), math.Float64frombits(b)
		switch op {
		case opAdd:
			return floatBits(af + bf), nil
		case opSub:
			return floatBits(af - bf), nil
		case opMul:
			return floatBits(af * bf), nil
		default: // opDiv
			return floatBits(af / bf), nil
		}
	}
	if dom == schema.I64 {
		ai, bi := int64(a), int64(b)
		switch op {
		case opAdd:
			return intBits(ai + bi), nil
		case opSub:
			return intBits(ai - bi), nil
		case opMul:
			return intBits(ai * bi), nil
		default: // opDiv
			if bi == 0 {
				return 0, nil
			}
			return intBits(ai / bi), nil
		}
	}
	// U64
	switch op {
	case opAdd:
		return a + b, nil
	case opSub:
		return a - b, nil
	case opMul:
		return a * b, nil
	default: // opDiv
		if b == 0 {
			return 0, nil
		}
		return a / b, nil
	}
}

// compare applies the six relational/equality operators over two values
// already converted to their common dominant type dom.
func compare(op binaryOp, dom schema.FieldType, a, b uint64) bool {
	if dom == schema.F64 {
		af, bf := math.Float64frombits(a), math.Float64frombits(b)
		switch op {
		case opGT:
			return af > bf
		case opLT:
			return af < bf
		case opGE:
			return af >= bf
		case opLE:
			return af <= bf
		case opEQ:
			return af == bf
		default: // opNE
			return af != bf
		}
	}
	if dom == schema.I64 {
		ai, bi := int64(a), int64(b)
		switch op {
		case opGT:
			return ai > bi
		case opLT:
			return ai < bi
		case opGE:
			return ai >= bi
		case opLE:
			return ai <= bi
		case opEQ:
			return ai == bi
		default: // opNE
			return ai != bi
		}
	}
	switch op {
	case opGT:
		return a > b
	case opLT:
		return a < b
	case opGE:
		return a >= b
	case opLE:
		return a <= b
	case opEQ:
		return a == b
	default: // opNE
		return a != b
	}
}
