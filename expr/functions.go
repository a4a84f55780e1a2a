package expr

import (
	"math"
	"math/rand"

	"github.com/xcdf-go/xcdf/schema"
)

// funcArity classifies a named function by its argument count, per
// spec.md §4.6's three lists.
type funcArity uint8

const (
	arityUnary funcArity = iota
	arityBinary
	arityNullary
)

// funcKind identifies one of the named functions.
type funcKind uint8

const (
	fnSin funcKind = iota
	fnCos
	fnTan
	fnAsin
	fnAcos
	fnAtan
	fnLog
	fnLog10
	fnExp
	fnAbs
	fnSqrt
	fnCeil
	fnFloor
	fnIsNaN
	fnIsInf
	fnSinh
	fnCosh
	fnTanh
	fnUnique
	fnFmod
	fnPow
	fnAtan2
	fnRand
)

// functionTable maps every recognized function name to its kind and
// arity, per spec.md §4.6: "unary (sin,cos,tan,asin,acos,atan,log,log10,
// exp,abs,fabs,sqrt,ceil,floor,isnan,isinf,sinh,cosh,tanh,unique), binary
// (fmod,pow,atan2), nullary (rand)".
var functionTable = map[string]struct {
	kind  funcKind
	arity funcArity
}{
	"sin":    {fnSin, arityUnary},
	"cos":    {fnCos, arityUnary},
	"tan":    {fnTan, arityUnary},
	"asin":   {fnAsin, arityUnary},
	"acos":   {fnAcos, arityUnary},
	"atan":   {fnAtan, arityUnary},
	"log":    {fnLog, arityUnary},
	"log10":  {fnLog10, arityUnary},
	"exp":    {fnExp, arityUnary},
	"abs":    {fnAbs, arityUnary},
	"fabs":   {fnAbs, arityUnary},
	"sqrt":   {fnSqrt, arityUnary},
	"ceil":   {fnCeil, arityUnary},
	"floor":  {fnFloor, arityUnary},
	"isnan":  {fnIsNaN, arityUnary},
	"isinf":  {fnIsInf, arityUnary},
	"sinh":   {fnSinh, arityUnary},
	"cosh":   {fnCosh, arityUnary},
	"tanh":   {fnTanh, arityUnary},
	"unique": {fnUnique, arityUnary},
	"fmod":   {fnFmod, arityBinary},
	"pow":    {fnPow, arityBinary},
	"atan2":  {fnAtan2, arityBinary},
	"rand":   {fnRand, arityNullary},
}

// unaryFuncResultType reports whether kind returns U64 (isnan/isinf) or
// F64 (every other unary math function); unique is handled separately
// since it is not elementwise.
func unaryFuncResultType(kind funcKind) schema.FieldType {
	switch kind {
	case fnIsNaN, fnIsInf:
		return schema.U64
	default:
		return schema.F64
	}
}

// unaryFuncNode wraps one of the elementwise unary math/predicate
// functions; size and parent identity pass through from the argument.
type unaryFuncNode struct {
	kind funcKind
	arg  Node
	typ  schema.FieldType
}

func newUnaryFuncNode(kind funcKind, arg Node) Node {
	return unaryFuncNode{kind: kind, arg: arg, typ: unaryFuncResultType(kind)}
}

func (n unaryFuncNode) Type() schema.FieldType { return n.typ }
func (n unaryFuncNode) Parent() string         { return n.arg.Parent() }
func (n unaryFuncNode) Size(b Binding) int     { return n.arg.Size(b) }

func (n unaryFuncNode) Eval(b Binding, i int) (uint64, error) {
	v, err := n.arg.Eval(b, i)
	if err != nil {
		return 0, err
	}
	x := asFloat(v, n.arg.Type())

	switch n.kind {
	case fnSin:
		return floatBits(math.Sin(x)), nil
	case fnCos:
		return floatBits(math.Cos(x)), nil
	case fnTan:
		return floatBits(math.Tan(x)), nil
	case fnAsin:
		return floatBits(math.Asin(x)), nil
	case fnAcos:
		return floatBits(math.Acos(x)), nil
	case fnAtan:
		return floatBits(math.Atan(x)), nil
	case fnLog:
		return floatBits(math.Log(x)), nil
	case fnLog10:
		return floatBits(math.Log10(x)), nil
	case fnExp:
		return floatBits(math.Exp(x)), nil
	case fnAbs:
		return floatBits(math.Abs(x)), nil
	case fnSqrt:
		return floatBits(math.Sqrt(x)), nil
	case fnCeil:
		return floatBits(math.Ceil(x)), nil
	case fnFloor:
		return floatBits(math.Floor(x)), nil
	case fnIsNaN:
		return boolBits(math.IsNaN(x)), nil
	case fnIsInf:
		return boolBits(math.IsInf(x, 0)), nil
	case fnSinh:
		return floatBits(math.Sinh(x)), nil
	case fnCosh:
		return floatBits(math.Cosh(x)), nil
	default: // fnTanh
		return floatBits(math.Tanh(x)), nil
	}
}

// binaryFuncNode wraps one of the two-argument math functions; these
// use the same SCALAR/SCALAR_FIRST/SCALAR_SECOND/VECTOR_VECTOR relation
// as the infix operators.
type binaryFuncNode struct {
	kind     funcKind
	lhs, rhs Node
	rel      relation
	parent   string
}

func newBinaryFuncNode(kind funcKind, lhs, rhs Node) (Node, error) {
	rel, parent, err := relate(lhs, rhs)
	if err != nil {
		return nil, err
	}
	return binaryFuncNode{kind: kind, lhs: lhs, rhs: rhs, rel: rel, parent: parent}, nil
}

func (n binaryFuncNode) Type() schema.FieldType { return schema.F64 }
func (n binaryFuncNode) Parent() string         { return n.parent }
func (n binaryFuncNode) Size(b Binding) int     { return sizeOf(b, n.lhs, n.rhs, n.rel) }

func (n binaryFuncNode) Eval(b Binding, i int) (uint64, error) {
	lv, rv, err := evalPair(b, n.lhs, n.rhs, n.rel, i)
	if err != nil {
		return 0, err
	}
	a, c := asFloat(lv, n.lhs.Type()), asFloat(rv, n.rhs.Type())

	switch n.kind {
	case fnFmod:
		return floatBits(math.Mod(a, c)), nil
	case fnPow:
		return floatBits(math.Pow(a, c)), nil
	default: // fnAtan2
		return floatBits(math.Atan2(a, c)), nil
	}
}

// uniqueNode counts the distinct values its argument currently holds
// across the record, always scalar U64, per spec.md §4.6: "unique
// evaluates to the number of distinct values of its argument in the
// current record".
type uniqueNode struct {
	arg Node
}

func (uniqueNode) Type() schema.FieldType { return schema.U64 }
func (uniqueNode) Parent() string         { return "" }
func (uniqueNode) Size(Binding) int       { return 1 }

func (n uniqueNode) Eval(b Binding, _ int) (uint64, error) {
	size := n.arg.Size(b)
	seen := make(map[uint64]struct{}, size)
	for i := 0; i < size; i++ {
		v, err := n.arg.Eval(b, i)
		if err != nil {
			return 0, err
		}
		seen[v] = struct{}{}
	}

	return uint64(len(seen)), nil
}

// randNode is the nullary "rand" function. Per spec.md §5, random state
// is process-global and not deterministically seeded by the engine, so
// this uses the package-level math/rand generator directly.
type randNode struct{}

func (randNode) Type() schema.FieldType { return schema.U64 }
func (randNode) Parent() string         { return "" }
func (randNode) Size(Binding) int       { return 1 }
func (randNode) Eval(Binding, int) (uint64, error) {
	return uint64(rand.Int63()), nil //nolint:gosec // process-global PRNG by design, not cryptographic
}
