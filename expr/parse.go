package expr

import (
	"fmt"

	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/schema"
)

var errParse = errs.ErrParseError

// Compile parses src against resolver and returns its typed AST root,
// per spec.md §4.6. Parse errors, unknown names, arity mismatches, and
// type errors are all returned here rather than deferred to evaluation.
func Compile(src string, resolver Resolver) (Node, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, resolver: resolver}
	node, err := p.parseLogOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing input %q", errParse, describeTokens(p.toks[p.pos:]))
	}

	return node, nil
}

type parser struct {
	toks     []token
	pos      int
	resolver Resolver
	// resolving guards against alias-expansion cycles.
	resolving map[string]bool
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	if p.cur().kind != k {
		return token{}, fmt.Errorf("%w: expected %s, found %s", errParse, k, p.cur())
	}
	return p.advance(), nil
}

// parseLogOr implements logor := logand ("||" logand)*
func (p *parser) parseLogOr() (Node, error) {
	return p.leftAssoc(p.parseLogAnd, map[tokenKind]binaryOp{tokLogOr: opLogOr})
}

// parseLogAnd implements logand := bitor ("&&" bitor)*
func (p *parser) parseLogAnd() (Node, error) {
	return p.leftAssoc(p.parseBitOr, map[tokenKind]binaryOp{tokLogAnd: opLogAnd})
}

// parseBitOr implements bitor := bitand ("|" bitand)*
func (p *parser) parseBitOr() (Node, error) {
	return p.leftAssoc(p.parseBitAnd, map[tokenKind]binaryOp{tokBitOr: opBitOr})
}

// parseBitAnd implements bitand := equal ("&" equal)*
func (p *parser) parseBitAnd() (Node, error) {
	return p.leftAssoc(p.parseEqual, map[tokenKind]binaryOp{tokBitAnd: opBitAnd})
}

// parseEqual implements equal := compare (("=="|"!=") compare)*
func (p *parser) parseEqual() (Node, error) {
	return p.leftAssoc(p.parseCompare, map[tokenKind]binaryOp{tokEQ: opEQ, tokNE: opNE})
}

// parseCompare implements compare := addsub ((">"|"<"|">="|"<=") addsub)*
func (p *parser) parseCompare() (Node, error) {
	return p.leftAssoc(p.parseAddSub, map[tokenKind]binaryOp{
		tokGT: opGT, tokLT: opLT, tokGE: opGE, tokLE: opLE,
	})
}

// parseAddSub implements addsub := mulmod (("+"|"-") mulmod)*
func (p *parser) parseAddSub() (Node, error) {
	return p.leftAssoc(p.parseMulMod, map[tokenKind]binaryOp{tokPlus: opAdd, tokMinus: opSub})
}

// parseMulMod implements mulmod := power (("*"|"/"|"%") power)*
func (p *parser) parseMulMod() (Node, error) {
	return p.leftAssoc(p.parsePower, map[tokenKind]binaryOp{tokMul: opMul, tokDiv: opDiv, tokMod: opMod})
}

// leftAssoc parses one left-associative precedence level: `next (op next)*`
// where op is looked up in ops.
func (p *parser) leftAssoc(next func() (Node, error), ops map[tokenKind]binaryOp) (Node, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := ops[p.cur().kind]
		if !ok {
			return lhs, nil
		}
		p.advance()

		rhs, err := next()
		if err != nil {
			return nil, err
		}

		lhs, err = newBinaryNode(op, lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
}

// parsePower implements power := unary ( "^" power )? — right-associative,
// the grammar's one exception to left-to-right precedence.
func (p *parser) parsePower() (Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	if p.cur().kind != tokPow {
		return lhs, nil
	}
	p.advance()

	rhs, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	return newBinaryNode(opPow, lhs, rhs)
}

// parseUnary implements unary := ("!" | "~") unary | primary
func (p *parser) parseUnary() (Node, error) {
	switch p.cur().kind {
	case tokNot:
		p.advance()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: opLogicalNot, arg: arg}, nil
	case tokBitNot:
		p.advance()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if arg.Type() == schema.F64 {
			return nil, errs.ErrTypeError
		}
		return unaryNode{op: opBitwiseNot, arg: arg}, nil
	default:
		return p.parsePrimary()
	}
}

// parsePrimary implements:
//
//	primary := number | field_name | alias_name | "(" expression ")"
//	         | func "(" args ")" | "currentEventNumber" | "true" | "false"
func (p *parser) parsePrimary() (Node, error) {
	t := p.cur()

	switch t.kind {
	case tokNumber:
		p.advance()
		return parseNumberLiteral(t.text)
	case tokTrue:
		p.advance()
		return numberLit{typ: schema.U64, bits: 1}, nil
	case tokFalse:
		p.advance()
		return numberLit{typ: schema.U64, bits: 0}, nil
	case tokCurrentEventNumber:
		p.advance()
		return currentEventNum{}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseLogOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		return p.parseIdentPrimary()
	default:
		return nil, fmt.Errorf("%w: unexpected token %s", errParse, t)
	}
}

// parseIdentPrimary resolves an identifier token as a function call, a
// field reference, or an alias reference (expanded recursively).
func (p *parser) parseIdentPrimary() (Node, error) {
	name := p.advance().text

	if spec, ok := functionTable[name]; ok {
		return p.parseFunctionCall(name, spec)
	}

	kind, typ, parent, aliasExpr, ok := p.resolver.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownIdentifier, name)
	}

	switch kind {
	case NameField:
		return fieldRef{name: name, typ: typ, parent: parent}, nil
	case NameAlias:
		return p.expandAlias(name, aliasExpr)
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownIdentifier, name)
	}
}

// expandAlias recursively parses an alias's expression text against the
// same resolver and cycle guard, so a name that (directly or
// transitively) references itself is reported as errs.ErrSchemaViolation
// rather than recursing forever.
func (p *parser) expandAlias(name, aliasExpr string) (Node, error) {
	if p.resolving == nil {
		p.resolving = make(map[string]bool)
	}
	if p.resolving[name] {
		return nil, fmt.Errorf("%w: alias %q is self-referential", errs.ErrSchemaViolation, name)
	}
	p.resolving[name] = true
	defer delete(p.resolving, name)

	toks, err := newLexer(aliasExpr).tokens()
	if err != nil {
		return nil, err
	}

	sub := &parser{toks: toks, resolver: p.resolver, resolving: p.resolving}
	node, err := sub.parseLogOr()
	if err != nil {
		return nil, err
	}
	if sub.cur().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing input in alias %q", errParse, name)
	}

	return node, nil
}

func (p *parser) parseFunctionCall(name string, spec struct {
	kind  funcKind
	arity funcArity
}) (Node, error) {
	if spec.arity == arityNullary {
		if p.cur().kind != tokLParen {
			return randNode{}, nil
		}
		p.advance()
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return randNode{}, nil
	}

	if _, err := p.expect(tokLParen); err != nil {
		return nil, fmt.Errorf("%w: function %q requires \"(\"", errParse, name)
	}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}

	switch spec.arity {
	case arityUnary:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %q takes 1 argument, got %d", errs.ErrArityMismatch, name, len(args))
		}
		if spec.kind == fnUnique {
			return uniqueNode{arg: args[0]}, nil
		}
		return newUnaryFuncNode(spec.kind, args[0]), nil
	default: // arityBinary
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: %q takes 2 arguments, got %d", errs.ErrArityMismatch, name, len(args))
		}
		return newBinaryFuncNode(spec.kind, args[0], args[1])
	}
}

func (p *parser) parseArgs() ([]Node, error) {
	if p.cur().kind == tokRParen {
		return nil, nil
	}

	var args []Node
	for {
		arg, err := p.parseLogOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.cur().kind != tokComma {
			return args, nil
		}
		p.advance()
	}
}
