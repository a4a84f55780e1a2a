package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xcdf-go/xcdf/schema"
)

// parseNumberLiteral implements spec.md §4.6's "numeric parsing attempts,
// in order: hexadecimal unsigned, decimal unsigned, decimal signed,
// floating-point; the first that fully consumes the token wins" — using
// Go's strconv, whose Parse* functions already require consuming the
// entire input to succeed.
func parseNumberLiteral(text string) (Node, error) {
	neg := strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+")

	if !neg && (strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")) {
		if v, err := strconv.ParseUint(text[2:], 16, 64); err == nil {
			return numberLit{typ: schema.U64, bits: v}, nil
		}
	}

	if !neg {
		if v, err := strconv.ParseUint(text, 10, 64); err == nil {
			return numberLit{typ: schema.U64, bits: v}, nil
		}
	}

	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return numberLit{typ: schema.I64, bits: intBits(v)}, nil
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return numberLit{typ: schema.F64, bits: floatBits(v)}, nil
	}

	return nil, fmt.Errorf("%w: cannot parse numeric literal %q", errParse, text)
}
