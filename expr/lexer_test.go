package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []tokenKind
	}{
		{"simple add", "a + 1", []tokenKind{tokIdent, tokPlus, tokNumber, tokEOF}},
		{"two char ops", "a >= b && c != d", []tokenKind{
			tokIdent, tokGE, tokIdent, tokLogAnd, tokIdent, tokNE, tokIdent, tokEOF,
		}},
		{"call", "pow(a, 2)", []tokenKind{
			tokIdent, tokLParen, tokIdent, tokComma, tokNumber, tokRParen, tokEOF,
		}},
		{"keywords", "true && false || currentEventNumber", []tokenKind{
			tokTrue, tokLogAnd, tokFalse, tokLogOr, tokCurrentEventNumber, tokEOF,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := newLexer(tt.src).tokens()
			require.NoError(t, err)

			got := make([]tokenKind, len(toks))
			for i, tok := range toks {
				got[i] = tok.kind
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexer_LeadingSignIsPartOfLiteral(t *testing.T) {
	// A leading "-" at the start of an expression, or right after another
	// operator/"("/",", attaches to the number; only a "-" following a
	// value or ")" is the subtraction operator.
	toks, err := newLexer("-5").tokens()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, tokNumber, toks[0].kind)
	assert.Equal(t, "-5", toks[0].text)

	toks, err = newLexer("a - 5").tokens()
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, []tokenKind{tokIdent, tokMinus, tokNumber, tokEOF}, []tokenKind{
		toks[0].kind, toks[1].kind, toks[2].kind, toks[3].kind,
	})
	assert.Equal(t, "5", toks[2].text)

	toks, err = newLexer("(-5)").tokens()
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, tokNumber, toks[1].kind)
	assert.Equal(t, "-5", toks[1].text)

	toks, err = newLexer("a * -5").tokens()
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, tokNumber, toks[2].kind)
	assert.Equal(t, "-5", toks[2].text)
}

func TestLexer_HexAndFloatLiterals(t *testing.T) {
	toks, err := newLexer("0x1F").tokens()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "0x1F", toks[0].text)

	toks, err = newLexer("3.14159e+00").tokens()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "3.14159e+00", toks[0].text)
}
