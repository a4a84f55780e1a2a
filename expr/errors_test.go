package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xcdf-go/xcdf/schema"
)

func TestCompile_ErrorCases(t *testing.T) {
	resolver := newMapResolver().withField("a", schema.U64, "")

	tests := []struct {
		name string
		expr string
	}{
		{"missing paren after function name", "sin a)"},
		{"trailing tokens", "a + 1 1"},
		{"unclosed paren", "(a + 1"},
		{"empty expression", ""},
		{"dangling operator", "a +"},
		{"unknown function-shaped identifier args", "nosuch(a)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr, resolver)
			assert.Error(t, err)
		})
	}
}

func TestCompile_DivisionAndModulusByZeroDoNotPanic(t *testing.T) {
	resolver := newMapResolver().withField("a", schema.U64, "").withField("z", schema.U64, "")
	binding := newRecordBinding().setU64("a", 5).setU64("z", 0)

	node, err := Compile("a / z", resolver)
	assert.NoError(t, err)
	got, err := node.Eval(binding, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	node, err = Compile("a % z", resolver)
	assert.NoError(t, err)
	got, err = node.Eval(binding, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}
