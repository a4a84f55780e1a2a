package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcdf-go/xcdf/schema"
)

func TestCompile_UnaryMathFunctions(t *testing.T) {
	resolver := newMapResolver().withField("x", schema.F64, "")
	binding := newRecordBinding().setF64("x", 0.5)

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"sin", "sin(x)", math.Sin(0.5)},
		{"cos", "cos(x)", math.Cos(0.5)},
		{"tan", "tan(x)", math.Tan(0.5)},
		{"asin", "asin(x)", math.Asin(0.5)},
		{"acos", "acos(x)", math.Acos(0.5)},
		{"atan", "atan(x)", math.Atan(0.5)},
		{"log", "log(x)", math.Log(0.5)},
		{"log10", "log10(x)", math.Log10(0.5)},
		{"exp", "exp(x)", math.Exp(0.5)},
		{"abs", "abs(x)", math.Abs(0.5)},
		{"fabs", "fabs(x)", math.Abs(0.5)},
		{"sqrt", "sqrt(x)", math.Sqrt(0.5)},
		{"ceil", "ceil(x)", math.Ceil(0.5)},
		{"floor", "floor(x)", math.Floor(0.5)},
		{"sinh", "sinh(x)", math.Sinh(0.5)},
		{"cosh", "cosh(x)", math.Cosh(0.5)},
		{"tanh", "tanh(x)", math.Tanh(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Compile(tt.expr, resolver)
			require.NoError(t, err)
			assert.Equal(t, schema.F64, node.Type())

			got, err := node.Eval(binding, 0)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, math.Float64frombits(got), 1e-9)
		})
	}
}

func TestCompile_IsNanIsInfReturnU64(t *testing.T) {
	resolver := newMapResolver().withField("x", schema.F64, "")

	node, err := Compile("isnan(x)", resolver)
	require.NoError(t, err)
	assert.Equal(t, schema.U64, node.Type())

	got, err := node.Eval(newRecordBinding().setF64("x", math.NaN()), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	got, err = node.Eval(newRecordBinding().setF64("x", 1.0), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	node, err = Compile("isinf(x)", resolver)
	require.NoError(t, err)
	got, err = node.Eval(newRecordBinding().setF64("x", math.Inf(1)), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}

func TestCompile_BinaryMathFunctions(t *testing.T) {
	resolver := newMapResolver().withField("a", schema.F64, "").withField("b", schema.F64, "")
	binding := newRecordBinding().setF64("a", 7).setF64("b", 2)

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"fmod", "fmod(a, b)", math.Mod(7, 2)},
		{"pow", "pow(a, b)", math.Pow(7, 2)},
		{"atan2", "atan2(a, b)", math.Atan2(7, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Compile(tt.expr, resolver)
			require.NoError(t, err)
			assert.Equal(t, schema.F64, node.Type())

			got, err := node.Eval(binding, 0)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, math.Float64frombits(got), 1e-9)
		})
	}
}

func TestCompile_UniqueCountsDistinctValuesInRecord(t *testing.T) {
	resolver := newMapResolver().
		withField("n", schema.U64, "").
		withField("v", schema.I64, "n")

	node, err := Compile("unique(v)", resolver)
	require.NoError(t, err)
	assert.Equal(t, schema.U64, node.Type())
	assert.Equal(t, "", node.Parent(), "unique is always scalar, regardless of its argument's parent")

	b := newRecordBinding().setI64("v", 1, 2, 2, 3, 1)
	got, err := node.Eval(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)
}

func TestCompile_RandIsNullaryAndBothCallForms(t *testing.T) {
	resolver := newMapResolver()

	node, err := Compile("rand", resolver)
	require.NoError(t, err)
	assert.Equal(t, schema.U64, node.Type())
	_, err = node.Eval(newRecordBinding(), 0)
	require.NoError(t, err)

	node, err = Compile("rand()", resolver)
	require.NoError(t, err)
	_, err = node.Eval(newRecordBinding(), 0)
	require.NoError(t, err)
}
