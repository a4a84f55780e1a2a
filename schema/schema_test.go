package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/internal/hash"
)

func TestSchema_AddField_ScalarAndVector(t *testing.T) {
	s := NewSchema()

	require.NoError(t, s.AddField(NewU64Field("n", 1, "")))
	require.NoError(t, s.AddField(NewI64Field("v", 2, "n")))

	idx, fd, ok := s.FieldByName("v")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "n", fd.ParentName)
	assert.Equal(t, 0, fd.ParentIndex)
	assert.True(t, fd.IsVector())
}

func TestSchema_AddField_ResolutionZeroNormalizedToOne(t *testing.T) {
	fd := NewU64Field("a", 0, "")
	assert.Equal(t, uint64(1), fd.ResolutionU64())

	fd2 := NewI64Field("b", 0, "")
	assert.Equal(t, int64(1), fd2.ResolutionI64())
}

func TestSchema_AddField_DuplicateName(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField(NewU64Field("a", 1, "")))

	err := s.AddField(NewU64Field("a", 1, ""))
	assert.ErrorIs(t, err, errs.ErrDuplicateField)
}

func TestSchema_AddField_UnknownParent(t *testing.T) {
	s := NewSchema()

	err := s.AddField(NewI64Field("v", 1, "missing"))
	assert.ErrorIs(t, err, errs.ErrUnknownParent)
}

func TestSchema_AddField_InvalidParentType(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField(NewI64Field("n", 1, "")))

	err := s.AddField(NewU64Field("v", 1, "n"))
	assert.ErrorIs(t, err, errs.ErrInvalidParent)
}

func TestSchema_AddField_InvalidParentResolution(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField(NewU64Field("n", 2, "")))

	err := s.AddField(NewI64Field("v", 1, "n"))
	assert.ErrorIs(t, err, errs.ErrInvalidParent)
}

func TestSchema_AddField_RecursiveVectorParentIsVector(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField(NewU64Field("n", 1, "")))
	require.NoError(t, s.AddField(NewU64Field("m", 1, "n")))

	err := s.AddField(NewI64Field("w", 1, "m"))
	require.NoError(t, err)

	_, fd, _ := s.FieldByName("w")
	assert.True(t, fd.IsVector())
}

func TestSchema_AddField_InvalidType(t *testing.T) {
	s := NewSchema()
	bad := FieldDescriptor{Name: "x", Type: FieldType(99)}

	err := s.AddField(bad)
	assert.ErrorIs(t, err, errs.ErrSchemaViolation)
}

func TestSchema_Freeze_RejectsFurtherMutation(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField(NewU64Field("a", 1, "")))
	s.Freeze()

	assert.True(t, s.Frozen())
	assert.ErrorIs(t, s.AddField(NewU64Field("b", 1, "")), errs.ErrSchemaFrozen)
	assert.ErrorIs(t, s.AddAlias(NewAliasDescriptor("x", "a")), errs.ErrSchemaFrozen)
}

func TestSchema_AddAlias_Duplicate(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddAlias(NewAliasDescriptor("x", "1+1")))

	err := s.AddAlias(NewAliasDescriptor("x", "2+2"))
	assert.ErrorIs(t, err, errs.ErrDuplicateAlias)

	ad, ok := s.AliasByName("x")
	require.True(t, ok)
	assert.Equal(t, "1+1", ad.Expression)
}

func TestSchema_FieldIndexByHash(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField(NewF64Field("temp", 0.1, "")))

	idx, _, ok := s.FieldByName("temp")
	require.True(t, ok)

	h := hash.ID("temp")
	got, ok := s.FieldIndexByHash(h, "temp")
	require.True(t, ok)
	assert.Equal(t, idx, got)

	_, ok = s.FieldIndexByHash(h, "not-temp")
	assert.False(t, ok)
}

func TestFieldDescriptor_F64FullPassthroughOnNonPositiveResolution(t *testing.T) {
	fd := NewF64Field("x", 0, "")
	assert.Equal(t, float64(0), fd.ResolutionF64())

	fd2 := NewF64Field("y", -1, "")
	assert.Equal(t, float64(-1), fd2.ResolutionF64())
}
