package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `validate:"required"`
	Kind string `validate:"omitempty,oneof=a b"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "x", Kind: "a"}))
}

func TestStruct_MissingRequired(t *testing.T) {
	err := Struct(sample{})
	require.Error(t, err)
	assert.True(t, MissingRequired(err))
	assert.Contains(t, err.Error(), "field 'Name' failed 'required'")
}

func TestStruct_OneOfIsNotMissing(t *testing.T) {
	err := Struct(sample{Name: "x", Kind: "z"})
	require.Error(t, err)
	assert.False(t, MissingRequired(err))
	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("oneof"))
}
