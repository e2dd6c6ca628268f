package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	var v ValidationError
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.OrNil())

	v.Add("username", "The username is taken.", "validation_unique")
	v.Add("password", "The password is too weak.", "validation_password")
	require.True(t, v.HasErrors())
	assert.True(t, v.Has("username"))
	assert.False(t, v.Has("email"))
	assert.Equal(t, "validation failed: username: The username is taken.; password: The password is too weak.", v.Error())

	merged := &ValidationError{}
	assert.True(t, merged.Merge(fmt.Errorf("signup: %w", &v)))
	assert.Len(t, merged.Fields, 2)
	assert.False(t, merged.Merge(ErrNotFound))
	assert.Len(t, merged.Fields, 2)
}

func TestAsValidation(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrUnauthorized, Field("password", "Wrong password.", "validation_password"))

	v, ok := AsValidation(err)
	require.True(t, ok)
	assert.True(t, v.Has("password"))
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, ok = AsValidation(ErrConflict)
	assert.False(t, ok)

	var nilErr *ValidationError
	assert.False(t, nilErr.HasErrors())
	assert.False(t, nilErr.Has("anything"))
}
