package errutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	require.Equal(t, StatusNotFound, StatusOf(NotFound("missing")))
	require.Equal(t, StatusConflict, StatusOf(Conflict("taken")))
	require.Equal(t, StatusValidationFailed, StatusOf(ValidationFailed("bad input")))
	require.Equal(t, StatusUnprocessableEntity, StatusOf(InvalidState("wrong state")))
	require.Equal(t, StatusUnknown, StatusOf(errors.New("plain")))
	require.Equal(t, StatusUnknown, StatusOf(nil))
}

func TestStatusOfWrappedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("missing"))
	require.Equal(t, StatusNotFound, StatusOf(err))
	require.True(t, HasStatus(err, StatusNotFound))
	require.False(t, HasStatus(err, StatusConflict))
}

func TestErrorMessageCarriesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("write failed", WithErr(cause))
	require.Contains(t, err.Error(), "write failed")
	require.ErrorIs(t, err, cause)
}
