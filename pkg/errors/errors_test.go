package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConflict_JoinsReasons(t *testing.T) {
	err := NewConflict("Conflitos detectados", []string{
		"Conflito com consulta às 14:00",
		"Paciente já tem consulta às 14:00",
	})
	assert.Equal(t, "Conflitos detectados: Conflito com consulta às 14:00, Paciente já tem consulta às 14:00", err.Message)
	assert.Len(t, err.Details, 2)
}

func TestNewConflict_NoReasons(t *testing.T) {
	err := NewConflict("Agenda em uso, tente novamente", nil)
	assert.Equal(t, "Agenda em uso, tente novamente", err.Message)
	assert.Empty(t, err.Details)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsCode(t *testing.T) {
	err := NewNotFound("appointment", nil)
	assert.True(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(err, ErrConflict))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, IsCode(wrapped, ErrNotFound))

	require.False(t, IsCode(errors.New("plain"), ErrNotFound))
	require.False(t, IsCode(nil, ErrNotFound))
}
