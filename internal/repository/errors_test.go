package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create user: %w", &ConflictError{Field: FieldPhone})

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)

	field, ok := ConflictField(err)
	assert.True(t, ok)
	assert.Equal(t, FieldPhone, field)
	assert.Contains(t, err.Error(), "phone already exists")
}

func TestConflictFieldOnOtherErrors(t *testing.T) {
	_, ok := ConflictField(errors.New("boom"))
	assert.False(t, ok)
	assert.Equal(t, ErrConflict.Error(), (&ConflictError{}).Error())
}
