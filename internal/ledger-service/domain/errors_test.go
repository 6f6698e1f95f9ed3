package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, FaultValidation, KindOf(NewValidation("stake too low")))
	assert.Equal(t, FaultNotFound, KindOf(NewNotFound("account")))
	assert.Equal(t, FaultConflict, KindOf(NewConflict("already settled")))
	assert.Equal(t, FaultTransient, KindOf(NewTransient("deadlock")))

	// wrapped faults keep their kind
	wrapped := fmt.Errorf("settle event: %w", NewConflict("already settled"))
	assert.Equal(t, FaultConflict, KindOf(wrapped))

	// unclassified errors are fatal
	assert.Equal(t, FaultFatal, KindOf(errors.New("boom")))
}

func TestFaultError(t *testing.T) {
	f := NewValidation("stake is below minimum required: 1", "invalid team selection: X")
	assert.Equal(t, "validation: stake is below minimum required: 1; invalid team selection: X", f.Error())

	assert.Equal(t, "not_found: account not found", NewNotFound("account").Error())
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(NewConflict("x"), FaultConflict))
	assert.False(t, IsKind(NewConflict("x"), FaultValidation))
	assert.False(t, IsKind(nil, FaultValidation))
}
