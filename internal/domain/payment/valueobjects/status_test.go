package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_IsValid(t *testing.T) {
	valid := []Status{
		StatusCreated, StatusPending, StatusProcessing, StatusCompleted,
		StatusFailed, StatusCancelled, StatusRefunded, StatusDisputed, StatusUnknown,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "status %s should be valid", s)
	}
	assert.False(t, Status("SUCCEEDED").IsValid(), "raw provider values are not canonical")
	assert.False(t, Status("").IsValid())
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusCreated, StatusPending, true},
		{StatusCreated, StatusCompleted, true},
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusCompleted, StatusRefunded, true},
		{StatusCompleted, StatusDisputed, true},

		// Refunded and disputed are only reachable from completed.
		{StatusPending, StatusRefunded, false},
		{StatusProcessing, StatusRefunded, false},
		{StatusFailed, StatusRefunded, false},
		{StatusCancelled, StatusDisputed, false},

		// No going backwards, no leaving terminal states.
		{StatusCompleted, StatusPending, false},
		{StatusFailed, StatusCompleted, false},
		{StatusRefunded, StatusCompleted, false},
		{StatusDisputed, StatusCompleted, false},

		// Unknown is not a lifecycle state.
		{StatusUnknown, StatusCompleted, false},
		{StatusPending, StatusUnknown, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatus_IsFinal(t *testing.T) {
	assert.True(t, StatusFailed.IsFinal())
	assert.True(t, StatusCancelled.IsFinal())
	assert.True(t, StatusRefunded.IsFinal())
	assert.True(t, StatusDisputed.IsFinal())

	// Completed can still move to refunded or disputed.
	assert.False(t, StatusCompleted.IsFinal())
	assert.False(t, StatusPending.IsFinal())
	assert.False(t, StatusUnknown.IsFinal())
}

func TestStatus_CanRefund(t *testing.T) {
	assert.True(t, StatusCompleted.CanRefund())

	for _, s := range []Status{StatusCreated, StatusPending, StatusProcessing,
		StatusFailed, StatusCancelled, StatusRefunded, StatusDisputed, StatusUnknown} {
		assert.False(t, s.CanRefund(), "status %s must not be refundable", s)
	}
}
