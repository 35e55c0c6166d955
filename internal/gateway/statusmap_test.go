package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vo "paygate/internal/domain/payment/valueobjects"
)

var sampleMap = StatusMap{
	"initiated":  vo.StatusCreated,
	"pending":    vo.StatusPending,
	"authorized": vo.StatusProcessing,
	"succeeded":  vo.StatusCompleted,
	"declined":   vo.StatusFailed,
	"voided":     vo.StatusCancelled,
	"refunded":   vo.StatusRefunded,
	"chargeback": vo.StatusDisputed,
}

func TestStatusMap_Totality(t *testing.T) {
	// Every value a table enumerates must be a member of the canonical enum.
	for raw, mapped := range sampleMap {
		assert.True(t, mapped.IsValid(), "raw %q maps to invalid status %q", raw, mapped)
	}
}

func TestStatusMap_Resolve(t *testing.T) {
	tests := []struct {
		raw  string
		want vo.Status
	}{
		{"succeeded", vo.StatusCompleted},
		{"SUCCEEDED", vo.StatusCompleted},
		{" Succeeded ", vo.StatusCompleted},
		{"declined", vo.StatusFailed},
		{"chargeback", vo.StatusDisputed},

		// Fail-safe default: unmapped values go to unknown, never to
		// completed or failed.
		{"partial_capture", vo.StatusUnknown},
		{"", vo.StatusUnknown},
		{"42", vo.StatusUnknown},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, sampleMap.Resolve(tc.raw), "raw %q", tc.raw)
	}
}

func TestStatusMap_ResolveNeverGuesses(t *testing.T) {
	got := sampleMap.Resolve("definitely_not_in_table")
	assert.NotEqual(t, vo.StatusCompleted, got)
	assert.NotEqual(t, vo.StatusFailed, got)
	assert.Equal(t, vo.StatusUnknown, got)
}

func TestStatusMap_ResolvePreferringCode(t *testing.T) {
	codeMap := StatusMap{
		"00":       vo.StatusCompleted,
		"05":       vo.StatusFailed,
		"complete": vo.StatusCompleted,
		"failed":   vo.StatusFailed,
	}

	// Code present: code wins, even when the text disagrees.
	assert.Equal(t, vo.StatusFailed, codeMap.ResolvePreferringCode("05", "COMPLETE"))
	assert.Equal(t, vo.StatusCompleted, codeMap.ResolvePreferringCode("00", "FAILED"))

	// Unmapped code still wins over mapped text; no optimistic fallback.
	assert.Equal(t, vo.StatusUnknown, codeMap.ResolvePreferringCode("99", "COMPLETE"))

	// No code: fall back to the textual status.
	assert.Equal(t, vo.StatusCompleted, codeMap.ResolvePreferringCode("", "complete"))
	assert.Equal(t, vo.StatusUnknown, codeMap.ResolvePreferringCode("", "mystery"))
}
