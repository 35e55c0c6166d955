package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  *PaymentError
		kind Kind
		pred func(error) bool
	}{
		{"validation", NewValidationError("bad amount"), KindValidation, IsValidationError},
		{"unsupported currency", NewUnsupportedCurrencyError("sandboxpay", "XYZ"), KindUnsupportedCurrency, IsUnsupportedCurrencyError},
		{"gateway not found", NewGatewayNotFoundError("nope"), KindGatewayNotFound, IsGatewayNotFoundError},
		{"network", NewNetworkError("timeout", nil), KindNetwork, IsNetworkError},
		{"provider rejected", NewProviderRejectedError("declined", "51"), KindProviderRejected, IsProviderRejectedError},
		{"webhook auth", NewWebhookAuthError("bad signature"), KindWebhookAuth, IsWebhookAuthError},
		{"replay", NewReplayError("stale timestamp"), KindReplay, IsReplayError},
		{"refund not eligible", NewRefundNotEligibleError("T1", "pending"), KindRefundNotEligible, IsRefundNotEligibleError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.True(t, tc.pred(tc.err))
			assert.True(t, IsKind(tc.err, tc.kind))
			assert.NotEmpty(t, tc.err.Error())
		})
	}
}

func TestKindPredicates_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("pay failed: %w", NewReplayError("stale"))
	assert.True(t, IsReplayError(wrapped))
	assert.False(t, IsNetworkError(wrapped))

	require.NotNil(t, GetPaymentError(wrapped))
	assert.Equal(t, KindReplay, GetPaymentError(wrapped).Kind)
}

func TestKindPredicates_PlainError(t *testing.T) {
	err := fmt.Errorf("plain")
	assert.False(t, IsValidationError(err))
	assert.Nil(t, GetPaymentError(err))
}

func TestNetworkError_UnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewNetworkError("provider unreachable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Code)
}

func TestProviderRejectedError_CarriesProviderCode(t *testing.T) {
	err := NewProviderRejectedError("insufficient funds", "05", "raw provider body")
	assert.Equal(t, "05", err.ProviderCode)
	assert.Contains(t, err.Error(), "05")
}
