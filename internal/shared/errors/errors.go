// Package errors defines the failure taxonomy shared by every gateway
// adapter. Callers branch on the error kind, never on message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a payment error.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindUnsupportedCurrency Kind = "unsupported_currency"
	KindGatewayNotFound     Kind = "gateway_not_found"
	KindNetwork             Kind = "network_error"
	KindProviderRejected    Kind = "provider_rejected"
	KindWebhookAuth         Kind = "webhook_auth_error"
	KindReplay              Kind = "replay_error"
	KindRefundNotEligible   Kind = "refund_not_eligible"
)

// PaymentError is the error type returned by every contract method.
type PaymentError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	// ProviderCode carries the provider's raw error code when the
	// provider returned a well-formed rejection.
	ProviderCode string `json:"provider_code,omitempty"`
	Details      string `json:"details,omitempty"`

	cause error
}

func (e *PaymentError) Error() string {
	switch {
	case e.ProviderCode != "":
		return fmt.Sprintf("%s: %s (provider code %s)", e.Kind, e.Message, e.ProviderCode)
	case e.Details != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *PaymentError) Unwrap() error {
	return e.cause
}

// NewValidationError reports a malformed or out-of-range payment request.
// These are caught before any network call and must not be retried.
func NewValidationError(message string, details ...string) *PaymentError {
	return &PaymentError{
		Kind:    KindValidation,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: first(details),
	}
}

// NewUnsupportedCurrencyError reports a currency the resolved gateway
// does not declare supported.
func NewUnsupportedCurrencyError(gateway, currency string) *PaymentError {
	return &PaymentError{
		Kind:    KindUnsupportedCurrency,
		Message: fmt.Sprintf("gateway %s does not support currency %s", gateway, currency),
		Code:    http.StatusBadRequest,
	}
}

// NewGatewayNotFoundError reports an unknown gateway name at registry resolution.
func NewGatewayNotFoundError(name string) *PaymentError {
	return &PaymentError{
		Kind:    KindGatewayNotFound,
		Message: fmt.Sprintf("gateway %s is not registered", name),
		Code:    http.StatusNotFound,
	}
}

// NewNetworkError reports a timeout, connection failure, or a non-2xx
// response with no parseable error body. Safe to retry with backoff at
// the caller's discretion.
func NewNetworkError(message string, cause error) *PaymentError {
	return &PaymentError{
		Kind:    KindNetwork,
		Message: message,
		Code:    http.StatusBadGateway,
		cause:   cause,
	}
}

// NewProviderRejectedError reports a well-formed rejection from the
// provider (declined card, insufficient funds). Not retriable with the
// same parameters.
func NewProviderRejectedError(message, providerCode string, details ...string) *PaymentError {
	return &PaymentError{
		Kind:         KindProviderRejected,
		Message:      message,
		Code:         http.StatusUnprocessableEntity,
		ProviderCode: providerCode,
		Details:      first(details),
	}
}

// NewWebhookAuthError reports a failed webhook signature verification.
// The payload is untrusted, not a payment failure; callers must log it
// for security review.
func NewWebhookAuthError(message string, details ...string) *PaymentError {
	return &PaymentError{
		Kind:    KindWebhookAuth,
		Message: message,
		Code:    http.StatusUnauthorized,
		Details: first(details),
	}
}

// NewReplayError reports a webhook whose timestamp falls outside the
// freshness window, or whose event id was already processed.
func NewReplayError(message string, details ...string) *PaymentError {
	return &PaymentError{
		Kind:    KindReplay,
		Message: message,
		Code:    http.StatusConflict,
		Details: first(details),
	}
}

// NewRefundNotEligibleError reports a refund attempted on a transaction
// whose canonical status does not allow one.
func NewRefundNotEligibleError(transactionID, status string) *PaymentError {
	return &PaymentError{
		Kind:    KindRefundNotEligible,
		Message: fmt.Sprintf("transaction %s with status %s is not refundable", transactionID, status),
		Code:    http.StatusConflict,
	}
}

// GetPaymentError extracts a PaymentError from an error chain.
func GetPaymentError(err error) *PaymentError {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// IsKind reports whether err is a PaymentError of the given kind.
func IsKind(err error, kind Kind) bool {
	pe := GetPaymentError(err)
	return pe != nil && pe.Kind == kind
}

func IsValidationError(err error) bool          { return IsKind(err, KindValidation) }
func IsUnsupportedCurrencyError(err error) bool { return IsKind(err, KindUnsupportedCurrency) }
func IsGatewayNotFoundError(err error) bool     { return IsKind(err, KindGatewayNotFound) }
func IsNetworkError(err error) bool             { return IsKind(err, KindNetwork) }
func IsProviderRejectedError(err error) bool    { return IsKind(err, KindProviderRejected) }
func IsWebhookAuthError(err error) bool         { return IsKind(err, KindWebhookAuth) }
func IsReplayError(err error) bool              { return IsKind(err, KindReplay) }
func IsRefundNotEligibleError(err error) bool   { return IsKind(err, KindRefundNotEligible) }

func first(details []string) string {
	if len(details) > 0 {
		return details[0]
	}
	return ""
}
