package payment

import (
	vo "paygate/internal/domain/payment/valueobjects"
)

// Response is the canonical result of any contract operation.
//
// Success means the operation itself was carried out, not that the
// underlying payment succeeded: a webhook reporting a failed payment is
// still a successful webhook. Status carries the payment's lifecycle
// position.
type Response struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transaction_id"`
	Status        vo.Status `json:"status"`
	// RedirectURL is set when the caller must send the end user to the
	// provider's hosted page.
	RedirectURL string `json:"redirect_url,omitempty"`
	// Data carries raw or normalized provider fields (payment method,
	// fees, timestamps, the textual status when a code took precedence).
	Data         map[string]string `json:"data,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// RequiresRedirect reports whether the caller must redirect the end user.
func (r *Response) RequiresRedirect() bool {
	return r.RedirectURL != ""
}

// Datum returns a value from Data, tolerating a nil map.
func (r *Response) Datum(key string) string {
	if r.Data == nil {
		return ""
	}
	return r.Data[key]
}

// SetDatum stores a value in Data, allocating the map on first use.
func (r *Response) SetDatum(key, value string) {
	if r.Data == nil {
		r.Data = make(map[string]string)
	}
	r.Data[key] = value
}
