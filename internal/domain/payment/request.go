// Package payment holds the canonical request/response model shared by
// every gateway adapter.
package payment

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	vo "paygate/internal/domain/payment/valueobjects"
	apperrors "paygate/internal/shared/errors"
)

var validate = validator.New()

// Customer identifies the paying end user. All fields are optional;
// adapters forward only what their provider accepts.
type Customer struct {
	Name           string `validate:"omitempty,max=255"`
	Email          string `validate:"omitempty,email"`
	Phone          string `validate:"omitempty,max=32"`
	Address        string `validate:"omitempty,max=512"`
	Identification string `validate:"omitempty,max=64"`
}

// Request is the canonical payment request handed to Gateway.Pay.
// Treat it as immutable once built; adapters read, never write.
type Request struct {
	Amount        vo.Money
	TransactionID string `validate:"required,max=128"`
	Description   string `validate:"omitempty,max=512"`
	Customer      *Customer
	ReturnURL     string `validate:"omitempty,url"`
	CancelURL     string `validate:"omitempty,url"`
	NotifyURL     string `validate:"omitempty,url"`
	// Metadata is the gateway-specific extension point (installments,
	// payment-method restriction, language). Adapters document the keys
	// they read; the core never branches on it.
	Metadata map[string]string
}

// NewRequest builds a request with a generated transaction id. The id
// must be unique per gateway and mode; callers with their own reference
// scheme set TransactionID directly instead.
func NewRequest(amount vo.Money) Request {
	return Request{
		Amount:        amount,
		TransactionID: uuid.NewString(),
	}
}

// Validate checks the request before any network call. Violations come
// back as the validation error kind.
func (r Request) Validate() error {
	if !r.Amount.IsPositive() {
		return apperrors.NewValidationError("amount must be positive")
	}
	if err := validate.Var(r.Amount.Currency(), "required,iso4217"); err != nil {
		return apperrors.NewValidationError("currency must be a valid ISO-4217 code", r.Amount.Currency())
	}
	if err := validate.Struct(r); err != nil {
		return apperrors.NewValidationError("invalid payment request", err.Error())
	}
	if r.Customer != nil {
		if err := validate.Struct(r.Customer); err != nil {
			return apperrors.NewValidationError("invalid customer", err.Error())
		}
	}
	return nil
}
