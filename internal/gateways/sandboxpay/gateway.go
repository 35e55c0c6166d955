// Package sandboxpay is the reference adapter for a hosted-checkout
// JSON provider: OAuth2 client-credentials auth on outbound calls and
// HMAC-SHA256 signed webhooks. It doubles as executable documentation
// of the adapter contract.
package sandboxpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"paygate/internal/domain/payment"
	vo "paygate/internal/domain/payment/valueobjects"
	"paygate/internal/gateway"
	"paygate/internal/gateway/signature"
	"paygate/internal/gateway/token"
	"paygate/internal/shared/biztime"
	apperrors "paygate/internal/shared/errors"
	"paygate/internal/shared/logger"
)

const Name = "sandboxpay"

const (
	sandboxBaseURL = "https://api.sandbox.sandboxpay.example"
	liveBaseURL    = "https://api.sandboxpay.example"

	signatureHeader = "X-Sandboxpay-Signature"
	timestampHeader = "X-Sandboxpay-Timestamp"
)

// statusMap covers every raw status the provider documents. Anything
// else resolves to unknown.
var statusMap = gateway.StatusMap{
	"created":    vo.StatusCreated,
	"pending":    vo.StatusPending,
	"processing": vo.StatusProcessing,
	"authorized": vo.StatusProcessing,
	"succeeded":  vo.StatusCompleted,
	"failed":     vo.StatusFailed,
	"canceled":   vo.StatusCancelled,
	"expired":    vo.StatusCancelled,
	"refunded":   vo.StatusRefunded,
	"disputed":   vo.StatusDisputed,
}

var supportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "CAD": {}, "AUD": {},
}

// Gateway talks to the sandboxpay REST API.
//
// Metadata keys read from payment requests: "statement_descriptor".
type Gateway struct {
	cfg      gateway.Config
	baseURL  string
	client   *http.Client
	tokens   *token.Source
	verifier signature.HMACSHA256
	guard    *signature.ReplayGuard
	logger   logger.Interface
}

var _ gateway.Gateway = (*Gateway)(nil)

type Option func(*Gateway)

// WithHTTPClient swaps the outbound client; tests inject spy transports.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

// WithBaseURL overrides the mode-derived API base URL.
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) { g.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithReplayStore enables duplicate-event-id rejection.
func WithReplayStore(store signature.SeenStore) Option {
	return func(g *Gateway) { g.guard.Store = store }
}

// Factory adapts New to the registry's factory signature.
func Factory(log logger.Interface, opts ...Option) gateway.Factory {
	return func(cfg gateway.Config) (gateway.Gateway, error) {
		return New(cfg, log, opts...)
	}
}

func New(cfg gateway.Config, log logger.Interface, opts ...Option) (*Gateway, error) {
	clientID := cfg.Credential("client_id")
	clientSecret := cfg.Credential("client_secret")
	if clientID == "" || clientSecret == "" {
		return nil, apperrors.NewValidationError("sandboxpay requires client_id and client_secret credentials")
	}
	if cfg.WebhookSecret == "" {
		return nil, apperrors.NewValidationError("sandboxpay requires a webhook secret")
	}
	if !cfg.Mode.IsValid() {
		return nil, apperrors.NewValidationError("invalid gateway mode", string(cfg.Mode))
	}

	baseURL := sandboxBaseURL
	if cfg.Mode == gateway.ModeLive {
		baseURL = liveBaseURL
	}

	g := &Gateway{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.EffectiveTimeout()},
		verifier: signature.HMACSHA256{
			Secret: []byte(cfg.WebhookSecret),
			Header: signatureHeader,
		},
		guard: &signature.ReplayGuard{
			Window:          cfg.EffectiveReplayWindow(),
			TimestampHeader: timestampHeader,
		},
		logger: log.Named(Name),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.tokens = token.NewSource(
		g.baseURL+"/oauth/token",
		clientID,
		clientSecret,
		[]string{"charges"},
		cfg.EffectiveTimeout(),
		g.logger,
	)
	return g, nil
}

func (g *Gateway) Name() string       { return Name }
func (g *Gateway) Mode() gateway.Mode { return g.cfg.Mode }

func (g *Gateway) SupportsCurrency(currency string) bool {
	_, ok := supportedCurrencies[strings.ToUpper(currency)]
	return ok
}

type chargeCustomer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type chargeRequest struct {
	Reference           string            `json:"reference"`
	AmountMinor         int64             `json:"amount"`
	Currency            string            `json:"currency"`
	Description         string            `json:"description,omitempty"`
	ReturnURL           string            `json:"return_url,omitempty"`
	CancelURL           string            `json:"cancel_url,omitempty"`
	NotifyURL           string            `json:"notify_url,omitempty"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	Customer            *chargeCustomer   `json:"customer,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type chargePayload struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	CheckoutURL string `json:"checkout_url"`
	Method      string `json:"payment_method"`
}

type providerError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gateway) Pay(ctx context.Context, req payment.Request) (*payment.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !g.SupportsCurrency(req.Amount.Currency()) {
		return nil, apperrors.NewUnsupportedCurrencyError(Name, req.Amount.Currency())
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = g.cfg.ReturnURL
	}
	notifyURL := req.NotifyURL
	if notifyURL == "" {
		notifyURL = g.cfg.WebhookURL
	}

	body := chargeRequest{
		Reference:           req.TransactionID,
		AmountMinor:         req.Amount.AmountMinor(),
		Currency:            req.Amount.Currency(),
		Description:         req.Description,
		ReturnURL:           returnURL,
		CancelURL:           req.CancelURL,
		NotifyURL:           notifyURL,
		StatementDescriptor: req.Metadata["statement_descriptor"],
		Metadata:            req.Metadata,
	}
	if req.Customer != nil {
		body.Customer = &chargeCustomer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		}
	}

	var payload chargePayload
	if err := g.do(ctx, http.MethodPost, "/v1/charges", body, &payload); err != nil {
		return nil, err
	}

	g.logger.Infow("charge created",
		"reference", req.TransactionID,
		"charge_id", payload.ID,
		"raw_status", payload.Status,
	)
	return g.toResponse(payload), nil
}

func (g *Gateway) Verify(ctx context.Context, transactionID string) (*payment.Response, error) {
	if transactionID == "" {
		return nil, apperrors.NewValidationError("transaction id is required")
	}

	var payload chargePayload
	if err := g.do(ctx, http.MethodGet, "/v1/charges/"+transactionID, nil, &payload); err != nil {
		return nil, err
	}
	return g.toResponse(payload), nil
}

type refundRequest struct {
	AmountMinor int64 `json:"amount,omitempty"`
}

func (g *Gateway) Refund(ctx context.Context, transactionID string, amount *vo.Money) (*payment.Response, error) {
	current, err := g.Verify(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanRefund() {
		return nil, apperrors.NewRefundNotEligibleError(transactionID, current.Status.String())
	}

	var body refundRequest
	if amount != nil {
		original := vo.NewMoney(parseAmount(current.Datum("amount_minor")), current.Datum("currency"))
		ok, cmpErr := amount.LessThanOrEqual(original)
		if cmpErr != nil {
			return nil, apperrors.NewValidationError("refund currency does not match charge", cmpErr.Error())
		}
		if !amount.IsPositive() || !ok {
			return nil, apperrors.NewValidationError("refund amount must be positive and at most the charged amount")
		}
		body.AmountMinor = amount.AmountMinor()
	}

	var payload chargePayload
	if err := g.do(ctx, http.MethodPost, "/v1/charges/"+transactionID+"/refunds", body, &payload); err != nil {
		return nil, err
	}

	g.logger.Infow("refund submitted",
		"charge_id", transactionID,
		"partial", amount != nil,
		"raw_status", payload.Status,
	)
	return g.toResponse(payload), nil
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ChargeID  string `json:"charge_id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

func (g *Gateway) ProcessWebhook(ctx context.Context, wh gateway.Webhook) (*payment.Response, error) {
	if err := g.verifier.Verify(wh); err != nil {
		g.logger.Warnw("webhook signature rejected",
			"remote_addr", wh.RemoteAddr,
			"error", err,
		)
		return nil, err
	}

	var event webhookEvent
	if err := json.Unmarshal(wh.Body, &event); err != nil {
		return nil, apperrors.NewValidationError("unparseable webhook body", err.Error())
	}

	if err := g.guard.Check(ctx, wh, event.ID); err != nil {
		g.logger.Warnw("webhook replay rejected",
			"event_id", event.ID,
			"error", err,
		)
		return nil, err
	}

	verified := gateway.Event{
		EventType:      event.Type,
		TransactionID:  event.Data.ChargeID,
		RawPayload:     wh.Body,
		ReceivedAt:     wh.ReceivedAt,
		SignatureValid: true,
	}

	status := statusMap.Resolve(event.Data.Status)
	if status == vo.StatusUnknown {
		g.logger.Warnw("webhook carries unmapped status",
			"event_id", event.ID,
			"event_type", verified.EventType,
			"raw_status", event.Data.Status,
		)
	}

	// The webhook was authenticated and understood; Success reflects
	// that, not the payment outcome.
	resp := &payment.Response{
		Success:       true,
		TransactionID: verified.TransactionID,
		Status:        status,
	}
	resp.SetDatum("event_id", event.ID)
	resp.SetDatum("event_type", verified.EventType)
	resp.SetDatum("reference", event.Data.Reference)
	resp.SetDatum("raw_status", event.Data.Status)
	resp.SetDatum("received_at", biztime.FormatMetadataTime(verified.ReceivedAt))
	return resp, nil
}

func (g *Gateway) toResponse(payload chargePayload) *payment.Response {
	resp := &payment.Response{
		Success:       true,
		TransactionID: payload.ID,
		Status:        statusMap.Resolve(payload.Status),
		RedirectURL:   payload.CheckoutURL,
	}
	resp.SetDatum("reference", payload.Reference)
	resp.SetDatum("raw_status", payload.Status)
	resp.SetDatum("amount_minor", strconv.FormatInt(payload.AmountMinor, 10))
	resp.SetDatum("currency", payload.Currency)
	if payload.Method != "" {
		resp.SetDatum("payment_method", payload.Method)
	}
	return resp
}

// do performs one authenticated call against the provider API.
func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	accessToken, err := g.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewValidationError("failed to encode request body", err.Error())
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return apperrors.NewNetworkError("failed to build provider request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return apperrors.NewNetworkError("provider call failed", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusUnauthorized {
		// The cached token may have been revoked; the next call refreshes.
		g.tokens.Invalidate()
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
			return apperrors.NewNetworkError("unparseable provider response", err)
		}
		return nil
	}

	var perr providerError
	if err := json.NewDecoder(httpResp.Body).Decode(&perr); err == nil && perr.Error.Code != "" {
		return apperrors.NewProviderRejectedError(perr.Error.Message, perr.Error.Code)
	}
	return apperrors.NewNetworkError(
		fmt.Sprintf("provider returned status %d with no parseable error body", httpResp.StatusCode), nil)
}

func parseAmount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
