// Package formgate is the reference adapter for a form-encoded
// provider: signed name/value pairs on every call and MD5 field-hash
// webhooks with the timestamp carried in the body. It exercises the
// canonicalization path that JSON providers never touch.
package formgate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"paygate/internal/domain/payment"
	vo "paygate/internal/domain/payment/valueobjects"
	"paygate/internal/gateway"
	"paygate/internal/gateway/signature"
	"paygate/internal/shared/biztime"
	apperrors "paygate/internal/shared/errors"
	"paygate/internal/shared/logger"
)

const Name = "formgate"

const (
	sandboxBaseURL = "https://sandbox.formgate.example"
	liveBaseURL    = "https://api.formgate.example"
)

// statusMap mixes the provider's numeric result codes with the textual
// statuses older API versions still send. When a payload carries both,
// the code wins.
var statusMap = gateway.StatusMap{
	"00": vo.StatusCompleted,
	"01": vo.StatusCreated,
	"02": vo.StatusPending,
	"03": vo.StatusProcessing,
	"05": vo.StatusFailed,
	"07": vo.StatusCancelled,
	"09": vo.StatusRefunded,
	"10": vo.StatusDisputed,

	"complete":   vo.StatusCompleted,
	"pending":    vo.StatusPending,
	"processing": vo.StatusProcessing,
	"failed":     vo.StatusFailed,
	"cancelled":  vo.StatusCancelled,
	"refunded":   vo.StatusRefunded,
	"chargeback": vo.StatusDisputed,
}

var supportedCurrencies = map[string]struct{}{
	"ZAR": {}, "USD": {}, "EUR": {}, "GBP": {},
}

// Gateway talks to the formgate merchant API. All traffic is
// application/x-www-form-urlencoded in both directions.
type Gateway struct {
	cfg     gateway.Config
	baseURL string
	client  *http.Client
	signer  signature.FieldHash
	guard   *signature.ReplayGuard
	logger  logger.Interface

	merchantID  string
	merchantKey string
}

var _ gateway.Gateway = (*Gateway)(nil)

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) { g.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithReplayStore enables duplicate-notification-id rejection.
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
	merchantID := cfg.Credential("merchant_id")
	merchantKey := cfg.Credential("merchant_key")
	if merchantID == "" || merchantKey == "" {
		return nil, apperrors.NewValidationError("formgate requires merchant_id and merchant_key credentials")
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
		signer: signature.FieldHash{
			Algorithm:      signature.AlgoMD5,
			SignatureField: "signature",
			Passphrase:     cfg.Credential("passphrase"),
		},
		guard: &signature.ReplayGuard{
			Window: cfg.EffectiveReplayWindow(),
		},
		logger:      log.Named(Name),
		merchantID:  merchantID,
		merchantKey: merchantKey,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gateway) Name() string       { return Name }
func (g *Gateway) Mode() gateway.Mode { return g.cfg.Mode }

func (g *Gateway) SupportsCurrency(currency string) bool {
	_, ok := supportedCurrencies[strings.ToUpper(currency)]
	return ok
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

	fields := url.Values{}
	fields.Set("reference", req.TransactionID)
	fields.Set("amount", strconv.FormatInt(req.Amount.AmountMinor(), 10))
	fields.Set("currency", req.Amount.Currency())
	fields.Set("item_name", req.Description)
	fields.Set("return_url", returnURL)
	fields.Set("cancel_url", req.CancelURL)
	fields.Set("notify_url", notifyURL)
	if req.Customer != nil {
		fields.Set("customer_name", req.Customer.Name)
		fields.Set("customer_email", req.Customer.Email)
	}

	values, err := g.do(ctx, "/api/v1/payments", fields)
	if err != nil {
		return nil, err
	}

	g.logger.Infow("payment submitted",
		"reference", req.TransactionID,
		"payment_id", values.Get("payment_id"),
		"status_code", values.Get("status_code"),
	)
	return g.toResponse(values), nil
}

func (g *Gateway) Verify(ctx context.Context, transactionID string) (*payment.Response, error) {
	if transactionID == "" {
		return nil, apperrors.NewValidationError("transaction id is required")
	}

	fields := url.Values{}
	fields.Set("payment_id", transactionID)

	values, err := g.do(ctx, "/api/v1/payments/query", fields)
	if err != nil {
		return nil, err
	}
	return g.toResponse(values), nil
}

func (g *Gateway) Refund(ctx context.Context, transactionID string, amount *vo.Money) (*payment.Response, error) {
	current, err := g.Verify(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanRefund() {
		return nil, apperrors.NewRefundNotEligibleError(transactionID, current.Status.String())
	}

	fields := url.Values{}
	fields.Set("payment_id", transactionID)
	if amount != nil {
		original := vo.NewMoney(parseAmount(current.Datum("amount_minor")), current.Datum("currency"))
		ok, cmpErr := amount.LessThanOrEqual(original)
		if cmpErr != nil {
			return nil, apperrors.NewValidationError("refund currency does not match payment", cmpErr.Error())
		}
		if !amount.IsPositive() || !ok {
			return nil, apperrors.NewValidationError("refund amount must be positive and at most the paid amount")
		}
		fields.Set("amount", strconv.FormatInt(amount.AmountMinor(), 10))
	}

	values, err := g.do(ctx, "/api/v1/refunds", fields)
	if err != nil {
		return nil, err
	}

	g.logger.Infow("refund submitted",
		"payment_id", transactionID,
		"partial", amount != nil,
		"status_code", values.Get("status_code"),
	)
	return g.toResponse(values), nil
}

// ProcessWebhook handles the provider's instant notifications: a signed
// form post with the notification timestamp inside the body rather than
// a header.
func (g *Gateway) ProcessWebhook(ctx context.Context, wh gateway.Webhook) (*payment.Response, error) {
	if err := g.signer.Verify(wh); err != nil {
		g.logger.Warnw("notification signature rejected",
			"remote_addr", wh.RemoteAddr,
			"error", err,
		)
		return nil, err
	}

	values, err := url.ParseQuery(string(wh.Body))
	if err != nil {
		return nil, apperrors.NewValidationError("unparseable notification body", err.Error())
	}

	ts, err := biztime.ParseWebhookTimestamp(values.Get("timestamp"))
	if err != nil {
		return nil, apperrors.NewReplayError("missing or unparseable notification timestamp", values.Get("timestamp"))
	}
	notificationID := values.Get("notification_id")
	if err := g.guard.CheckTimestamp(ctx, ts, notificationID); err != nil {
		g.logger.Warnw("notification replay rejected",
			"notification_id", notificationID,
			"error", err,
		)
		return nil, err
	}

	verified := gateway.Event{
		EventType:      "payment.notification",
		TransactionID:  values.Get("payment_id"),
		RawPayload:     wh.Body,
		ReceivedAt:     wh.ReceivedAt,
		SignatureValid: true,
	}

	code := values.Get("status_code")
	text := values.Get("status_text")
	status := statusMap.ResolvePreferringCode(code, text)
	if status == vo.StatusUnknown {
		g.logger.Warnw("notification carries unmapped status",
			"notification_id", notificationID,
			"status_code", code,
			"status_text", text,
		)
	}

	resp := &payment.Response{
		Success:       true,
		TransactionID: verified.TransactionID,
		Status:        status,
	}
	resp.SetDatum("notification_id", notificationID)
	resp.SetDatum("reference", values.Get("reference"))
	resp.SetDatum("raw_status", code)
	resp.SetDatum("raw_status_text", text)
	resp.SetDatum("received_at", biztime.FormatMetadataTime(verified.ReceivedAt))
	return resp, nil
}

func (g *Gateway) toResponse(values url.Values) *payment.Response {
	resp := &payment.Response{
		Success:       true,
		TransactionID: values.Get("payment_id"),
		Status:        statusMap.ResolvePreferringCode(values.Get("status_code"), values.Get("status_text")),
		RedirectURL:   values.Get("redirect_url"),
	}
	resp.SetDatum("reference", values.Get("reference"))
	resp.SetDatum("raw_status", values.Get("status_code"))
	resp.SetDatum("raw_status_text", values.Get("status_text"))
	resp.SetDatum("amount_minor", values.Get("amount"))
	resp.SetDatum("currency", values.Get("currency"))
	return resp
}

// do signs the merchant fields and performs one form-encoded call. The
// provider answers form-encoded name/value pairs on every status code.
func (g *Gateway) do(ctx context.Context, path string, fields url.Values) (url.Values, error) {
	fields.Set("merchant_id", g.merchantID)
	fields.Set("merchant_key", g.merchantKey)
	fields.Set("signature", g.signer.Sign(fields))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path,
		strings.NewReader(fields.Encode()))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to build provider request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNetworkError("provider call failed", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read provider response", err)
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, apperrors.NewNetworkError("unparseable provider response", err)
	}

	if code := values.Get("error_code"); code != "" {
		return nil, apperrors.NewProviderRejectedError(values.Get("error_message"), code)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("provider returned status %d with no error fields", httpResp.StatusCode), nil)
	}
	return values, nil
}

func parseAmount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
