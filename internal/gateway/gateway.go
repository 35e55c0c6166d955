// Package gateway defines the contract every payment provider adapter
// implements, the registry that resolves adapters by name, and the
// status normalization tables that map provider vocabularies onto the
// canonical lifecycle.
package gateway

import (
	"context"
	"net/http"
	"time"

	"paygate/internal/domain/payment"
	vo "paygate/internal/domain/payment/valueobjects"
	"paygate/internal/shared/biztime"
)

// Mode selects the provider environment an instance talks to.
type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeLive    Mode = "live"
)

func (m Mode) IsValid() bool {
	return m == ModeSandbox || m == ModeLive
}

// Config is the per-gateway, per-mode credential bundle. It is built
// once by the host application and owned exclusively by the gateway
// instance it configures; nothing mutates it after construction.
type Config struct {
	Name          string
	Mode          Mode
	Credentials   map[string]string
	WebhookSecret string
	ReturnURL     string
	WebhookURL    string
	// ReplayWindow bounds webhook timestamp age. Zero means the
	// 5-minute default.
	ReplayWindow time.Duration
	// Timeout bounds every outbound provider call. Zero means the
	// 30-second default.
	Timeout time.Duration
}

// Credential returns a named credential, empty if absent.
func (c Config) Credential(key string) string {
	return c.Credentials[key]
}

const (
	DefaultReplayWindow = 5 * time.Minute
	DefaultTimeout      = 30 * time.Second
)

// EffectiveReplayWindow returns the configured window or the default.
func (c Config) EffectiveReplayWindow() time.Duration {
	if c.ReplayWindow > 0 {
		return c.ReplayWindow
	}
	return DefaultReplayWindow
}

// EffectiveTimeout returns the configured timeout or the default.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Webhook is a raw inbound provider callback: body bytes plus transport
// metadata. It exists for the duration of one ProcessWebhook call and
// is never persisted.
type Webhook struct {
	Body       []byte
	Headers    http.Header
	RemoteAddr string
	ReceivedAt time.Time
}

// NewWebhook captures an inbound callback at the transport boundary.
func NewWebhook(body []byte, headers http.Header, remoteAddr string) Webhook {
	return Webhook{
		Body:       body,
		Headers:    headers,
		RemoteAddr: remoteAddr,
		ReceivedAt: biztime.NowUTC(),
	}
}

// Header returns a single header value, tolerating a nil header map.
func (w Webhook) Header(key string) string {
	if w.Headers == nil {
		return ""
	}
	return w.Headers.Get(key)
}

// Event is a verified, parsed webhook. SignatureValid is set by the
// adapter after its verifier accepted the payload; fields of an event
// with SignatureValid false must not be trusted.
type Event struct {
	EventType      string
	TransactionID  string
	RawPayload     []byte
	ReceivedAt     time.Time
	SignatureValid bool
}

// Payer initiates payments against the provider.
type Payer interface {
	// Pay performs exactly one outbound provider call. The request must
	// already be valid and its currency supported; adapters check both
	// before touching the network.
	Pay(ctx context.Context, req payment.Request) (*payment.Response, error)
}

// StatusVerifier polls the provider for a transaction's current state.
type StatusVerifier interface {
	// Verify is idempotent: absent provider-side progression, repeated
	// calls with the same id yield the same canonical status.
	Verify(ctx context.Context, transactionID string) (*payment.Response, error)
}

// Refunder reverses captured payments, fully or partially.
type Refunder interface {
	// Refund with a nil amount refunds the full charge. Fails with the
	// refund_not_eligible kind unless the transaction's canonical
	// status allows a refund.
	Refund(ctx context.Context, transactionID string, amount *vo.Money) (*payment.Response, error)
}

// WebhookProcessor authenticates and normalizes provider callbacks.
type WebhookProcessor interface {
	// ProcessWebhook verifies authenticity before trusting any field,
	// rejects stale timestamps, and maps the provider event onto the
	// canonical status. A webhook reporting a failed payment still
	// returns Success true with the failed status.
	ProcessWebhook(ctx context.Context, wh Webhook) (*payment.Response, error)
}

// Gateway is the full adapter contract. Every registered adapter
// implements all four capabilities.
type Gateway interface {
	Name() string
	Mode() Mode
	SupportsCurrency(currency string) bool

	Payer
	StatusVerifier
	Refunder
	WebhookProcessor
}
