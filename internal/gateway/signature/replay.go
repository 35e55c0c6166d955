package signature

import (
	"context"
	"time"

	"paygate/internal/gateway"
	"paygate/internal/shared/biztime"
	apperrors "paygate/internal/shared/errors"
)

// SeenStore remembers processed webhook event ids for the replay
// window. Seen atomically records id and reports whether it was already
// present.
type SeenStore interface {
	Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// ReplayGuard rejects webhooks whose timestamp falls outside the
// freshness window, and optionally webhooks whose event id was already
// processed. A stolen signed payload is still rejected once stale.
type ReplayGuard struct {
	// Window is the maximum accepted timestamp age. Zero means the
	// gateway default of 5 minutes.
	Window time.Duration
	// TimestampHeader names the header carrying the webhook timestamp.
	// Adapters whose providers put the timestamp in the body call
	// CheckTimestamp directly instead.
	TimestampHeader string
	// Store, when set, enables duplicate-event-id rejection.
	Store SeenStore

	// Now is overridable for tests.
	Now func() time.Time
}

func (g *ReplayGuard) window() time.Duration {
	if g.Window > 0 {
		return g.Window
	}
	return gateway.DefaultReplayWindow
}

func (g *ReplayGuard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return biztime.NowUTC()
}

// Check parses the timestamp header and applies freshness and
// duplicate checks. eventID may be empty when the provider sends none.
func (g *ReplayGuard) Check(ctx context.Context, wh gateway.Webhook, eventID string) error {
	raw := wh.Header(g.TimestampHeader)
	if raw == "" {
		return apperrors.NewReplayError("missing timestamp header", g.TimestampHeader)
	}
	ts, err := biztime.ParseWebhookTimestamp(raw)
	if err != nil {
		return apperrors.NewReplayError("unparseable webhook timestamp", raw)
	}
	return g.CheckTimestamp(ctx, ts, eventID)
}

// CheckTimestamp applies freshness and duplicate checks to an
// already-parsed timestamp.
func (g *ReplayGuard) CheckTimestamp(ctx context.Context, ts time.Time, eventID string) error {
	now := g.now()
	window := g.window()

	if age := now.Sub(ts); age > window {
		return apperrors.NewReplayError("webhook timestamp outside freshness window",
			"age "+age.Truncate(time.Second).String())
	}
	// Clock skew in the other direction gets the same tolerance.
	if ahead := ts.Sub(now); ahead > window {
		return apperrors.NewReplayError("webhook timestamp too far in the future",
			"ahead "+ahead.Truncate(time.Second).String())
	}

	if g.Store != nil && eventID != "" {
		// Keep ids around twice the window so a replay arriving right at
		// the freshness edge still hits the store.
		seen, err := g.Store.Seen(ctx, eventID, 2*window)
		if err != nil {
			return apperrors.NewNetworkError("replay store unavailable", err)
		}
		if seen {
			return apperrors.NewReplayError("duplicate webhook event", eventID)
		}
	}
	return nil
}
