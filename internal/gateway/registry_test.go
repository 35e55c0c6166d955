package gateway

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain/payment"
	vo "paygate/internal/domain/payment/valueobjects"
	apperrors "paygate/internal/shared/errors"
)

// stubGateway is the minimal Gateway used by registry tests.
type stubGateway struct {
	name string
	mode Mode
}

func (s *stubGateway) Name() string { return s.name }
func (s *stubGateway) Mode() Mode   { return s.mode }
func (s *stubGateway) SupportsCurrency(currency string) bool {
	return currency == "USD"
}

func (s *stubGateway) Pay(ctx context.Context, req payment.Request) (*payment.Response, error) {
	return &payment.Response{Success: true, Status: vo.StatusPending, TransactionID: req.TransactionID}, nil
}

func (s *stubGateway) Verify(ctx context.Context, transactionID string) (*payment.Response, error) {
	return &payment.Response{Success: true, Status: vo.StatusPending, TransactionID: transactionID}, nil
}

func (s *stubGateway) Refund(ctx context.Context, transactionID string, amount *vo.Money) (*payment.Response, error) {
	return &payment.Response{Success: true, Status: vo.StatusRefunded, TransactionID: transactionID}, nil
}

func (s *stubGateway) ProcessWebhook(ctx context.Context, wh Webhook) (*payment.Response, error) {
	return &payment.Response{Success: true, Status: vo.StatusUnknown}, nil
}

func stubFactory(name string) Factory {
	return func(cfg Config) (Gateway, error) {
		return &stubGateway{name: name, mode: cfg.Mode}, nil
	}
}

func TestRegistry_ResolveKnownGateway(t *testing.T) {
	reg := NewRegistry()
	reg.Register("stub", stubFactory("stub"))

	gw, err := reg.Resolve("stub", Config{Name: "stub", Mode: ModeSandbox})
	require.NoError(t, err)
	assert.Equal(t, "stub", gw.Name())
	assert.Equal(t, ModeSandbox, gw.Mode())
}

func TestRegistry_UnknownGatewayFailsFast(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Resolve("nope", Config{})
	require.Error(t, err)
	assert.True(t, apperrors.IsGatewayNotFoundError(err))

	_, err = reg.Get("nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsGatewayNotFoundError(err))
}

func TestRegistry_ResolveCachesInstance(t *testing.T) {
	reg := NewRegistry()
	var built int
	reg.Register("stub", func(cfg Config) (Gateway, error) {
		built++
		return &stubGateway{name: "stub", mode: cfg.Mode}, nil
	})

	first, err := reg.Resolve("stub", Config{Mode: ModeLive})
	require.NoError(t, err)
	second, err := reg.Resolve("stub", Config{Mode: ModeLive})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, built)

	got, err := reg.Get("stub")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRegistry_FactoryErrorPropagates(t *testing.T) {
	reg := NewRegistry()
	reg.Register("broken", func(cfg Config) (Gateway, error) {
		return nil, fmt.Errorf("missing credential api_key")
	})

	_, err := reg.Resolve("broken", Config{})
	require.Error(t, err)

	// A failed construction must not be cached.
	_, err = reg.Get("broken")
	assert.True(t, apperrors.IsGatewayNotFoundError(err))
}

func TestRegistry_ConcurrentResolveBuildsOnce(t *testing.T) {
	reg := NewRegistry()
	var mu sync.Mutex
	built := 0
	reg.Register("stub", func(cfg Config) (Gateway, error) {
		mu.Lock()
		built++
		mu.Unlock()
		return &stubGateway{name: "stub", mode: cfg.Mode}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Resolve("stub", Config{Mode: ModeSandbox})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, built)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	reg.Register("zeta", stubFactory("zeta"))
	reg.Register("alpha", stubFactory("alpha"))

	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultReplayWindow, cfg.EffectiveReplayWindow())
	assert.Equal(t, DefaultTimeout, cfg.EffectiveTimeout())

	cfg.ReplayWindow = DefaultReplayWindow * 2
	cfg.Timeout = DefaultTimeout / 2
	assert.Equal(t, DefaultReplayWindow*2, cfg.EffectiveReplayWindow())
	assert.Equal(t, DefaultTimeout/2, cfg.EffectiveTimeout())
}
