package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain/payment"
	vo "paygate/internal/domain/payment/valueobjects"
	"paygate/internal/gateway"
	apperrors "paygate/internal/shared/errors"
	"paygate/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGateway scripts contract responses for handler tests.
type fakeGateway struct {
	payResp     *payment.Response
	payErr      error
	verifyResp  *payment.Response
	verifyErr   error
	refundResp  *payment.Response
	refundErr   error
	webhookResp *payment.Response
	webhookErr  error

	lastPayReq    payment.Request
	lastRefundID  string
	lastRefundAmt *vo.Money
	lastWebhook   gateway.Webhook
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) Name() string                   { return "fake" }
func (f *fakeGateway) Mode() gateway.Mode             { return gateway.ModeSandbox }
func (f *fakeGateway) SupportsCurrency(c string) bool { return c == "USD" }

func (f *fakeGateway) Pay(_ context.Context, req payment.Request) (*payment.Response, error) {
	f.lastPayReq = req
	return f.payResp, f.payErr
}

func (f *fakeGateway) Verify(_ context.Context, id string) (*payment.Response, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeGateway) Refund(_ context.Context, id string, amount *vo.Money) (*payment.Response, error) {
	f.lastRefundID = id
	f.lastRefundAmt = amount
	return f.refundResp, f.refundErr
}

func (f *fakeGateway) ProcessWebhook(_ context.Context, wh gateway.Webhook) (*payment.Response, error) {
	f.lastWebhook = wh
	return f.webhookResp, f.webhookErr
}

func newTestServer(t *testing.T, fake *fakeGateway) (*gin.Engine, *gateway.Registry) {
	t.Helper()
	registry := gateway.NewRegistry()
	registry.Register("fake", func(cfg gateway.Config) (gateway.Gateway, error) {
		return fake, nil
	})
	_, err := registry.Resolve("fake", gateway.Config{Name: "fake", Mode: gateway.ModeSandbox})
	require.NoError(t, err)

	engine := gin.New()
	log := logger.NewNop()
	paymentHandler := NewPaymentHandler(registry, log)
	webhookHandler := NewWebhookHandler(registry, log)

	engine.POST("/payments", paymentHandler.CreatePayment)
	engine.GET("/payments/:gateway/:id", paymentHandler.GetPayment)
	engine.POST("/payments/:gateway/refund", paymentHandler.RefundPayment)
	engine.POST("/webhooks/:gateway", webhookHandler.HandleWebhook)
	return engine, registry
}

func performJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreatePayment(t *testing.T) {
	fake := &fakeGateway{
		payResp: &payment.Response{
			Success:       true,
			TransactionID: "ch_1",
			Status:        vo.StatusPending,
			RedirectURL:   "https://pay.example/ch_1",
		},
	}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/payments", gin.H{
		"gateway":        "fake",
		"amount_minor":   10000,
		"currency":       "USD",
		"transaction_id": "T1",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "T1", fake.lastPayReq.TransactionID)
	assert.Equal(t, int64(10000), fake.lastPayReq.Amount.AmountMinor())
	assert.Contains(t, rec.Body.String(), `"redirect_url":"https://pay.example/ch_1"`)
}

func TestCreatePayment_GeneratesTransactionID(t *testing.T) {
	fake := &fakeGateway{payResp: &payment.Response{Success: true, Status: vo.StatusCreated}}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/payments", gin.H{
		"gateway":      "fake",
		"amount_minor": 500,
		"currency":     "USD",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, fake.lastPayReq.TransactionID)
}

func TestCreatePayment_UnknownGateway(t *testing.T) {
	engine, _ := newTestServer(t, &fakeGateway{})

	rec := performJSON(engine, http.MethodPost, "/payments", gin.H{
		"gateway":      "nope",
		"amount_minor": 500,
		"currency":     "USD",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(apperrors.KindGatewayNotFound))
}

func TestCreatePayment_ProviderRejectionMapsTo422(t *testing.T) {
	fake := &fakeGateway{payErr: apperrors.NewProviderRejectedError("card declined", "card_declined")}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/payments", gin.H{
		"gateway":      "fake",
		"amount_minor": 500,
		"currency":     "USD",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"provider_code":"card_declined"`)
}

func TestGetPayment(t *testing.T) {
	fake := &fakeGateway{
		verifyResp: &payment.Response{Success: true, TransactionID: "ch_1", Status: vo.StatusCompleted},
	}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodGet, "/payments/fake/ch_1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
}

func TestRefundPayment_Partial(t *testing.T) {
	fake := &fakeGateway{
		refundResp: &payment.Response{Success: true, TransactionID: "ch_1", Status: vo.StatusRefunded},
	}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/payments/fake/refund", gin.H{
		"transaction_id": "ch_1",
		"amount_minor":   2500,
		"currency":       "USD",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.lastRefundAmt)
	assert.Equal(t, int64(2500), fake.lastRefundAmt.AmountMinor())
}

func TestRefundPayment_AmountWithoutCurrency(t *testing.T) {
	engine, _ := newTestServer(t, &fakeGateway{})

	rec := performJSON(engine, http.MethodPost, "/payments/fake/refund", gin.H{
		"transaction_id": "ch_1",
		"amount_minor":   2500,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefundPayment_NotEligibleMapsTo409(t *testing.T) {
	fake := &fakeGateway{refundErr: apperrors.NewRefundNotEligibleError("ch_1", "pending")}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/payments/fake/refund", gin.H{
		"transaction_id": "ch_1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleWebhook(t *testing.T) {
	fake := &fakeGateway{
		webhookResp: &payment.Response{Success: true, TransactionID: "ch_1", Status: vo.StatusCompleted},
	}
	engine, _ := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/fake", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	req.Header.Set("X-Signature", "sig")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte(`{"id":"evt_1"}`), fake.lastWebhook.Body, "raw body must reach the adapter untouched")
	assert.Equal(t, "sig", fake.lastWebhook.Header("X-Signature"))
}

func TestHandleWebhook_AuthFailureMapsTo401(t *testing.T) {
	fake := &fakeGateway{webhookErr: apperrors.NewWebhookAuthError("signature mismatch")}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/webhooks/fake", gin.H{"id": "evt_1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWebhook_ReplayMapsTo409(t *testing.T) {
	fake := &fakeGateway{webhookErr: apperrors.NewReplayError("duplicate webhook event", "evt_1")}
	engine, _ := newTestServer(t, fake)

	rec := performJSON(engine, http.MethodPost, "/webhooks/fake", gin.H{"id": "evt_1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
