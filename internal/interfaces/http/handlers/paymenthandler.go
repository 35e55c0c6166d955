package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/domain/payment"
	vo "paygate/internal/domain/payment/valueobjects"
	"paygate/internal/gateway"
	apperrors "paygate/internal/shared/errors"
	"paygate/internal/shared/logger"
	"paygate/internal/shared/utils"
)

type PaymentHandler struct {
	registry *gateway.Registry
	logger   logger.Interface
}

func NewPaymentHandler(registry *gateway.Registry, log logger.Interface) *PaymentHandler {
	return &PaymentHandler{
		registry: registry,
		logger:   log.Named("payment_handler"),
	}
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreatePaymentRequest struct {
	Gateway       string            `json:"gateway" binding:"required"`
	AmountMinor   int64             `json:"amount_minor" binding:"required"`
	Currency      string            `json:"currency" binding:"required"`
	TransactionID string            `json:"transaction_id"`
	Description   string            `json:"description"`
	Customer      *CustomerInput    `json:"customer"`
	ReturnURL     string            `json:"return_url"`
	CancelURL     string            `json:"cancel_url"`
	NotifyURL     string            `json:"notify_url"`
	Metadata      map[string]string `json:"metadata"`
}

type RefundPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	// AmountMinor and Currency are set together for a partial refund;
	// omitting both refunds in full.
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// CreatePayment initiates a payment through the named gateway.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create payment", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	gw, err := h.registry.Get(req.Gateway)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	paymentReq := payment.NewRequest(vo.NewMoney(req.AmountMinor, req.Currency))
	if req.TransactionID != "" {
		paymentReq.TransactionID = req.TransactionID
	}
	paymentReq.Description = req.Description
	paymentReq.ReturnURL = req.ReturnURL
	paymentReq.CancelURL = req.CancelURL
	paymentReq.NotifyURL = req.NotifyURL
	paymentReq.Metadata = req.Metadata
	if req.Customer != nil {
		paymentReq.Customer = &payment.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		}
	}

	result, err := gw.Pay(c.Request.Context(), paymentReq)
	if err != nil {
		h.logger.Warnw("payment failed",
			"gateway", req.Gateway,
			"transaction_id", paymentReq.TransactionID,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("payment created",
		"gateway", req.Gateway,
		"transaction_id", result.TransactionID,
		"status", result.Status.String(),
	)
	utils.CreatedResponse(c, result)
}

// GetPayment queries the provider for the current transaction status.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	gatewayName := c.Param("gateway")
	transactionID := c.Param("id")

	gw, err := h.registry.Get(gatewayName)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := gw.Verify(c.Request.Context(), transactionID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// RefundPayment refunds a completed transaction, fully or partially.
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	gatewayName := c.Param("gateway")

	var req RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for refund", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	gw, err := h.registry.Get(gatewayName)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var amount *vo.Money
	if req.AmountMinor != 0 || req.Currency != "" {
		if req.AmountMinor <= 0 || req.Currency == "" {
			utils.ErrorResponseWithError(c,
				apperrors.NewValidationError("partial refunds require both amount_minor and currency"))
			return
		}
		m := vo.NewMoney(req.AmountMinor, req.Currency)
		amount = &m
	}

	result, err := gw.Refund(c.Request.Context(), req.TransactionID, amount)
	if err != nil {
		h.logger.Warnw("refund failed",
			"gateway", gatewayName,
			"transaction_id", req.TransactionID,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("refund accepted",
		"gateway", gatewayName,
		"transaction_id", req.TransactionID,
		"partial", amount != nil,
	)
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListGateways reports the registered gateway names.
func (h *PaymentHandler) ListGateways(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"gateways": h.registry.Names()})
}

// HealthCheck reports service liveness.
func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
