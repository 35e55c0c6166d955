package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/gateway"
	apperrors "paygate/internal/shared/errors"
	"paygate/internal/shared/logger"
	"paygate/internal/shared/utils"
)

type WebhookHandler struct {
	registry *gateway.Registry
	logger   logger.Interface
}

func NewWebhookHandler(registry *gateway.Registry, log logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		registry: registry,
		logger:   log.Named("webhook_handler"),
	}
}

// HandleWebhook authenticates and normalizes a provider notification.
// The raw body must reach the adapter untouched; signatures are
// computed over the exact bytes the provider sent.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	gatewayName := c.Param("gateway")

	gw, err := h.registry.Get(gatewayName)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	wh := gateway.NewWebhook(body, c.Request.Header, c.ClientIP())
	result, err := gw.ProcessWebhook(c.Request.Context(), wh)
	if err != nil {
		switch {
		case apperrors.IsWebhookAuthError(err):
			h.logger.Warnw("webhook rejected: authentication failed",
				"gateway", gatewayName,
				"remote_addr", c.ClientIP(),
			)
		case apperrors.IsReplayError(err):
			h.logger.Warnw("webhook rejected: replay",
				"gateway", gatewayName,
				"remote_addr", c.ClientIP(),
			)
		default:
			h.logger.Warnw("webhook processing failed",
				"gateway", gatewayName,
				"error", err,
			)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("webhook processed",
		"gateway", gatewayName,
		"transaction_id", result.TransactionID,
		"status", result.Status.String(),
	)
	utils.SuccessResponse(c, http.StatusOK, "", result)
}
