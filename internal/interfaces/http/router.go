package http

import (
	"github.com/gin-gonic/gin"

	"paygate/internal/gateway"
	"paygate/internal/interfaces/http/handlers"
	"paygate/internal/interfaces/http/middleware"
	sharedConfig "paygate/internal/shared/config"
	"paygate/internal/shared/logger"
)

// Router wires the HTTP surface: payment operations and the inbound
// webhook endpoints.
type Router struct {
	engine         *gin.Engine
	paymentHandler *handlers.PaymentHandler
	webhookHandler *handlers.WebhookHandler
	logger         logger.Interface
}

func NewRouter(registry *gateway.Registry, log logger.Interface) *Router {
	return &Router{
		engine:         gin.New(),
		paymentHandler: handlers.NewPaymentHandler(registry, log),
		webhookHandler: handlers.NewWebhookHandler(registry, log),
		logger:         log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(server *sharedConfig.ServerConfig) {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CORS(server.AllowedOrigins))

	r.engine.GET("/health", r.paymentHandler.HealthCheck)

	payments := r.engine.Group("/payments")
	{
		payments.POST("", r.paymentHandler.CreatePayment)
		payments.GET("/:gateway/:id", r.paymentHandler.GetPayment)
		payments.POST("/:gateway/refund", r.paymentHandler.RefundPayment)
	}

	r.engine.GET("/gateways", r.paymentHandler.ListGateways)

	// Providers post here; these endpoints are authenticated by
	// signature, not by session.
	r.engine.POST("/webhooks/:gateway", r.webhookHandler.HandleWebhook)
}

// Engine exposes the underlying gin engine for serving and tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
