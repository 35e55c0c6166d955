package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"paygate/internal/gateway"
	"paygate/internal/gateway/signature"
	"paygate/internal/gateways/formgate"
	"paygate/internal/gateways/sandboxpay"
	"paygate/internal/infrastructure/config"
	"paygate/internal/infrastructure/replaycache"
	httpRouter "paygate/internal/interfaces/http"
	"paygate/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the paygate HTTP server with the gateways enabled in configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	replayStore, cleanup, err := buildReplayStore(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := gateway.NewRegistry()
	registry.Register(sandboxpay.Name, sandboxpay.Factory(log, sandboxpay.WithReplayStore(replayStore)))
	registry.Register(formgate.Name, formgate.Factory(log, formgate.WithReplayStore(replayStore)))

	for name, settings := range cfg.Gateways {
		if _, err := registry.Resolve(name, settings.ToGatewayConfig(name)); err != nil {
			return fmt.Errorf("failed to initialize gateway %s: %w", name, err)
		}
		log.Infow("gateway initialized", "gateway", name, "mode", settings.Mode)
	}

	router := httpRouter.NewRouter(registry, log)
	router.SetupRoutes(&cfg.Server)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server exited gracefully")
	return nil
}

// buildReplayStore picks redis when configured so multiple instances
// share one view of seen webhook events, else the in-process store.
func buildReplayStore(cfg *config.Config, log logger.Interface) (signature.SeenStore, func(), error) {
	if !cfg.Redis.Enabled {
		log.Infow("webhook replay tracking using in-process store")
		return replaycache.NewMemory(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Infow("webhook replay tracking using redis", "addr", cfg.Redis.GetAddr())
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close redis client", "error", err)
		}
	}
	return replaycache.NewRedis(client, ""), cleanup, nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
