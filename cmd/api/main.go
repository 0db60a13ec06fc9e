package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raidroster/api/internal/app"
	"github.com/raidroster/api/internal/auth"
	"github.com/raidroster/api/internal/guard"
	"github.com/raidroster/api/internal/handler"
	"github.com/raidroster/api/internal/infra"
	"github.com/raidroster/api/internal/provider"
	"github.com/raidroster/api/internal/repository"
	"github.com/raidroster/api/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Storage
	var players repository.PlayerStore
	switch cfg.StoreDriver {
	case "memory":
		players = repository.NewMemoryPlayerStore()
		logger.Warn("using in-memory player store, data is lost on restart")
	default:
		if cfg.RunMigrations {
			if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := infra.NewPostgresPool(ctx, cfg.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to postgres")
		players = repository.NewPgPlayerStore(pool)
	}

	// Credential validators
	var tokenValidator auth.Validator
	authInfo := handler.AuthInfo{
		Authority:    cfg.Authority(),
		Audience:     cfg.Auth0Audience,
		JwksURI:      cfg.JWKSURL(),
		DiscoveryURI: cfg.DiscoveryURL(),
	}
	if cfg.TokenAuthEnabled() {
		keys, err := infra.NewSigningKeys(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("signing keys: %w", err)
		}
		tokenValidator = auth.NewTokenValidator(auth.TokenConfig{
			Issuer:   keys.Issuer,
			Audience: cfg.Auth0Audience,
		}, keys.Keyfunc)
		authInfo.Authority = keys.Issuer
		authInfo.JwksURI = keys.JWKSURL
		authInfo.TokenAuthEnabled = true
	} else {
		logger.Warn("AUTH0_DOMAIN not set, bearer token authentication disabled")
	}

	apiKeys := auth.NewAPIKeyValidator(cfg.APIKeys, logger)
	authInfo.APIKeyEnabled = apiKeys.Enabled()
	logger.Info("api key authentication", "enabled", apiKeys.Enabled())

	// Feedback sink
	var notifier service.Notifier
	switch cfg.FeedbackSink {
	case "kafka":
		producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaFeedbackTopic, logger)
		defer producer.Close()
		notifier = provider.NewKafkaNotifier(producer)
	default:
		notifier = provider.NewWebhookNotifier(cfg.FeedbackWebhookURL, guard.NewCircuitBreaker(5, 30*time.Second), logger)
	}

	// Rate limiters
	var limiter, requestLimiter guard.Limiter
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		limiter = guard.NewRedisRateLimiter(rdb, "raidroster:feedback", cfg.FeedbackRateLimit, cfg.FeedbackRateWindow)
		if cfg.APIRateLimit > 0 {
			requestLimiter, err = guard.NewRedisStoreLimiter(rdb, "raidroster:requests", cfg.APIRateLimit, cfg.APIRateWindow)
			if err != nil {
				return err
			}
		}
		logger.Info("rate limiters backed by redis")
	} else {
		rl := guard.NewRateLimiter(cfg.FeedbackRateLimit, cfg.FeedbackRateWindow)
		go rl.RunSweeper(ctx, 10*time.Minute)
		limiter = rl
		if cfg.APIRateLimit > 0 {
			requestLimiter = guard.NewMemoryLimiter("raidroster:requests", cfg.APIRateLimit, cfg.APIRateWindow)
		}
	}

	router := app.NewRouter(app.RouterDeps{
		Players:            players,
		Logger:             logger,
		TokenValidator:     tokenValidator,
		APIKeyValidator:    apiKeys,
		AuthInfo:           authInfo,
		Notifier:           notifier,
		FeedbackLimiter:    limiter,
		RequestLimiter:     requestLimiter,
		SuppressChallenge:  cfg.AuthSuppressChallenge,
		Development:        cfg.IsDevelopment(),
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "env", cfg.Environment, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
