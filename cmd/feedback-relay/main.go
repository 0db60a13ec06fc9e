package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raidroster/api/internal/guard"
	"github.com/raidroster/api/internal/infra"
	"github.com/raidroster/api/internal/provider"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("feedback relay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.KafkaBrokers == "" {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.FeedbackWebhookURL == "" {
		logger.Warn("FEEDBACK_WEBHOOK_URL not set, relayed feedback is only logged")
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	reader := infra.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaFeedbackTopic, cfg.KafkaConsumerGroup, logger)
	defer reader.Close()

	webhook := provider.NewWebhookNotifier(cfg.FeedbackWebhookURL, guard.NewCircuitBreaker(5, 30*time.Second), logger)
	relay := provider.NewRelay(reader, webhook, cfg.RelayMaxAttempts, cfg.RelayBackoff, logger)

	logger.Info("feedback relay starting",
		"topic", cfg.KafkaFeedbackTopic,
		"group", cfg.KafkaConsumerGroup,
		"max_attempts", cfg.RelayMaxAttempts,
	)
	if err := relay.Run(ctx); err != nil {
		return fmt.Errorf("relay: %w", err)
	}

	logger.Info("feedback relay shutting down")
	return nil
}
