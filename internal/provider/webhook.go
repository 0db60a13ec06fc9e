package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/guard"
)

const webhookCircuitKey = "feedback_webhook"

// WebhookNotifier posts feedback to a Discord-compatible chat webhook.
type WebhookNotifier struct {
	url     string
	logger  *slog.Logger
	client  *http.Client
	breaker *guard.CircuitBreaker
}

// NewWebhookNotifier creates a notifier for url. An empty url only logs submissions.
func NewWebhookNotifier(url string, breaker *guard.CircuitBreaker, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		logger:  logger,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: breaker,
	}
}

type webhookPayload struct {
	Username string         `json:"username"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func buildWebhookPayload(env domain.FeedbackEnvelope) webhookPayload {
	return webhookPayload{
		Username: "Raid Roster Feedback",
		Embeds: []webhookEmbed{{
			Title:       "New feedback",
			Description: env.Message,
			Color:       0x5865F2,
			Fields: []webhookField{
				{Name: "From", Value: env.DisplayName(), Inline: true},
				{Name: "Source", Value: env.SourceIP, Inline: true},
			},
			Timestamp: env.SubmittedAt.UTC().Format(time.RFC3339),
		}},
	}
}

// Notify posts env to the webhook through the circuit breaker.
func (n *WebhookNotifier) Notify(ctx context.Context, env domain.FeedbackEnvelope) error {
	if n.url == "" {
		n.logger.Info("feedback webhook not configured, dropping submission",
			"name", env.DisplayName(), "length", len(env.Message))
		return nil
	}

	body, err := json.Marshal(buildWebhookPayload(env))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	return n.breaker.Do(ctx, webhookCircuitKey, func(ctx context.Context) error {
		return n.post(ctx, body)
	})
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
