package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raidroster/api/internal/domain"
)

// Publisher writes one keyed message to a topic. *infra.KafkaProducer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaNotifier publishes feedback as JSON, keyed by source IP.
type KafkaNotifier struct {
	pub Publisher
}

// NewKafkaNotifier creates a notifier over pub.
func NewKafkaNotifier(pub Publisher) *KafkaNotifier {
	return &KafkaNotifier{pub: pub}
}

// Notify publishes env.
func (n *KafkaNotifier) Notify(ctx context.Context, env domain.FeedbackEnvelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	if err := n.pub.Publish(ctx, []byte(env.SourceIP), value); err != nil {
		return fmt.Errorf("publish feedback: %w", err)
	}
	return nil
}
