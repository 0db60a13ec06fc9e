package infra

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer wraps a kafka-go writer bound to one topic.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

// NewKafkaProducer creates a producer for topic on the comma separated brokers.
func NewKafkaProducer(brokers, topic string, logger *slog.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic", topic)
	return &KafkaProducer{writer: w, topic: topic, logger: logger}
}

// Topic returns the destination topic.
func (p *KafkaProducer) Topic() string { return p.topic }

// Publish writes one message. The call honours ctx cancellation.
func (p *KafkaProducer) Publish(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

// Close flushes and shuts down the writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NewKafkaReader creates a consumer-group reader for topic. Offsets are
// committed explicitly by the caller.
func NewKafkaReader(brokers, topic, groupID string, logger *slog.Logger) *kafka.Reader {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(brokers, ","),
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        2 * time.Second,
		CommitInterval: 0,
	})

	logger.Info("kafka reader initialized", "brokers", brokers, "topic", topic, "group", groupID)
	return r
}
