package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/guard"
	"github.com/segmentio/kafka-go"
)

const minCircuitWait = 50 * time.Millisecond

// MessageReader is the consumer side of a feedback topic. *kafka.Reader satisfies it.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Sink delivers one envelope.
type Sink interface {
	Notify(ctx context.Context, env domain.FeedbackEnvelope) error
}

// Relay drains a feedback topic into a sink. A message is committed once it
// is delivered, undecodable, or has exhausted its attempts. Refusals from an
// open circuit do not count as attempts.
type Relay struct {
	reader      MessageReader
	sink        Sink
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewRelay creates a relay from reader to sink.
func NewRelay(reader MessageReader, sink Sink, maxAttempts int, backoff time.Duration, logger *slog.Logger) *Relay {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Relay{reader: reader, sink: sink, logger: logger, maxAttempts: maxAttempts, backoff: backoff}
}

// Run consumes until ctx is cancelled or the reader fails.
func (r *Relay) Run(ctx context.Context) error {
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := r.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg kafka.Message) error {
	var env domain.FeedbackEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		r.logger.Error("dropping undecodable feedback message",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
		return r.reader.CommitMessages(ctx, msg)
	}

	attempt := 0
	for {
		err := r.sink.Notify(ctx, env)
		if err == nil {
			r.logger.Info("feedback relayed", "offset", msg.Offset, "source_ip", env.SourceIP)
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// An open circuit means the sink was not called; hold the message
		// until the next trial call without spending an attempt.
		var open *guard.OpenError
		if errors.As(err, &open) {
			wait := max(open.RetryIn, r.backoff, minCircuitWait)
			r.logger.Warn("feedback sink circuit open, holding message", "offset", msg.Offset, "retry_in", wait)
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		}

		attempt++
		if attempt >= r.maxAttempts {
			r.logger.Error("feedback delivery failed, giving up",
				"offset", msg.Offset, "attempts", attempt, "error", err)
			break
		}
		r.logger.Warn("feedback delivery failed, retrying", "offset", msg.Offset, "attempt", attempt, "error", err)
		if err := sleepCtx(ctx, r.backoff*time.Duration(attempt)); err != nil {
			return err
		}
	}

	return r.reader.CommitMessages(ctx, msg)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
