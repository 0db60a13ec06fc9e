package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raidroster/api/internal/domain"
)

// Notifier forwards accepted feedback to an external sink.
type Notifier interface {
	Notify(ctx context.Context, env domain.FeedbackEnvelope) error
}

// FeedbackService validates feedback and hands it to the sink. Delivery is best-effort.
type FeedbackService struct {
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(notifier Notifier, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{notifier: notifier, logger: logger, now: time.Now}
}

// Submit validates f and forwards it. Only validation errors are returned;
// sink failures are logged and dropped.
func (s *FeedbackService) Submit(ctx context.Context, f domain.Feedback, sourceIP string) error {
	f, err := domain.ValidateFeedback(f)
	if err != nil {
		return err
	}

	env := domain.FeedbackEnvelope{
		Feedback:    f,
		SourceIP:    sourceIP,
		SubmittedAt: s.now().UTC(),
	}

	if err := s.notifier.Notify(ctx, env); err != nil {
		s.logger.Error("feedback delivery failed",
			"error", err,
			"source_ip", sourceIP,
			"name", f.DisplayName(),
		)
		return nil
	}

	s.logger.Info("feedback delivered", "source_ip", sourceIP, "name", f.DisplayName())
	return nil
}
