package handler

import (
	"net/http"

	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/service"
)

// FeedbackHandler accepts feedback submissions.
type FeedbackHandler struct {
	feedback *service.FeedbackService
	sourceIP func(*http.Request) string
}

// NewFeedbackHandler creates a new FeedbackHandler. sourceIP must match the
// key used by the rate limiter in front of it.
func NewFeedbackHandler(feedback *service.FeedbackService, sourceIP func(*http.Request) string) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, sourceIP: sourceIP}
}

type feedbackAccepted struct {
	Message string `json:"message"`
}

// Submit handles POST /api/feedback. Accepted submissions always get 202,
// whether or not the sink delivered them.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var f domain.Feedback
	if err := DecodeJSON(r, &f); err != nil {
		RespondError(w, r, err)
		return
	}

	if err := h.feedback.Submit(r.Context(), f, h.sourceIP(r)); err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusAccepted, feedbackAccepted{Message: "Feedback received. Thank you!"})
}
