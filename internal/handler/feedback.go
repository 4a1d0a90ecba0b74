package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/security/middleware"
	"github.com/aryan0dhankhar/connectcoach/internal/service"
)

// FeedbackHandler serves coaching feedback requests
type FeedbackHandler struct {
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedback *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

// FeedbackRequest is a submission for analysis
type FeedbackRequest struct {
	Content    string `json:"content"`
	ToolType   string `json:"toolType"`
	VoiceGuide string `json:"voiceGuide,omitempty"`
	WeekGuide  string `json:"weekGuide,omitempty"`
}

// FeedbackResponse carries the generated feedback
type FeedbackResponse struct {
	Feedback string `json:"feedback"`
}

// ServeHTTP handles POST /api/feedback
func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("failed to decode feedback request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	feedback, err := h.feedback.Submit(r.Context(), id.UserID, service.FeedbackInput{
		Content:    req.Content,
		ToolType:   req.ToolType,
		VoiceGuide: req.VoiceGuide,
		WeekGuide:  req.WeekGuide,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		// detail was logged by the service
		writeError(w, http.StatusInternalServerError, "Failed to generate feedback")
		return
	}

	writeJSON(w, http.StatusOK, FeedbackResponse{Feedback: feedback})
}
