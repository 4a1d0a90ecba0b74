package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/security/middleware"
	"github.com/aryan0dhankhar/connectcoach/internal/service"
)

// FoundationHandler reads and saves the caller's foundation
type FoundationHandler struct {
	foundations *service.FoundationService
	logger      *slog.Logger
}

// NewFoundationHandler creates a new foundation handler
func NewFoundationHandler(foundations *service.FoundationService, logger *slog.Logger) *FoundationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FoundationHandler{foundations: foundations, logger: logger}
}

// FoundationRequest holds the editable foundation fields
type FoundationRequest struct {
	VoiceGuide           string `json:"voiceGuide"`
	TargetAudience       string `json:"targetAudience"`
	AudiencePainPoints   string `json:"audiencePainPoints"`
	UniquePositioning    string `json:"uniquePositioning"`
	AudienceObservations string `json:"audienceObservations"`
	OfferDescription     string `json:"offerDescription"`
}

// Foundation is the wire form of a stored foundation
type Foundation struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"userId"`
	VoiceGuide           string    `json:"voiceGuide"`
	TargetAudience       string    `json:"targetAudience"`
	AudiencePainPoints   string    `json:"audiencePainPoints"`
	UniquePositioning    string    `json:"uniquePositioning"`
	AudienceObservations string    `json:"audienceObservations"`
	OfferDescription     string    `json:"offerDescription"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// FoundationEnvelope wraps an optional foundation; absent is null
type FoundationEnvelope struct {
	Message    string      `json:"message,omitempty"`
	Foundation *Foundation `json:"foundation"`
}

func toFoundation(f *domain.UserFoundation) *Foundation {
	if f == nil {
		return nil
	}
	return &Foundation{
		ID:                   f.ID,
		UserID:               f.UserID,
		VoiceGuide:           f.VoiceGuide,
		TargetAudience:       f.TargetAudience,
		AudiencePainPoints:   f.AudiencePainPoints,
		UniquePositioning:    f.UniquePositioning,
		AudienceObservations: f.AudienceObservations,
		OfferDescription:     f.OfferDescription,
		CreatedAt:            f.CreatedAt,
		UpdatedAt:            f.UpdatedAt,
	}
}

// Get handles GET /api/foundation
func (h *FoundationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	f, err := h.foundations.Get(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to fetch foundation",
			slog.Int64("user_id", id.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to fetch foundation")
		return
	}

	writeJSON(w, http.StatusOK, FoundationEnvelope{Foundation: toFoundation(f)})
}

// Save handles POST /api/foundation. The stored foundation is replaced by
// the submitted fields; omitted fields are cleared.
func (h *FoundationHandler) Save(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	var req FoundationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f, err := h.foundations.Save(r.Context(), id.UserID, service.FoundationInput{
		VoiceGuide:           req.VoiceGuide,
		TargetAudience:       req.TargetAudience,
		AudiencePainPoints:   req.AudiencePainPoints,
		UniquePositioning:    req.UniquePositioning,
		AudienceObservations: req.AudienceObservations,
		OfferDescription:     req.OfferDescription,
	})
	if err != nil {
		h.logger.Error("failed to save foundation",
			slog.Int64("user_id", id.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to save foundation")
		return
	}

	writeJSON(w, http.StatusOK, FoundationEnvelope{
		Message:    "Foundation saved successfully",
		Foundation: toFoundation(f),
	})
}
