package domain

import (
	"context"
	"time"
)

// UserFoundation is a member's stored profile context used to personalise prompts.
// Each user has at most one.
type UserFoundation struct {
	ID                   int64
	UserID               int64
	VoiceGuide           string
	TargetAudience       string
	AudiencePainPoints   string
	UniquePositioning    string
	AudienceObservations string
	OfferDescription     string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FoundationRepository defines data access for user foundations
type FoundationRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*UserFoundation, error)
	// Upsert creates the user's foundation or replaces its fields
	Upsert(ctx context.Context, foundation *UserFoundation) error
}

// FeedbackRequest is the append-only history of generated feedback
type FeedbackRequest struct {
	ID        int64
	UserID    int64
	Content   string
	ToolType  string
	Feedback  string
	CreatedAt time.Time
}

// FeedbackRepository defines data access for feedback history
type FeedbackRepository interface {
	Create(ctx context.Context, record *FeedbackRequest) error
}
