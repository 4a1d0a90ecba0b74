package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/llm"
	"github.com/aryan0dhankhar/connectcoach/internal/observability/metrics"
	"github.com/aryan0dhankhar/connectcoach/internal/prompt"
	"github.com/aryan0dhankhar/connectcoach/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/connectcoach/internal/security/audit"
)

// FallbackFeedback is returned when the provider answers without any text
const FallbackFeedback = "Unable to generate feedback"

// FeedbackOptions configures the completion call
type FeedbackOptions struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// FeedbackInput is one submission from a member
type FeedbackInput struct {
	Content    string
	ToolType   string
	VoiceGuide string
	WeekGuide  string
}

// FeedbackService turns a submission into coaching feedback and records it
type FeedbackService struct {
	store       domain.Store
	foundations *FoundationService
	provider    llm.Provider
	breaker     *circuitbreaker.CircuitBreaker
	opts        FeedbackOptions
	audit       *audit.Logger
	logger      *slog.Logger
}

// NewFeedbackService creates a feedback service. breaker may be nil.
func NewFeedbackService(
	store domain.Store,
	foundations *FoundationService,
	provider llm.Provider,
	breaker *circuitbreaker.CircuitBreaker,
	opts FeedbackOptions,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &FeedbackService{
		store:       store,
		foundations: foundations,
		provider:    provider,
		breaker:     breaker,
		opts:        opts,
		audit:       auditLog,
		logger:      logger,
	}
}

// Submit composes the prompt from the user's foundation and the chosen tool,
// calls the provider once and stores the result before returning it. A
// storage failure after a successful completion fails the whole request.
func (s *FeedbackService) Submit(ctx context.Context, userID int64, in FeedbackInput) (string, error) {
	if strings.TrimSpace(in.Content) == "" || strings.TrimSpace(in.ToolType) == "" {
		return "", domain.Invalid("Missing required fields: content and toolType")
	}

	foundation, err := s.foundations.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load foundation: %w", err)
	}

	tool, known := prompt.ParseToolType(in.ToolType)
	if !known {
		s.logger.Info("unknown tool type, using content critique",
			slog.String("tool_type", in.ToolType),
			slog.Int64("user_id", userID),
		)
	}

	request := llm.Request{
		Model:     s.opts.Model,
		System:    prompt.Compose(tool, foundation, in.VoiceGuide, in.WeekGuide),
		MaxTokens: s.opts.MaxTokens,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: in.Content}},
	}

	feedback, err := s.complete(ctx, tool, request)
	if err != nil {
		s.logger.Error("completion failed",
			slog.Int64("user_id", userID),
			slog.String("tool_type", string(tool)),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("failed to generate feedback: %w", err)
	}

	record := &domain.FeedbackRequest{
		UserID:   userID,
		Content:  in.Content,
		ToolType: in.ToolType,
		Feedback: feedback,
	}
	if err := s.store.Feedback().Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store feedback: %w", err)
	}

	s.audit.LogAction(ctx, userID, audit.ActionFeedback, "feedback", strconv.FormatInt(record.ID, 10), "success", in.ToolType)
	return feedback, nil
}

func (s *FeedbackService) complete(ctx context.Context, tool prompt.ToolType, request llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	var response *llm.Response
	call := func(ctx context.Context) error {
		var err error
		response, err = s.provider.Complete(ctx, request)
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(ctx, call, countsAgainstProvider)
	} else {
		err = call(ctx)
	}
	metrics.ObserveCompletion(string(tool), completionResult(err), time.Since(start))
	if err != nil {
		return "", err
	}

	text, ok := response.FirstText()
	if !ok {
		return FallbackFeedback, nil
	}
	return text, nil
}

// countsAgainstProvider excludes failures that say nothing about provider
// health: the caller going away, and our own bad requests.
func countsAgainstProvider(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) && providerErr.IsClientError() {
		return false
	}
	return true
}

func completionResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, circuitbreaker.ErrOpen):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
