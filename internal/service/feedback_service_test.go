package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/llm"
	"github.com/aryan0dhankhar/connectcoach/internal/prompt"
	"github.com/aryan0dhankhar/connectcoach/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/connectcoach/internal/repository"
	"github.com/aryan0dhankhar/connectcoach/pkg/cache"
)

type fakeProvider struct {
	mu       sync.Mutex
	requests []llm.Request
	response *llm.Response
	err      error
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func textResponse(text string) *llm.Response {
	return &llm.Response{Content: []llm.ContentBlock{{Type: llm.ContentText, Text: text}}}
}

type failingFeedbackStore struct {
	*repository.MemoryStore
}

type failingFeedbackRepo struct{}

func (failingFeedbackRepo) Create(context.Context, *domain.FeedbackRequest) error {
	return errors.New("disk full")
}

func (s failingFeedbackStore) Feedback() domain.FeedbackRepository { return failingFeedbackRepo{} }

func newFeedbackService(store domain.Store, provider llm.Provider, breaker *circuitbreaker.CircuitBreaker) *FeedbackService {
	foundations := NewFoundationService(store, cache.New(), time.Minute, nil, quiet)
	return NewFeedbackService(store, foundations, provider, breaker,
		FeedbackOptions{Model: "test-model", MaxTokens: 1000, Timeout: time.Second}, nil, quiet)
}

func TestSubmit_ComposesPromptAndPersists(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	provider := &fakeProvider{response: textResponse("Speak to their 3 AM thoughts.")}
	s := newFeedbackService(store, provider, nil)

	_, err := s.foundations.Save(ctx, 7, FoundationInput{VoiceGuide: "warm", TargetAudience: "coaches"})
	require.NoError(t, err)

	feedback, err := s.Submit(ctx, 7, FeedbackInput{
		Content:    "My launch email",
		ToolType:   "emailAnalyzer",
		VoiceGuide: "extra",
	})
	require.NoError(t, err)
	assert.Equal(t, "Speak to their 3 AM thoughts.", feedback)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "My launch email"}}, req.Messages)

	f, err := s.foundations.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, prompt.Compose(prompt.EmailAnalyzer, f, "extra", ""), req.System)

	history := store.FeedbackHistory()
	require.Len(t, history, 1)
	assert.Equal(t, int64(7), history[0].UserID)
	assert.Equal(t, "emailAnalyzer", history[0].ToolType)
	assert.Equal(t, feedback, history[0].Feedback)
}

func TestSubmit_MissingFields(t *testing.T) {
	provider := &fakeProvider{response: textResponse("x")}
	s := newFeedbackService(repository.NewMemoryStore(), provider, nil)

	for _, in := range []FeedbackInput{
		{ToolType: "socialPost"},
		{Content: "hello"},
		{Content: "   ", ToolType: "socialPost"},
	} {
		_, err := s.Submit(context.Background(), 1, in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Empty(t, provider.requests)
}

func TestSubmit_UnknownToolUsesCritiqueAndStoresRawType(t *testing.T) {
	store := repository.NewMemoryStore()
	provider := &fakeProvider{response: textResponse("ok")}
	s := newFeedbackService(store, provider, nil)

	_, err := s.Submit(context.Background(), 1, FeedbackInput{Content: "c", ToolType: "podcastScript"})
	require.NoError(t, err)

	assert.Equal(t, prompt.Template(prompt.ContentCritique), provider.requests[0].System)
	assert.Equal(t, "podcastScript", store.FeedbackHistory()[0].ToolType)
}

func TestSubmit_NoTextBlockFallsBack(t *testing.T) {
	store := repository.NewMemoryStore()
	provider := &fakeProvider{response: &llm.Response{Content: []llm.ContentBlock{{Type: llm.ContentToolUse}}}}
	s := newFeedbackService(store, provider, nil)

	feedback, err := s.Submit(context.Background(), 1, FeedbackInput{Content: "c", ToolType: "socialPost"})
	require.NoError(t, err)
	assert.Equal(t, FallbackFeedback, feedback)
	assert.Equal(t, FallbackFeedback, store.FeedbackHistory()[0].Feedback)
}

func TestSubmit_ProviderFailureIsNotPersisted(t *testing.T) {
	store := repository.NewMemoryStore()
	provider := &fakeProvider{err: &llm.ProviderError{StatusCode: 500, Message: "boom"}}
	s := newFeedbackService(store, provider, nil)

	_, err := s.Submit(context.Background(), 1, FeedbackInput{Content: "c", ToolType: "socialPost"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.FeedbackHistory())
	assert.Len(t, provider.requests, 1, "completion calls are never retried")
}

func TestSubmit_PersistenceFailureFailsRequest(t *testing.T) {
	store := failingFeedbackStore{repository.NewMemoryStore()}
	provider := &fakeProvider{response: textResponse("good feedback")}
	s := newFeedbackService(store, provider, nil)

	feedback, err := s.Submit(context.Background(), 1, FeedbackInput{Content: "c", ToolType: "socialPost"})
	require.Error(t, err)
	assert.Empty(t, feedback)
	assert.True(t, strings.Contains(err.Error(), "failed to store feedback"))
}

func TestSubmit_BreakerOpensAfterFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	breaker := circuitbreaker.NewCircuitBreaker(2, 1, time.Hour)
	s := newFeedbackService(repository.NewMemoryStore(), provider, breaker)
	in := FeedbackInput{Content: "c", ToolType: "socialPost"}

	for i := 0; i < 2; i++ {
		_, err := s.Submit(context.Background(), 1, in)
		require.Error(t, err)
	}
	_, err := s.Submit(context.Background(), 1, in)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Len(t, provider.requests, 2)
}

func TestSubmit_ClientErrorsDoNotTripBreaker(t *testing.T) {
	provider := &fakeProvider{err: &llm.ProviderError{StatusCode: 401, Type: "authentication_error", Message: "bad key"}}
	breaker := circuitbreaker.NewCircuitBreaker(1, 1, time.Hour)
	s := newFeedbackService(repository.NewMemoryStore(), provider, breaker)

	_, err := s.Submit(context.Background(), 1, FeedbackInput{Content: "c", ToolType: "socialPost"})
	require.Error(t, err)
	assert.Equal(t, circuitbreaker.StateClosed, breaker.GetState())
}
