package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/security/audit"
	"github.com/aryan0dhankhar/connectcoach/pkg/cache"
)

// FoundationInput is the editable part of a user's foundation
type FoundationInput struct {
	VoiceGuide           string
	TargetAudience       string
	AudiencePainPoints   string
	UniquePositioning    string
	AudienceObservations string
	OfferDescription     string
}

// FoundationService reads and saves foundations through a read-through cache.
// The cache is an optimisation only: its failures are logged and the store
// stays authoritative.
//
// Save writes the new value through and bumps a per-user generation. A Get
// whose store read began before that bump does not populate the cache, so a
// slow reader cannot put a pre-save value back. Generations are local to the
// process; across replicas sharing Redis the TTL bounds staleness.
type FoundationService struct {
	store  domain.Store
	cache  cache.Store
	ttl    time.Duration
	audit  *audit.Logger
	logger *slog.Logger

	mu   sync.Mutex
	gens map[int64]uint64
}

// NewFoundationService creates a foundation service. A nil cache disables caching.
func NewFoundationService(store domain.Store, c cache.Store, ttl time.Duration, auditLog *audit.Logger, logger *slog.Logger) *FoundationService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &FoundationService{
		store:  store,
		cache:  c,
		ttl:    ttl,
		audit:  auditLog,
		logger: logger,
		gens:   make(map[int64]uint64),
	}
}

func foundationKey(userID int64) string {
	return "foundation:" + strconv.FormatInt(userID, 10)
}

// Get returns the user's foundation, or nil when they have not saved one
func (s *FoundationService) Get(ctx context.Context, userID int64) (*domain.UserFoundation, error) {
	if f, ok := s.cached(ctx, userID); ok {
		return f, nil
	}

	gen := s.generation(userID)
	f, err := s.store.Foundations().GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if errors.Is(err, domain.ErrNotFound) {
		f = nil
	}

	s.remember(ctx, userID, f, gen)
	return f, nil
}

// Save creates or replaces the user's foundation
func (s *FoundationService) Save(ctx context.Context, userID int64, in FoundationInput) (*domain.UserFoundation, error) {
	f := &domain.UserFoundation{
		UserID:               userID,
		VoiceGuide:           in.VoiceGuide,
		TargetAudience:       in.TargetAudience,
		AudiencePainPoints:   in.AudiencePainPoints,
		UniquePositioning:    in.UniquePositioning,
		AudienceObservations: in.AudienceObservations,
		OfferDescription:     in.OfferDescription,
	}
	if err := s.store.Foundations().Upsert(ctx, f); err != nil {
		return nil, err
	}

	s.refresh(ctx, userID, f)

	s.audit.LogAction(ctx, userID, audit.ActionFoundationSave, "foundation", strconv.FormatInt(f.ID, 10), "success", "")
	return f, nil
}

func (s *FoundationService) cached(ctx context.Context, userID int64) (*domain.UserFoundation, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, foundationKey(userID))
	if err != nil {
		s.logger.Warn("foundation cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	// "null" records a user without a foundation
	var f *domain.UserFoundation
	if err := json.Unmarshal(raw, &f); err != nil {
		s.logger.Warn("discarding corrupt foundation cache entry", slog.Int64("user_id", userID))
		return nil, false
	}
	return f, true
}

func (s *FoundationService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// remember caches a value read from the store unless a save for the same
// user landed after the read began
func (s *FoundationService) remember(ctx context.Context, userID int64, f *domain.UserFoundation, gen uint64) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[userID] != gen {
		return
	}
	if err := s.cache.Set(ctx, foundationKey(userID), raw, s.ttl); err != nil {
		s.logger.Warn("foundation cache write failed", slog.String("error", err.Error()))
	}
}

// refresh replaces the cached value after a save
func (s *FoundationService) refresh(ctx context.Context, userID int64, f *domain.UserFoundation) {
	if s.cache == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++

	key := foundationKey(userID)
	var err error
	if raw, merr := json.Marshal(f); merr == nil && s.ttl > 0 {
		err = s.cache.Set(ctx, key, raw, s.ttl)
	} else {
		err = s.cache.Delete(ctx, key)
	}
	if err != nil {
		s.logger.Warn("failed to refresh foundation cache",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
