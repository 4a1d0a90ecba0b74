package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
)

// MemoryStore is a process-local domain.Store used in development when no
// DATABASE_URL is configured, and in tests. Transactions are serialized
// against each other. Writes made through a transaction record an undo step,
// and a rollback replays only those steps, so writes committed outside the
// transaction meanwhile survive it.
type MemoryStore struct {
	txMu  *sync.Mutex
	state *memoryState
	undo  *undoLog // nil outside a transaction
}

type memoryState struct {
	mu          sync.RWMutex
	users       map[int64]domain.User
	invites     map[string]domain.InviteCode
	foundations map[int64]domain.UserFoundation // keyed by user id
	feedback    []domain.FeedbackRequest

	nextUserID       int64
	nextInviteID     int64
	nextFoundationID int64
	nextFeedbackID   int64
}

// undoLog holds inverse operations in the order they were recorded. Steps
// run with the state write lock held.
type undoLog struct {
	steps []func(st *memoryState)
}

// record appends a step; it is a no-op outside a transaction
func (u *undoLog) record(step func(st *memoryState)) {
	if u != nil {
		u.steps = append(u.steps, step)
	}
}

func (u *undoLog) rollback(st *memoryState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i](st)
	}
	u.steps = nil
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txMu: &sync.Mutex{},
		state: &memoryState{
			users:       make(map[int64]domain.User),
			invites:     make(map[string]domain.InviteCode),
			foundations: make(map[int64]domain.UserFoundation),
		},
	}
}

func (s *MemoryStore) Users() domain.UserRepository     { return memoryUsers{s.state, s.undo} }
func (s *MemoryStore) Invites() domain.InviteRepository { return memoryInvites{s.state, s.undo} }
func (s *MemoryStore) Foundations() domain.FoundationRepository {
	return memoryFoundations{s.state, s.undo}
}
func (s *MemoryStore) Feedback() domain.FeedbackRepository { return memoryFeedback{s.state, s.undo} }

// WithTx serializes fn against every other transaction on the store. Nested
// calls join the outer transaction.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) (err error) {
	if s.undo != nil {
		return fn(ctx, s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{}
	defer func() {
		if p := recover(); p != nil {
			log.rollback(s.state)
			panic(p)
		}
		if err != nil {
			log.rollback(s.state)
		}
	}()

	return fn(ctx, &MemoryStore{txMu: s.txMu, state: s.state, undo: log})
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

type memoryUsers struct {
	st   *memoryState
	undo *undoLog
}

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, u := range r.st.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}

	r.st.nextUserID++
	user.ID = r.st.nextUserID
	user.CreatedAt = time.Now().UTC()
	r.st.users[user.ID] = *user

	id := user.ID
	r.undo.record(func(st *memoryState) { delete(st.users, id) })
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	u, ok := r.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	for _, u := range r.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memoryUsers) List(_ context.Context) ([]*domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.st.users))
	for _, u := range r.st.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r memoryUsers) SetActive(_ context.Context, id int64, active bool) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	u, ok := r.st.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	prev := u.IsActive
	u.IsActive = active
	r.st.users[id] = u

	r.undo.record(func(st *memoryState) {
		if u, ok := st.users[id]; ok {
			u.IsActive = prev
			st.users[id] = u
		}
	})
	return nil
}

type memoryInvites struct {
	st   *memoryState
	undo *undoLog
}

func (r memoryInvites) Create(_ context.Context, invite *domain.InviteCode) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.nextInviteID++
	invite.ID = r.st.nextInviteID
	invite.IsUsed = false
	invite.CreatedAt = time.Now().UTC()
	r.st.invites[invite.Code] = *invite

	code := invite.Code
	r.undo.record(func(st *memoryState) { delete(st.invites, code) })
	return nil
}

func (r memoryInvites) GetUnusedForUpdate(_ context.Context, code string) (*domain.InviteCode, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	inv, ok := r.st.invites[code]
	if !ok || inv.IsUsed {
		return nil, domain.ErrInviteInvalid
	}
	return &inv, nil
}

func (r memoryInvites) MarkUsed(_ context.Context, code string, userID int64, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	inv, ok := r.st.invites[code]
	if !ok || inv.IsUsed {
		return domain.ErrInviteInvalid
	}
	prev := inv
	inv.IsUsed = true
	inv.UsedBy = &userID
	inv.UsedAt = &at
	r.st.invites[code] = inv

	r.undo.record(func(st *memoryState) { st.invites[code] = prev })
	return nil
}

type memoryFoundations struct {
	st   *memoryState
	undo *undoLog
}

func (r memoryFoundations) GetByUserID(_ context.Context, userID int64) (*domain.UserFoundation, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	f, ok := r.st.foundations[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

func (r memoryFoundations) Upsert(_ context.Context, f *domain.UserFoundation) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	now := time.Now().UTC()
	userID := f.UserID
	existing, existed := r.st.foundations[userID]
	r.undo.record(func(st *memoryState) {
		if existed {
			st.foundations[userID] = existing
		} else {
			delete(st.foundations, userID)
		}
	})

	if existed {
		f.ID = existing.ID
		f.CreatedAt = existing.CreatedAt
	} else {
		r.st.nextFoundationID++
		f.ID = r.st.nextFoundationID
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	r.st.foundations[f.UserID] = *f
	return nil
}

type memoryFeedback struct {
	st   *memoryState
	undo *undoLog
}

func (r memoryFeedback) Create(_ context.Context, record *domain.FeedbackRequest) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.nextFeedbackID++
	record.ID = r.st.nextFeedbackID
	record.CreatedAt = time.Now().UTC()
	r.st.feedback = append(r.st.feedback, *record)

	id := record.ID
	r.undo.record(func(st *memoryState) {
		for i := range st.feedback {
			if st.feedback[i].ID == id {
				st.feedback = append(st.feedback[:i:i], st.feedback[i+1:]...)
				return
			}
		}
	})
	return nil
}

// FeedbackHistory returns a copy of every stored feedback record
func (s *MemoryStore) FeedbackHistory() []domain.FeedbackRequest {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return append([]domain.FeedbackRequest(nil), s.state.feedback...)
}
