package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
)

var (
	_ domain.Store = (*MemoryStore)(nil)
	_ domain.Store = (*PostgresStore)(nil)
)

func TestMemoryStore_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u := &domain.User{Email: "a@example.com", PasswordHash: "h", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	err := store.Users().Create(ctx, &domain.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	require.NoError(t, store.Users().SetActive(ctx, u.ID, false))
	got, err := store.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, store.Users().SetActive(ctx, 42, true), domain.ErrNotFound)
	_, err = store.Users().GetByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users().Create(ctx, &domain.User{Email: "a@example.com", IsActive: true}))

	got, err := store.Users().GetByID(ctx, 1)
	require.NoError(t, err)
	got.IsActive = false

	again, err := store.Users().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Invites().Create(ctx, &domain.InviteCode{Code: "abc"}))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		u := &domain.User{Email: "a@example.com"}
		require.NoError(t, tx.Users().Create(ctx, u))
		require.NoError(t, tx.Invites().MarkUsed(ctx, "abc", u.ID, time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Users().GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Invites().GetUnusedForUpdate(ctx, "abc")
	assert.NoError(t, err)
}

func TestMemoryStore_RollbackKeepsWritesOutsideTx(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	existing := &domain.User{Email: "b@example.com", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, existing))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		require.NoError(t, tx.Feedback().Create(ctx, &domain.FeedbackRequest{UserID: existing.ID}))
		require.NoError(t, tx.Foundations().Upsert(ctx, &domain.UserFoundation{UserID: existing.ID}))

		// committed directly on the store while the transaction is open
		require.NoError(t, store.Feedback().Create(ctx, &domain.FeedbackRequest{UserID: existing.ID}))
		require.NoError(t, store.Users().SetActive(ctx, existing.ID, false))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	history := store.FeedbackHistory()
	require.Len(t, history, 1)
	assert.Equal(t, int64(2), history[0].ID)

	u, err := store.Users().GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = store.Foundations().GetByUserID(ctx, existing.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_RollbackDoesNotReuseIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var rolledBack int64
	err := store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		u := &domain.User{Email: "gone@example.com"}
		require.NoError(t, tx.Users().Create(ctx, u))
		rolledBack = u.ID
		return errors.New("abort")
	})
	require.Error(t, err)

	u := &domain.User{Email: "kept@example.com"}
	require.NoError(t, store.Users().Create(ctx, u))
	assert.Greater(t, u.ID, rolledBack)
}

func TestMemoryStore_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.Panics(t, func() {
		_ = store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
			require.NoError(t, tx.Invites().Create(ctx, &domain.InviteCode{Code: "p"}))
			panic("boom")
		})
	})

	_, err := store.Invites().GetUnusedForUpdate(ctx, "p")
	assert.ErrorIs(t, err, domain.ErrInviteInvalid)
}

func TestMemoryStore_ConcurrentRedemption(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Invites().Create(ctx, &domain.InviteCode{Code: "abc"}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
				if _, err := tx.Invites().GetUnusedForUpdate(ctx, "abc"); err != nil {
					return err
				}
				u := &domain.User{Email: string(rune('a'+i)) + "@example.com"}
				if err := tx.Users().Create(ctx, u); err != nil {
					return err
				}
				return tx.Invites().MarkUsed(ctx, "abc", u.ID, time.Now())
			})
			if err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, domain.ErrInviteInvalid)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemoryStore_FoundationUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	f := &domain.UserFoundation{UserID: 1, VoiceGuide: "warm"}
	require.NoError(t, store.Foundations().Upsert(ctx, f))
	firstID := f.ID

	f2 := &domain.UserFoundation{UserID: 1, TargetAudience: "coaches"}
	require.NoError(t, store.Foundations().Upsert(ctx, f2))
	assert.Equal(t, firstID, f2.ID)

	got, err := store.Foundations().GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.VoiceGuide)
	assert.Equal(t, "coaches", got.TargetAudience)
}
