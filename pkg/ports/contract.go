package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.Owner = 7
		state.Buffer = domain.Buffer{Text: "12+3", AwaitingFresh: false}
		state.Memory.Value = 12.5
		state.AngleMode = domain.Radians
		state.Annotation = "5+3 ="

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state, loaded)
	})

	t.Run("Save Isolates Caller", func(t *testing.T) {
		state := domain.NewState(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Buffer.Text = "mutated after save"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultBuffer, loaded.Buffer.Text)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1))
		_ = store.Save(ctx, id2, domain.NewState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunHistoryContract verifies user and operation repositories backed by the same store.
func RunHistoryContract(t *testing.T, users UserRepository, ops OperationRepository) {
	ctx := context.Background()

	alice, err := users.CreateUser(ctx, "alice@example.com", "Alice", "hash-a")
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, "bob@example.com", "Bob", "hash-b")
	require.NoError(t, err)

	t.Run("Users", func(t *testing.T) {
		assert.NotZero(t, alice.ID)
		assert.NotEqual(t, alice.ID, bob.ID)
		assert.Equal(t, "alice@example.com", alice.Email)
		assert.False(t, alice.CreatedAt.IsZero())

		_, err := users.CreateUser(ctx, "alice@example.com", "Other", "x")
		assert.ErrorIs(t, err, domain.ErrEmailTaken)

		found, hash, err := users.FindUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)
		assert.Equal(t, "hash-a", hash)

		byID, err := users.FindUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", byID.Name)

		_, _, err = users.FindUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = users.FindUserByID(ctx, 999999)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	now := time.Now().UTC().Truncate(time.Second)
	seed := []domain.Operation{
		{UserID: alice.ID, Expression: "5+3", Result: "8", OperationType: domain.OpBasic, CreatedAt: now.Add(-48 * time.Hour)},
		{UserID: alice.ID, Expression: "sin(90)", Result: "1", OperationType: domain.OpTrigonometric, CreatedAt: now.Add(-time.Hour)},
		{UserID: alice.ID, Expression: "6*7", Result: "42", OperationType: domain.OpBasic, CreatedAt: now},
		{UserID: bob.ID, Expression: "1+1", Result: "2", OperationType: domain.OpBasic, CreatedAt: now},
	}
	var created []*domain.Operation
	for _, op := range seed {
		c, err := ops.CreateOperation(ctx, op)
		require.NoError(t, err)
		created = append(created, c)
	}

	t.Run("Create", func(t *testing.T) {
		assert.NotZero(t, created[0].ID)
		assert.Equal(t, "5+3", created[0].Expression)
		assert.Equal(t, domain.OpBasic, created[0].OperationType)
		assert.True(t, seed[0].CreatedAt.Equal(created[0].CreatedAt))
	})

	t.Run("List Newest First", func(t *testing.T) {
		page, total, err := ops.ListOperations(ctx, alice.ID, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, "6*7", page[0].Expression)
		assert.Equal(t, "sin(90)", page[1].Expression)

		page, _, err = ops.ListOperations(ctx, alice.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "5+3", page[0].Expression)
	})

	t.Run("Statistics", func(t *testing.T) {
		stats, err := ops.Statistics(ctx, alice.ID, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalOperations)
		require.Len(t, stats.OperationsByType, 2)
		assert.Equal(t, domain.TypeCount{OperationType: domain.OpBasic, Count: 2}, stats.OperationsByType[0])
		assert.Equal(t, domain.TypeCount{OperationType: domain.OpTrigonometric, Count: 1}, stats.OperationsByType[1])

		var days, sum int
		for i, d := range stats.DailyOperations {
			if i > 0 {
				assert.Greater(t, stats.DailyOperations[i-1].Date, d.Date, "days are newest first")
			}
			days++
			sum += d.Count
		}
		assert.GreaterOrEqual(t, days, 2)
		assert.Equal(t, 3, sum)
	})

	t.Run("Delete Is Scoped To Owner", func(t *testing.T) {
		err := ops.DeleteOperation(ctx, bob.ID, created[0].ID)
		assert.ErrorIs(t, err, domain.ErrOperationNotFound)

		require.NoError(t, ops.DeleteOperation(ctx, alice.ID, created[0].ID))
		err = ops.DeleteOperation(ctx, alice.ID, created[0].ID)
		assert.ErrorIs(t, err, domain.ErrOperationNotFound)
	})

	t.Run("Delete All", func(t *testing.T) {
		n, err := ops.DeleteAllOperations(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, total, err := ops.ListOperations(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		assert.Zero(t, total)

		_, total, err = ops.ListOperations(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total, "other users keep their history")
	})
}

// RunRateLimiterContract verifies a limiter built for limit requests per window.
func RunRateLimiterContract(t *testing.T, limiter RateLimiter, limit int) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("150405.000000")

	for i := 0; i < limit; i++ {
		d, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should pass", i+1)
		assert.Equal(t, limit, d.Limit)
		assert.Equal(t, limit-i-1, d.Remaining)
	}

	d, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "request over the limit must be rejected")
	assert.Zero(t, d.Remaining)
	assert.True(t, d.ResetAt.After(time.Now()))

	other, err := limiter.Allow(ctx, key+"-other")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")
}

// RunRateLimiterWindowContract drives a steady stream of requests through
// limiter for three windows. advance moves the limiter's clock forward. No
// more than limit requests may pass per window, however the stream lines up
// with window boundaries.
func RunRateLimiterWindowContract(t *testing.T, limiter RateLimiter, limit int, window time.Duration, advance func(time.Duration)) {
	ctx := context.Background()
	key := "window-" + time.Now().Format("150405.000000")
	step := window / time.Duration(4*limit)

	allowed := 0
	for elapsed := time.Duration(0); elapsed < 3*window; elapsed += step {
		d, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
		assert.LessOrEqual(t, d.Remaining, limit)
		advance(step)
	}

	assert.LessOrEqual(t, allowed, 3*limit, "no more than limit requests may pass per window")
	assert.GreaterOrEqual(t, allowed, limit, "the first window admits limit requests")
}
