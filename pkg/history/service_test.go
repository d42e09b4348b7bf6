package history_test

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/abacus/pkg/adapters/sqlite"
	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*sqlite.Store, int64) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	user, err := store.CreateUser(context.Background(), "ada@example.com", "Ada", "hash")
	require.NoError(t, err)
	return store, user.ID
}

func TestSaveValidates(t *testing.T) {
	store, uid := newStore(t)
	svc := history.NewService(store)
	ctx := context.Background()

	op, err := svc.Save(ctx, uid, history.OperationInput{Expression: "  2+2 ", Result: "4", OperationType: domain.OpBasic})
	require.NoError(t, err)
	assert.Equal(t, "2+2", op.Expression)
	assert.Equal(t, uid, op.UserID)

	tests := []struct {
		name  string
		in    history.OperationInput
		field string
	}{
		{"blank expression", history.OperationInput{Expression: "   ", Result: "1", OperationType: domain.OpBasic}, "expression"},
		{"long expression", history.OperationInput{Expression: strings.Repeat("1", 1001), Result: "1", OperationType: domain.OpBasic}, "expression"},
		{"no result", history.OperationInput{Expression: "1", OperationType: domain.OpBasic}, "result"},
		{"bad type", history.OperationInput{Expression: "1", Result: "1", OperationType: "magic"}, "operation_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(ctx, uid, tt.in)
			var verr *auth.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestListPagination(t *testing.T) {
	store, uid := newStore(t)
	svc := history.NewService(store)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Save(ctx, uid, history.OperationInput{Expression: "1+1", Result: "2", OperationType: domain.OpBasic})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, uid, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Operations, 2)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 2, Total: 5, TotalPages: 3, HasNextPage: true, HasPrevPage: true}, page.Pagination)

	page, err = svc.List(ctx, uid, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, history.DefaultPage, page.Pagination.Page)
	assert.Equal(t, history.DefaultLimit, page.Pagination.Limit)
	assert.Len(t, page.Operations, 5)
}

func TestListClampsPaging(t *testing.T) {
	store, uid := newStore(t)
	svc := history.NewService(store)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Save(ctx, uid, history.OperationInput{Expression: "2*3", Result: "6", OperationType: domain.OpBasic})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, uid, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, history.MaxLimit, page.Pagination.Limit)
	assert.Len(t, page.Operations, 3)

	page, err = svc.List(ctx, uid, math.MaxInt/10, 50)
	require.NoError(t, err)
	assert.Equal(t, history.MaxPage, page.Pagination.Page)
	assert.Empty(t, page.Operations)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestListEmptyIsNotNil(t *testing.T) {
	store, uid := newStore(t)
	page, err := history.NewService(store).List(context.Background(), uid, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Operations)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestDeleteAndClear(t *testing.T) {
	store, uid := newStore(t)
	svc := history.NewService(store)
	ctx := context.Background()

	op, err := svc.Save(ctx, uid, history.OperationInput{Expression: "sin(30)", Result: "0.5", OperationType: domain.OpTrigonometric})
	require.NoError(t, err)
	_, err = svc.Save(ctx, uid, history.OperationInput{Expression: "3*3", Result: "9", OperationType: domain.OpBasic})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, uid, op.ID))
	assert.ErrorIs(t, svc.Delete(ctx, uid, op.ID), domain.ErrOperationNotFound)

	n, err := svc.Clear(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStatistics(t *testing.T) {
	store, uid := newStore(t)
	ctx := context.Background()
	svc := history.NewService(store, history.WithClock(func() time.Time { return time.Now().Add(time.Hour) }))

	for _, typ := range []domain.OperationType{domain.OpBasic, domain.OpBasic, domain.OpLogarithmic} {
		_, err := svc.Save(ctx, uid, history.OperationInput{Expression: "x", Result: "1", OperationType: typ})
		require.NoError(t, err)
	}

	stats, err := svc.Statistics(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOperations)
	require.Len(t, stats.OperationsByType, 2)
	assert.Equal(t, domain.TypeCount{OperationType: domain.OpBasic, Count: 2}, stats.OperationsByType[0])
	require.Len(t, stats.DailyOperations, 1)
	assert.Equal(t, 3, stats.DailyOperations[0].Count)
}
