package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/testutil"
)

func TestExpenseRepository_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewExpenseRepository(db)
	ctx := context.Background()

	seed := []domain.Expense{
		{Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), Category: "Transport", Amount: decimal.RequireFromString("4500.00")},
		{Date: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), Category: "Tools", Amount: decimal.RequireFromString("32000.50")},
		{Date: time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), Category: "Transport", Amount: decimal.RequireFromString("3000")},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	t.Run("date range is half open", func(t *testing.T) {
		from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		items, total, err := repo.List(ctx, 1, 20, &repository.ExpenseFilters{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("category", func(t *testing.T) {
		items, err := repo.ListAll(ctx, &repository.ExpenseFilters{Category: "Transport"})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("amount keeps precision", func(t *testing.T) {
		found, err := repo.GetByID(ctx, seed[1].ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("32000.50").Equal(found.Amount))
	})
}
