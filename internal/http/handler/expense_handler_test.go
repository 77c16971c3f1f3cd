package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
)

func TestExpenseHandler_CreateAndList(t *testing.T) {
	th := setupHandlers(t)

	for _, e := range []map[string]string{
		{"date": "2026-03-01T00:00:00Z", "category": "Transport", "amount": "2500"},
		{"date": "2026-03-15T00:00:00Z", "category": "Materials", "amount": "18000.50"},
		{"date": "2026-04-02T00:00:00Z", "category": "Transport", "amount": "3000"},
	} {
		rr := httptest.NewRecorder()
		th.expense.Create(rr, newRequest(t, http.MethodPost, "/expenses", e, nil))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	t.Run("date range includes the last day", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.expense.List(rr, newRequest(t, http.MethodGet, "/expenses?from=2026-03-01&to=2026-03-15", nil, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var result domain.PaginatedResponse
		decodeBody(t, rr, &result)
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("by category", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.expense.List(rr, newRequest(t, http.MethodGet, "/expenses?category=Transport", nil, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var result domain.PaginatedResponse
		decodeBody(t, rr, &result)
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("bad date", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.expense.List(rr, newRequest(t, http.MethodGet, "/expenses?from=03/01/2026", nil, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestExpenseHandler_Validation(t *testing.T) {
	th := setupHandlers(t)

	t.Run("negative amount", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.expense.Create(rr, newRequest(t, http.MethodPost, "/expenses", map[string]string{
			"date": "2026-03-01T00:00:00Z", "category": "Fuel", "amount": "-10",
		}, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("category is required", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.expense.Create(rr, newRequest(t, http.MethodPost, "/expenses", map[string]string{
			"date": "2026-03-01T00:00:00Z", "amount": "10",
		}, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestExpenseHandler_UpdateAndDelete(t *testing.T) {
	th := setupHandlers(t)

	rr := httptest.NewRecorder()
	th.expense.Create(rr, newRequest(t, http.MethodPost, "/expenses", map[string]string{
		"date": "2026-03-01T00:00:00Z", "category": "Transport", "amount": "2500",
	}, nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created domain.ExpenseDTO
	decodeBody(t, rr, &created)
	params := map[string]string{"id": created.ID.String()}

	rr = httptest.NewRecorder()
	th.expense.Update(rr, newRequest(t, http.MethodPut, "/expenses/x", map[string]string{
		"date": "2026-03-02T00:00:00Z", "category": "Transport", "amount": "2750",
	}, params))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated domain.ExpenseDTO
	decodeBody(t, rr, &updated)
	assert.True(t, decimal.NewFromInt(2750).Equal(updated.Amount))
	assert.Equal(t, "2026-03-02", updated.Date)

	rr = httptest.NewRecorder()
	th.expense.Delete(rr, newRequest(t, http.MethodDelete, "/expenses/x", nil, params))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	th.expense.GetByID(rr, newRequest(t, http.MethodGet, "/expenses/x", nil, params))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
