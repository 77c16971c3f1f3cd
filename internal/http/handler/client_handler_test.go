package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/testutil"
)

func TestClientHandler_CRUD(t *testing.T) {
	th := setupHandlers(t)

	rr := httptest.NewRecorder()
	th.client.Create(rr, newRequest(t, http.MethodPost, "/clients", map[string]string{
		"name":  "Chidi Eze",
		"phone": "+2348031112222",
		"email": "chidi@example.com",
	}, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created domain.ClientDTO
	decodeBody(t, rr, &created)
	assert.Equal(t, "Chidi Eze", created.Name)
	assert.Equal(t, "/api/v1/clients/"+created.ID.String(), rr.Header().Get("Location"))
	params := map[string]string{"id": created.ID.String()}

	rr = httptest.NewRecorder()
	th.client.Update(rr, newRequest(t, http.MethodPut, "/clients/x", map[string]string{
		"name":    "Chidi Eze",
		"address": "12 Admiralty Way",
	}, params))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated domain.ClientDTO
	decodeBody(t, rr, &updated)
	assert.Equal(t, "12 Admiralty Way", updated.Address)

	rr = httptest.NewRecorder()
	th.client.List(rr, newRequest(t, http.MethodGet, "/clients?search=chidi", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list domain.PaginatedResponse
	decodeBody(t, rr, &list)
	assert.Equal(t, int64(1), list.Total)

	rr = httptest.NewRecorder()
	th.client.Delete(rr, newRequest(t, http.MethodDelete, "/clients/x", nil, params))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	th.client.GetByID(rr, newRequest(t, http.MethodGet, "/clients/x", nil, params))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClientHandler_Validation(t *testing.T) {
	th := setupHandlers(t)

	t.Run("name is required", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.client.Create(rr, newRequest(t, http.MethodPost, "/clients", map[string]string{"phone": "+234"}, nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var apiErr domain.APIError
		decodeBody(t, rr, &apiErr)
		assert.Equal(t, "name is required", apiErr.Errors["name"])
	})

	t.Run("email must be valid", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.client.Create(rr, newRequest(t, http.MethodPost, "/clients", map[string]string{"name": "A", "email": "not-an-email"}, nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var apiErr domain.APIError
		decodeBody(t, rr, &apiErr)
		assert.Contains(t, apiErr.Errors, "email")
	})
}

func TestClientHandler_GetIncludesStats(t *testing.T) {
	th := setupHandlers(t)
	client := testutil.CreateTestClient(t, th.db, "Ngozi Bello")
	q := testutil.CreateTestQuotation(t, th.db, domain.QuotationStatusAccepted)
	require.NoError(t, th.db.Model(q).Update("client_id", client.ID).Error)

	rr := httptest.NewRecorder()
	th.client.GetByID(rr, newRequest(t, http.MethodGet, "/clients/x", nil, map[string]string{"id": client.ID.String()}))

	require.Equal(t, http.StatusOK, rr.Code)
	var result domain.ClientDTO
	decodeBody(t, rr, &result)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 1, result.Stats.QuotationCount)
	assert.Equal(t, 131500.0, result.Stats.AcceptedValue)
}
