package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/auth"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/http/handler"
	"github.com/tilequote/quote-api/internal/testutil"
	"go.uber.org/zap"
)

func TestSettingsHandler(t *testing.T) {
	th := setupHandlers(t)

	rr := httptest.NewRecorder()
	th.settings.Get(rr, newRequest(t, http.MethodGet, "/settings", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var settings domain.Settings
	decodeBody(t, rr, &settings)
	assert.Equal(t, "NGN", settings.Currency)
	assert.Equal(t, domain.Number(5600), settings.Floor.PricePerCarton)

	update := domain.UpdateSettingsRequest{
		BusinessName:    "Okafor Tiling",
		Currency:        "NGN",
		Wall:            settings.Wall,
		Floor:           domain.TileRate{PricePerCarton: 6000, SqmPerCarton: 1.44},
		ExternalWall:    settings.ExternalWall,
		Step:            settings.Step,
		WastageFactor:   1.1,
		WorkmanshipRate: 1800,
		TaxPercentage:   7.5,
		ShowTax:         true,
		BankDetails:     "GTBank 0123456789",
	}
	rr = httptest.NewRecorder()
	th.settings.Update(rr, newRequest(t, http.MethodPut, "/settings", update, nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &settings)
	assert.Equal(t, "Okafor Tiling", settings.BusinessName)
	assert.True(t, settings.ShowTax)

	t.Run("tax over 100 percent", func(t *testing.T) {
		bad := update
		bad.TaxPercentage = 150
		rr := httptest.NewRecorder()
		th.settings.Update(rr, newRequest(t, http.MethodPut, "/settings", bad, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDashboardHandler_GetMetrics(t *testing.T) {
	th := setupHandlers(t)
	testutil.CreateTestQuotation(t, th.db, domain.QuotationStatusPending)
	testutil.CreateTestQuotation(t, th.db, domain.QuotationStatusAccepted)

	rr := httptest.NewRecorder()
	th.dashboard.GetMetrics(rr, newRequest(t, http.MethodGet, "/dashboard", nil, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var metrics domain.DashboardDTO
	decodeBody(t, rr, &metrics)
	assert.Equal(t, 1, metrics.QuotationCounts[domain.QuotationStatusPending])
	assert.Equal(t, 1, metrics.QuotationCounts[domain.QuotationStatusAccepted])
	assert.Equal(t, 131500.0, metrics.PipelineValue)
	assert.Len(t, metrics.RecentQuotations, 2)
}

func TestBackupHandler_RoundTrip(t *testing.T) {
	source := setupHandlers(t)
	createTestInvoice(t, source)
	testutil.CreateTestClient(t, source.db, "Tunde Balogun")

	rr := httptest.NewRecorder()
	source.backup.Export(rr, newRequest(t, http.MethodGet, "/backup", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `attachment; filename="tilequote-backup-`)
	payload := rr.Body.Bytes()

	target := setupHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/backup", bytes.NewReader(payload))
	req = req.WithContext(testContext())
	rr = httptest.NewRecorder()
	target.backup.Import(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result domain.BackupImportResult
	decodeBody(t, rr, &result)
	assert.Equal(t, 1, result.Quotations)
	assert.Equal(t, 1, result.Invoices)
	assert.Equal(t, 1, result.Clients)
	assert.True(t, result.Settings)

	rr = httptest.NewRecorder()
	target.invoice.List(rr, newRequest(t, http.MethodGet, "/invoices", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "INV-2026-001")
}

func TestBackupHandler_RejectsNegativeExpense(t *testing.T) {
	th := setupHandlers(t)

	body := `{"version":1,"expenses":[{"id":"5b0f8a4e-3c1d-4d8e-9a55-0d8f3c1e2a11","date":"2026-03-01T00:00:00Z","category":"Fuel","amount":"-5"}]}`
	req := httptest.NewRequest(http.MethodPost, "/backup", strings.NewReader(body))
	req = req.WithContext(testContext())
	rr := httptest.NewRecorder()
	th.backup.Import(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := auth.HashPassword("tiles-and-grout")
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret-with-enough-length", time.Hour)
	h := handler.NewAuthHandler(auth.NewAuthenticator("owner", hash, tokens), zap.NewNop())

	login := func(username, password string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw))
		rr := httptest.NewRecorder()
		h.Login(rr, req)
		return rr
	}

	t.Run("valid credentials", func(t *testing.T) {
		rr := login("owner", "tiles-and-grout")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp domain.LoginResponse
		decodeBody(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.True(t, resp.ExpiresAt.After(time.Now()))

		user, err := tokens.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "owner", user.Subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := login("owner", "wrong")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := login("", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("login not configured", func(t *testing.T) {
		unconfigured := handler.NewAuthHandler(auth.NewAuthenticator("", "", tokens), zap.NewNop())
		raw, _ := json.Marshal(domain.LoginRequest{Username: "owner", Password: "x"})
		rr := httptest.NewRecorder()
		unconfigured.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw)))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	h := handler.NewAuthHandler(nil, zap.NewNop())

	t.Run("authenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Me(rr, newRequest(t, http.MethodGet, "/auth/me", nil, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]string
		decodeBody(t, rr, &body)
		assert.Equal(t, "owner", body["subject"])
		assert.Equal(t, "jwt", body["authType"])
	})

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Me(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil).WithContext(context.Background()))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
