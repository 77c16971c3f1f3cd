package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/auth"
	"github.com/tilequote/quote-api/internal/http/handler"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/storage"
	"github.com/tilequote/quote-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testHandlers struct {
	db         *gorm.DB
	invoices   *service.InvoiceService
	quotation  *handler.QuotationHandler
	invoice    *handler.InvoiceHandler
	client     *handler.ClientHandler
	expense    *handler.ExpenseHandler
	settings   *handler.SettingsHandler
	dashboard  *handler.DashboardHandler
	backup     *handler.BackupHandler
	photoStore storage.Storage
}

func setupHandlers(t *testing.T) *testHandlers {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	photoStore, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	quotationRepo := repository.NewQuotationRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	settings := service.NewSettingsService(repository.NewSettingsRepository(db), logger)
	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), "INV", logger)
	quotations := service.NewQuotationService(quotationRepo, clientRepo, settings, logger, db)
	invoices := service.NewInvoiceService(invoiceRepo, numbers, settings, 30, logger, db)
	clients := service.NewClientService(clientRepo, quotationRepo, invoiceRepo, settings, logger)
	expenses := service.NewExpenseService(expenseRepo, quotationRepo, logger)
	dashboard := service.NewDashboardService(quotationRepo, invoiceRepo, expenseRepo, settings, logger)
	backup := service.NewBackupService(numbers, settings, 30, logger, db)
	// extraction is not configured in tests
	extractions := service.NewExtractionService(nil, photoStore, quotations, settings, logger)

	return &testHandlers{
		db:         db,
		invoices:   invoices,
		quotation:  handler.NewQuotationHandler(quotations, invoices, clients, extractions, photoStore, 1, logger),
		invoice:    handler.NewInvoiceHandler(invoices, logger),
		client:     handler.NewClientHandler(clients, logger),
		expense:    handler.NewExpenseHandler(expenses, logger),
		settings:   handler.NewSettingsHandler(settings, logger),
		dashboard:  handler.NewDashboardHandler(dashboard, logger),
		backup:     handler.NewBackupHandler(backup, logger),
		photoStore: photoStore,
	}
}

func testContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		Subject:     "owner",
		DisplayName: "owner",
		AuthType:    auth.AuthTypeJWT,
	})
}

// newRequest builds a request carrying an authenticated owner and the given chi path params
func newRequest(t *testing.T, method, target string, body interface{}, params map[string]string) *http.Request {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := testContext()
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}
