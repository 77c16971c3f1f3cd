package service_test

import (
	"testing"
	"time"

	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServices struct {
	db         *gorm.DB
	settings   *service.SettingsService
	numbers    *service.NumberSequenceService
	quotations *service.QuotationService
	invoices   *service.InvoiceService
	clients    *service.ClientService
	expenses   *service.ExpenseService
	dashboard  *service.DashboardService
	backup     *service.BackupService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	quotationRepo := repository.NewQuotationRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	settings := service.NewSettingsService(repository.NewSettingsRepository(db), logger)
	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), "INV", logger)

	return &testServices{
		db:         db,
		settings:   settings,
		numbers:    numbers,
		quotations: service.NewQuotationService(quotationRepo, clientRepo, settings, logger, db),
		invoices:   service.NewInvoiceService(invoiceRepo, numbers, settings, 30, logger, db),
		clients:    service.NewClientService(clientRepo, quotationRepo, invoiceRepo, settings, logger),
		expenses:   service.NewExpenseService(expenseRepo, quotationRepo, logger),
		dashboard:  service.NewDashboardService(quotationRepo, invoiceRepo, expenseRepo, settings, logger),
		backup:     service.NewBackupService(numbers, settings, 30, logger, db),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
