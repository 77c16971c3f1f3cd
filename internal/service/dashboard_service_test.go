package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/testutil"
)

func TestDashboardService_EmptyDatabase(t *testing.T) {
	svc := setupServices(t)
	svc.dashboard.SetClock(fixedClock(date(2026, 3, 15)))

	metrics, err := svc.dashboard.GetMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, metrics.QuotationCounts[domain.QuotationStatusPending])
	assert.Equal(t, 0.0, metrics.ConversionRate)
	assert.Equal(t, 0.0, metrics.NetProfit)
	assert.Empty(t, metrics.RecentQuotations)
	require.Len(t, metrics.MonthlySeries, 6)
	assert.Equal(t, "2025-10", metrics.MonthlySeries[0].Month)
	assert.Equal(t, "2026-03", metrics.MonthlySeries[5].Month)
}

func TestDashboardService_GetMetrics(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	svc.dashboard.SetClock(fixedClock(date(2026, 3, 15)))
	svc.invoices.SetClock(fixedClock(date(2026, 3, 1)))

	testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusPending)
	testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusRejected)
	testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
	paidJob := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
	openJob := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

	paid, err := svc.invoices.ConvertFromQuotation(ctx, paidJob.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)
	paidAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, err = svc.invoices.MarkPaid(ctx, paid.ID, &paidAt)
	require.NoError(t, err)

	_, err = svc.invoices.ConvertFromQuotation(ctx, openJob.ID, &domain.ConvertToInvoiceRequest{
		DiscountType:  domain.DiscountTypeAmount,
		DiscountValue: 1500,
	})
	require.NoError(t, err)

	_, err = svc.expenses.Create(ctx, &domain.CreateExpenseRequest{
		Date: date(2026, 3, 5), Category: "Transport", Amount: decimal.NewFromInt(20000),
	})
	require.NoError(t, err)
	_, err = svc.expenses.Create(ctx, &domain.CreateExpenseRequest{
		Date: date(2026, 1, 20), Category: "Tools", Amount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	metrics, err := svc.dashboard.GetMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.QuotationCounts[domain.QuotationStatusPending])
	assert.Equal(t, 1, metrics.QuotationCounts[domain.QuotationStatusAccepted])
	assert.Equal(t, 2, metrics.QuotationCounts[domain.QuotationStatusInvoiced])
	assert.Equal(t, 1, metrics.InvoiceCounts[domain.PaymentStatusPaid])
	assert.Equal(t, 1, metrics.InvoiceCounts[domain.PaymentStatusUnpaid])

	assert.Equal(t, 131500.0, metrics.PipelineValue)
	assert.Equal(t, 3*131500.0, metrics.AcceptedValue)
	assert.Equal(t, 131500.0+130000.0, metrics.InvoicedTotal)
	assert.Equal(t, 131500.0, metrics.PaidRevenue)
	assert.Equal(t, 130000.0, metrics.Outstanding)
	assert.Equal(t, 0.0, metrics.OverdueTotal)
	assert.Equal(t, 25000.0, metrics.TotalExpenses)
	assert.Equal(t, 106500.0, metrics.NetProfit)
	assert.InDelta(t, 75.0, metrics.ConversionRate, 1e-9)

	require.Len(t, metrics.MonthlySeries, 6)
	assert.Equal(t, domain.MonthlyFigure{Month: "2026-03", Revenue: 131500, Expenses: 20000}, metrics.MonthlySeries[5])
	assert.Equal(t, domain.MonthlyFigure{Month: "2026-01", Revenue: 0, Expenses: 5000}, metrics.MonthlySeries[3])
	assert.Len(t, metrics.RecentQuotations, 5)
}
