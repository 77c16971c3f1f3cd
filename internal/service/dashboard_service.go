package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/mapper"
	"github.com/tilequote/quote-api/internal/pricing"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
)

const (
	dashboardMonths          = 6
	dashboardRecentQuotation = 5
)

type DashboardService struct {
	quotationRepo *repository.QuotationRepository
	invoiceRepo   *repository.InvoiceRepository
	expenseRepo   *repository.ExpenseRepository
	settings      *SettingsService
	logger        *zap.Logger
	now           func() time.Time
}

func NewDashboardService(
	quotationRepo *repository.QuotationRepository,
	invoiceRepo *repository.InvoiceRepository,
	expenseRepo *repository.ExpenseRepository,
	settings *SettingsService,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		quotationRepo: quotationRepo,
		invoiceRepo:   invoiceRepo,
		expenseRepo:   expenseRepo,
		settings:      settings,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for the monthly series
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *DashboardService) GetMetrics(ctx context.Context) (*domain.DashboardDTO, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	quotationCounts, err := s.quotationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count quotations: %w", err)
	}
	invoiceCounts, err := s.invoiceRepo.CountByPaymentStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	quotations, err := s.quotationRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load quotations: %w", err)
	}
	invoices, err := s.invoiceRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	expenses, err := s.expenseRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	metrics := &domain.DashboardDTO{
		QuotationCounts:  quotationCounts,
		InvoiceCounts:    invoiceCounts,
		RecentQuotations: []domain.QuotationDTO{},
	}

	for i := range quotations {
		total := pricing.ForQuotation(&quotations[i], settings).GrandTotal
		switch quotations[i].Status {
		case domain.QuotationStatusPending:
			metrics.PipelineValue += total
		case domain.QuotationStatusAccepted, domain.QuotationStatusInvoiced:
			metrics.AcceptedValue += total
		}
	}

	series, index := s.emptySeries()

	for i := range invoices {
		inv := &invoices[i]
		total := pricing.ForInvoice(inv, settings).GrandTotal
		metrics.InvoicedTotal += total

		switch inv.PaymentStatus {
		case domain.PaymentStatusPaid:
			metrics.PaidRevenue += total
			paidOn := inv.IssueDate
			if inv.PaidAt != nil {
				paidOn = *inv.PaidAt
			}
			if pos, ok := index[monthKey(paidOn)]; ok {
				series[pos].Revenue += total
			}
		case domain.PaymentStatusOverdue:
			metrics.OverdueTotal += total
			metrics.Outstanding += total
		default:
			metrics.Outstanding += total
		}
	}

	expenseTotal := decimal.Zero
	for i := range expenses {
		expenseTotal = expenseTotal.Add(expenses[i].Amount)
		if pos, ok := index[monthKey(expenses[i].Date)]; ok {
			series[pos].Expenses += expenses[i].Amount.InexactFloat64()
		}
	}
	metrics.TotalExpenses = expenseTotal.InexactFloat64()
	metrics.NetProfit = metrics.PaidRevenue - metrics.TotalExpenses
	metrics.MonthlySeries = series

	won := quotationCounts[domain.QuotationStatusAccepted] + quotationCounts[domain.QuotationStatusInvoiced]
	decided := won + quotationCounts[domain.QuotationStatusRejected]
	if decided > 0 {
		metrics.ConversionRate = float64(won) / float64(decided) * 100
	}

	for i := 0; i < len(quotations) && i < dashboardRecentQuotation; i++ {
		metrics.RecentQuotations = append(metrics.RecentQuotations, mapper.ToQuotationDTO(&quotations[i], settings))
	}

	return metrics, nil
}

// emptySeries returns the last months oldest first, with a lookup from YYYY-MM to position
func (s *DashboardService) emptySeries() ([]domain.MonthlyFigure, map[string]int) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(dashboardMonths - 1), 0)

	series := make([]domain.MonthlyFigure, dashboardMonths)
	index := make(map[string]int, dashboardMonths)
	for i := 0; i < dashboardMonths; i++ {
		key := monthKey(start.AddDate(0, i, 0))
		series[i] = domain.MonthlyFigure{Month: key}
		index[key] = i
	}
	return series, index
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
