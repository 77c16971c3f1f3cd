package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/export"
	"github.com/tilequote/quote-api/internal/notify"
	"github.com/tilequote/quote-api/internal/pricing"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
)

// ReminderService texts clients about overdue invoices
type ReminderService struct {
	invoiceRepo *repository.InvoiceRepository
	notifier    notify.Notifier
	settings    *SettingsService
	interval    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewReminderService creates the service. An invoice is reminded at most once per intervalDays.
func NewReminderService(
	invoiceRepo *repository.InvoiceRepository,
	notifier notify.Notifier,
	settings *SettingsService,
	intervalDays int,
	logger *zap.Logger,
) *ReminderService {
	if intervalDays <= 0 {
		intervalDays = 7
	}
	return &ReminderService{
		invoiceRepo: invoiceRepo,
		notifier:    notifier,
		settings:    settings,
		interval:    time.Duration(intervalDays) * 24 * time.Hour,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// SendOverdueReminders texts every overdue invoice with a client phone that has not been
// reminded within the interval. A failed message does not stop the others.
func (s *ReminderService) SendOverdueReminders(ctx context.Context) (sent int, failed int, err error) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return 0, 0, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	invoices, err := s.invoiceRepo.ListDueForReminder(ctx, now.Add(-s.interval))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list invoices for reminders: %w", err)
	}

	for i := range invoices {
		inv := &invoices[i]
		phone := strings.TrimSpace(inv.Client.Phone)
		if phone == "" {
			continue
		}

		if err := s.notifier.Send(ctx, phone, ReminderMessage(inv, settings)); err != nil {
			failed++
			s.logger.Warn("failed to send overdue reminder",
				zap.String("invoiceNumber", inv.InvoiceNumber),
				zap.Error(err))
			continue
		}
		if err := s.invoiceRepo.SetLastReminder(ctx, inv.ID, now); err != nil {
			s.logger.Error("failed to record reminder",
				zap.String("invoiceNumber", inv.InvoiceNumber),
				zap.Error(err))
		}
		sent++
	}

	return sent, failed, nil
}

// ReminderMessage renders the SMS text for an overdue invoice
func ReminderMessage(inv *domain.Invoice, settings *domain.Settings) string {
	var b strings.Builder
	b.WriteString("Hello")
	if name := strings.TrimSpace(inv.Client.Name); name != "" {
		b.WriteString(" " + name)
	}
	b.WriteString(", ")
	if settings.BusinessName != "" {
		b.WriteString(settings.BusinessName + " reminds you that ")
	} else {
		b.WriteString("a reminder that ")
	}

	total := pricing.ForInvoice(inv, settings).GrandTotal
	fmt.Fprintf(&b, "invoice %s for %s %s was due on %s.",
		inv.InvoiceNumber, settings.Currency, export.Money(total), inv.DueDate.UTC().Format("2006-01-02"))

	if inv.BankDetails != "" {
		b.WriteString(" Pay to: " + inv.BankDetails)
	}
	return b.String()
}
