package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/testutil"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	enabled  bool
	failFor  string
	messages map[string]string
}

func (n *recordingNotifier) Enabled() bool { return n.enabled }

func (n *recordingNotifier) Send(ctx context.Context, to, body string) error {
	if to == n.failFor {
		return errors.New("carrier rejected")
	}
	if n.messages == nil {
		n.messages = map[string]string{}
	}
	n.messages[to] = body
	return nil
}

func TestReminderService_SendOverdueReminders(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	svc.invoices.SetClock(fixedClock(date(2026, 1, 10)))

	q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
	bank := "GTBank 0123456789"
	inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{BankDetails: &bank})
	require.NoError(t, err)

	svc.invoices.SetClock(fixedClock(date(2026, 3, 1)))
	_, err = svc.invoices.MarkOverdue(ctx)
	require.NoError(t, err)

	notifier := &recordingNotifier{enabled: true}
	reminders := service.NewReminderService(repository.NewInvoiceRepository(svc.db), notifier, svc.settings, 7, zap.NewNop())
	reminders.SetClock(fixedClock(date(2026, 3, 1)))

	sent, failed, err := reminders.SendOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, failed)
	assert.Equal(t,
		"Hello Ada Okafor, a reminder that invoice "+inv.InvoiceNumber+" for NGN 131500.00 was due on 2026-02-09. Pay to: GTBank 0123456789",
		notifier.messages["+2348012345678"])

	// reminded recently, nothing to send
	reminders.SetClock(fixedClock(date(2026, 3, 5)))
	sent, _, err = reminders.SendOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	reminders.SetClock(fixedClock(date(2026, 3, 9)))
	sent, _, err = reminders.SendOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestReminderService_FailuresAndDisabled(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	svc.invoices.SetClock(fixedClock(date(2026, 1, 10)))

	q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
	_, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)
	svc.invoices.SetClock(fixedClock(date(2026, 3, 1)))
	_, err = svc.invoices.MarkOverdue(ctx)
	require.NoError(t, err)

	disabled := service.NewReminderService(repository.NewInvoiceRepository(svc.db), &recordingNotifier{}, svc.settings, 7, zap.NewNop())
	sent, failed, err := disabled.SendOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, failed)

	failing := &recordingNotifier{enabled: true, failFor: "+2348012345678"}
	reminders := service.NewReminderService(repository.NewInvoiceRepository(svc.db), failing, svc.settings, 7, zap.NewNop())
	sent, failed, err = reminders.SendOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, failed)
}
