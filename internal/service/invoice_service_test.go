package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/testutil"
)

func TestInvoiceService_ConvertFromQuotation(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted quotation becomes an invoice", func(t *testing.T) {
		svc := setupServices(t)
		svc.invoices.SetClock(fixedClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))
		q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

		inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{Notes: "Thank you"})
		require.NoError(t, err)

		assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
		assert.Equal(t, "2026-03-14", inv.IssueDate)
		assert.Equal(t, "2026-04-13", inv.DueDate)
		assert.Equal(t, domain.PaymentStatusUnpaid, inv.PaymentStatus)
		assert.Equal(t, domain.DiscountTypeNone, inv.DiscountType)
		assert.Equal(t, "Thank you", inv.Notes)
		require.NotNil(t, inv.QuotationID)
		assert.Equal(t, q.ID, *inv.QuotationID)
		assert.Equal(t, 131500.0, inv.Totals.GrandTotal)

		stored, err := svc.quotations.GetByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuotationStatusInvoiced, stored.Status)
		require.NotNil(t, stored.InvoiceID)
		assert.Equal(t, inv.ID, *stored.InvoiceID)
	})

	t.Run("numbers increase per conversion", func(t *testing.T) {
		svc := setupServices(t)
		svc.invoices.SetClock(fixedClock(date(2026, 5, 1)))

		first := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
		second := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

		a, err := svc.invoices.ConvertFromQuotation(ctx, first.ID, &domain.ConvertToInvoiceRequest{})
		require.NoError(t, err)
		b, err := svc.invoices.ConvertFromQuotation(ctx, second.ID, &domain.ConvertToInvoiceRequest{})
		require.NoError(t, err)

		assert.Equal(t, "INV-2026-001", a.InvoiceNumber)
		assert.Equal(t, "INV-2026-002", b.InvoiceNumber)
	})

	t.Run("second conversion is refused", func(t *testing.T) {
		svc := setupServices(t)
		q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

		_, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
		require.NoError(t, err)

		_, err = svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
		assert.ErrorIs(t, err, service.ErrQuotationAlreadyInvoiced)

		count, err := repository.NewInvoiceRepository(svc.db).CountByQuotationID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent conversions produce one invoice", func(t *testing.T) {
		svc := setupServices(t)
		q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)

		count, err := repository.NewInvoiceRepository(svc.db).CountByQuotationID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("only accepted quotations convert", func(t *testing.T) {
		svc := setupServices(t)
		for _, status := range []domain.QuotationStatus{domain.QuotationStatusPending, domain.QuotationStatusRejected} {
			q := testutil.CreateTestQuotation(t, svc.db, status)
			_, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
			assert.ErrorIs(t, err, service.ErrQuotationNotAccepted, string(status))
		}

		total, err := svc.invoices.List(ctx, 1, 20, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total.Total)
	})

	t.Run("missing quotation", func(t *testing.T) {
		svc := setupServices(t)
		_, err := svc.invoices.ConvertFromQuotation(ctx, uuid.New(), &domain.ConvertToInvoiceRequest{})
		assert.ErrorIs(t, err, service.ErrQuotationNotFound)
	})

	t.Run("due date before issue date", func(t *testing.T) {
		svc := setupServices(t)
		svc.invoices.SetClock(fixedClock(date(2026, 3, 14)))
		q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
		due := date(2026, 3, 1)

		_, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{DueDate: &due})
		assert.ErrorIs(t, err, service.ErrInvalidDueDate)

		stored, err := svc.quotations.GetByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuotationStatusAccepted, stored.Status)
	})

	t.Run("discount and bank details", func(t *testing.T) {
		svc := setupServices(t)
		_, err := svc.settings.Update(ctx, settingsRequest(func(r *domain.UpdateSettingsRequest) {
			r.BankDetails = "GTBank 0123456789"
			r.ShowTax = true
			r.TaxPercentage = 7.5
		}))
		require.NoError(t, err)
		q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

		inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{
			DiscountType:  domain.DiscountTypeAmount,
			DiscountValue: 31500,
		})
		require.NoError(t, err)

		assert.Equal(t, "GTBank 0123456789", inv.BankDetails)
		assert.Equal(t, 31500.0, inv.Totals.DiscountAmount)
		assert.Equal(t, 100000.0, inv.Totals.PostDiscountSubtotal)
		assert.Equal(t, 7500.0, inv.Totals.TaxAmount)
		assert.Equal(t, 107500.0, inv.Totals.GrandTotal)
	})
}

func TestInvoiceService_IsIndependentOfQuotation(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

	inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)

	rate := domain.Number(9999)
	_, err = svc.quotations.Update(ctx, q.ID, &domain.UpdateQuotationRequest{
		Tiles:           []domain.TileItem{{Category: "Wall tiles", Sqm: 100, Cartons: 70, UnitPrice: 4500}},
		WorkmanshipRate: &rate,
	})
	require.NoError(t, err)

	stored, err := svc.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Tiles, 1)
	assert.Equal(t, "Floor tiles", stored.Tiles[0].Category)
	assert.Equal(t, domain.Number(10), stored.Tiles[0].Cartons)
	assert.Equal(t, 1700.0, stored.WorkmanshipRate)
	assert.Equal(t, inv.Totals.GrandTotal, stored.Totals.GrandTotal)
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("reverts the quotation to accepted", func(t *testing.T) {
		svc := setupServices(t)
		q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
		inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
		require.NoError(t, err)

		require.NoError(t, svc.invoices.Delete(ctx, inv.ID))

		stored, err := svc.quotations.GetByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuotationStatusAccepted, stored.Status)
		assert.Nil(t, stored.InvoiceID)

		_, err = svc.invoices.GetByID(ctx, inv.ID)
		assert.ErrorIs(t, err, service.ErrInvoiceNotFound)

		again, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
		require.NoError(t, err)
		assert.Equal(t, "002", again.InvoiceNumber[len(again.InvoiceNumber)-3:])
	})

	t.Run("missing invoice", func(t *testing.T) {
		svc := setupServices(t)
		assert.ErrorIs(t, svc.invoices.Delete(ctx, uuid.New()), service.ErrInvoiceNotFound)
	})
}

func TestInvoiceService_PaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	svc.invoices.SetClock(fixedClock(date(2026, 1, 10)))
	q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)

	inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-09", inv.DueDate)

	// still within terms on the due date
	svc.invoices.SetClock(fixedClock(date(2026, 2, 9)))
	changed, err := svc.invoices.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	svc.invoices.SetClock(fixedClock(date(2026, 3, 1)))
	changed, err = svc.invoices.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	stored, err := svc.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusOverdue, stored.PaymentStatus)

	paidAt := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	paid, err := svc.invoices.MarkPaid(ctx, inv.ID, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.invoices.MarkPaid(ctx, inv.ID, nil)
	assert.ErrorIs(t, err, service.ErrInvoiceAlreadyPaid)

	// paid invoices are never swept back
	changed, err = svc.invoices.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
}

func TestInvoiceService_Update(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	svc.invoices.SetClock(fixedClock(date(2026, 1, 10)))
	q := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
	inv, err := svc.invoices.ConvertFromQuotation(ctx, q.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)

	svc.invoices.SetClock(fixedClock(date(2026, 3, 1)))
	_, err = svc.invoices.MarkOverdue(ctx)
	require.NoError(t, err)

	t.Run("extending the due date brings the invoice back into terms", func(t *testing.T) {
		due := date(2026, 3, 31)
		updated, err := svc.invoices.Update(ctx, inv.ID, &domain.UpdateInvoiceRequest{DueDate: &due})
		require.NoError(t, err)
		assert.Equal(t, "2026-03-31", updated.DueDate)
		assert.Equal(t, domain.PaymentStatusUnpaid, updated.PaymentStatus)
	})

	t.Run("percentage discount", func(t *testing.T) {
		discountType := domain.DiscountTypePercentage
		value := domain.Number(10)
		updated, err := svc.invoices.Update(ctx, inv.ID, &domain.UpdateInvoiceRequest{
			DiscountType:  &discountType,
			DiscountValue: &value,
		})
		require.NoError(t, err)
		assert.Equal(t, 13150.0, updated.Totals.DiscountAmount)
		assert.Equal(t, 118350.0, updated.Totals.GrandTotal)
	})

	t.Run("removing the discount zeroes its value", func(t *testing.T) {
		none := domain.DiscountTypeNone
		updated, err := svc.invoices.Update(ctx, inv.ID, &domain.UpdateInvoiceRequest{DiscountType: &none})
		require.NoError(t, err)
		assert.Equal(t, 0.0, updated.DiscountValue)
		assert.Equal(t, 131500.0, updated.Totals.GrandTotal)
	})

	t.Run("due date before issue date", func(t *testing.T) {
		due := date(2025, 12, 31)
		_, err := svc.invoices.Update(ctx, inv.ID, &domain.UpdateInvoiceRequest{DueDate: &due})
		assert.ErrorIs(t, err, service.ErrInvalidDueDate)
	})
}

func settingsRequest(modify func(r *domain.UpdateSettingsRequest)) *domain.UpdateSettingsRequest {
	d := domain.DefaultSettings()
	req := &domain.UpdateSettingsRequest{
		BusinessName:     d.BusinessName,
		Currency:         d.Currency,
		Wall:             d.Wall,
		Floor:            d.Floor,
		ExternalWall:     d.ExternalWall,
		Step:             d.Step,
		WastageFactor:    d.WastageFactor,
		CementPrice:      d.CementPrice,
		WhiteCementPrice: d.WhiteCementPrice,
		SandPrice:        d.SandPrice,
		WorkmanshipRate:  d.WorkmanshipRate,
		TaxPercentage:    d.TaxPercentage,
		ShowTax:          d.ShowTax,
		ShowUnitPrice:    d.ShowUnitPrice,
		ShowSubtotal:     d.ShowSubtotal,
		ShowTileSize:     d.ShowTileSize,
		ShowMaintenance:  d.ShowMaintenance,
		ShowTerms:        d.ShowTerms,
		DefaultTerms:     d.DefaultTerms,
		BankDetails:      d.BankDetails,
	}
	if modify != nil {
		modify(req)
	}
	return req
}
