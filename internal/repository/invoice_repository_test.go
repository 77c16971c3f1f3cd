package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/testutil"
	"gorm.io/gorm"
)

func createInvoice(t *testing.T, db *gorm.DB, number string, due time.Time, status domain.PaymentStatus) *domain.Invoice {
	t.Helper()
	inv := &domain.Invoice{
		InvoiceNumber: number,
		IssueDate:     due.AddDate(0, 0, -30),
		DueDate:       due,
		PaymentStatus: status,
		DiscountType:  domain.DiscountTypeNone,
		Tiles:         []domain.TileItem{},
		Materials:     []domain.MaterialItem{},
	}
	require.NoError(t, repository.NewInvoiceRepository(db).Create(context.Background(), inv))
	return inv
}

func TestInvoiceRepository_MarkOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	late := createInvoice(t, db, "INV-2026-001", today.AddDate(0, 0, -1), domain.PaymentStatusUnpaid)
	dueToday := createInvoice(t, db, "INV-2026-002", today, domain.PaymentStatusUnpaid)
	paid := createInvoice(t, db, "INV-2026-003", today.AddDate(0, 0, -10), domain.PaymentStatusPaid)

	changed, err := repo.MarkOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	for id, want := range map[uuid.UUID]domain.PaymentStatus{
		late.ID:     domain.PaymentStatusOverdue,
		dueToday.ID: domain.PaymentStatusUnpaid,
		paid.ID:     domain.PaymentStatusPaid,
	} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.PaymentStatus)
	}
}

func TestInvoiceRepository_ListDueForReminder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	never := createInvoice(t, db, "INV-2026-010", now.AddDate(0, 0, -20), domain.PaymentStatusOverdue)
	recent := createInvoice(t, db, "INV-2026-011", now.AddDate(0, 0, -20), domain.PaymentStatusOverdue)
	createInvoice(t, db, "INV-2026-012", now.AddDate(0, 0, -20), domain.PaymentStatusUnpaid)

	require.NoError(t, repo.SetLastReminder(ctx, recent.ID, now.AddDate(0, 0, -1)))

	due, err := repo.ListDueForReminder(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, never.ID, due[0].ID)
}

func TestInvoiceRepository_ListByPaymentStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		createInvoice(t, db, fmt.Sprintf("INV-2026-%03d", i), due, domain.PaymentStatusUnpaid)
	}
	createInvoice(t, db, "INV-2026-004", due, domain.PaymentStatusPaid)

	status := domain.PaymentStatusUnpaid
	items, total, err := repo.List(ctx, 1, 20, &repository.InvoiceFilters{PaymentStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)

	counts, err := repo.CountByPaymentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.PaymentStatusUnpaid])
	assert.Equal(t, 1, counts[domain.PaymentStatusPaid])
	assert.Equal(t, 0, counts[domain.PaymentStatusOverdue])
}

func TestInvoiceRepository_QuotationIDIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	q := testutil.CreateTestQuotation(t, db, domain.QuotationStatusAccepted)
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	first := &domain.Invoice{QuotationID: &q.ID, InvoiceNumber: "INV-2026-001", IssueDate: due, DueDate: due, PaymentStatus: domain.PaymentStatusUnpaid, DiscountType: domain.DiscountTypeNone}
	second := &domain.Invoice{QuotationID: &q.ID, InvoiceNumber: "INV-2026-002", IssueDate: due, DueDate: due, PaymentStatus: domain.PaymentStatusUnpaid, DiscountType: domain.DiscountTypeNone}

	require.NoError(t, repo.Create(ctx, first))
	assert.Error(t, repo.Create(ctx, second))

	count, err := repo.CountByQuotationID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
