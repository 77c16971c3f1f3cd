package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceFilters narrows invoice lists
type InvoiceFilters struct {
	PaymentStatus *domain.PaymentStatus
	ClientID      *uuid.UUID
	Search        string
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByIDForUpdate loads an invoice and locks its row until the surrounding transaction ends
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) CountByQuotationID(ctx context.Context, quotationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).Where("quotation_id = ?", quotationID).Count(&count).Error
	return count, err
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Invoice{}, "id = ?", id).Error
}

// DetachQuotation clears the quotation reference of invoices created from it
func (r *InvoiceRepository) DetachQuotation(ctx context.Context, quotationID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("quotation_id = ?", quotationID).
		Update("quotation_id", nil).Error
}

func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, filters *InvoiceFilters) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	query := applyInvoiceFilters(r.db.WithContext(ctx).Model(&domain.Invoice{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("issue_date DESC, invoice_number DESC").Offset(offset).Limit(pageSize).Find(&invoices).Error

	return invoices, total, err
}

// ListAll returns every invoice matching the filters
func (r *InvoiceRepository) ListAll(ctx context.Context, filters *InvoiceFilters) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	query := applyInvoiceFilters(r.db.WithContext(ctx).Model(&domain.Invoice{}), filters)
	err := query.Order("issue_date DESC").Find(&invoices).Error
	return invoices, err
}

// MarkOverdue flips unpaid invoices due before the cutoff to overdue and returns how many changed
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("payment_status = ? AND due_date < ?", domain.PaymentStatusUnpaid, cutoff).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentStatusOverdue,
			"updated_at":     time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// ListDueForReminder returns overdue invoices not reminded since the given time
func (r *InvoiceRepository) ListDueForReminder(ctx context.Context, remindedBefore time.Time) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", domain.PaymentStatusOverdue).
		Where("last_reminder_at IS NULL OR last_reminder_at < ?", remindedBefore).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

// SetLastReminder records when a reminder was sent
func (r *InvoiceRepository) SetLastReminder(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Invoice{}).Where("id = ?", id).Update("last_reminder_at", at).Error
}

// CountByPaymentStatus counts invoices per payment status
func (r *InvoiceRepository) CountByPaymentStatus(ctx context.Context) (map[domain.PaymentStatus]int, error) {
	var rows []struct {
		PaymentStatus domain.PaymentStatus
		Count         int
	}
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Select("payment_status, COUNT(*) as count").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[domain.PaymentStatus]int{
		domain.PaymentStatusUnpaid:  0,
		domain.PaymentStatusPaid:    0,
		domain.PaymentStatusOverdue: 0,
	}
	for _, row := range rows {
		counts[row.PaymentStatus] = row.Count
	}
	return counts, nil
}

func applyInvoiceFilters(query *gorm.DB, filters *InvoiceFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.Search != "" {
		searchPattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(invoice_number) LIKE ? OR LOWER(client_name) LIKE ?", searchPattern, searchPattern)
	}
	return query
}
