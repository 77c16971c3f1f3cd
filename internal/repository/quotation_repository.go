package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotationSortOption defines the ordering of quotation lists
type QuotationSortOption string

const (
	QuotationSortByCreatedDesc QuotationSortOption = "created_desc"
	QuotationSortByCreatedAsc  QuotationSortOption = "created_asc"
	QuotationSortByClientAsc   QuotationSortOption = "client_asc"
	QuotationSortByClientDesc  QuotationSortOption = "client_desc"
)

// QuotationFilters narrows quotation lists
type QuotationFilters struct {
	Status   *domain.QuotationStatus
	ClientID *uuid.UUID
	Search   string
}

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

func (r *QuotationRepository) Create(ctx context.Context, q *domain.Quotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var q domain.Quotation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// GetByIDForUpdate loads a quotation and locks its row until the surrounding transaction ends
func (r *QuotationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var q domain.Quotation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuotationRepository) Update(ctx context.Context, q *domain.Quotation) error {
	return r.db.WithContext(ctx).Save(q).Error
}

// UpdateFields writes only the given columns
func (r *QuotationRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Quotation{}).Where("id = ?", id).Updates(fields).Error
}

func (r *QuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Quotation{}, "id = ?", id).Error
}

func (r *QuotationRepository) List(ctx context.Context, page, pageSize int, filters *QuotationFilters, sortBy QuotationSortOption) ([]domain.Quotation, int64, error) {
	var quotations []domain.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quotation{})
	query = applyQuotationFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order(quotationOrder(sortBy)).Offset(offset).Limit(pageSize).Find(&quotations).Error

	return quotations, total, err
}

// ListAll returns every quotation matching the filters, newest first
func (r *QuotationRepository) ListAll(ctx context.Context, filters *QuotationFilters) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	query := applyQuotationFilters(r.db.WithContext(ctx).Model(&domain.Quotation{}), filters)
	err := query.Order("created_at DESC").Find(&quotations).Error
	return quotations, err
}

// Recent returns the most recently created quotations
func (r *QuotationRepository) Recent(ctx context.Context, limit int) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&quotations).Error
	return quotations, err
}

// CountByStatus counts quotations per status
func (r *QuotationRepository) CountByStatus(ctx context.Context) (map[domain.QuotationStatus]int, error) {
	var rows []struct {
		Status domain.QuotationStatus
		Count  int
	}
	err := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[domain.QuotationStatus]int{
		domain.QuotationStatusPending:  0,
		domain.QuotationStatusAccepted: 0,
		domain.QuotationStatusRejected: 0,
		domain.QuotationStatusInvoiced: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ClearInvoiceLink removes the invoice reference from any quotation pointing at the invoice
func (r *QuotationRepository) ClearInvoiceLink(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("invoice_id = ?", invoiceID).
		Update("invoice_id", nil).Error
}

func (r *QuotationRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quotation{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func applyQuotationFilters(query *gorm.DB, filters *QuotationFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.Search != "" {
		searchPattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(client_name) LIKE ? OR LOWER(client_project_name) LIKE ?", searchPattern, searchPattern)
	}
	return query
}

func quotationOrder(sortBy QuotationSortOption) string {
	switch sortBy {
	case QuotationSortByCreatedAsc:
		return "created_at ASC"
	case QuotationSortByClientAsc:
		return "client_name ASC, created_at DESC"
	case QuotationSortByClientDesc:
		return "client_name DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
