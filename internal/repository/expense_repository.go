package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ExpenseFilters narrows expense lists
type ExpenseFilters struct {
	From        *time.Time
	To          *time.Time
	Category    string
	QuotationID *uuid.UUID
}

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	var expense domain.Expense
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Expense{}, "id = ?", id).Error
}

// DetachQuotation clears the job link of expenses booked against a quotation
func (r *ExpenseRepository) DetachQuotation(ctx context.Context, quotationID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Expense{}).
		Where("quotation_id = ?", quotationID).
		Update("quotation_id", nil).Error
}

func (r *ExpenseRepository) List(ctx context.Context, page, pageSize int, filters *ExpenseFilters) ([]domain.Expense, int64, error) {
	var expenses []domain.Expense
	var total int64

	query := applyExpenseFilters(r.db.WithContext(ctx).Model(&domain.Expense{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("date DESC, created_at DESC").Offset(offset).Limit(pageSize).Find(&expenses).Error

	return expenses, total, err
}

// ListAll returns every expense matching the filters
func (r *ExpenseRepository) ListAll(ctx context.Context, filters *ExpenseFilters) ([]domain.Expense, error) {
	var expenses []domain.Expense
	query := applyExpenseFilters(r.db.WithContext(ctx).Model(&domain.Expense{}), filters)
	err := query.Order("date DESC").Find(&expenses).Error
	return expenses, err
}

func applyExpenseFilters(query *gorm.DB, filters *ExpenseFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.From != nil {
		query = query.Where("date >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("date < ?", *filters.To)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.QuotationID != nil {
		query = query.Where("quotation_id = ?", *filters.QuotationID)
	}
	return query
}
