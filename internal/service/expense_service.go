package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/mapper"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExpenseService struct {
	expenseRepo   *repository.ExpenseRepository
	quotationRepo *repository.QuotationRepository
	logger        *zap.Logger
}

func NewExpenseService(
	expenseRepo *repository.ExpenseRepository,
	quotationRepo *repository.QuotationRepository,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:   expenseRepo,
		quotationRepo: quotationRepo,
		logger:        logger,
	}
}

func (s *ExpenseService) Create(ctx context.Context, req *domain.CreateExpenseRequest) (*domain.ExpenseDTO, error) {
	expense := &domain.Expense{}
	if err := s.apply(ctx, expense, req); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.logger.Info("expense recorded",
		zap.String("expenseID", expense.ID.String()),
		zap.String("category", expense.Category),
		zap.String("amount", expense.Amount.StringFixed(2)))

	dto := mapper.ToExpenseDTO(expense)
	return &dto, nil
}

func (s *ExpenseService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseDTO, error) {
	expense, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToExpenseDTO(expense)
	return &dto, nil
}

func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateExpenseRequest) (*domain.ExpenseDTO, error) {
	expense, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, expense, req); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	dto := mapper.ToExpenseDTO(expense)
	return &dto, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (s *ExpenseService) List(ctx context.Context, page, pageSize int, filters *repository.ExpenseFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	expenses, total, err := s.expenseRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	dtos := make([]domain.ExpenseDTO, len(expenses))
	for i := range expenses {
		dtos[i] = mapper.ToExpenseDTO(&expenses[i])
	}

	return paginated(dtos, total, page, pageSize), nil
}

func (s *ExpenseService) apply(ctx context.Context, expense *domain.Expense, req *domain.CreateExpenseRequest) error {
	if req.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if req.QuotationID != nil {
		exists, err := s.quotationRepo.Exists(ctx, *req.QuotationID)
		if err != nil {
			return fmt.Errorf("failed to get quotation: %w", err)
		}
		if !exists {
			return ErrQuotationNotFound
		}
	}

	expense.Date = truncateToDate(req.Date)
	expense.Category = strings.TrimSpace(req.Category)
	expense.Description = strings.TrimSpace(req.Description)
	expense.Amount = req.Amount.Round(2)
	expense.QuotationID = req.QuotationID
	return nil
}

func (s *ExpenseService) get(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}
