package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/mapper"
	"github.com/tilequote/quote-api/internal/pricing"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedStatusTransitions lists the manual status changes. Accepted to Invoiced
// only happens through invoice conversion.
var allowedStatusTransitions = map[domain.QuotationStatus][]domain.QuotationStatus{
	domain.QuotationStatusPending: {domain.QuotationStatusAccepted, domain.QuotationStatusRejected},
}

type QuotationService struct {
	quotationRepo *repository.QuotationRepository
	clientRepo    *repository.ClientRepository
	settings      *SettingsService
	logger        *zap.Logger
	db            *gorm.DB
}

func NewQuotationService(
	quotationRepo *repository.QuotationRepository,
	clientRepo *repository.ClientRepository,
	settings *SettingsService,
	logger *zap.Logger,
	db *gorm.DB,
) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		clientRepo:    clientRepo,
		settings:      settings,
		logger:        logger,
		db:            db,
	}
}

func (s *QuotationService) Create(ctx context.Context, req *domain.CreateQuotationRequest) (*domain.QuotationDTO, error) {
	if err := s.checkClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	q := &domain.Quotation{
		Status:           domain.QuotationStatusPending,
		Client:           req.ClientDetails,
		ClientID:         req.ClientID,
		Tiles:            copyTiles(req.Tiles),
		Materials:        copyMaterials(req.Materials),
		WorkmanshipRate:  req.WorkmanshipRate,
		Maintenance:      req.Maintenance,
		ProfitPercentage: copyNumberPtr(req.ProfitPercentage),
		Checklist:        copyChecklist(req.Checklist),
		Terms:            req.Terms,
		SourceNotes:      req.SourceNotes,
	}

	if err := s.quotationRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.logger.Info("quotation created",
		zap.String("quotationID", q.ID.String()),
		zap.String("client", q.Client.Name))

	return s.toDTO(ctx, q)
}

// CreateFromDraft normalizes an extracted draft against the settings and stores it as a Pending quotation
func (s *QuotationService) CreateFromDraft(ctx context.Context, draft domain.QuotationDraft, sourceNotes, sourceImagePath string) (*domain.QuotationDTO, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	normalized := pricing.NormalizeDraft(draft, settings)

	q := &domain.Quotation{
		Status:           domain.QuotationStatusPending,
		Client:           normalized.ClientDetails,
		Tiles:            normalized.Tiles,
		Materials:        normalized.Materials,
		WorkmanshipRate:  normalized.WorkmanshipRate,
		Maintenance:      normalized.Maintenance,
		ProfitPercentage: normalized.ProfitPercentage,
		Checklist:        normalized.Checklist,
		Terms:            normalized.Terms,
		SourceNotes:      sourceNotes,
		SourceImagePath:  sourceImagePath,
	}
	showAllClientFields(&q.Client)

	if err := s.quotationRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.logger.Info("quotation created from extraction",
		zap.String("quotationID", q.ID.String()),
		zap.Int("tiles", len(q.Tiles)),
		zap.Int("materials", len(q.Materials)))

	dto := mapper.ToQuotationDTO(q, settings)
	return &dto, nil
}

func (s *QuotationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, q)
}

// GetModel returns the stored quotation together with the settings used to price it
func (s *QuotationService) GetModel(ctx context.Context, id uuid.UUID) (*domain.Quotation, *domain.Settings, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return q, settings, nil
}

// GetTotals computes the totals of a stored quotation under the current settings
func (s *QuotationService) GetTotals(ctx context.Context, id uuid.UUID) (*domain.Totals, error) {
	q, settings, err := s.GetModel(ctx, id)
	if err != nil {
		return nil, err
	}
	totals := pricing.ForQuotation(q, settings)
	return &totals, nil
}

func (s *QuotationService) List(ctx context.Context, page, pageSize int, filters *repository.QuotationFilters, sortBy repository.QuotationSortOption) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	quotations, total, err := s.quotationRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		dtos[i] = mapper.ToQuotationDTO(&quotations[i], settings)
	}

	return paginated(dtos, total, page, pageSize), nil
}

// Update replaces the fields present in the request
func (s *QuotationService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuotationRequest) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientDetails != nil {
		q.Client = *req.ClientDetails
	}
	if req.ClientID != nil {
		if err := s.checkClient(ctx, req.ClientID); err != nil {
			return nil, err
		}
		q.ClientID = req.ClientID
	}
	if req.Tiles != nil {
		q.Tiles = copyTiles(req.Tiles)
	}
	if req.Materials != nil {
		q.Materials = copyMaterials(req.Materials)
	}
	if req.WorkmanshipRate != nil {
		q.WorkmanshipRate = *req.WorkmanshipRate
	}
	if req.Maintenance != nil {
		q.Maintenance = *req.Maintenance
	}
	if req.ClearProfit {
		q.ProfitPercentage = nil
	} else if req.ProfitPercentage != nil {
		q.ProfitPercentage = copyNumberPtr(req.ProfitPercentage)
	}
	if req.Checklist != nil {
		q.Checklist = copyChecklist(req.Checklist)
	}
	if req.Terms != nil {
		q.Terms = *req.Terms
	}

	if err := s.quotationRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update quotation: %w", err)
	}

	s.logger.Info("quotation updated", zap.String("quotationID", q.ID.String()))

	return s.toDTO(ctx, q)
}

// UpdateStatus applies a manual status change. Setting the current status again is a no-op.
func (s *QuotationService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuotationStatus) (*domain.QuotationDTO, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.Status == status {
		return s.toDTO(ctx, q)
	}
	if !CanTransition(q.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, q.Status, status)
	}

	oldStatus := q.Status
	if err := s.quotationRepo.UpdateFields(ctx, q.ID, map[string]interface{}{"status": status}); err != nil {
		return nil, fmt.Errorf("failed to update quotation status: %w", err)
	}
	q.Status = status

	s.logger.Info("quotation status changed",
		zap.String("quotationID", q.ID.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(status)))

	return s.toDTO(ctx, q)
}

// CanTransition reports whether a manual status change is allowed
func CanTransition(from, to domain.QuotationStatus) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ToggleChecklistItem flips the done flag of one checklist item, or sets it when done is given
func (s *QuotationService) ToggleChecklistItem(ctx context.Context, id uuid.UUID, index int, done *bool) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(q.Checklist) {
		return nil, ErrChecklistIndexOutOfRange
	}

	checklist := copyChecklist(q.Checklist)
	if done != nil {
		checklist[index].Done = *done
	} else {
		checklist[index].Done = !checklist[index].Done
	}
	q.Checklist = checklist

	if err := s.quotationRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update checklist: %w", err)
	}

	return s.toDTO(ctx, q)
}

// Duplicate copies a quotation into a new Pending quotation without an invoice link
func (s *QuotationService) Duplicate(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	source, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	checklist := copyChecklist(source.Checklist)
	for i := range checklist {
		checklist[i].Done = false
	}

	clone := &domain.Quotation{
		Status:           domain.QuotationStatusPending,
		Client:           source.Client,
		ClientID:         source.ClientID,
		Tiles:            copyTiles(source.Tiles),
		Materials:        copyMaterials(source.Materials),
		WorkmanshipRate:  source.WorkmanshipRate,
		Maintenance:      source.Maintenance,
		ProfitPercentage: copyNumberPtr(source.ProfitPercentage),
		Checklist:        checklist,
		Terms:            source.Terms,
		SourceNotes:      source.SourceNotes,
	}
	if clone.Client.ProjectName != "" && !strings.HasSuffix(clone.Client.ProjectName, "(copy)") {
		clone.Client.ProjectName += " (copy)"
	}

	if err := s.quotationRepo.Create(ctx, clone); err != nil {
		return nil, fmt.Errorf("failed to duplicate quotation: %w", err)
	}

	s.logger.Info("quotation duplicated",
		zap.String("sourceID", source.ID.String()),
		zap.String("quotationID", clone.ID.String()))

	return s.toDTO(ctx, clone)
}

// Delete removes a quotation. Invoices and expenses pointing at it keep their data but lose the link.
func (s *QuotationService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quotationRepo := repository.NewQuotationRepository(tx)

		exists, err := quotationRepo.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get quotation: %w", err)
		}
		if !exists {
			return ErrQuotationNotFound
		}

		if err := repository.NewInvoiceRepository(tx).DetachQuotation(ctx, id); err != nil {
			return fmt.Errorf("failed to unlink invoice: %w", err)
		}
		if err := repository.NewExpenseRepository(tx).DetachQuotation(ctx, id); err != nil {
			return fmt.Errorf("failed to unlink expenses: %w", err)
		}
		if err := quotationRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete quotation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("quotation deleted", zap.String("quotationID", id.String()))
	return nil
}

func (s *QuotationService) get(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	q, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return q, nil
}

func (s *QuotationService) checkClient(ctx context.Context, clientID *uuid.UUID) error {
	if clientID == nil {
		return nil
	}
	if _, err := s.clientRepo.GetByID(ctx, *clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to get client: %w", err)
	}
	return nil
}

func (s *QuotationService) toDTO(ctx context.Context, q *domain.Quotation) (*domain.QuotationDTO, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuotationDTO(q, settings)
	return &dto, nil
}

func showAllClientFields(c *domain.ClientDetails) {
	c.ShowName = c.Name != ""
	c.ShowAddress = c.Address != ""
	c.ShowPhone = c.Phone != ""
	c.ShowProjectName = c.ProjectName != ""
}
