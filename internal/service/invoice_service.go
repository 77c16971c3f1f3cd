package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/mapper"
	"github.com/tilequote/quote-api/internal/pricing"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvoiceService converts accepted quotations into invoices and tracks their payment
type InvoiceService struct {
	invoiceRepo     *repository.InvoiceRepository
	numbers         *NumberSequenceService
	settings        *SettingsService
	paymentTermDays int
	logger          *zap.Logger
	db              *gorm.DB
	now             func() time.Time
}

func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	numbers *NumberSequenceService,
	settings *SettingsService,
	paymentTermDays int,
	logger *zap.Logger,
	db *gorm.DB,
) *InvoiceService {
	if paymentTermDays <= 0 {
		paymentTermDays = 30
	}
	return &InvoiceService{
		invoiceRepo:     invoiceRepo,
		numbers:         numbers,
		settings:        settings,
		paymentTermDays: paymentTermDays,
		logger:          logger,
		db:              db,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source; used by tests and the scheduler
func (s *InvoiceService) SetClock(now func() time.Time) {
	s.now = now
}

// ConvertFromQuotation creates the one invoice of an Accepted quotation. Line items
// and rates are deep-copied so later quotation edits do not reach the invoice.
func (s *InvoiceService) ConvertFromQuotation(ctx context.Context, quotationID uuid.UUID, req *domain.ConvertToInvoiceRequest) (*domain.InvoiceDTO, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	issueDate := truncateToDate(s.now())
	dueDate := issueDate.AddDate(0, 0, s.paymentTermDays)
	if req.DueDate != nil {
		dueDate = truncateToDate(req.DueDate.UTC())
		if dueDate.Before(issueDate) {
			return nil, ErrInvalidDueDate
		}
	}

	discountType := req.DiscountType
	if discountType == "" {
		discountType = domain.DiscountTypeNone
	}
	discountValue := req.DiscountValue
	if discountType == domain.DiscountTypeNone {
		discountValue = 0
	}

	bankDetails := settings.BankDetails
	if req.BankDetails != nil {
		bankDetails = *req.BankDetails
	}

	var invoice *domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quotationRepo := repository.NewQuotationRepository(tx)
		invoiceRepo := repository.NewInvoiceRepository(tx)

		q, err := quotationRepo.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuotationNotFound
			}
			return fmt.Errorf("failed to get quotation: %w", err)
		}

		if q.InvoiceID != nil {
			return ErrQuotationAlreadyInvoiced
		}
		if q.Status != domain.QuotationStatusAccepted {
			return fmt.Errorf("%w: status is %s", ErrQuotationNotAccepted, q.Status)
		}

		existing, err := invoiceRepo.CountByQuotationID(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing invoices: %w", err)
		}
		if existing > 0 {
			return ErrQuotationAlreadyInvoiced
		}

		number, err := s.numbers.WithTx(tx).GenerateInvoiceNumber(ctx, issueDate)
		if err != nil {
			return err
		}

		sourceID := q.ID
		invoice = &domain.Invoice{
			QuotationID:      &sourceID,
			InvoiceNumber:    number,
			IssueDate:        issueDate,
			DueDate:          dueDate,
			PaymentStatus:    domain.PaymentStatusUnpaid,
			Client:           q.Client,
			ClientID:         q.ClientID,
			Tiles:            copyTiles(q.Tiles),
			Materials:        copyMaterials(q.Materials),
			WorkmanshipRate:  q.WorkmanshipRate,
			Maintenance:      q.Maintenance,
			ProfitPercentage: copyNumberPtr(q.ProfitPercentage),
			DiscountType:     discountType,
			DiscountValue:    discountValue,
			BankDetails:      bankDetails,
			Notes:            req.Notes,
		}
		if err := invoiceRepo.Create(ctx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		if err := quotationRepo.UpdateFields(ctx, q.ID, map[string]interface{}{
			"status":     domain.QuotationStatusInvoiced,
			"invoice_id": invoice.ID,
		}); err != nil {
			return fmt.Errorf("failed to link quotation to invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrQuotationAlreadyInvoiced) && !errors.Is(err, ErrQuotationNotAccepted) && !errors.Is(err, ErrQuotationNotFound) {
			s.logger.Error("failed to convert quotation",
				zap.String("quotationID", quotationID.String()),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("quotation converted to invoice",
		zap.String("quotationID", quotationID.String()),
		zap.String("invoiceID", invoice.ID.String()),
		zap.String("invoiceNumber", invoice.InvoiceNumber))

	dto := mapper.ToInvoiceDTO(invoice, settings)
	return &dto, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	inv, settings, err := s.GetModel(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToInvoiceDTO(inv, settings)
	return &dto, nil
}

// GetModel returns the stored invoice together with the settings used to price it
func (s *InvoiceService) GetModel(ctx context.Context, id uuid.UUID) (*domain.Invoice, *domain.Settings, error) {
	inv, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return inv, settings, nil
}

// GetTotals computes the totals of a stored invoice under the current settings
func (s *InvoiceService) GetTotals(ctx context.Context, id uuid.UUID) (*domain.Totals, error) {
	inv, settings, err := s.GetModel(ctx, id)
	if err != nil {
		return nil, err
	}
	totals := pricing.ForInvoice(inv, settings)
	return &totals, nil
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int, filters *repository.InvoiceFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i], settings)
	}

	return paginated(dtos, total, page, pageSize), nil
}

// Update changes the editable parts of an invoice. Line items stay frozen.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceDTO, error) {
	inv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DiscountType != nil {
		inv.DiscountType = *req.DiscountType
		if inv.DiscountType == domain.DiscountTypeNone {
			inv.DiscountValue = 0
		}
	}
	if req.DiscountValue != nil && inv.DiscountType != domain.DiscountTypeNone {
		inv.DiscountValue = *req.DiscountValue
	}
	if req.BankDetails != nil {
		inv.BankDetails = *req.BankDetails
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
	if req.DueDate != nil {
		due := truncateToDate(req.DueDate.UTC())
		if due.Before(truncateToDate(inv.IssueDate)) {
			return nil, ErrInvalidDueDate
		}
		inv.DueDate = due
		// A later due date can bring an overdue invoice back into terms.
		if inv.PaymentStatus == domain.PaymentStatusOverdue && !due.Before(truncateToDate(s.now())) {
			inv.PaymentStatus = domain.PaymentStatusUnpaid
		}
	}

	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.logger.Info("invoice updated", zap.String("invoiceID", inv.ID.String()))

	return s.GetByID(ctx, inv.ID)
}

// MarkPaid records payment. Unpaid and Overdue invoices can be paid once.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uuid.UUID, paidAt *time.Time) (*domain.InvoiceDTO, error) {
	inv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentStatus == domain.PaymentStatusPaid {
		return nil, ErrInvoiceAlreadyPaid
	}

	when := s.now()
	if paidAt != nil {
		when = paidAt.UTC()
	}
	inv.PaymentStatus = domain.PaymentStatusPaid
	inv.PaidAt = &when

	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	s.logger.Info("invoice paid",
		zap.String("invoiceID", inv.ID.String()),
		zap.String("invoiceNumber", inv.InvoiceNumber))

	return s.GetByID(ctx, inv.ID)
}

// MarkOverdue flips every Unpaid invoice whose due date has passed to Overdue
func (s *InvoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	today := truncateToDate(s.now())
	changed, err := s.invoiceRepo.MarkOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	if changed > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", changed))
	}
	return changed, nil
}

// Delete removes an invoice and reverts its quotation from Invoiced to Accepted
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	var revertedID *uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceRepo := repository.NewInvoiceRepository(tx)
		quotationRepo := repository.NewQuotationRepository(tx)

		inv, err := invoiceRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		if inv.QuotationID != nil {
			q, err := quotationRepo.GetByIDForUpdate(ctx, *inv.QuotationID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// quotation already gone
			case err != nil:
				return fmt.Errorf("failed to get quotation: %w", err)
			default:
				fields := map[string]interface{}{"invoice_id": nil}
				if q.Status == domain.QuotationStatusInvoiced {
					fields["status"] = domain.QuotationStatusAccepted
				}
				if err := quotationRepo.UpdateFields(ctx, q.ID, fields); err != nil {
					return fmt.Errorf("failed to revert quotation: %w", err)
				}
				revertedID = &q.ID
			}
		}

		if err := quotationRepo.ClearInvoiceLink(ctx, inv.ID); err != nil {
			return fmt.Errorf("failed to clear invoice links: %w", err)
		}
		if err := invoiceRepo.Delete(ctx, inv.ID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.String("invoiceID", id.String())}
	if revertedID != nil {
		fields = append(fields, zap.String("revertedQuotationID", revertedID.String()))
	}
	s.logger.Info("invoice deleted", fields...)
	return nil
}

func (s *InvoiceService) get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalizeDiscountType maps free text from imports to a known discount type
func normalizeDiscountType(s string) domain.DiscountType {
	switch domain.DiscountType(strings.ToLower(strings.TrimSpace(s))) {
	case domain.DiscountTypePercentage:
		return domain.DiscountTypePercentage
	case domain.DiscountTypeAmount:
		return domain.DiscountTypeAmount
	}
	return domain.DiscountTypeNone
}
