package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BackupVersion is written into every export
const BackupVersion = 1

// BackupService exports and restores the full application state
type BackupService struct {
	numbers         *NumberSequenceService
	settings        *SettingsService
	paymentTermDays int
	logger          *zap.Logger
	db              *gorm.DB
}

func NewBackupService(
	numbers *NumberSequenceService,
	settings *SettingsService,
	paymentTermDays int,
	logger *zap.Logger,
	db *gorm.DB,
) *BackupService {
	if paymentTermDays <= 0 {
		paymentTermDays = 30
	}
	return &BackupService{
		numbers:         numbers,
		settings:        settings,
		paymentTermDays: paymentTermDays,
		logger:          logger,
		db:              db,
	}
}

// Export returns every stored record
func (s *BackupService) Export(ctx context.Context) (*domain.Backup, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	quotations, err := repository.NewQuotationRepository(s.db).ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export quotations: %w", err)
	}
	invoices, err := repository.NewInvoiceRepository(s.db).ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export invoices: %w", err)
	}
	clients, err := repository.NewClientRepository(s.db).ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export clients: %w", err)
	}
	expenses, err := repository.NewExpenseRepository(s.db).ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export expenses: %w", err)
	}

	return &domain.Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Quotations: nonNil(quotations),
		Invoices:   nonNil(invoices),
		Clients:    nonNil(clients),
		Expenses:   nonNil(expenses),
		Settings:   settings,
	}, nil
}

// Import upserts every record of a backup by id inside one transaction.
// Missing optional fields are back-filled and dangling references are cleared.
func (s *BackupService) Import(ctx context.Context, backup *domain.Backup) (*domain.BackupImportResult, error) {
	if backup == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidBackup)
	}
	for i := range backup.Expenses {
		if backup.Expenses[i].Amount.IsNegative() {
			return nil, fmt.Errorf("%w: expense %d has a negative amount", ErrInvalidBackup, i)
		}
	}

	result := &domain.BackupImportResult{}
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clientRepo := repository.NewClientRepository(tx)
		quotationRepo := repository.NewQuotationRepository(tx)
		invoiceRepo := repository.NewInvoiceRepository(tx)
		expenseRepo := repository.NewExpenseRepository(tx)
		numbers := s.numbers.WithTx(tx)

		clientIDs := map[uuid.UUID]bool{}
		for i := range backup.Clients {
			c := &backup.Clients[i]
			ensureID(&c.ID)
			if c.Name == "" {
				c.Name = "Unnamed client"
			}
			if err := clientRepo.Update(ctx, c); err != nil {
				return fmt.Errorf("failed to import client %s: %w", c.ID, err)
			}
			clientIDs[c.ID] = true
			result.Clients++
		}

		quotationIDs := map[uuid.UUID]bool{}
		for i := range backup.Quotations {
			q := &backup.Quotations[i]
			ensureID(&q.ID)
			backfillQuotation(q)
			if err := s.keepClientLink(ctx, clientRepo, clientIDs, &q.ClientID); err != nil {
				return err
			}
			quotationIDs[q.ID] = true
		}

		invoiceIDs := map[uuid.UUID]bool{}
		for i := range backup.Invoices {
			invoiceIDs[ensureID(&backup.Invoices[i].ID)] = true
		}

		// Quotations go in before invoices; links to invoices outside the backup
		// are checked against the database.
		for i := range backup.Quotations {
			q := &backup.Quotations[i]
			if q.InvoiceID != nil && !invoiceIDs[*q.InvoiceID] {
				exists, err := recordExists(ctx, tx, &domain.Invoice{}, *q.InvoiceID)
				if err != nil {
					return err
				}
				if !exists {
					q.InvoiceID = nil
				}
			}
			if q.InvoiceID == nil && q.Status == domain.QuotationStatusInvoiced {
				q.Status = domain.QuotationStatusAccepted
			}
			if err := quotationRepo.Update(ctx, q); err != nil {
				return fmt.Errorf("failed to import quotation %s: %w", q.ID, err)
			}
			result.Quotations++
		}

		// a quotation naming an imported invoice fills in the invoice's missing back-reference
		invoicedBy := map[uuid.UUID]uuid.UUID{}
		for i := range backup.Quotations {
			if q := &backup.Quotations[i]; q.InvoiceID != nil {
				invoicedBy[*q.InvoiceID] = q.ID
			}
		}

		highest := map[int]int{}
		for i := range backup.Invoices {
			inv := &backup.Invoices[i]
			s.backfillInvoice(inv, now)
			if quotationID, ok := invoicedBy[inv.ID]; ok && inv.QuotationID == nil {
				inv.QuotationID = &quotationID
			}

			if inv.QuotationID != nil && !quotationIDs[*inv.QuotationID] {
				exists, err := recordExists(ctx, tx, &domain.Quotation{}, *inv.QuotationID)
				if err != nil {
					return err
				}
				if !exists {
					inv.QuotationID = nil
				}
			}
			if err := s.keepClientLink(ctx, clientRepo, clientIDs, &inv.ClientID); err != nil {
				return err
			}

			if inv.InvoiceNumber == "" {
				number, err := numbers.GenerateInvoiceNumber(ctx, inv.IssueDate)
				if err != nil {
					return err
				}
				inv.InvoiceNumber = number
			} else if year, seq, ok := numbers.ParseInvoiceNumber(inv.InvoiceNumber); ok && seq > highest[year] {
				highest[year] = seq
			}

			if err := invoiceRepo.Update(ctx, inv); err != nil {
				return fmt.Errorf("failed to import invoice %s: %w", inv.InvoiceNumber, err)
			}
			result.Invoices++
		}
		// point each linked quotation back at its invoice
		for i := range backup.Invoices {
			inv := &backup.Invoices[i]
			if inv.QuotationID == nil {
				continue
			}
			if err := quotationRepo.UpdateFields(ctx, *inv.QuotationID, map[string]interface{}{
				"invoice_id": inv.ID,
				"status":     domain.QuotationStatusInvoiced,
			}); err != nil {
				return fmt.Errorf("failed to link quotation %s to invoice %s: %w", *inv.QuotationID, inv.InvoiceNumber, err)
			}
		}
		for year, seq := range highest {
			if err := numbers.EnsureAtLeast(ctx, year, seq); err != nil {
				return fmt.Errorf("failed to advance invoice numbering: %w", err)
			}
		}

		for i := range backup.Expenses {
			e := &backup.Expenses[i]
			ensureID(&e.ID)
			if e.Date.IsZero() {
				e.Date = truncateToDate(now)
			}
			if e.Category == "" {
				e.Category = "General"
			}
			if e.QuotationID != nil && !quotationIDs[*e.QuotationID] {
				exists, err := recordExists(ctx, tx, &domain.Quotation{}, *e.QuotationID)
				if err != nil {
					return err
				}
				if !exists {
					e.QuotationID = nil
				}
			}
			if err := expenseRepo.Update(ctx, e); err != nil {
				return fmt.Errorf("failed to import expense %s: %w", e.ID, err)
			}
			result.Expenses++
		}

		if backup.Settings != nil {
			BackfillSettings(backup.Settings)
			if err := repository.NewSettingsRepository(tx).Save(ctx, backup.Settings); err != nil {
				return fmt.Errorf("failed to import settings: %w", err)
			}
			result.Settings = true
		}
		return nil
	})
	if err != nil {
		s.logger.Error("backup import failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("backup imported",
		zap.Int("quotations", result.Quotations),
		zap.Int("invoices", result.Invoices),
		zap.Int("clients", result.Clients),
		zap.Int("expenses", result.Expenses),
		zap.Bool("settings", result.Settings))

	return result, nil
}

func (s *BackupService) keepClientLink(ctx context.Context, clientRepo *repository.ClientRepository, imported map[uuid.UUID]bool, clientID **uuid.UUID) error {
	if *clientID == nil || imported[**clientID] {
		return nil
	}
	if _, err := clientRepo.GetByID(ctx, **clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			*clientID = nil
			return nil
		}
		return fmt.Errorf("failed to check client: %w", err)
	}
	return nil
}

func backfillQuotation(q *domain.Quotation) {
	if !q.Status.IsValid() {
		q.Status = domain.QuotationStatusPending
	}
	if q.Tiles == nil {
		q.Tiles = []domain.TileItem{}
	}
	if q.Materials == nil {
		q.Materials = []domain.MaterialItem{}
	}
	if q.Checklist == nil {
		q.Checklist = []domain.ChecklistItem{}
	}
	for i := range q.Tiles {
		q.Tiles[i].Classification = domain.ParseTileClassification(string(q.Tiles[i].Classification))
	}
}

func (s *BackupService) backfillInvoice(inv *domain.Invoice, now time.Time) {
	if !inv.PaymentStatus.IsValid() {
		inv.PaymentStatus = domain.PaymentStatusUnpaid
	}
	inv.DiscountType = normalizeDiscountType(string(inv.DiscountType))
	if inv.DiscountType == domain.DiscountTypeNone {
		inv.DiscountValue = 0
	}
	if inv.Tiles == nil {
		inv.Tiles = []domain.TileItem{}
	}
	if inv.Materials == nil {
		inv.Materials = []domain.MaterialItem{}
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = inv.CreatedAt
		if inv.IssueDate.IsZero() {
			inv.IssueDate = now
		}
	}
	inv.IssueDate = truncateToDate(inv.IssueDate)
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDate(0, 0, s.paymentTermDays)
	}
	if inv.PaymentStatus == domain.PaymentStatusPaid && inv.PaidAt == nil {
		paidAt := inv.IssueDate
		inv.PaidAt = &paidAt
	}
}

func ensureID(id *uuid.UUID) uuid.UUID {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return *id
}

func recordExists(ctx context.Context, tx *gorm.DB, model interface{}, id uuid.UUID) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}
	return count > 0, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
