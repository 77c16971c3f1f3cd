package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var invoiceNumberPattern = regexp.MustCompile(`^[A-Z0-9]+-\d{4}-\d{3,}$`)

// NumberSequenceService generates invoice numbers.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: INV-2026-001
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	prefix string
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService. An empty prefix falls back to INV.
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	prefix string,
	logger *zap.Logger,
) *NumberSequenceService {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "INV"
	}
	return &NumberSequenceService{
		repo:   repo,
		prefix: prefix,
		logger: logger,
	}
}

// WithTx returns a copy that draws numbers inside the given transaction
func (s *NumberSequenceService) WithTx(tx *gorm.DB) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repository.NewNumberSequenceRepository(tx),
		prefix: s.prefix,
		logger: s.logger,
	}
}

// Prefix returns the configured invoice prefix
func (s *NumberSequenceService) Prefix() string {
	return s.prefix
}

// GenerateInvoiceNumber draws the next number for the year of the issue date
func (s *NumberSequenceService) GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	year := issueDate.Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, s.prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", s.prefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}

	number := FormatInvoiceNumber(s.prefix, year, nextSeq)

	s.logger.Info("generated invoice number",
		zap.String("number", number),
		zap.Int("year", year),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GetCurrentSequence returns the last issued sequence for a year without incrementing it
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, s.prefix, year)
}

// EnsureAtLeast raises the sequence of a year so imported numbers are never issued again
func (s *NumberSequenceService) EnsureAtLeast(ctx context.Context, year, value int) error {
	return s.repo.SetSequence(ctx, s.prefix, year, value)
}

// FormatInvoiceNumber renders PREFIX-YEAR-NNN
func FormatInvoiceNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, sequence)
}

// ParseInvoiceNumber extracts year and sequence from a number using the configured prefix
func (s *NumberSequenceService) ParseInvoiceNumber(number string) (year, sequence int, ok bool) {
	if !invoiceNumberPattern.MatchString(number) || !strings.HasPrefix(number, s.prefix+"-") {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(strings.TrimPrefix(number, s.prefix+"-"), "%d-%d", &year, &sequence); err != nil {
		return 0, 0, false
	}
	return year, sequence, true
}

// ValidateInvoiceNumber reports whether a number follows PREFIX-YYYY-NNN
func ValidateInvoiceNumber(number string) bool {
	return invoiceNumberPattern.MatchString(number)
}
