package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/extraction"
	"github.com/tilequote/quote-api/internal/storage"
	"go.uber.org/zap"
)

// ExtractionService turns notes and photos into Pending quotations.
// A failed extraction leaves nothing behind: no quotation and no stored photo.
type ExtractionService struct {
	extractor  extraction.Extractor
	storage    storage.Storage
	quotations *QuotationService
	settings   *SettingsService
	logger     *zap.Logger
}

// NewExtractionService creates the service. A nil extractor disables extraction.
func NewExtractionService(
	extractor extraction.Extractor,
	store storage.Storage,
	quotations *QuotationService,
	settings *SettingsService,
	logger *zap.Logger,
) *ExtractionService {
	return &ExtractionService{
		extractor:  extractor,
		storage:    store,
		quotations: quotations,
		settings:   settings,
		logger:     logger,
	}
}

// FromNotes extracts a draft from free text and saves it
func (s *ExtractionService) FromNotes(ctx context.Context, notes string) (*domain.QuotationDTO, error) {
	if s.extractor == nil {
		return nil, ErrExtractionDisabled
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are empty", ErrInvalidInput)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	draft, err := s.extractor.ExtractFromText(ctx, notes, settings)
	if err != nil {
		s.logger.Warn("extraction from notes failed", zap.Error(err))
		return nil, err
	}

	return s.quotations.CreateFromDraft(ctx, *draft, notes, "")
}

// FromImage stores the photo, extracts a draft from it and saves the quotation
func (s *ExtractionService) FromImage(ctx context.Context, image []byte, contentType string) (*domain.QuotationDTO, error) {
	if s.extractor == nil {
		return nil, ErrExtractionDisabled
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	key, err := storage.PhotoKey(contentType, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	if s.storage != nil {
		if _, err := s.storage.Upload(ctx, key, contentType, bytes.NewReader(image)); err != nil {
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
	} else {
		key = ""
	}

	draft, err := s.extractor.ExtractFromImage(ctx, image, settings)
	if err != nil {
		s.logger.Warn("extraction from image failed", zap.Error(err))
		s.discardPhoto(key)
		return nil, err
	}

	dto, err := s.quotations.CreateFromDraft(ctx, *draft, "", key)
	if err != nil {
		s.discardPhoto(key)
		return nil, err
	}
	return dto, nil
}

func (s *ExtractionService) discardPhoto(key string) {
	if key == "" || s.storage == nil {
		return
	}
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove photo after failed extraction",
			zap.String("key", key),
			zap.Error(err))
	}
}
