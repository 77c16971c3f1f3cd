package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsService manages the single business settings row
type SettingsService struct {
	repo   *repository.SettingsRepository
	logger *zap.Logger
}

func NewSettingsService(repo *repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: logger,
	}
}

// Get returns the settings, storing the defaults on first use. Rows written by an
// older version are back-filled in memory only; EnsureDefaults persists that once.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		return s.createDefaults(ctx)
	}

	BackfillSettings(settings)
	return settings, nil
}

// EnsureDefaults creates or back-fills the stored settings row. Run once at startup.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		_, err = s.createDefaults(ctx)
		return err
	}

	if !BackfillSettings(settings) {
		return nil
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to back-fill settings: %w", err)
	}
	s.logger.Info("back-filled missing settings values", zap.Int("revision", settings.Revision))
	return nil
}

func (s *SettingsService) createDefaults(ctx context.Context) (*domain.Settings, error) {
	defaults := domain.DefaultSettings()
	if err := s.repo.Save(ctx, &defaults); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	s.logger.Info("created default settings")
	return &defaults, nil
}

// Update replaces every settings field with the request values
func (s *SettingsService) Update(ctx context.Context, req *domain.UpdateSettingsRequest) (*domain.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	settings.BusinessName = strings.TrimSpace(req.BusinessName)
	settings.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	settings.Wall = req.Wall
	settings.Floor = req.Floor
	settings.ExternalWall = req.ExternalWall
	settings.Step = req.Step
	settings.WastageFactor = req.WastageFactor
	settings.CementPrice = req.CementPrice
	settings.WhiteCementPrice = req.WhiteCementPrice
	settings.SandPrice = req.SandPrice
	settings.WorkmanshipRate = req.WorkmanshipRate
	settings.TaxPercentage = req.TaxPercentage
	settings.ShowTax = req.ShowTax
	settings.ShowUnitPrice = req.ShowUnitPrice
	settings.ShowSubtotal = req.ShowSubtotal
	settings.ShowTileSize = req.ShowTileSize
	settings.ShowMaintenance = req.ShowMaintenance
	settings.ShowTerms = req.ShowTerms
	settings.DefaultTerms = req.DefaultTerms
	settings.BankDetails = req.BankDetails
	// zero prices in the request are deliberate
	settings.Revision = domain.SettingsRevision

	BackfillSettings(settings)

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.logger.Info("settings updated",
		zap.Bool("showTax", settings.ShowTax),
		zap.Bool("showMaintenance", settings.ShowMaintenance),
		zap.Float64("taxPercentage", settings.TaxPercentage.Float()))

	return settings, nil
}

// BackfillSettings replaces unset rates and prices with the defaults and reports
// whether anything changed. Negative values and zero coverage or wastage are always
// unset. A zero price or workmanship rate is only unset on a row older than
// domain.SettingsRevision. Display toggles are left alone.
func BackfillSettings(settings *domain.Settings) bool {
	defaults := domain.DefaultSettings()
	legacy := settings.Revision < domain.SettingsRevision
	changed := false

	fill := func(target *domain.Number, fallback domain.Number, zeroIsUnset bool) {
		v := target.Float()
		if v < 0 || (v == 0 && zeroIsUnset) {
			*target = fallback
			changed = true
		}
	}
	fillRate := func(target *domain.TileRate, fallback domain.TileRate) {
		fill(&target.PricePerCarton, fallback.PricePerCarton, legacy)
		fill(&target.SqmPerCarton, fallback.SqmPerCarton, true)
	}

	fillRate(&settings.Wall, defaults.Wall)
	fillRate(&settings.Floor, defaults.Floor)
	fillRate(&settings.ExternalWall, defaults.ExternalWall)
	fillRate(&settings.Step, defaults.Step)
	fill(&settings.WastageFactor, defaults.WastageFactor, true)
	fill(&settings.CementPrice, defaults.CementPrice, legacy)
	fill(&settings.WhiteCementPrice, defaults.WhiteCementPrice, legacy)
	fill(&settings.SandPrice, defaults.SandPrice, legacy)
	fill(&settings.WorkmanshipRate, defaults.WorkmanshipRate, legacy)

	if settings.Currency == "" {
		settings.Currency = defaults.Currency
		changed = true
	}
	if legacy {
		settings.Revision = domain.SettingsRevision
		changed = true
	}
	return changed
}
