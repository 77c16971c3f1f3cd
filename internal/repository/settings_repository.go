package repository

import (
	"context"

	"github.com/tilequote/quote-api/internal/domain"
	"gorm.io/gorm"
)

// SettingsRepository persists the single settings row
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row or gorm.ErrRecordNotFound
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	if err := r.db.WithContext(ctx).Where("id = ?", domain.SettingsSingletonID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save inserts or replaces the settings row
func (r *SettingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	settings.ID = domain.SettingsSingletonID
	return r.db.WithContext(ctx).Save(settings).Error
}
