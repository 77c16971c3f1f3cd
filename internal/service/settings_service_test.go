package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/service"
)

func TestSettingsService_GetCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	settings, err := svc.settings.Get(ctx)
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Floor, settings.Floor)
	assert.Equal(t, defaults.WorkmanshipRate, settings.WorkmanshipRate)
	assert.Equal(t, "NGN", settings.Currency)
	assert.True(t, settings.ShowMaintenance)

	var count int64
	require.NoError(t, svc.db.Model(&domain.Settings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSettingsService_BackfillsStoredZeros(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	// a row from before revisions were stamped
	stored := domain.Settings{ID: domain.SettingsSingletonID, BusinessName: "Tiles & Co", ShowTax: true, TaxPercentage: 5}
	require.NoError(t, svc.db.Save(&stored).Error)

	settings, err := svc.settings.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Tiles & Co", settings.BusinessName)
	assert.Equal(t, domain.Number(4500), settings.Wall.PricePerCarton)
	assert.Equal(t, domain.Number(1.44), settings.Floor.SqmPerCarton)
	assert.Equal(t, domain.Number(1700), settings.WorkmanshipRate)
	assert.Equal(t, domain.Number(5), settings.TaxPercentage)
	assert.True(t, settings.ShowTax)
	assert.False(t, settings.ShowMaintenance)

	// reads leave the row alone
	var reloaded domain.Settings
	require.NoError(t, svc.db.First(&reloaded, domain.SettingsSingletonID).Error)
	assert.Equal(t, domain.Number(0), reloaded.CementPrice)
	assert.Equal(t, 0, reloaded.Revision)

	require.NoError(t, svc.settings.EnsureDefaults(ctx))
	require.NoError(t, svc.db.First(&reloaded, domain.SettingsSingletonID).Error)
	assert.Equal(t, domain.Number(9500), reloaded.CementPrice)
	assert.Equal(t, domain.SettingsRevision, reloaded.Revision)
	assert.Equal(t, "Tiles & Co", reloaded.BusinessName)
}

func TestSettingsService_EnsureDefaultsCreatesRow(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	require.NoError(t, svc.settings.EnsureDefaults(ctx))
	require.NoError(t, svc.settings.EnsureDefaults(ctx))

	var stored domain.Settings
	require.NoError(t, svc.db.First(&stored, domain.SettingsSingletonID).Error)
	assert.Equal(t, domain.DefaultSettings().Floor, stored.Floor)
	assert.Equal(t, domain.SettingsRevision, stored.Revision)
}

func TestSettingsService_DeliberateZeroSticks(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	_, err := svc.settings.Update(ctx, settingsRequest(func(r *domain.UpdateSettingsRequest) {
		r.WorkmanshipRate = 0
		r.SandPrice = 0
		r.Step = domain.TileRate{PricePerCarton: 0, SqmPerCarton: 1.2}
		r.WastageFactor = 0
	}))
	require.NoError(t, err)

	require.NoError(t, svc.settings.EnsureDefaults(ctx))
	settings, err := svc.settings.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.Number(0), settings.WorkmanshipRate)
	assert.Equal(t, domain.Number(0), settings.SandPrice)
	assert.Equal(t, domain.Number(0), settings.Step.PricePerCarton)
	// coverage and wastage are never zero
	assert.Equal(t, domain.Number(1.10), settings.WastageFactor)
	assert.Equal(t, domain.Number(9500), settings.CementPrice)
}

func TestSettingsService_Update(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	updated, err := svc.settings.Update(ctx, settingsRequest(func(r *domain.UpdateSettingsRequest) {
		r.Currency = " ghs "
		r.ShowMaintenance = false
		r.Wall = domain.TileRate{PricePerCarton: 5200}
	}))
	require.NoError(t, err)

	assert.Equal(t, "GHS", updated.Currency)
	assert.False(t, updated.ShowMaintenance)
	assert.Equal(t, domain.Number(5200), updated.Wall.PricePerCarton)
	// a zero coverage falls back to the default
	assert.Equal(t, domain.Number(1.5), updated.Wall.SqmPerCarton)

	again, err := svc.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated.Wall, again.Wall)
	assert.False(t, again.ShowMaintenance)
}

func TestBackfillSettings(t *testing.T) {
	full := domain.DefaultSettings()
	assert.False(t, service.BackfillSettings(&full))

	partial := domain.Settings{WastageFactor: -1}
	assert.True(t, service.BackfillSettings(&partial))
	assert.Equal(t, domain.Number(1.10), partial.WastageFactor)
	assert.Equal(t, domain.Number(1700), partial.WorkmanshipRate)
	assert.Equal(t, "NGN", partial.Currency)
	assert.Equal(t, domain.SettingsRevision, partial.Revision)
	assert.False(t, partial.ShowUnitPrice)

	current := domain.DefaultSettings()
	current.CementPrice = 0
	current.Floor.SqmPerCarton = 0
	assert.True(t, service.BackfillSettings(&current))
	assert.Equal(t, domain.Number(0), current.CementPrice)
	assert.Equal(t, domain.Number(1.44), current.Floor.SqmPerCarton)
}
