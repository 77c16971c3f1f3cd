package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
)

func TestBackup_UnmarshalSettings(t *testing.T) {
	t.Run("absent toggles take defaults", func(t *testing.T) {
		var b domain.Backup
		require.NoError(t, json.Unmarshal([]byte(`{"settings":{"taxPercentage":7.5}}`), &b))

		require.NotNil(t, b.Settings)
		assert.True(t, b.Settings.ShowMaintenance)
		assert.True(t, b.Settings.ShowSubtotal)
		assert.False(t, b.Settings.ShowTax)
		assert.Equal(t, domain.Number(7.5), b.Settings.TaxPercentage)
		assert.Equal(t, 0, b.Settings.Revision)
	})

	t.Run("explicit false is kept", func(t *testing.T) {
		var b domain.Backup
		require.NoError(t, json.Unmarshal([]byte(`{"settings":{"showMaintenance":false,"showTerms":false,"revision":1}}`), &b))

		assert.False(t, b.Settings.ShowMaintenance)
		assert.False(t, b.Settings.ShowTerms)
		assert.True(t, b.Settings.ShowUnitPrice)
		assert.Equal(t, domain.SettingsRevision, b.Settings.Revision)
	})

	t.Run("no settings", func(t *testing.T) {
		for _, payload := range []string{`{}`, `{"settings":null}`} {
			var b domain.Backup
			require.NoError(t, json.Unmarshal([]byte(payload), &b))
			assert.Nil(t, b.Settings, payload)
		}
	})
}

func TestBackup_UnmarshalClientFlags(t *testing.T) {
	payload := `{
		"version": 1,
		"quotations": [
			{"clientDetails": {"name": "Ada", "address": "12 Admiralty Way", "showAddress": false}},
			{}
		],
		"invoices": [
			{"invoiceNumber": "INV-2026-001", "clientDetails": {"phone": "+2348012345678", "projectName": "Lekki duplex"}}
		]
	}`

	var b domain.Backup
	require.NoError(t, json.Unmarshal([]byte(payload), &b))
	assert.Equal(t, 1, b.Version)
	require.Len(t, b.Quotations, 2)
	require.Len(t, b.Invoices, 1)

	first := b.Quotations[0].Client
	assert.True(t, first.ShowName)
	assert.False(t, first.ShowAddress)
	assert.False(t, first.ShowPhone)

	assert.Equal(t, domain.ClientDetails{}, b.Quotations[1].Client)

	inv := b.Invoices[0]
	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
	assert.True(t, inv.Client.ShowPhone)
	assert.True(t, inv.Client.ShowProjectName)
	assert.False(t, inv.Client.ShowName)
}
