package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/mapper"
)

func TestToQuotationDTO(t *testing.T) {
	settings := domain.DefaultSettings()
	q := &domain.Quotation{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
			UpdatedAt: time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC),
		},
		Status:          domain.QuotationStatusPending,
		Tiles:           []domain.TileItem{{Cartons: 10, UnitPrice: 5600, Sqm: 15}},
		WorkmanshipRate: 1700,
		Maintenance:     50000,
	}

	dto := mapper.ToQuotationDTO(q, &settings)

	assert.Equal(t, q.ID, dto.ID)
	assert.Equal(t, "2026-10-01T09:30:00Z", dto.CreatedAt)
	assert.Nil(t, dto.ProfitPercentage)
	assert.NotNil(t, dto.Materials)
	assert.NotNil(t, dto.Checklist)
	assert.Equal(t, 131500.0, dto.Totals.GrandTotal)
}

func TestToInvoiceDTO(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ShowTax = true
	paidAt := time.Date(2026, 10, 10, 12, 0, 0, 0, time.UTC)
	inv := &domain.Invoice{
		InvoiceNumber:    "INV-2026-004",
		IssueDate:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		DueDate:          time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
		PaymentStatus:    domain.PaymentStatusPaid,
		Materials:        []domain.MaterialItem{{Name: "Lump sum", Quantity: 1, UnitPrice: 100000}},
		ProfitPercentage: domain.NumberPtr(0),
		DiscountType:     domain.DiscountTypePercentage,
		DiscountValue:    10,
		PaidAt:           &paidAt,
	}

	dto := mapper.ToInvoiceDTO(inv, &settings)

	assert.Equal(t, "2026-10-01", dto.IssueDate)
	assert.Equal(t, "2026-10-31", dto.DueDate)
	require.NotNil(t, dto.PaidAt)
	assert.Equal(t, "2026-10-10T12:00:00Z", *dto.PaidAt)
	require.NotNil(t, dto.ProfitPercentage)
	assert.Equal(t, 0.0, *dto.ProfitPercentage)
	assert.Equal(t, 96750.0, dto.Totals.GrandTotal)
}
