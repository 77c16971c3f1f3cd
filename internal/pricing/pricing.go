// Package pricing computes the derived totals of quotations and invoices and
// fills defaults into extracted drafts.
package pricing

import (
	"github.com/tilequote/quote-api/internal/domain"
)

// Record is the priced content shared by quotations and invoices.
// Quotations carry no discount.
type Record struct {
	Tiles            []domain.TileItem
	Materials        []domain.MaterialItem
	WorkmanshipRate  domain.Number
	Maintenance      domain.Number
	ProfitPercentage *domain.Number
	DiscountType     domain.DiscountType
	DiscountValue    domain.Number
}

// Settings are the business settings that influence totals
type Settings struct {
	ShowMaintenance bool
	TaxPercentage   domain.Number
	ShowTax         bool
}

// SettingsFrom extracts the pricing-relevant subset of the stored settings
func SettingsFrom(s *domain.Settings) Settings {
	if s == nil {
		return Settings{}
	}
	return Settings{
		ShowMaintenance: s.ShowMaintenance,
		TaxPercentage:   s.TaxPercentage,
		ShowTax:         s.ShowTax,
	}
}

// FromQuotation builds a record from a quotation
func FromQuotation(q *domain.Quotation) Record {
	return Record{
		Tiles:            q.Tiles,
		Materials:        q.Materials,
		WorkmanshipRate:  q.WorkmanshipRate,
		Maintenance:      q.Maintenance,
		ProfitPercentage: q.ProfitPercentage,
		DiscountType:     domain.DiscountTypeNone,
	}
}

// FromInvoice builds a record from an invoice including its discount
func FromInvoice(inv *domain.Invoice) Record {
	return Record{
		Tiles:            inv.Tiles,
		Materials:        inv.Materials,
		WorkmanshipRate:  inv.WorkmanshipRate,
		Maintenance:      inv.Maintenance,
		ProfitPercentage: inv.ProfitPercentage,
		DiscountType:     inv.DiscountType,
		DiscountValue:    inv.DiscountValue,
	}
}

// Compute derives every total of a record. It does not mutate its input and
// performs no rounding; identical input always yields identical output.
// Negative input is not rejected and flows through the arithmetic.
func Compute(r Record, s Settings) domain.Totals {
	var t domain.Totals

	for _, tile := range r.Tiles {
		t.TotalSqm += tile.Sqm.Float()
		t.TotalTileCost += tile.Cartons.Float() * tile.UnitPrice.Float()
	}
	for _, m := range r.Materials {
		t.TotalMaterialCost += m.Quantity.Float() * m.UnitPrice.Float()
	}

	t.WorkmanshipCost = t.TotalSqm * r.WorkmanshipRate.Float()
	t.WorkmanshipAndMaintenance = t.WorkmanshipCost
	if s.ShowMaintenance {
		t.WorkmanshipAndMaintenance += r.Maintenance.Float()
	}

	t.PreProfitTotal = t.TotalTileCost + t.TotalMaterialCost + t.WorkmanshipAndMaintenance

	// A zero percentage and an absent one both mean no profit line.
	if r.ProfitPercentage != nil {
		if pct := r.ProfitPercentage.Float(); pct != 0 {
			t.ProfitAmount = t.PreProfitTotal * pct / 100
		}
	}
	t.Subtotal = t.PreProfitTotal + t.ProfitAmount

	switch r.DiscountType {
	case domain.DiscountTypePercentage:
		t.DiscountAmount = t.Subtotal * r.DiscountValue.Float() / 100
	case domain.DiscountTypeAmount:
		t.DiscountAmount = r.DiscountValue.Float()
	}
	t.PostDiscountSubtotal = t.Subtotal - t.DiscountAmount

	if s.ShowTax {
		t.TaxAmount = t.PostDiscountSubtotal * s.TaxPercentage.Float() / 100
	}
	t.GrandTotal = t.PostDiscountSubtotal + t.TaxAmount

	return t
}

// ForQuotation is a convenience wrapper around Compute
func ForQuotation(q *domain.Quotation, settings *domain.Settings) domain.Totals {
	return Compute(FromQuotation(q), SettingsFrom(settings))
}

// ForInvoice is a convenience wrapper around Compute
func ForInvoice(inv *domain.Invoice, settings *domain.Settings) domain.Totals {
	return Compute(FromInvoice(inv), SettingsFrom(settings))
}
