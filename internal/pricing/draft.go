package pricing

import (
	"math"
	"strings"

	"github.com/tilequote/quote-api/internal/domain"
)

// NormalizeDraft fills the gaps of an extracted draft from the settings.
// Missing carton counts are derived from area with the wastage factor, missing
// areas from carton coverage, and zero prices take the configured defaults.
// The input draft is not modified.
func NormalizeDraft(d domain.QuotationDraft, s *domain.Settings) domain.QuotationDraft {
	out := d
	wastage := s.WastageFactor.Float()
	if wastage <= 0 {
		wastage = 1
	}

	out.Tiles = make([]domain.TileItem, len(d.Tiles))
	for i, tile := range d.Tiles {
		tile.Classification = domain.ParseTileClassification(string(tile.Classification))
		rate := s.RateFor(tile.Classification)
		coverage := rate.SqmPerCarton.Float()

		sqm := tile.Sqm.Float()
		cartons := tile.Cartons.Float()
		if cartons == 0 && sqm > 0 && coverage > 0 {
			tile.Cartons = domain.Number(math.Ceil(sqm * wastage / coverage))
		}
		if sqm == 0 && cartons > 0 {
			tile.Sqm = domain.Number(cartons * coverage)
		}
		if tile.UnitPrice.Float() == 0 {
			tile.UnitPrice = rate.PricePerCarton
		}
		if strings.TrimSpace(tile.Category) == "" {
			tile.Category = string(tile.Classification) + " tiles"
		}
		out.Tiles[i] = tile
	}

	out.Materials = make([]domain.MaterialItem, len(d.Materials))
	for i, m := range d.Materials {
		if m.UnitPrice.Float() == 0 {
			m.UnitPrice = defaultMaterialPrice(m.Name, s)
		}
		out.Materials[i] = m
	}

	out.Checklist = append([]domain.ChecklistItem{}, d.Checklist...)

	if out.WorkmanshipRate.Float() == 0 {
		out.WorkmanshipRate = s.WorkmanshipRate
	}
	if strings.TrimSpace(out.Terms) == "" && s.ShowTerms {
		out.Terms = s.DefaultTerms
	}
	return out
}

func defaultMaterialPrice(name string, s *domain.Settings) domain.Number {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(n, "white cement"):
		return s.WhiteCementPrice
	case strings.Contains(n, "cement"):
		return s.CementPrice
	case strings.Contains(n, "sand"):
		return s.SandPrice
	}
	return 0
}
