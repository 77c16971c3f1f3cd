package extraction

import (
	"fmt"
	"strings"

	"github.com/tilequote/quote-api/internal/domain"
)

// SystemPrompt describes the draft shape and embeds the business defaults
func SystemPrompt(s *domain.Settings) string {
	var b strings.Builder

	b.WriteString("You read a tiling contractor's job notes and return a quotation draft as JSON.\n")
	b.WriteString("Respond with a single JSON object with these keys:\n")
	b.WriteString(`clientDetails {name, address, phone, projectName}; `)
	b.WriteString(`tiles [{category, sqm, cartons, classification, unitPrice, size}]; `)
	b.WriteString(`materials [{name, quantity, unit, unitPrice}]; `)
	b.WriteString(`workmanshipRate; maintenance; profitPercentage (null if not mentioned); `)
	b.WriteString(`checklist [{label, done}]; terms.` + "\n")
	b.WriteString("classification is one of Wall, Floor, External Wall, Step. ")
	b.WriteString("Use 0 for any number that is not stated; do not invent measurements.\n")

	if s != nil {
		currency := s.Currency
		if currency == "" {
			currency = "NGN"
		}
		fmt.Fprintf(&b, "Prices are in %s. Defaults when a price is not stated:\n", currency)
		writeRate(&b, domain.TileWall, s.Wall)
		writeRate(&b, domain.TileFloor, s.Floor)
		writeRate(&b, domain.TileExternalWall, s.ExternalWall)
		writeRate(&b, domain.TileStep, s.Step)
		fmt.Fprintf(&b, "- cement %s per bag, white cement %s per bag, sand %s per trip\n",
			formatNumber(s.CementPrice), formatNumber(s.WhiteCementPrice), formatNumber(s.SandPrice))
		fmt.Fprintf(&b, "- workmanship %s per sqm; wastage factor %s\n",
			formatNumber(s.WorkmanshipRate), formatNumber(s.WastageFactor))
	}
	return b.String()
}

func writeRate(b *strings.Builder, c domain.TileClassification, r domain.TileRate) {
	fmt.Fprintf(b, "- %s tiles %s per carton covering %s sqm\n", c, formatNumber(r.PricePerCarton), formatNumber(r.SqmPerCarton))
}

func formatNumber(n domain.Number) string {
	return fmt.Sprintf("%g", n.Float())
}
