package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the heading, the priced table and the totals as CSV
func WriteCSV(w io.Writer, d Document) error {
	writer := csv.NewWriter(w)

	for _, h := range d.headers() {
		writer.Write([]string{h.Label, h.Value})
	}
	writer.Write([]string{})

	writer.Write(tableColumns)
	for _, l := range d.lines() {
		unitPrice := ""
		if d.ShowUnitPrice {
			unitPrice = Money(l.UnitPrice)
		}
		writer.Write([]string{l.Section, l.Description, formatQuantity(l.Quantity), l.Unit, unitPrice, Money(l.Amount)})
	}
	writer.Write([]string{})

	for _, s := range d.summary() {
		writer.Write([]string{s.Label, s.Value})
	}

	if footer := d.footer(); len(footer) > 0 {
		writer.Write([]string{})
		for _, f := range footer {
			writer.Write([]string{f.Label, f.Value})
		}
	}

	writer.Flush()
	return writer.Error()
}
