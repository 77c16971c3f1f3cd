// Package export renders quotations and invoices as CSV or XLSX documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/pricing"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for unknown export formats
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat maps a query value to a format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Document is the printable view of a quotation or invoice
type Document struct {
	Kind         string // Quotation or Invoice
	Reference    string
	BusinessName string
	Currency     string
	Client       domain.ClientDetails
	IssueDate    string
	DueDate      string
	Status       string
	Tiles        []domain.TileItem
	Materials    []domain.MaterialItem
	Workmanship  domain.Number
	Maintenance  domain.Number
	Totals       domain.Totals
	Terms        string
	BankDetails  string
	Notes        string

	ShowUnitPrice   bool
	ShowTileSize    bool
	ShowSubtotal    bool
	ShowMaintenance bool
	ShowTax         bool
	ShowTerms       bool
	TaxPercentage   domain.Number
}

// FromQuotation builds the document of a quotation with totals under the given settings
func FromQuotation(q *domain.Quotation, s *domain.Settings) Document {
	doc := baseDocument(s)
	doc.Kind = "Quotation"
	doc.Reference = strings.ToUpper(q.ID.String()[:8])
	doc.Client = q.Client
	doc.IssueDate = q.CreatedAt.UTC().Format("2006-01-02")
	doc.Status = string(q.Status)
	doc.Tiles = q.Tiles
	doc.Materials = q.Materials
	doc.Workmanship = q.WorkmanshipRate
	doc.Maintenance = q.Maintenance
	doc.Totals = pricing.ForQuotation(q, s)
	doc.Terms = q.Terms
	return doc
}

// FromInvoice builds the document of an invoice with totals under the given settings
func FromInvoice(inv *domain.Invoice, s *domain.Settings) Document {
	doc := baseDocument(s)
	doc.Kind = "Invoice"
	doc.Reference = inv.InvoiceNumber
	doc.Client = inv.Client
	doc.IssueDate = inv.IssueDate.UTC().Format("2006-01-02")
	doc.DueDate = inv.DueDate.UTC().Format("2006-01-02")
	doc.Status = string(inv.PaymentStatus)
	doc.Tiles = inv.Tiles
	doc.Materials = inv.Materials
	doc.Workmanship = inv.WorkmanshipRate
	doc.Maintenance = inv.Maintenance
	doc.Totals = pricing.ForInvoice(inv, s)
	doc.BankDetails = inv.BankDetails
	doc.Notes = inv.Notes
	doc.Terms = s.DefaultTerms
	return doc
}

func baseDocument(s *domain.Settings) Document {
	return Document{
		BusinessName:    s.BusinessName,
		Currency:        s.Currency,
		ShowUnitPrice:   s.ShowUnitPrice,
		ShowTileSize:    s.ShowTileSize,
		ShowSubtotal:    s.ShowSubtotal,
		ShowMaintenance: s.ShowMaintenance,
		ShowTax:         s.ShowTax,
		ShowTerms:       s.ShowTerms,
		TaxPercentage:   s.TaxPercentage,
	}
}

// Filename returns the attachment name, e.g. invoice-INV-2026-001.xlsx
func (d Document) Filename(f Format) string {
	name := strings.ToLower(d.Kind) + "-" + d.Reference
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + "." + string(f)
}

// Write renders the document in the given format
func Write(w io.Writer, d Document, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, d)
	case FormatXLSX:
		return WriteXLSX(w, d)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// line is one priced row of the document table
type line struct {
	Section     string
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64
	Amount      float64
}

// header pairs a label with its value in the document heading
type header struct {
	Label string
	Value string
}

var tableColumns = []string{"Section", "Description", "Quantity", "Unit", "Unit Price", "Amount"}

func (d Document) headers() []header {
	rows := []header{{d.Kind, d.Reference}}
	if d.BusinessName != "" {
		rows = append([]header{{"Business", d.BusinessName}}, rows...)
	}
	rows = append(rows, header{"Date", d.IssueDate})
	if d.DueDate != "" {
		rows = append(rows, header{"Due Date", d.DueDate})
	}
	rows = append(rows, header{"Status", d.Status})

	c := d.Client
	if c.ShowName && c.Name != "" {
		rows = append(rows, header{"Client", c.Name})
	}
	if c.ShowAddress && c.Address != "" {
		rows = append(rows, header{"Address", c.Address})
	}
	if c.ShowPhone && c.Phone != "" {
		rows = append(rows, header{"Phone", c.Phone})
	}
	if c.ShowProjectName && c.ProjectName != "" {
		rows = append(rows, header{"Project", c.ProjectName})
	}
	if d.Currency != "" {
		rows = append(rows, header{"Currency", d.Currency})
	}
	return rows
}

func (d Document) lines() []line {
	lines := make([]line, 0, len(d.Tiles)+len(d.Materials)+2)
	for _, t := range d.Tiles {
		desc := t.Category
		if d.ShowTileSize && t.Size != "" {
			desc += " (" + t.Size + ")"
		}
		desc += fmt.Sprintf(", %s sqm", formatQuantity(t.Sqm.Float()))
		lines = append(lines, line{
			Section:     "Tiles",
			Description: desc,
			Quantity:    t.Cartons.Float(),
			Unit:        "cartons",
			UnitPrice:   t.UnitPrice.Float(),
			Amount:      t.Cartons.Float() * t.UnitPrice.Float(),
		})
	}
	for _, m := range d.Materials {
		lines = append(lines, line{
			Section:     "Materials",
			Description: m.Name,
			Quantity:    m.Quantity.Float(),
			Unit:        m.Unit,
			UnitPrice:   m.UnitPrice.Float(),
			Amount:      m.Quantity.Float() * m.UnitPrice.Float(),
		})
	}
	lines = append(lines, line{
		Section:     "Labour",
		Description: "Workmanship",
		Quantity:    d.Totals.TotalSqm,
		Unit:        "sqm",
		UnitPrice:   d.Workmanship.Float(),
		Amount:      d.Totals.WorkmanshipCost,
	})
	if d.ShowMaintenance && d.Maintenance.Float() != 0 {
		lines = append(lines, line{
			Section:     "Labour",
			Description: "Maintenance",
			Quantity:    1,
			Unit:        "lump sum",
			UnitPrice:   d.Maintenance.Float(),
			Amount:      d.Maintenance.Float(),
		})
	}
	return lines
}

// summary lists the totals printed under the table. Profit is folded into the subtotal.
func (d Document) summary() []header {
	t := d.Totals
	var rows []header
	if d.ShowSubtotal {
		rows = append(rows, header{"Subtotal", Money(t.Subtotal)})
	}
	if t.DiscountAmount != 0 {
		rows = append(rows, header{"Discount", Money(-t.DiscountAmount)})
		if d.ShowSubtotal {
			rows = append(rows, header{"After Discount", Money(t.PostDiscountSubtotal)})
		}
	}
	if d.ShowTax {
		rows = append(rows, header{fmt.Sprintf("Tax (%s%%)", formatQuantity(d.TaxPercentage.Float())), Money(t.TaxAmount)})
	}
	rows = append(rows, header{"Grand Total", Money(t.GrandTotal)})
	return rows
}

func (d Document) footer() []header {
	var rows []header
	if d.BankDetails != "" {
		rows = append(rows, header{"Bank Details", d.BankDetails})
	}
	if d.Notes != "" {
		rows = append(rows, header{"Notes", d.Notes})
	}
	if d.ShowTerms && d.Terms != "" {
		rows = append(rows, header{"Terms", d.Terms})
	}
	return rows
}

// Money formats an amount with two decimals
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatQuantity(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
