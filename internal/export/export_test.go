package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/export"
	"github.com/xuri/excelize/v2"
)

func testInvoice() *domain.Invoice {
	return &domain.Invoice{
		BaseModel:     domain.BaseModel{ID: uuid.New()},
		InvoiceNumber: "INV-2026-004",
		IssueDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		PaymentStatus: domain.PaymentStatusUnpaid,
		Client: domain.ClientDetails{
			Name: "Ada Okafor", Phone: "+2348012345678", Address: "12 Admiralty Way",
			ShowName: true, ShowPhone: false, ShowAddress: true,
		},
		Tiles: []domain.TileItem{
			{Category: "Floor tiles", Sqm: 15, Cartons: 10, UnitPrice: 5600, Size: "60x60", Classification: domain.TileFloor},
		},
		Materials:       []domain.MaterialItem{},
		WorkmanshipRate: 1700,
		Maintenance:     50000,
		DiscountType:    domain.DiscountTypePercentage,
		DiscountValue:   10,
		BankDetails:     "GTBank 0123456789",
	}
}

func readCSV(t *testing.T, data []byte) map[string][]string {
	t.Helper()
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	byLabel := map[string][]string{}
	for _, r := range records {
		if len(r) > 0 && r[0] != "" {
			byLabel[r[0]] = r
		}
	}
	return byLabel
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected export.Format
		wantErr  bool
	}{
		{"", export.FormatCSV, false},
		{"CSV", export.FormatCSV, false},
		{"xlsx", export.FormatXLSX, false},
		{"excel", export.FormatXLSX, false},
		{"pdf", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			f, err := export.ParseFormat(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f)
		})
	}
}

func TestWriteCSV_Invoice(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ShowTax = true
	doc := export.FromInvoice(testInvoice(), &settings)

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, doc))
	rows := readCSV(t, buf.Bytes())

	assert.Equal(t, "INV-2026-004", rows["Invoice"][1])
	assert.Equal(t, "2026-03-31", rows["Due Date"][1])
	assert.Equal(t, "Ada Okafor", rows["Client"][1])
	assert.Equal(t, "12 Admiralty Way", rows["Address"][1])
	assert.NotContains(t, rows, "Phone")

	assert.Equal(t, "131500.00", rows["Subtotal"][1])
	assert.Equal(t, "-13150.00", rows["Discount"][1])
	assert.Equal(t, "8876.25", rows["Tax (7.5%)"][1])
	assert.Equal(t, "127226.25", rows["Grand Total"][1])
	assert.Equal(t, "GTBank 0123456789", rows["Bank Details"][1])

	assert.Equal(t, []string{"Tiles", "Floor tiles (60x60), 15 sqm", "10", "cartons", "5600.00", "56000.00"}, rows["Tiles"])
	assert.Equal(t, "25500.00", rows["Labour"][5])
}

func TestWriteCSV_HidesUnitPricesAndMaintenance(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ShowUnitPrice = false
	settings.ShowMaintenance = false

	q := &domain.Quotation{
		BaseModel:       domain.BaseModel{ID: uuid.New(), CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)},
		Status:          domain.QuotationStatusPending,
		Tiles:           []domain.TileItem{{Category: "Wall", Sqm: 15, Cartons: 10, UnitPrice: 5600}},
		WorkmanshipRate: 1700,
		Maintenance:     50000,
	}
	doc := export.FromQuotation(q, &settings)

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, doc))
	out := buf.String()

	assert.NotContains(t, out, "Maintenance")
	assert.NotContains(t, out, "5600.00")
	assert.Contains(t, out, "Grand Total,81500.00")
	assert.Equal(t, "2026-02-01", doc.IssueDate)
}

func TestWriteXLSX_Invoice(t *testing.T) {
	settings := domain.DefaultSettings()
	doc := export.FromInvoice(testInvoice(), &settings)

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, doc, export.FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoice")
	require.NoError(t, err)

	var grand string
	for _, r := range rows {
		if len(r) >= 6 && r[4] == "Grand Total" {
			grand = r[5]
		}
	}
	assert.Equal(t, "118350.00", grand)
}

func TestDocument_Filename(t *testing.T) {
	settings := domain.DefaultSettings()
	doc := export.FromInvoice(testInvoice(), &settings)

	assert.Equal(t, "invoice-INV-2026-004.xlsx", doc.Filename(export.FormatXLSX))
	assert.Equal(t, "text/csv; charset=utf-8", export.FormatCSV.ContentType())
}
