package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const moneyFormat = 4 // #,##0.00

// WriteXLSX writes the document as a single-sheet workbook
func WriteXLSX(w io.Writer, d Document) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := d.Kind
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	labelStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})

	row := 1
	set := func(col int, value interface{}, style int) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(sheetName, cell, value)
		if style != 0 {
			f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	for i, h := range d.headers() {
		style := labelStyle
		if i == 0 {
			style = titleStyle
		}
		set(1, h.Label, style)
		set(2, h.Value, 0)
		row++
	}
	row++

	for col, label := range tableColumns {
		set(col+1, label, headerStyle)
	}
	row++

	for _, l := range d.lines() {
		set(1, l.Section, 0)
		set(2, l.Description, 0)
		set(3, l.Quantity, 0)
		set(4, l.Unit, 0)
		if d.ShowUnitPrice {
			set(5, l.UnitPrice, moneyStyle)
		}
		set(6, l.Amount, moneyStyle)
		row++
	}
	row++

	for _, s := range d.summary() {
		set(5, s.Label, totalStyle)
		set(6, s.Value, totalStyle)
		row++
	}

	if footer := d.footer(); len(footer) > 0 {
		row++
		for _, h := range footer {
			set(1, h.Label, labelStyle)
			set(2, h.Value, 0)
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "D", 12)
	f.SetColWidth(sheetName, "E", "F", 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
