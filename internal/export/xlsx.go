// Package export renders the reports page as downloadable spreadsheets and
// PDF documents.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/viewmodel"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

var amountFormat = "#,##0.00"

// Filename names an export of r, e.g. expenses-2025-03.xlsx.
func Filename(r viewmodel.Report, ext string) string {
	return fmt.Sprintf("expenses-%04d-%02d.%s", r.Year, int(r.Month), ext)
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

type sheetStyles struct {
	header, text, amount, total, totalAmount int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	}); err != nil {
		return s, err
	}
	if s.text, err = f.NewStyle(&excelize.Style{Border: border()}); err != nil {
		return s, err
	}
	if s.amount, err = f.NewStyle(&excelize.Style{Border: border(), CustomNumFmt: &amountFormat}); err != nil {
		return s, err
	}
	summary := excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true}, Fill: summary, Border: border(),
	}); err != nil {
		return s, err
	}
	s.totalAmount, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true}, Fill: summary, Border: border(), CustomNumFmt: &amountFormat,
	})
	return s, err
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX writes a workbook with the month's expenses on the first sheet
// and the year's category breakdown on the second.
func WriteXLSX(w io.Writer, r viewmodel.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	monthSheet := fmt.Sprintf("%s %d", r.Month, r.Year)
	if err := f.SetSheetName("Sheet1", monthSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeMonthSheet(f, monthSheet, styles, r); err != nil {
		return fmt.Errorf("write monthly sheet: %w", err)
	}

	yearSheet := fmt.Sprintf("Categories %d", r.Year)
	if _, err := f.NewSheet(yearSheet); err != nil {
		return fmt.Errorf("add category sheet: %w", err)
	}
	if err := writeCategorySheet(f, yearSheet, styles, r); err != nil {
		return fmt.Errorf("write category sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeMonthSheet(f *excelize.File, sheet string, st sheetStyles, r viewmodel.Report) error {
	widths := map[string]float64{"A": 8, "B": 14, "C": 32, "D": 16, "E": 14, "F": 12, "G": 10}
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	if err := writeHeader(f, sheet, st.header,
		[]string{"ID", "Date", "Description", "Category", "Payment", "Amount", "Recurring"}); err != nil {
		return err
	}

	for i, e := range r.Monthly {
		row := i + 2
		recurring := "No"
		if e.IsRecurring {
			recurring = "Yes"
		}
		values := []any{e.ID, e.Date.DateString(), e.Description, e.Category.Label(),
			e.PaymentMethod.Label(), e.Amount.InexactFloat64(), recurring}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), st.text); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), st.amount); err != nil {
			return err
		}
	}

	total := len(r.Monthly) + 2
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", total), "Total"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, fmt.Sprintf("A%d", total), fmt.Sprintf("E%d", total)); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("F%d", total), r.MonthlyTotal.InexactFloat64()); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("G%d", total), fmt.Sprintf("%d items", len(r.Monthly))); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", total), fmt.Sprintf("G%d", total), st.total); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("F%d", total), fmt.Sprintf("F%d", total), st.totalAmount)
}

func writeCategorySheet(f *excelize.File, sheet string, st sheetStyles, r viewmodel.Report) error {
	if err := f.SetColWidth(sheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "D", 14); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, st.header, []string{"Category", "Count", "Total", "Average"}); err != nil {
		return err
	}
	for i, c := range r.Categories {
		row := i + 2
		values := []any{c.Category.Label(), c.Count, c.Total.InexactFloat64(), c.Average.Round(2).InexactFloat64()}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), st.text); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row), st.amount); err != nil {
			return err
		}
	}

	row := len(r.Categories) + 2
	summary := [][]any{
		{"Yearly total", r.YearlyCount, r.YearlyTotal.InexactFloat64(), ""},
		{"Monthly average", "", r.MonthlyAverage.Round(2).InexactFloat64(), ""},
	}
	for i, values := range summary {
		cell := fmt.Sprintf("A%d", row+i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("D%d", row+i), st.total); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("C%d", row+i), fmt.Sprintf("C%d", row+i), st.totalAmount); err != nil {
			return err
		}
	}
	return nil
}
