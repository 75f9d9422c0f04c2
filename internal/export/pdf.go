package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"expensetracker/internal/core"
	"expensetracker/internal/viewmodel"
)

// WritePDF renders the report as a one-section A4 document: the month's
// expenses, then the year by category.
func WritePDF(w io.Writer, r viewmodel.Report, username string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Expense report %s %d", r.Month, r.Year), false)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Expense Report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Month: %s %d", r.Month, r.Year))
	pdf.Ln(6)
	if username != "" {
		pdf.Cell(0, 8, tr("User: "+username))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Monthly total: "+core.FormatAmount(r.MonthlyTotal))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	for _, h := range []struct {
		w     float64
		label string
	}{{25, "Date"}, {75, "Description"}, {40, "Category"}, {30, "Amount"}} {
		pdf.CellFormat(h.w, 7, h.label, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 10)
	if len(r.Monthly) == 0 {
		pdf.Cell(0, 7, "No expenses recorded this month.")
		pdf.Ln(7)
	}
	for _, e := range r.Monthly {
		pdf.CellFormat(25, 6, e.Date.DateString(), "", 0, "L", false, 0, "")
		pdf.CellFormat(75, 6, tr(truncate(e.Description, 40)), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, e.Category.Label(), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, core.FormatAmount(e.Amount), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Categories %d", r.Year))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(60, 7, "Category", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Count", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Total", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Average", "B", 0, "R", false, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 10)
	for _, c := range r.Categories {
		pdf.CellFormat(60, 6, c.Category.Label(), "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", c.Count), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, core.FormatAmount(c.Total), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, core.FormatAmount(c.Average), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Yearly total: "+core.FormatAmount(r.YearlyTotal))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Monthly average: "+core.FormatAmount(r.MonthlyAverage))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
