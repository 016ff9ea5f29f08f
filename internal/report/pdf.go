// Package report writes the distributable monthly brief files: a PDF
// situation report and a CSV of the most stressed basins.
package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/briefgen"
)

const thresholdLegend = "alert <= -1.0   |   watch <= -0.5   |   otherwise normal"

// WritePDF renders the monthly brief to path. The narrative paragraph is
// optional and omitted when empty.
func WritePDF(path string, s briefgen.Summary, narrative string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("AquiferPulse brief "+s.Month[:7], false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 10, "AquiferPulse")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 8, fmt.Sprintf("Aquifer Stress Index, Senegal - %s", s.Month[:7]))
	pdf.Ln(14)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Basin classification")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	counts := []struct {
		label   string
		n       int
		r, g, b int
	}{
		{"alert", s.Counts.Alert, 214, 58, 47},
		{"watch", s.Counts.Watch, 232, 168, 51},
		{"normal", s.Counts.Normal, 63, 142, 90},
		{"no data", s.Counts.NoData, 85, 96, 106},
	}
	for _, c := range counts {
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.CellFormat(5, 5, "", "", 0, "", true, 0, "")
		pdf.CellFormat(40, 5, fmt.Sprintf(" %s", c.label), "", 0, "", false, 0, "")
		pdf.CellFormat(20, 5, fmt.Sprintf("%d", c.n), "", 1, "R", false, 0, "")
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, thresholdLegend)
	pdf.Ln(12)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Most stressed basins")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	if len(s.Top) == 0 {
		pdf.Cell(0, 6, "No basins with index coverage this month.")
		pdf.Ln(7)
	}
	for i, t := range s.Top {
		pdf.CellFormat(10, 6, fmt.Sprintf("%d.", i+1), "", 0, "", false, 0, "")
		pdf.CellFormat(90, 6, t.Name, "", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.3f", t.ASI), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, t.Class, "", 1, "R", false, 0, "")
	}

	if narrative != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Situation")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, narrative, "", "", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
