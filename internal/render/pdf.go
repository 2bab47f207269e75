package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfPageWidth = 190.0 // A4 printable width in mm
	pdfRowHeight = 7.0
)

func renderPDF(doc *document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(pdfPageWidth, 10, doc.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	subtitle := fmt.Sprintf("%s - generated %s", doc.TypeLabel, doc.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 MST"))
	pdf.CellFormat(pdfPageWidth, 6, subtitle, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if len(doc.Summary) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(pdfPageWidth, 8, "Summary", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, item := range doc.Summary {
			pdf.CellFormat(70, 6, item.Label, "", 0, "L", false, 0, "")
			pdf.CellFormat(pdfPageWidth-70, 6, item.Value, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(doc.Headers) > 0 {
		rows := doc.Rows
		truncated := false
		if len(rows) > pdfRowCap {
			rows = rows[:pdfRowCap]
			truncated = true
		}

		colWidth := pdfPageWidth / float64(len(doc.Headers))

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range doc.Headers {
			pdf.CellFormat(colWidth, pdfRowHeight, header, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, row := range rows {
			for _, cell := range row {
				pdf.CellFormat(colWidth, pdfRowHeight, cell, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}

		if truncated {
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "I", 9)
			note := fmt.Sprintf("Showing first %d of %d records", pdfRowCap, doc.TotalRows)
			pdf.CellFormat(pdfPageWidth, 6, note, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	return buf.Bytes(), nil
}
