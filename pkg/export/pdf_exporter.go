package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 190.0

// PDFExporter renders datasets as a single-table A4 document.
type PDFExporter struct {
	orientation string
}

// NewPDFExporter constructs a PDF exporter. Wide tables switch to landscape.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{orientation: "P"}
}

// ContentType reports the MIME type of rendered documents.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension reports the file extension of rendered documents.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render lays out the title, summary block and table.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := e.orientation
	width := pageWidth
	if len(data.Headers) > 6 {
		orientation = "L"
		width = 277
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	if len(data.Summary) > 0 {
		pdf.SetFont("Arial", "", 10)
		for _, kv := range data.Summary {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(50, 6, tr(kv.Key), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 6, tr(kv.Value), "", 1, "", false, 0, "")
		}
		pdf.Ln(4)
	}

	colWidth := width / float64(len(data.Headers))
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-15 {
			pdf.AddPage()
			header()
		}
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[h]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
