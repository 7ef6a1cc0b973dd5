package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a landscape A4 table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }
func (e *PDFExporter) Extension() string   { return "pdf" }

// Render writes the title followed by a bordered table; the first column is twice as wide.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(277, len(data.Headers))
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range data.Rows {
		for i, cell := range row {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(total float64, columns int) []float64 {
	widths := make([]float64, columns)
	if columns == 1 {
		widths[0] = total
		return widths
	}
	unit := total / float64(columns+1)
	for i := range widths {
		widths[i] = unit
	}
	widths[0] = unit * 2
	return widths
}
