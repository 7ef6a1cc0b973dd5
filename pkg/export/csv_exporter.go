package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVExporter renders datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) ContentType() string { return "text/csv" }
func (e *CSVExporter) Extension() string   { return "csv" }

// Render produces CSV bytes; the title is not part of the output. Cells that a
// spreadsheet would evaluate as a formula are prefixed with a quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for i, row := range data.Rows {
		for j, cell := range row {
			record[j] = neutralizeFormula(cell)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralizeFormula(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '@', '\t', '\r':
		return "'" + cell
	case '-':
		if len(cell) > 1 && !strings.ContainsRune("0123456789.", rune(cell[1])) {
			return "'" + cell
		}
	}
	return cell
}
