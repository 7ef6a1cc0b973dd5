package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes an optional merged title row, a styled header row and the data rows.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	lastCol := colName(len(data.Headers))
	if data.Title != "" {
		if err := f.SetCellValue(sheetName, cell("A", row), data.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		if err := f.MergeCell(sheetName, cell("A", row), cell(lastCol, row)); err != nil {
			return nil, fmt.Errorf("merge title: %w", err)
		}
		row++
	}

	for i, header := range data.Headers {
		if err := f.SetCellValue(sheetName, cell(colName(i+1), row), header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	row++

	for _, values := range data.Rows {
		for i, value := range values {
			if err := f.SetCellValue(sheetName, cell(colName(i+1), row), value); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
		row++
	}

	if err := f.SetColWidth(sheetName, "A", lastCol, 16); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
