package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Semester 5 attendance",
		Headers: []string{"Code", "Subject", "Official %"},
		Rows: [][]string{
			{"CS101", "Algorithms", "80.00"},
			{"MA201", "Linear Algebra", "N/A"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Code,Subject,Official %\nCS101,Algorithms,80.00\nMA201,Linear Algebra,N/A\n", string(out))
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Subject", "Delta"},
		Rows: [][]string{
			{"=HYPERLINK(\"x\")", "-2"},
			{"@SUM(A1)", "-x"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Subject,Delta\n\"'=HYPERLINK(\"\"x\"\")\",-2\n'@SUM(A1),'-x\n", string(out))
}

func TestExportersRejectRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"only-one"})

	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(data)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(data)
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Semester 5 attendance", title)
	header, err := f.GetCellValue(sheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Subject", header)
	value, err := f.GetCellValue(sheetName, "C4")
	require.NoError(t, err)
	assert.Equal(t, "N/A", value)
}

func TestICSExporterRender(t *testing.T) {
	exporter := NewICSExporter("")
	exporter.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

	out, err := exporter.Render("Semester 5", []CalendarEvent{{
		UID:     "2024-01-08-sub-1@attendance",
		Summary: "CS101 Algorithms",
		Start:   start,
		End:     start.Add(90 * time.Minute),
	}})
	require.NoError(t, err)
	body := string(out)
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "SUMMARY:CS101 Algorithms")
	assert.Contains(t, body, "DTSTART:20240108T090000Z")

	_, err = exporter.Render("bad", []CalendarEvent{{UID: "x", Start: start, End: start.Add(-time.Hour)}})
	assert.Error(t, err)
}
