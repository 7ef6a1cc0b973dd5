package export

import "fmt"

// Dataset is tabular export content. Each row holds one cell per header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("%s row %d has %d cells, want %d", kind, i, len(row), len(d.Headers))
		}
	}
	return nil
}
