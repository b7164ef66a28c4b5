package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter constructs a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the headers and rows into a CSV document.
func (e *CSVExporter) Render(dataset Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if len(dataset.Headers) > 0 {
		if err := w.Write(dataset.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
	}
	for i, row := range dataset.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType returns the MIME type for CSV downloads.
func (e *CSVExporter) ContentType() string {
	return "text/csv"
}

// FileExtension returns the file extension without the dot.
func (e *CSVExporter) FileExtension() string {
	return "csv"
}
