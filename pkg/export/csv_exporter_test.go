package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Student", "Hours"},
		Rows: [][]string{
			{"Jane Doe", "3.92"},
			{"John, Poe", "0.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Student,Hours\nJane Doe,3.92\n\"John, Poe\",0.00\n", string(payload))
	assert.Equal(t, "text/csv", exporter.ContentType())
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	payload, err := exporter.Render(Dataset{
		Title:   "Beach Cleanup - 14 Mar 2026",
		Headers: []string{"Student", "Hours"},
		Rows:    [][]string{{"Jane Doe", "3.92"}},
	})
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}
