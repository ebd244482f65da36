package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "FOI Requests",
		Headers: []string{"id", "requester_name", "description"},
		Rows: []map[string]string{
			{"id": "FOI-2024-001", "requester_name": "John Smith", "description": "records, 2020-2024"},
			{"id": "FOI-2024-002", "requester_name": "Law Firm ABC"},
		},
	}
}

func TestCSVExporterQuotesAndOrdersColumns(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,requester_name,description", lines[0])
	assert.Equal(t, `FOI-2024-001,John Smith,"records, 2020-2024"`, lines[1])
	assert.Equal(t, "FOI-2024-002,Law Firm ABC,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	err := NewCSVExporter().Write(&bytes.Buffer{}, Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRenders(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleDataset())
	require.Len(t, widths, 3)
	sum := 0.0
	for _, w := range widths {
		assert.GreaterOrEqual(t, w, pdfMinColumn)
		sum += w
	}
	assert.InDelta(t, pdfPageWidth, sum, pdfMinColumn)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
