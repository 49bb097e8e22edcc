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
		Title:   "Inventory",
		Headers: []string{"name", "category", "available_quantity"},
		Rows: []map[string]string{
			{"name": "Soccer Ball", "category": "Balls", "available_quantity": "3"},
			{"name": "Cone, orange", "category": "Training", "available_quantity": "20"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,category,available_quantity", lines[0])
	assert.Equal(t, "Soccer Ball,Balls,3", lines[1])
	assert.Equal(t, `"Cone, orange",Training,20`, lines[2])
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"notes", "delta"},
		Rows: []map[string]string{
			{"notes": "=HYPERLINK(\"http://x\")", "delta": "-3"},
			{"notes": "@SUM(A1)", "delta": "+2.5"},
			{"notes": "-rm", "delta": ""},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"'=HYPERLINK(""http://x"")",-3`, lines[1])
	assert.Equal(t, "'@SUM(A1),+2.5", lines[2])
	assert.Equal(t, "'-rm,", lines[3])
}

func TestCSVExporterWithBOM(t *testing.T) {
	out, err := NewCSVExporter(WithBOM()).Render(Dataset{Headers: []string{"instructor"}, Rows: []map[string]string{{"instructor": "Begoña"}}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Contains(t, string(out), "Begoña")

	plain, err := NewCSVExporter().Render(Dataset{Headers: []string{"instructor"}})
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(plain, utf8BOM))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterWideDatasetAndEmptyRows(t *testing.T) {
	data := Dataset{Headers: []string{"a", "b", "c", "d", "e", "f", "g"}}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
