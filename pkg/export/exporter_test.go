package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Créneau", "Lundi", "Mardi"},
		Rows: []map[string]string{
			{"Créneau": "07h30 – 11h30", "Lundi": "Data Mining (CM)\nSDIA • 3\nLab IA • Dr. J. Ekane"},
			{"Créneau": "12h30 – 16h30"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	assert.Equal(t, "Créneau;Lundi;Mardi", string(lines[0]))
	assert.Contains(t, string(out), `"Data Mining (CM)`)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Emploi du temps")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(7)
	total := 0.0
	for _, w := range widths {
		total += w
	}
	assert.InDelta(t, pageWidthLandscape, total, 0.001)
	assert.Equal(t, firstColumnWidth, widths[0])
}
