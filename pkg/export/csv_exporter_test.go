package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRenderSheet(t *testing.T) {
	sheet := Sheet{
		Headers: []string{"Date", "Subject", "Title"},
		Rows: []map[string]string{
			{"Date": "2026-03-02", "Subject": "Physics", "Title": "Mechanics review"},
			{"Date": "2026-03-03", "Subject": "Chemistry"},
		},
	}

	out, err := NewCSVExporter().Render(sheet)
	require.NoError(t, err)

	expected := "Date,Subject,Title\n" +
		"2026-03-02,Physics,Mechanics review\n" +
		"2026-03-03,Chemistry,\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Sheet{})
	assert.Error(t, err)
}
