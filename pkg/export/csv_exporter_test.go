package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Company Name", "Status"},
		Rows: [][]string{
			{"Acme Corp", "confirmed"},
			{"Borealis", "pending"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Company Name,Status\nAcme Corp,confirmed\nBorealis,pending\n", string(out))
}

func TestCSVExporterQuotesSpecialCharacters(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Company Name"},
		Rows: [][]string{
			{`Acme "Prime" Inc, LLC`},
			{"Line\nBreak Co"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Company Name\n\"Acme \"\"Prime\"\" Inc, LLC\"\n\"Line\nBreak Co\"\n", string(out))
}

func TestCSVExporterEmptyCellsStayEmpty(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"1", "", "3"}},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "A,B,C\n1,,3\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"only one"}},
	}

	_, err := exporter.Render(data)
	assert.Error(t, err)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterHeaderOnly(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{Headers: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, "A,B\n", string(out))
}
