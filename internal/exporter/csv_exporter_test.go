package exporter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-filter-go/internal/types"
	"resume-filter-go/internal/utils"
)

var exportTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func makeResult(filename string, score int, applicable bool) *types.AnalysisResult {
	return &types.AnalysisResult{
		Document: types.ParsedDocument{Filename: filename, IsImageBased: !applicable},
		Match: &types.MatchResult{
			Found:      []string{"Go"},
			Missing:    []string{"Rust"},
			Score:      score,
			Applicable: applicable,
		},
		ParsedAt: exportTime,
	}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVExporter_HeaderAndSorting(t *testing.T) {
	e := NewCSVExporter()
	data, err := e.Export([]*types.AnalysisResult{
		makeResult("low.pdf", 33, true),
		makeResult("high.pdf", 100, true),
		makeResult("mid.pdf", 67, true),
	})
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 4)

	assert.Equal(t, []string{
		"Filename", "Score", "UAE Presence", "Total Experience (Years)",
		"Keywords Found", "Keywords Missing", "AI Summary", "Employment History", "Parsed At",
	}, records[0])

	// 分数从高到低
	assert.Equal(t, "high.pdf", records[1][0])
	assert.Equal(t, "mid.pdf", records[2][0])
	assert.Equal(t, "low.pdf", records[3][0])
	assert.Equal(t, "100", records[1][1])
}

func TestCSVExporter_ImageBasedRow(t *testing.T) {
	e := NewCSVExporter()
	scan := &types.AnalysisResult{
		Document: types.ParsedDocument{Filename: "scan.pdf", IsImageBased: true},
		Match:    &types.MatchResult{Found: []string{}, Missing: []string{}, Applicable: false},
		ParsedAt: exportTime,
	}
	data, err := e.Export([]*types.AnalysisResult{scan, makeResult("ok.pdf", 50, true)})
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 3)

	// 扫描件排在有分数的候选人之后
	assert.Equal(t, "ok.pdf", records[1][0])
	assert.Equal(t, "scan.pdf", records[2][0])
	assert.Equal(t, "N/A (Image-based)", records[2][1])
	assert.Equal(t, "Could not process - resume appears to be image-based", records[2][6])
	assert.Equal(t, "N/A", records[2][2])
}

func TestCSVExporter_EmploymentHistoryFormatting(t *testing.T) {
	e := NewCSVExporter()
	r := makeResult("cand.pdf", 80, true)
	r.UAEPresence = utils.BoolPtr(true)
	r.AISummary = utils.StringPtr("Solid candidate.")
	r.Experience = &types.ExperienceSummary{
		Entries: []types.EmploymentEntry{
			{Company: "Acme", Location: "Dubai", Role: "Engineer", StartDate: "Jan 2020", EndDate: "Jan 2022", DurationYears: 2.0},
			{Company: "Globex", Location: "", Role: "Senior Engineer", StartDate: "Feb 2022", EndDate: "Present", DurationYears: 1.5},
		},
		TotalExperienceYears: 3.5,
	}

	data, err := e.Export([]*types.AnalysisResult{r})
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 2)
	row := records[1]

	assert.Equal(t, "Yes", row[2])
	assert.Equal(t, "3.5", row[3])
	assert.Equal(t, "Solid candidate.", row[6])

	historyLines := strings.Split(row[7], "\n")
	require.Len(t, historyLines, 3)
	assert.Equal(t, "1- Acme - Dubai - Engineer (Jan 2020 - Jan 2022) [2 yrs]", historyLines[0])
	assert.Equal(t, "2- Globex -  - Senior Engineer (Feb 2022 - Present) [1.5 yrs]", historyLines[1])
	assert.Equal(t, "Total: 3.5 years", historyLines[2])

	assert.Equal(t, "2024-03-15 10:30:00", row[8])
}

func TestCSVExporter_EmptyInput(t *testing.T) {
	e := NewCSVExporter()
	data, err := e.Export(nil)
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 1)
}
