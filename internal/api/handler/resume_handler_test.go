package handler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-filter-go/internal/analyzer"
	"resume-filter-go/internal/config"
	"resume-filter-go/internal/types"
)

// scriptedExtractor 按文件名返回预置文本的提取器
type scriptedExtractor struct {
	texts      map[string]string
	imageBased map[string]bool
}

func (s *scriptedExtractor) Parse(ctx context.Context, filename string, content []byte, declaredType types.FileType) (*types.ParsedDocument, error) {
	return &types.ParsedDocument{
		Filename:     filename,
		RawText:      s.texts[filename],
		PageCount:    1,
		IsImageBased: s.imageBased[filename],
	}, nil
}

func newTestHandler(t *testing.T, extractor analyzer.TextExtractor) *ResumeHandler {
	t.Helper()
	ba, err := analyzer.NewBatchAnalyzer(
		[]analyzer.ComponentOpt{analyzer.WithcompExtractor(extractor)},
		analyzer.WithsetWorkerCount(1),
	)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Analyzer.MinKeywordScore = 50
	return NewResumeHandler(cfg, nil, ba, nil)
}

func TestHandleFilterResumes_ThresholdSplitsValidAndRejected(t *testing.T) {
	extractor := &scriptedExtractor{texts: map[string]string{
		"strong.pdf": "Expert in Python, SQL and Docker deployments.",
		"weak.pdf":   "Some Python experience only.",
	}}
	h := newTestHandler(t, extractor)

	resp, err := h.HandleFilterResumes(context.Background(), &FilterRequest{
		Documents: []types.InputDocument{
			{Filename: "weak.pdf", Content: []byte("w"), DeclaredType: types.FileTypePDF},
			{Filename: "strong.pdf", Content: []byte("s"), DeclaredType: types.FileTypePDF},
		},
		Spec:     types.KeywordSpec{Keywords: []string{"Python", "SQL", "Docker"}},
		MinScore: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalResumes)
	assert.Equal(t, 1, resp.ValidCandidates)
	assert.Equal(t, 1, resp.RejectedCandidates)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "strong.pdf", resp.Candidates[0].Document.Filename)
	assert.Equal(t, 100, resp.Candidates[0].Match.Score)
}

func TestHandleFilterResumes_CandidatesSortedByScoreDesc(t *testing.T) {
	extractor := &scriptedExtractor{texts: map[string]string{
		"a.pdf": "Python only here.",
		"b.pdf": "Python and SQL both present.",
		"c.pdf": "Python SQL Docker all covered.",
	}}
	h := newTestHandler(t, extractor)

	resp, err := h.HandleFilterResumes(context.Background(), &FilterRequest{
		Documents: []types.InputDocument{
			{Filename: "a.pdf", Content: []byte("a"), DeclaredType: types.FileTypePDF},
			{Filename: "c.pdf", Content: []byte("c"), DeclaredType: types.FileTypePDF},
			{Filename: "b.pdf", Content: []byte("b"), DeclaredType: types.FileTypePDF},
		},
		Spec:     types.KeywordSpec{Keywords: []string{"Python", "SQL", "Docker"}},
		MinScore: 30,
	})
	require.NoError(t, err)

	require.Len(t, resp.Candidates, 3)
	assert.Equal(t, "c.pdf", resp.Candidates[0].Document.Filename)
	assert.Equal(t, "b.pdf", resp.Candidates[1].Document.Filename)
	assert.Equal(t, "a.pdf", resp.Candidates[2].Document.Filename)
	assert.True(t, resp.Candidates[0].Match.Score >= resp.Candidates[1].Match.Score)
	assert.True(t, resp.Candidates[1].Match.Score >= resp.Candidates[2].Match.Score)
}

func TestHandleFilterResumes_ImageBasedAlwaysRejected(t *testing.T) {
	extractor := &scriptedExtractor{
		texts:      map[string]string{"scan.pdf": ""},
		imageBased: map[string]bool{"scan.pdf": true},
	}
	h := newTestHandler(t, extractor)

	resp, err := h.HandleFilterResumes(context.Background(), &FilterRequest{
		Documents: []types.InputDocument{
			{Filename: "scan.pdf", Content: []byte("x"), DeclaredType: types.FileTypePDF},
		},
		Spec:     types.KeywordSpec{Keywords: []string{"Python"}},
		MinScore: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.ValidCandidates)
	assert.Equal(t, 1, resp.RejectedCandidates)
	assert.Equal(t, "No valid candidates found - CSV not generated", resp.CSVFilePath)
}

func TestHandleFilterResumes_ZeroMinScoreUsesConfigDefault(t *testing.T) {
	extractor := &scriptedExtractor{texts: map[string]string{
		"weak.pdf": "Just Python here.",
	}}
	h := newTestHandler(t, extractor) // 配置默认阈值50

	resp, err := h.HandleFilterResumes(context.Background(), &FilterRequest{
		Documents: []types.InputDocument{
			{Filename: "weak.pdf", Content: []byte("w"), DeclaredType: types.FileTypePDF},
		},
		Spec: types.KeywordSpec{Keywords: []string{"Python", "SQL", "Docker"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.ValidCandidates)
	assert.Equal(t, 1, resp.RejectedCandidates)
}

func TestHandleFilterResumes_MissingKeywordSpec(t *testing.T) {
	h := newTestHandler(t, &scriptedExtractor{texts: map[string]string{}})

	_, err := h.HandleFilterResumes(context.Background(), &FilterRequest{
		Documents: []types.InputDocument{
			{Filename: "a.pdf", Content: []byte("a"), DeclaredType: types.FileTypePDF},
		},
		Spec: types.KeywordSpec{},
	})
	assert.ErrorIs(t, err, analyzer.ErrMissingKeywordSpec)
}

func TestBuildSummaryTask_CarriesRecordIDAndTruncates(t *testing.T) {
	result := &types.AnalysisResult{
		Document: types.ParsedDocument{
			Filename: "cv.pdf",
			RawText:  strings.Repeat("x", 5000),
		},
		Match: &types.MatchResult{
			Found:      []string{"Python"},
			Missing:    []string{"SQL"},
			Score:      67,
			Applicable: true,
		},
	}

	task := buildSummaryTask(result, "abc123", "rec-42", 3000)

	assert.Equal(t, "rec-42", task.RecordID)
	assert.Equal(t, "abc123", task.FileMD5)
	assert.Equal(t, "cv.pdf", task.Filename)
	assert.Len(t, task.ResumeText, 3000)
	assert.Equal(t, []string{"Python"}, task.Found)
	assert.Equal(t, []string{"SQL"}, task.Missing)
	assert.Equal(t, 67, task.Score)
}
