package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-filter-go/internal/types"
)

// MockTextExtractor 模拟文本提取器
// 按文件名指定提取结果，未配置的文件名返回defaultText
type MockTextExtractor struct {
	texts       map[string]string
	imageBased  map[string]bool
	failOn      map[string]error
	defaultText string
	delay       time.Duration
}

func (m *MockTextExtractor) Parse(ctx context.Context, filename string, content []byte, declaredType types.FileType) (*types.ParsedDocument, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.failOn[filename]; ok {
		return nil, err
	}
	text := m.defaultText
	if t, ok := m.texts[filename]; ok {
		text = t
	}
	return &types.ParsedDocument{
		Filename:     filename,
		RawText:      text,
		IsImageBased: m.imageBased[filename],
		PageCount:    1,
	}, nil
}

// MockHistoryExtractor 模拟工作经历抽取器
type MockHistoryExtractor struct {
	summary *types.ExperienceSummary
}

func (m *MockHistoryExtractor) ExtractHistory(ctx context.Context, text string, now time.Time) *types.ExperienceSummary {
	if m.summary != nil {
		return m.summary
	}
	return &types.ExperienceSummary{Entries: []types.EmploymentEntry{}}
}

// MockPresenceDetector 模拟地域信号探测器
type MockPresenceDetector struct {
	present bool
}

func (m *MockPresenceDetector) Detect(text string) bool {
	return m.present
}

func newTestAnalyzer(t *testing.T, extractor TextExtractor, setOpts ...SettingOpt) *BatchAnalyzer {
	t.Helper()
	opts := append([]SettingOpt{
		WithsetLogger(zerolog.Nop()),
		WithsetClock(func() time.Time { return testNow }),
	}, setOpts...)
	ba, err := NewBatchAnalyzer([]ComponentOpt{
		WithcompExtractor(extractor),
		WithcompMatcher(NewKeywordMatcher()),
		WithcompHistory(&MockHistoryExtractor{}),
		WithcompPresence(&MockPresenceDetector{present: true}),
	}, opts...)
	require.NoError(t, err)
	return ba
}

func TestAnalyzeBatch_OrderPreserved(t *testing.T) {
	extractor := &MockTextExtractor{
		texts: map[string]string{
			"a.pdf": "Python developer",
			"b.pdf": "Go developer",
			"c.pdf": "Python and Go developer",
		},
	}
	ba := newTestAnalyzer(t, extractor, WithsetWorkerCount(3))

	req := &types.AnalyzeBatchRequest{
		Documents: []types.InputDocument{
			{Filename: "a.pdf", DeclaredType: types.FileTypePDF},
			{Filename: "b.pdf", DeclaredType: types.FileTypePDF},
			{Filename: "c.pdf", DeclaredType: types.FileTypePDF},
		},
		Spec: types.KeywordSpec{Keywords: []string{"Python", "Go"}},
	}

	resp, err := ba.AnalyzeBatch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	// 结果顺序与输入顺序一致，与完成先后无关
	assert.Equal(t, "a.pdf", resp.Results[0].Document.Filename)
	assert.Equal(t, "b.pdf", resp.Results[1].Document.Filename)
	assert.Equal(t, "c.pdf", resp.Results[2].Document.Filename)
	assert.Equal(t, 50, resp.Results[0].Match.Score)
	assert.Equal(t, 50, resp.Results[1].Match.Score)
	assert.Equal(t, 100, resp.Results[2].Match.Score)
}

func TestAnalyzeBatch_CorruptDocumentsMarkedFailed(t *testing.T) {
	extractor := &MockTextExtractor{
		defaultText: "Python developer",
		failOn: map[string]error{
			"bad1.pdf": errors.New("文件损坏"),
			"bad2.pdf": errors.New("文件损坏"),
		},
	}
	ba := newTestAnalyzer(t, extractor)

	docs := make([]types.InputDocument, 0, 5)
	for _, name := range []string{"ok1.pdf", "bad1.pdf", "ok2.pdf", "bad2.pdf", "ok3.pdf"} {
		docs = append(docs, types.InputDocument{Filename: name, DeclaredType: types.FileTypePDF})
	}
	req := &types.AnalyzeBatchRequest{
		Documents: docs,
		Spec:      types.KeywordSpec{Keywords: []string{"Python"}},
	}

	resp, err := ba.AnalyzeBatch(context.Background(), req)
	require.NoError(t, err)
	// N个输入恰好N条结果，失败的文档落在对应条目上
	require.Len(t, resp.Results, 5)

	failed := 0
	for i, r := range resp.Results {
		assert.Equal(t, docs[i].Filename, r.Document.Filename)
		if r.Error != "" {
			failed++
			assert.Nil(t, r.Match)
			assert.True(t, strings.HasPrefix(docs[i].Filename, "bad"))
		} else {
			assert.Equal(t, 100, r.Match.Score)
		}
	}
	assert.Equal(t, 2, failed)
}

func TestAnalyzeBatch_ImageBasedSkipsScoring(t *testing.T) {
	extractor := &MockTextExtractor{
		texts:      map[string]string{"scan.pdf": ""},
		imageBased: map[string]bool{"scan.pdf": true},
	}
	ba := newTestAnalyzer(t, extractor)

	resp, err := ba.AnalyzeBatch(context.Background(), &types.AnalyzeBatchRequest{
		Documents: []types.InputDocument{{Filename: "scan.pdf", DeclaredType: types.FileTypePDF}},
		Spec:      types.KeywordSpec{Keywords: []string{"Python"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	r := resp.Results[0]
	require.NotNil(t, r.Match)
	// 扫描件的分值标记为不适用，而不是0分
	assert.False(t, r.Match.Applicable)
	assert.Empty(t, r.Match.Found)
	assert.Empty(t, r.Match.Missing)
	// 经历和地域信号同样不计算
	assert.Nil(t, r.Experience)
	assert.Nil(t, r.UAEPresence)
}

func TestAnalyzeBatch_MissingKeywordSpec(t *testing.T) {
	ba := newTestAnalyzer(t, &MockTextExtractor{defaultText: "text"})

	_, err := ba.AnalyzeBatch(context.Background(), &types.AnalyzeBatchRequest{
		Documents: []types.InputDocument{{Filename: "a.pdf"}},
		Spec:      types.KeywordSpec{},
	})
	assert.ErrorIs(t, err, ErrMissingKeywordSpec)

	_, err = ba.AnalyzeBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingKeywordSpec)
}

func TestAnalyzeBatch_EmptyDocumentList(t *testing.T) {
	ba := newTestAnalyzer(t, &MockTextExtractor{defaultText: "text"})

	resp, err := ba.AnalyzeBatch(context.Background(), &types.AnalyzeBatchRequest{
		Spec: types.KeywordSpec{Keywords: []string{"Python"}},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestAnalyzeBatch_Cancellation(t *testing.T) {
	extractor := &MockTextExtractor{
		defaultText: "Python developer",
		delay:       50 * time.Millisecond,
	}
	ba := newTestAnalyzer(t, extractor, WithsetWorkerCount(1))

	docs := make([]types.InputDocument, 20)
	for i := range docs {
		docs[i] = types.InputDocument{Filename: fmt.Sprintf("r%d.pdf", i), DeclaredType: types.FileTypePDF}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(80 * time.Millisecond)
		cancel()
	}()

	_, err := ba.AnalyzeBatch(ctx, &types.AnalyzeBatchRequest{
		Documents: docs,
		Spec:      types.KeywordSpec{Keywords: []string{"Python"}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBatch_PresenceAndHistoryAttached(t *testing.T) {
	extractor := &MockTextExtractor{defaultText: "Python developer based in Dubai"}
	ba, err := NewBatchAnalyzer([]ComponentOpt{
		WithcompExtractor(extractor),
		WithcompHistory(&MockHistoryExtractor{summary: &types.ExperienceSummary{
			Entries:              []types.EmploymentEntry{{Company: "Acme", Role: "Engineer", DurationYears: 2.0}},
			TotalExperienceYears: 2.0,
		}}),
		WithcompPresence(&MockPresenceDetector{present: true}),
	}, WithsetLogger(zerolog.Nop()))
	require.NoError(t, err)

	resp, err := ba.AnalyzeBatch(context.Background(), &types.AnalyzeBatchRequest{
		Documents: []types.InputDocument{{Filename: "a.pdf", DeclaredType: types.FileTypePDF}},
		Spec:      types.KeywordSpec{Keywords: []string{"Python"}},
	})
	require.NoError(t, err)

	r := resp.Results[0]
	require.NotNil(t, r.Experience)
	assert.Equal(t, 2.0, r.Experience.TotalExperienceYears)
	require.NotNil(t, r.UAEPresence)
	assert.True(t, *r.UAEPresence)
}

func TestNewBatchAnalyzer_RequiresExtractor(t *testing.T) {
	_, err := NewBatchAnalyzer(nil)
	assert.Error(t, err)
}
