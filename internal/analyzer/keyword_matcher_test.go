package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-filter-go/internal/types"
)

func TestKeywordMatcher_AllFound(t *testing.T) {
	m := NewKeywordMatcher()
	text := "Senior engineer with experience in Infrastructure, Roads and Highways projects."
	result := m.Match(text, types.KeywordSpec{
		Keywords: []string{"Infrastructure", "Roads", "Highways"},
	})

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Applicable)
	assert.False(t, result.NoCriteria)
	assert.ElementsMatch(t, []string{"Infrastructure", "Roads", "Highways"}, result.Found)
	assert.Empty(t, result.Missing)
}

func TestKeywordMatcher_PartialMatch(t *testing.T) {
	m := NewKeywordMatcher()
	text := "Worked on several Highways maintenance contracts."
	result := m.Match(text, types.KeywordSpec{
		Keywords: []string{"Infrastructure", "Roads", "Highways"},
	})

	// 3个词命中1个，round(100*1/3)=33
	assert.Equal(t, 33, result.Score)
	assert.Equal(t, []string{"Highways"}, result.Found)
	assert.ElementsMatch(t, []string{"Infrastructure", "Roads"}, result.Missing)
}

func TestKeywordMatcher_NoneFound(t *testing.T) {
	m := NewKeywordMatcher()
	result := m.Match("Completely unrelated text about cooking.", types.KeywordSpec{
		Keywords: []string{"Python", "FastAPI"},
	})

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Found)
	assert.ElementsMatch(t, []string{"Python", "FastAPI"}, result.Missing)
}

func TestKeywordMatcher_DoubleWeight(t *testing.T) {
	m := NewKeywordMatcher()
	// FastAPI双倍权重：总分母 1+2=3，只命中Python时 round(100*1/3)=33
	result := m.Match("Python developer", types.KeywordSpec{
		Keywords:     []string{"Python", "FastAPI"},
		DoubleWeight: []string{"FastAPI"},
	})
	assert.Equal(t, 33, result.Score)

	// 两个都命中时恰好100
	result = m.Match("Python developer using FastAPI", types.KeywordSpec{
		Keywords:     []string{"Python", "FastAPI"},
		DoubleWeight: []string{"FastAPI"},
	})
	assert.Equal(t, 100, result.Score)
}

func TestKeywordMatcher_ExtraneousDoubleWeightIgnored(t *testing.T) {
	m := NewKeywordMatcher()
	// 双权重词不在关键词列表中时不参与计分
	result := m.Match("Python developer", types.KeywordSpec{
		Keywords:     []string{"Python"},
		DoubleWeight: []string{"Kubernetes"},
	})
	assert.Equal(t, 100, result.Score)
}

func TestKeywordMatcher_CaseInsensitive(t *testing.T) {
	m := NewKeywordMatcher()
	result := m.Match("experienced in PYTHON and fastapi", types.KeywordSpec{
		Keywords: []string{"Python", "FastAPI"},
	})

	assert.Equal(t, 100, result.Score)
	// 命中列表保持规格里的原始写法
	assert.ElementsMatch(t, []string{"Python", "FastAPI"}, result.Found)
}

func TestKeywordMatcher_WholeWordOnly(t *testing.T) {
	m := NewKeywordMatcher()
	// "Java" 不应命中 "JavaScript"
	result := m.Match("JavaScript developer", types.KeywordSpec{
		Keywords: []string{"Java"},
	})
	assert.Equal(t, 0, result.Score)

	result = m.Match("Java and JavaScript developer", types.KeywordSpec{
		Keywords: []string{"Java"},
	})
	assert.Equal(t, 100, result.Score)
}

func TestKeywordMatcher_PhraseAndSymbolKeywords(t *testing.T) {
	m := NewKeywordMatcher()
	result := m.Match("Skilled in project   management and C++ development", types.KeywordSpec{
		Keywords: []string{"Project Management", "C++"},
	})

	// 多词短语跨空白归一后匹配，含符号的关键词按字面匹配
	assert.Equal(t, 100, result.Score)
}

func TestKeywordMatcher_DuplicateKeywordsDeduped(t *testing.T) {
	m := NewKeywordMatcher()
	result := m.Match("no matches here at all", types.KeywordSpec{
		Keywords: []string{"Python", "python", " PYTHON ", "Go"},
	})

	assert.Len(t, result.Missing, 2)
	assert.Equal(t, 0, result.Score)
}

func TestKeywordMatcher_EmptySpec(t *testing.T) {
	m := NewKeywordMatcher()
	result := m.Match("any text", types.KeywordSpec{})

	assert.Equal(t, 0, result.Score)
	assert.True(t, result.NoCriteria)
	assert.Empty(t, result.Found)
	assert.Empty(t, result.Missing)
}

func TestKeywordMatcher_Deterministic(t *testing.T) {
	m := NewKeywordMatcher()
	spec := types.KeywordSpec{
		Keywords:     []string{"Go", "Redis", "MySQL"},
		DoubleWeight: []string{"Go"},
	}
	text := "Go services backed by Redis caching"

	first := m.Match(text, spec)
	for i := 0; i < 5; i++ {
		again := m.Match(text, spec)
		assert.Equal(t, first, again)
	}
}
