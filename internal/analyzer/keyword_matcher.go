package analyzer

import (
	"regexp"
	"strings"

	"resume-filter-go/internal/types"
	"resume-filter-go/internal/utils"
)

// KeywordMatcher 基于整词匹配的关键词打分器
// 匹配在规范化文本上进行，大小写不敏感，关键词只按出现与否计分，出现次数不影响分值
type KeywordMatcher struct{}

// NewKeywordMatcher 创建关键词打分器
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{}
}

// Match 对文本执行关键词匹配并计算 0-100 的整数得分
// 规格为空时返回 NoCriteria=true 且得分为 0，由调用方决定是否拒绝该请求
func (m *KeywordMatcher) Match(text string, spec types.KeywordSpec) *types.MatchResult {
	keywords := dedupeKeywords(spec.Keywords)
	if len(keywords) == 0 {
		return &types.MatchResult{
			Found:      []string{},
			Missing:    []string{},
			Score:      0,
			Applicable: true,
			NoCriteria: true,
		}
	}

	// 双倍权重集合只在其成员属于关键词列表时生效，游离的权重项直接忽略
	doubleSet := make(map[string]bool, len(spec.DoubleWeight))
	for _, kw := range spec.DoubleWeight {
		doubleSet[strings.ToLower(strings.TrimSpace(kw))] = true
	}

	normalized := utils.NormalizeText(text)

	var found, missing []string
	achieved, achievable := 0, 0
	for _, kw := range keywords {
		weight := 1
		if doubleSet[strings.ToLower(kw)] {
			weight = 2
		}
		achievable += weight

		if containsWholeWord(normalized, kw) {
			found = append(found, kw)
			achieved += weight
		} else {
			missing = append(missing, kw)
		}
	}

	score := (achieved*100 + achievable/2) / achievable
	if score > 100 {
		score = 100
	}

	if found == nil {
		found = []string{}
	}
	if missing == nil {
		missing = []string{}
	}

	return &types.MatchResult{
		Found:      found,
		Missing:    missing,
		Score:      score,
		Applicable: true,
	}
}

// dedupeKeywords 去除空白项并按小写形式去重，保留首次出现的原始写法
func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}

// containsWholeWord 在规范化文本中做整词匹配
// 关键词本身可能含有正则元字符 (如 "C++")，统一转义后再拼接边界
func containsWholeWord(normalized, keyword string) bool {
	kw := utils.NormalizeText(keyword)
	if kw == "" {
		return false
	}
	pattern := regexp.QuoteMeta(kw)
	// \b 依赖单词字符边界，对 "C++" 这类以符号结尾的关键词改用宽松边界
	if isWordChar(kw[0]) {
		pattern = `\b` + pattern
	}
	if isWordChar(kw[len(kw)-1]) {
		pattern = pattern + `\b`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return strings.Contains(normalized, kw)
	}
	return re.MatchString(normalized)
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
