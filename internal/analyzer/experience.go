package analyzer

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"resume-filter-go/internal/types"
)

// 结构线索：一段工作经历由"起始日期 - 结束日期"的日期区间锚定
// 支持 "Jan 2020"、"January 2020"、"01/2020"、"2020-01"、"2020" 以及开放式的 Present/Current/Now
var (
	datePattern = `(?:[A-Za-z]{3,9}\.?\s+\d{4}|\d{1,2}[/.]\d{4}|\d{4}-\d{1,2}|\d{4})`
	openPattern = `(?:[Pp]resent|[Cc]urrent|[Nn]ow|[Tt]ill\s+[Dd]ate|[Tt]oday)`

	dateRangeRe = regexp.MustCompile(
		`(` + datePattern + `)\s*(?:-|–|—|[Tt]o|[Uu]ntil)\s*(` + datePattern + `|` + openPattern + `)`)

	openEndRe = regexp.MustCompile(`^` + openPattern + `$`)
)

// 显式布局优先，覆盖简历中最常见的写法；其余交给 dateparse 兜底
var explicitDateLayouts = []string{
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"01/2006",
	"1/2006",
	"01.2006",
	"2006-01",
	"2006-1",
	"2006",
}

// ExperienceExtractor 基于日期区间线索的工作经历抽取器
// 对非典型排版的简历只能给出尽力而为的结果，调用方不应把输出当作精确事实
type ExperienceExtractor struct {
	logger zerolog.Logger
}

// NewExperienceExtractor 创建工作经历抽取器
func NewExperienceExtractor(logger zerolog.Logger) *ExperienceExtractor {
	return &ExperienceExtractor{logger: logger}
}

// ExtractHistory 从简历文本中抽取工作经历条目并汇总总年限
// 找不到任何结构线索时返回空条目列表，不视为错误
// 总年限是各条目时长的简单求和，重叠的任职时段会被重复计入
func (e *ExperienceExtractor) ExtractHistory(ctx context.Context, text string, now time.Time) *types.ExperienceSummary {
	summary := &types.ExperienceSummary{
		Entries: []types.EmploymentEntry{},
	}
	if strings.TrimSpace(text) == "" {
		return summary
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := dateRangeRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		startRaw := line[loc[2]:loc[3]]
		endRaw := line[loc[4]:loc[5]]

		// 日期区间之前的同行文本是首选的条目头；整行都是日期时回溯上一条非空行
		header := strings.TrimSpace(line[:loc[0]])
		if header == "" {
			header = previousNonEmptyLine(lines, i)
		}
		company, location, role := splitHeader(header)

		entry := types.EmploymentEntry{
			Company:   company,
			Location:  location,
			Role:      role,
			StartDate: strings.TrimSpace(startRaw),
			EndDate:   strings.TrimSpace(endRaw),
		}

		start, startOK := parseFlexibleDate(startRaw, now)
		end, endOK := parseFlexibleDate(endRaw, now)
		if startOK && endOK && end.After(start) {
			years := end.Sub(start).Hours() / 24 / 365.25
			entry.DurationYears = math.Round(years*10) / 10
		} else if !startOK || !endOK {
			e.logger.Debug().
				Str("start", startRaw).
				Str("end", endRaw).
				Msg("工作经历日期无法解析，该条目时长按 0 处理")
		}

		summary.Entries = append(summary.Entries, entry)
		summary.TotalExperienceYears += entry.DurationYears
	}

	summary.TotalExperienceYears = math.Round(summary.TotalExperienceYears*10) / 10
	return summary
}

// previousNonEmptyLine 向上查找最近的非空行作为条目头
func previousNonEmptyLine(lines []string, idx int) string {
	for j := idx - 1; j >= 0; j-- {
		if s := strings.TrimSpace(lines[j]); s != "" {
			return s
		}
	}
	return ""
}

// splitHeader 按常见分隔符把条目头拆成 公司/地点/职位 三段
// 只有两段时视为 公司/职位，单段视为公司名
func splitHeader(header string) (company, location, role string) {
	header = strings.Trim(header, " \t-–—|,")
	if header == "" {
		return "", "", ""
	}

	var parts []string
	for _, sep := range []string{"|", " - ", " – ", " — ", ","} {
		if strings.Contains(header, sep) {
			for _, p := range strings.Split(header, sep) {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
			break
		}
	}
	if parts == nil {
		parts = []string{header}
	}

	switch len(parts) {
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], parts[1], strings.Join(parts[2:], ", ")
	}
}

// parseFlexibleDate 解析简历中的日期写法，开放式结束日期解析为当前分析时刻
func parseFlexibleDate(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if openEndRe.MatchString(raw) {
		return now, true
	}
	for _, layout := range explicitDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
