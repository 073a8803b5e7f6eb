package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"resume-filter-go/internal/types"
)

// csvHeader CSV列顺序固定，下游报表依赖这些列名
var csvHeader = []string{
	"Filename",
	"Score",
	"UAE Presence",
	"Total Experience (Years)",
	"Keywords Found",
	"Keywords Missing",
	"AI Summary",
	"Employment History",
	"Parsed At",
}

// CSVExporter 将分析结果导出为CSV
type CSVExporter struct{}

// NewCSVExporter 创建CSV导出器
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export 导出候选人列表，按分数从高到低排序
// 扫描件没有数值分数，排在有分数的候选人之后
func (e *CSVExporter) Export(results []*types.AnalysisResult) ([]byte, error) {
	sorted := make([]*types.AnalysisResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scoreForSort(sorted[i]) > scoreForSort(sorted[j])
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for _, r := range sorted {
		if err := w.Write(e.buildRow(r)); err != nil {
			return nil, fmt.Errorf("写入CSV行失败: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("刷新CSV缓冲失败: %w", err)
	}
	return buf.Bytes(), nil
}

// scoreForSort 返回排序用分数，不可计分的文档排最后
func scoreForSort(r *types.AnalysisResult) int {
	if r.Match == nil || !r.Match.Applicable {
		return -1
	}
	return r.Match.Score
}

// buildRow 组装单个候选人的CSV行
func (e *CSVExporter) buildRow(r *types.AnalysisResult) []string {
	uaeStatus := "N/A"
	if r.UAEPresence != nil {
		if *r.UAEPresence {
			uaeStatus = "Yes"
		} else {
			uaeStatus = "No"
		}
	}

	var scoreDisplay, aiSummary string
	if r.Document.IsImageBased {
		scoreDisplay = "N/A (Image-based)"
		aiSummary = "Could not process - resume appears to be image-based"
	} else {
		if r.Match != nil {
			scoreDisplay = strconv.Itoa(r.Match.Score)
		} else {
			scoreDisplay = "N/A"
		}
		if r.AISummary != nil && *r.AISummary != "" {
			aiSummary = *r.AISummary
		} else {
			aiSummary = "N/A"
		}
	}

	var found, missing string
	if r.Match != nil {
		found = strings.Join(r.Match.Found, ", ")
		missing = strings.Join(r.Match.Missing, ", ")
	}

	totalExp := "N/A"
	history := "N/A"
	if r.Experience != nil {
		totalExp = formatYears(r.Experience.TotalExperienceYears)
		if len(r.Experience.Entries) > 0 {
			history = formatHistory(r.Experience)
		}
	}

	return []string{
		r.Document.Filename,
		scoreDisplay,
		uaeStatus,
		totalExp,
		found,
		missing,
		aiSummary,
		history,
		r.ParsedAt.Format("2006-01-02 15:04:05"),
	}
}

// formatHistory 把工作经历格式化为带编号的多行文本
func formatHistory(exp *types.ExperienceSummary) string {
	lines := make([]string, 0, len(exp.Entries)+1)
	for i, entry := range exp.Entries {
		lines = append(lines, fmt.Sprintf("%d- %s - %s - %s (%s - %s) [%s yrs]",
			i+1, entry.Company, entry.Location, entry.Role,
			entry.StartDate, entry.EndDate, formatYears(entry.DurationYears)))
	}
	lines = append(lines, fmt.Sprintf("Total: %s years", formatYears(exp.TotalExperienceYears)))
	return strings.Join(lines, "\n")
}

// formatYears 年限保留一位小数，整数值不补零
func formatYears(years float64) string {
	s := strconv.FormatFloat(years, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
