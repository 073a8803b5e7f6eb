package analyzer

import (
	"context"
	"time"

	"resume-filter-go/internal/types"
)

//
// 文本提取相关接口
//

// TextExtractor 文本提取器接口
// 扫描件判定是启发式的（无文本层推断），实现可替换调优，不影响计分和编排逻辑
type TextExtractor interface {
	// Parse 解析简历文件，返回提取文本和扫描件标记
	Parse(ctx context.Context, filename string, content []byte, declaredType types.FileType) (*types.ParsedDocument, error)
}

//
// 工作经历相关接口
//

// HistoryExtractor 工作经历提取器接口
// 基于结构线索的模式匹配，对非典型版式的简历只能给出尽力而为的结果
type HistoryExtractor interface {
	// ExtractHistory 从自由文本解析工作经历；找不到结构线索时返回空条目列表，不报错
	ExtractHistory(ctx context.Context, text string, now time.Time) *types.ExperienceSummary
}

//
// 地区检测相关接口
//

// PresenceDetector 地区存在性检测器接口
type PresenceDetector interface {
	// Detect 扫描文本中的地区标记，任一正向标记命中即返回true
	Detect(text string) bool
}

//
// AI摘要相关接口
//

// SummaryGenerator AI摘要生成器接口
// 由外部协作方实现（LLM服务）；失败不影响计分结果
type SummaryGenerator interface {
	// GenerateSummary 基于简历文本和匹配结果生成招聘视角的摘要
	GenerateSummary(ctx context.Context, resumeText string, found, missing []string, score int) (string, error)
}
