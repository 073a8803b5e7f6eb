package constants

import "time"

const (
	// MinTextLength 文本提取的最小字符数阈值（归一化后）。
	// PDF页数非零但提取字符数低于该值时，判定为图片型扫描件。
	MinTextLength = 100

	// DefaultMinKeywordScore 默认的关键词分数过滤阈值
	DefaultMinKeywordScore = 50

	// DefaultAnalyzeTimeout 单份简历各阶段处理的默认超时
	DefaultAnalyzeTimeout = 30 * time.Second

	// ResultCacheDuration 分析结果缓存时长
	ResultCacheDuration = 30 * time.Minute

	// SummaryCacheDuration AI摘要缓存时长
	SummaryCacheDuration = 24 * time.Hour
)
