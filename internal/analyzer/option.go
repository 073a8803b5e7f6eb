package analyzer

import (
	"time"

	"github.com/rs/zerolog"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithcompExtractor 设置文档文本提取组件
func WithcompExtractor(extractor TextExtractor) ComponentOpt {
	return func(c *Components) {
		c.Extractor = extractor
	}
}

// WithcompMatcher 设置关键词打分组件
func WithcompMatcher(matcher *KeywordMatcher) ComponentOpt {
	return func(c *Components) {
		c.Matcher = matcher
	}
}

// WithcompHistory 设置工作经历抽取组件
func WithcompHistory(history HistoryExtractor) ComponentOpt {
	return func(c *Components) {
		c.History = history
	}
}

// WithcompPresence 设置地域信号探测组件
func WithcompPresence(presence PresenceDetector) ComponentOpt {
	return func(c *Components) {
		c.Presence = presence
	}
}

// ----- 设置选项 -----

// WithsetWorkerCount 设置并发工作协程数，0 表示按 CPU 核数取值
func WithsetWorkerCount(n int) SettingOpt {
	return func(s *Settings) {
		s.WorkerCount = n
	}
}

// WithsetDocTimeout 设置单个文档的处理超时
func WithsetDocTimeout(d time.Duration) SettingOpt {
	return func(s *Settings) {
		s.DocTimeout = d
	}
}

// WithsetLogger 设置日志记录器
func WithsetLogger(logger zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = logger
	}
}

// WithsetClock 设置时间源，测试中用于固定 Present 的解析基准
func WithsetClock(clock func() time.Time) SettingOpt {
	return func(s *Settings) {
		s.Clock = clock
	}
}
