package types

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType 表示声明的简历文件类型
type FileType string

const (
	// FileTypePDF PDF文件
	FileTypePDF FileType = "pdf"
	// FileTypeDOCX DOCX文件
	FileTypeDOCX FileType = "docx"
	// FileTypeUnknown 未知/不支持的文件类型
	FileTypeUnknown FileType = "unknown"
)

// FileTypeFromFilename 根据文件扩展名推断文件类型
func FileTypeFromFilename(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF
	case ".docx":
		return FileTypeDOCX
	default:
		return FileTypeUnknown
	}
}

// KeywordSpec 关键词匹配规格
// Keywords 为全部待匹配关键词（大小写不敏感、去重）；
// DoubleWeight 为其中按双倍权重计分的子集，规格外的双权重词会被忽略。
type KeywordSpec struct {
	Keywords     []string `json:"keywords"`
	DoubleWeight []string `json:"double_weight_keywords,omitempty"`
}

// ParsedDocument 一份已提取文本的简历文档，由文本提取器创建后不再修改
type ParsedDocument struct {
	Filename     string `json:"filename"`       // 原始文件名
	RawText      string `json:"raw_text"`       // 提取出的纯文本
	IsImageBased bool   `json:"is_image_based"` // 是否疑似扫描件（无文本层）
	PageCount    int    `json:"page_count"`     // PDF页数，DOCX为0
}

// MatchResult 关键词匹配结果，按请求即时计算，不落库
type MatchResult struct {
	Found   []string `json:"keywords_found"`   // 命中的关键词（保持规格中的原始写法）
	Missing []string `json:"keywords_missing"` // 未命中的关键词
	Score   int      `json:"score"`            // 0-100 匹配分
	// Applicable 为false表示该文档（如扫描件）不参与计分，Score无意义
	Applicable bool `json:"score_applicable"`
	// NoCriteria 为true表示关键词规格为空，Score按0处理
	NoCriteria bool `json:"no_criteria,omitempty"`
}

// EmploymentEntry 一段工作经历
type EmploymentEntry struct {
	Company       string  `json:"company"`
	Location      string  `json:"location,omitempty"`
	Role          string  `json:"role"`
	StartDate     string  `json:"start_date"` // 源文本中的原始写法
	EndDate       string  `json:"end_date"`   // 原始写法，在职为 "Present" 等
	DurationYears float64 `json:"duration_years"`
}

// ExperienceSummary 工作经历汇总
// TotalExperienceYears 为各段duration之和，重叠任职会被重复计入（沿用原始口径）
type ExperienceSummary struct {
	Entries              []EmploymentEntry `json:"entries"`
	TotalExperienceYears float64           `json:"total_experience_years"`
}

// AnalysisResult 单份简历的完整分析结果，批处理器负责其生命周期
type AnalysisResult struct {
	Document   ParsedDocument     `json:"document"`
	Match      *MatchResult       `json:"match,omitempty"`
	Experience *ExperienceSummary `json:"experience,omitempty"`
	// UAEPresence 为nil表示未计算（扫描件）或检测被关闭
	UAEPresence *bool     `json:"uae_presence,omitempty"`
	AISummary   *string   `json:"ai_summary,omitempty"`
	ParsedAt    time.Time `json:"parsed_at"`
	// Error 非空表示该文档处理失败，其余字段不可用
	Error string `json:"error,omitempty"`
}

// InputDocument 批量分析的单个输入文件
type InputDocument struct {
	Filename     string   `json:"filename"`
	Content      []byte   `json:"-"`
	DeclaredType FileType `json:"declared_type"`
}

// AnalyzeBatchRequest 批量分析请求
type AnalyzeBatchRequest struct {
	Documents []InputDocument `json:"documents"`
	Spec      KeywordSpec     `json:"keyword_spec"`
}

// AnalyzeBatchResponse 批量分析响应，results与输入文件一一对应且保持顺序
type AnalyzeBatchResponse struct {
	Results []*AnalysisResult `json:"results"`
}

// DocumentState 批处理中单个文档的状态
type DocumentState string

const (
	// StatePending 等待处理
	StatePending DocumentState = "PENDING"
	// StateExtracted 文本提取完成
	StateExtracted DocumentState = "EXTRACTED"
	// StateScored 关键词计分完成
	StateScored DocumentState = "SCORED"
	// StateCompleted 全部阶段完成
	StateCompleted DocumentState = "COMPLETED"
	// StateFailed 处理失败（终态，不重试）
	StateFailed DocumentState = "FAILED"
)
