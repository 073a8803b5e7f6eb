package analyzer

import (
	"errors"
	"fmt"
)

// 批处理层的基础错误类型
var (
	// ErrMissingKeywordSpec 请求缺少关键词规格，是唯一的批级错误
	ErrMissingKeywordSpec = errors.New("关键词规格不能为空")

	// ErrExtractFailed 文档提取阶段失败
	ErrExtractFailed = errors.New("提取简历文本失败")
)

// AnalyzeError 包含文件名和阶段信息的自定义错误，按文档捕获到结果条目中
type AnalyzeError struct {
	Filename string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *AnalyzeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Filename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Filename)
}

func (e *AnalyzeError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *AnalyzeError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewExtractError 构造提取阶段错误，保留底层的格式/解析错误便于分类
func NewExtractError(filename string, cause error) error {
	return &AnalyzeError{
		Filename: filename,
		Op:       "extract",
		BaseErr:  cause,
	}
}
