package parser

import "errors"

// 提取阶段的基础错误类型，按文件捕获，不会中断整个批次
var (
	// ErrUnsupportedFormat 声明的文件类型不是PDF或DOCX
	ErrUnsupportedFormat = errors.New("不支持的文件格式，仅支持 PDF 和 DOCX")

	// ErrParseFailed 文件损坏或无法读取
	ErrParseFailed = errors.New("文件解析失败")
)
