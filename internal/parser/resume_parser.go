package parser

import (
	"context"
	"fmt"
	"strings"

	"resume-filter-go/internal/constants"
	"resume-filter-go/internal/types"
	"resume-filter-go/internal/utils"
)

// ResumeParser 简历文件解析器，按声明类型分派到PDF或DOCX提取器
type ResumeParser struct {
	pdf  *EinoPDFExtractor
	docx *DocxExtractor

	// minTextLength 归一化后字符数低于该值且页数非零时，PDF判定为扫描件
	minTextLength int
}

// ResumeParserOption 解析器配置选项
type ResumeParserOption func(*ResumeParser)

// WithMinTextLength 调整扫描件判定的最小字符数阈值
func WithMinTextLength(n int) ResumeParserOption {
	return func(p *ResumeParser) {
		if n > 0 {
			p.minTextLength = n
		}
	}
}

// NewResumeParser 创建简历解析器
func NewResumeParser(pdf *EinoPDFExtractor, docx *DocxExtractor, options ...ResumeParserOption) *ResumeParser {
	p := &ResumeParser{
		pdf:           pdf,
		docx:          docx,
		minTextLength: constants.MinTextLength,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Parse 解析简历文件，返回提取文本和扫描件标记。
// 纯转换，无副作用；损坏文件返回 ErrParseFailed，未知类型返回 ErrUnsupportedFormat，
// 均为单文件错误，由调用方按文件捕获。
func (p *ResumeParser) Parse(ctx context.Context, filename string, content []byte, declaredType types.FileType) (*types.ParsedDocument, error) {
	if declaredType == "" || declaredType == types.FileTypeUnknown {
		declaredType = types.FileTypeFromFilename(filename)
	}

	doc := &types.ParsedDocument{Filename: filename}

	switch declaredType {
	case types.FileTypePDF:
		text, pageCount, err := p.pdf.ExtractTextFromBytes(ctx, content, filename)
		if err != nil {
			return nil, err
		}
		doc.RawText = strings.TrimSpace(text)
		doc.PageCount = pageCount
		// 页数非零但几乎没有文本，按无文本层的扫描件处理；不做OCR
		normalized := utils.NormalizeText(text)
		doc.IsImageBased = pageCount > 0 && len(normalized) < p.minTextLength

	case types.FileTypeDOCX:
		text, err := p.docx.ExtractTextFromBytes(ctx, content, filename)
		if err != nil {
			return nil, err
		}
		doc.RawText = strings.TrimSpace(text)
		doc.IsImageBased = false

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	return doc, nil
}
