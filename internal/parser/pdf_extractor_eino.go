package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// EinoPDFExtractor 使用 Eino PDF Parser 提取文本，pdfcpu 负责结构校验和页数统计
type EinoPDFExtractor struct {
	parser  *pdf.PDFParser
	pdfConf *pdfmodel.Configuration
	logger  *log.Logger
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(logger *log.Logger) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.logger = logger
	}
}

// WithExtractTimeout 配置单次提取超时
func WithExtractTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.timeout = d
	}
}

// NewEinoPDFExtractor 初始化 Eino PDF 文本提取器
// 配置为按页面分割，页数用于后续的扫描件判定
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true, // 每页一个文档，页数对扫描件判定是必要信号
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	pdfConf := pdfmodel.NewDefaultConfiguration()
	pdfConf.ValidationMode = pdfmodel.ValidationRelaxed

	extractor := &EinoPDFExtractor{
		parser:  p,
		pdfConf: pdfConf,
		logger:  log.New(os.Stderr, "[PDF解析器] ", log.LstdFlags),
		timeout: 30 * time.Second,
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// ExtractTextFromBytes 从字节数组提取纯文本和页数
// 返回: 提取的文本内容, PDF页数, 错误
func (e *EinoPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, int, error) {
	startTime := time.Now()
	e.logger.Printf("开始处理PDF: %s (%.2f KB)", uri, float64(len(data))/1024)

	// pdfcpu先做结构校验并取页数，损坏的文件在这里直接失败
	pageCount, err := pdfapi.PageCount(bytes.NewReader(data), e.pdfConf)
	if err != nil {
		e.logger.Printf("PDF结构校验失败: %s: %v", uri, err)
		return "", 0, fmt.Errorf("%w: pdfcpu校验 %s: %v", ErrParseFailed, uri, err)
	}

	text, err := e.extractFromReader(ctx, bytes.NewReader(data), uri)
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Printf("PDF处理失败: %s (用时 %.2f秒)", err, duration.Seconds())
		return "", pageCount, err
	}

	e.logger.Printf("PDF处理完成: %d页, 提取了 %d 个字符 (用时 %.2f秒)", pageCount, len(text), duration.Seconds())
	return text, pageCount, nil
}

// extractFromReader 通过eino解析器提取各页文本并拼接
func (e *EinoPDFExtractor) extractFromReader(ctx context.Context, reader io.Reader, uri string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
	)
	if err != nil {
		return "", fmt.Errorf("%w: eino解析 %s: %v", ErrParseFailed, uri, err)
	}

	if len(docs) == 0 {
		// 无文本层的扫描件也会走到这里，交由上层按页数判定
		return "", nil
	}

	var sb strings.Builder
	for i, doc := range docs {
		if doc.Content == "" {
			continue
		}
		if i > 0 && sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(doc.Content)
	}

	return sb.String(), nil
}
