package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"code.sajari.com/docconv"
)

// DocxExtractor 使用 docconv 提取DOCX文本，正文段落和表格内容都会进入结果。
// DOCX始终视为非扫描件。
type DocxExtractor struct {
	logger *log.Logger
}

// NewDocxExtractor 创建DOCX文本提取器
func NewDocxExtractor(logger *log.Logger) *DocxExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DocxExtractor{logger: logger}
}

// ExtractTextFromBytes 从字节数组提取纯文本
func (d *DocxExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	startTime := time.Now()
	d.logger.Printf("开始处理DOCX: %s (%.2f KB)", uri, float64(len(data))/1024)

	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		d.logger.Printf("DOCX处理失败: %s: %v", uri, err)
		return "", fmt.Errorf("%w: docx解析 %s: %v", ErrParseFailed, uri, err)
	}

	d.logger.Printf("DOCX处理完成: 提取了 %d 个字符 (用时 %.2f秒)", len(text), time.Since(startTime).Seconds())
	return text, nil
}
