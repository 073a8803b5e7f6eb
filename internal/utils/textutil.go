package utils

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeText 归一化文本：统一小写并把连续空白压缩为单个空格。
// 关键词匹配、扫描件判定和地区检测都基于归一化后的文本。
func NormalizeText(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
