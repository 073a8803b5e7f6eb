package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const (
	// 默认只取简历前3000个字符参与提示词，控制token消耗
	defaultMaxResumeChars = 3000

	systemPrompt = "You are an expert technical recruiter who provides concise, objective candidate assessments."
)

// LLMSummarizer 基于聊天模型生成招聘视角的候选人摘要
// 实现 analyzer.SummaryGenerator 接口；摘要失败只影响摘要字段，不影响计分结果
type LLMSummarizer struct {
	chatModel      model.BaseChatModel
	maxResumeChars int
	logger         zerolog.Logger
}

// SummarizerOption LLMSummarizer 的选项函数类型
type SummarizerOption func(*LLMSummarizer)

// WithMaxResumeChars 设置参与提示词的简历文本长度上限
func WithMaxResumeChars(n int) SummarizerOption {
	return func(s *LLMSummarizer) {
		if n > 0 {
			s.maxResumeChars = n
		}
	}
}

// NewLLMSummarizer 创建摘要生成器
func NewLLMSummarizer(chatModel model.BaseChatModel, logger zerolog.Logger, opts ...SummarizerOption) (*LLMSummarizer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("聊天模型不能为空")
	}
	s := &LLMSummarizer{
		chatModel:      chatModel,
		maxResumeChars: defaultMaxResumeChars,
		logger:         logger.With().Str("component", "llm_summarizer").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateSummary 生成3-4句的候选人专业摘要
func (s *LLMSummarizer) GenerateSummary(ctx context.Context, resumeText string, found, missing []string, score int) (string, error) {
	prompt := s.buildPrompt(resumeText, found, missing, score)

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("生成候选人摘要失败")
		return "", fmt.Errorf("生成候选人摘要失败: %w", err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", fmt.Errorf("LLM 返回了空摘要")
	}
	return content, nil
}

// buildPrompt 组装提示词，简历文本超长时截断
func (s *LLMSummarizer) buildPrompt(resumeText string, found, missing []string, score int) string {
	if len(resumeText) > s.maxResumeChars {
		resumeText = resumeText[:s.maxResumeChars]
	}

	foundStr := "None"
	if len(found) > 0 {
		foundStr = strings.Join(found, ", ")
	}
	missingStr := "None"
	if len(missing) > 0 {
		missingStr = strings.Join(missing, ", ")
	}

	var b strings.Builder
	b.WriteString("You are an expert recruiter analyzing a candidate's resume.\n\n")
	b.WriteString("Resume Content:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nKeyword Analysis:\n")
	fmt.Fprintf(&b, "- Match Score: %d%%\n", score)
	fmt.Fprintf(&b, "- Keywords Found: %s\n", foundStr)
	fmt.Fprintf(&b, "- Keywords Missing: %s\n", missingStr)
	b.WriteString("\nPlease provide a concise professional summary (3-4 sentences) that includes:\n")
	b.WriteString("1. The candidate's primary skills and experience\n")
	b.WriteString("2. Actual years of experience\n")
	b.WriteString("3. Any notable strengths or gaps\n")
	b.WriteString("\nKeep the summary professional and objective.\n")
	return b.String()
}
