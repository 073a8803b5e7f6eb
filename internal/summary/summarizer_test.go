package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockChatModel 模拟聊天模型，记录收到的消息并返回预设内容
type MockChatModel struct {
	response     string
	err          error
	gotMessages  []*schema.Message
	generateCall int
}

func (m *MockChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.generateCall++
	m.gotMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.response, nil), nil
}

func (m *MockChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestLLMSummarizer_GenerateSummary(t *testing.T) {
	mock := &MockChatModel{response: "  Strong backend engineer with 5 years of Go experience.  "}
	s, err := NewLLMSummarizer(mock, zerolog.Nop())
	require.NoError(t, err)

	got, err := s.GenerateSummary(context.Background(),
		"Go developer since 2019", []string{"Go", "Redis"}, []string{"Kafka"}, 67)
	require.NoError(t, err)
	assert.Equal(t, "Strong backend engineer with 5 years of Go experience.", got)

	require.Len(t, mock.gotMessages, 2)
	assert.Equal(t, schema.System, mock.gotMessages[0].Role)

	prompt := mock.gotMessages[1].Content
	assert.Contains(t, prompt, "Go developer since 2019")
	assert.Contains(t, prompt, "Match Score: 67%")
	assert.Contains(t, prompt, "Keywords Found: Go, Redis")
	assert.Contains(t, prompt, "Keywords Missing: Kafka")
}

func TestLLMSummarizer_EmptyKeywordLists(t *testing.T) {
	mock := &MockChatModel{response: "summary"}
	s, err := NewLLMSummarizer(mock, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.GenerateSummary(context.Background(), "text", nil, nil, 0)
	require.NoError(t, err)

	prompt := mock.gotMessages[1].Content
	assert.Contains(t, prompt, "Keywords Found: None")
	assert.Contains(t, prompt, "Keywords Missing: None")
}

func TestLLMSummarizer_TruncatesLongResume(t *testing.T) {
	mock := &MockChatModel{response: "summary"}
	s, err := NewLLMSummarizer(mock, zerolog.Nop(), WithMaxResumeChars(100))
	require.NoError(t, err)

	long := strings.Repeat("a", 500)
	_, err = s.GenerateSummary(context.Background(), long, nil, nil, 50)
	require.NoError(t, err)

	prompt := mock.gotMessages[1].Content
	assert.Contains(t, prompt, strings.Repeat("a", 100))
	assert.NotContains(t, prompt, strings.Repeat("a", 101))
}

func TestLLMSummarizer_ModelErrorPropagates(t *testing.T) {
	mock := &MockChatModel{err: errors.New("请求超时")}
	s, err := NewLLMSummarizer(mock, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.GenerateSummary(context.Background(), "text", nil, nil, 10)
	assert.Error(t, err)
}

func TestLLMSummarizer_EmptyResponseIsError(t *testing.T) {
	mock := &MockChatModel{response: "   "}
	s, err := NewLLMSummarizer(mock, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.GenerateSummary(context.Background(), "text", nil, nil, 10)
	assert.Error(t, err)
}

func TestNewLLMSummarizer_NilModel(t *testing.T) {
	_, err := NewLLMSummarizer(nil, zerolog.Nop())
	assert.Error(t, err)
}
