package summary

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// requestGate 令牌桶限流器，按QPM控制对LLM接口的请求速率
type requestGate struct {
	rate       float64 // 每秒补充的令牌数
	capacity   float64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex

	retryWait  time.Duration
	maxRetries int
}

func newRequestGate(qpm int) *requestGate {
	capacity := qpm / 2
	if capacity <= 0 {
		capacity = 1
	}
	return &requestGate{
		rate:       float64(qpm) / 60.0,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		retryWait:  time.Second,
		maxRetries: 3,
	}
}

// refill 按流逝时间补充令牌，调用方需持有锁
func (g *requestGate) refill() {
	now := time.Now()
	elapsed := now.Sub(g.lastRefill).Seconds()
	g.lastRefill = now

	g.tokens += elapsed * g.rate
	if g.tokens > g.capacity {
		g.tokens = g.capacity
	}
}

// wait 阻塞直到取得一个令牌，或上下文被取消
func (g *requestGate) wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		g.refill()
		if g.tokens >= 1.0 {
			g.tokens -= 1.0
			g.mu.Unlock()
			return nil
		}
		sleep := time.Duration((1.0 - g.tokens) / g.rate * float64(time.Second))
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// do 限流执行fn，对可重试的错误按指数退避重试
func (g *requestGate) do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err = g.wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !isTransientLLMError(err) || attempt >= g.maxRetries {
			return err
		}

		backoff := g.retryWait * time.Duration(1<<uint(attempt))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

// isTransientLLMError 根据错误内容判断是否值得重试
func isTransientLLMError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"EOF",
		"connection refused",
		"429",
		"rate limit",
		"no such host",
		"服务器繁忙",
		"请求超过限额",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RateLimitedChatModel 对底层聊天模型的调用加上QPM限流和瞬时错误重试
type RateLimitedChatModel struct {
	inner  model.BaseChatModel
	gate   *requestGate
	logger zerolog.Logger
}

// NewRateLimitedChatModel 包装一个聊天模型，qpm<=0时使用默认值30
func NewRateLimitedChatModel(inner model.BaseChatModel, qpm int, logger zerolog.Logger) *RateLimitedChatModel {
	if qpm <= 0 {
		qpm = 30
	}
	return &RateLimitedChatModel{
		inner:  inner,
		gate:   newRequestGate(qpm),
		logger: logger.With().Str("component", "llm_ratelimit").Logger(),
	}
}

// Generate 限流后转发Generate调用
func (m *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var resp *schema.Message
	err := m.gate.do(ctx, func() error {
		var genErr error
		resp, genErr = m.inner.Generate(ctx, messages, opts...)
		if genErr != nil && isTransientLLMError(genErr) {
			m.logger.Warn().Err(genErr).Msg("LLM调用出现瞬时错误，准备重试")
		}
		return genErr
	})
	return resp, err
}

// Stream 限流后转发Stream调用
func (m *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	err := m.gate.do(ctx, func() error {
		var streamErr error
		stream, streamErr = m.inner.Stream(ctx, messages, opts...)
		return streamErr
	})
	return stream, err
}
