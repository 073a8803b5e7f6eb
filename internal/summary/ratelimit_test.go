package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/eino/schema"
)

func TestRequestGate_AllowsBurstUpToCapacity(t *testing.T) {
	gate := newRequestGate(120) // 容量60，初始即满

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, gate.wait(ctx))
	}
	assert.Less(t, time.Since(start), 200*time.Millisecond, "桶内有令牌时不应阻塞")
}

func TestRequestGate_CancelledContextStopsWaiting(t *testing.T) {
	gate := newRequestGate(1)
	gate.tokens = 0

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := gate.wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestGate_RetriesTransientErrors(t *testing.T) {
	gate := newRequestGate(6000)
	gate.retryWait = time.Millisecond

	calls := 0
	err := gate.do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("429 rate limit exceeded")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRequestGate_DoesNotRetryPermanentErrors(t *testing.T) {
	gate := newRequestGate(6000)

	calls := 0
	permanent := errors.New("invalid api key")
	err := gate.do(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRateLimitedChatModel_ForwardsGenerate(t *testing.T) {
	mock := &MockChatModel{response: "ok"}
	limited := NewRateLimitedChatModel(mock, 600, zerolog.Nop())

	resp, err := limited.Generate(context.Background(), []*schema.Message{
		schema.UserMessage("hello"),
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}
