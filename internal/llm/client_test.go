package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecouncil/internal/models"
)

type fakeModel struct {
	calls     int
	failFirst int
	reply     string
}

func (f *fakeModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	if f.calls <= f.failFirst {
		return nil, errors.New("upstream hiccup")
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	fake := &fakeModel{failFirst: 2, reply: "  the answer  "}
	client := NewChatClient(fake, fastRetry(), nil)

	out, err := client.Generate(context.Background(), "role", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "the answer", out, "output is trimmed")
	assert.Equal(t, 3, fake.calls)
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	fake := &fakeModel{failFirst: 100}
	client := NewChatClient(fake, fastRetry(), nil)

	_, err := client.Generate(context.Background(), "role", "prompt")
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))
	assert.Equal(t, 4, fake.calls, "initial attempt plus three retries")
}

type authFailingModel struct{ calls int }

func (f *authFailingModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	return nil, errors.New("request failed: 401 Unauthorized: invalid api key")
}

func (f *authFailingModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func TestGenerateDoesNotRetryPermanentFailures(t *testing.T) {
	fake := &authFailingModel{}
	client := NewChatClient(fake, fastRetry(), nil)

	_, err := client.Generate(context.Background(), "role", "prompt")
	require.Error(t, err)
	assert.True(t, models.IsPermanent(err))
	assert.Equal(t, 1, fake.calls, "credential failures must escalate immediately")
}

func TestGenerateStopsOnCanceledContext(t *testing.T) {
	fake := &fakeModel{failFirst: 100}
	client := NewChatClient(fake, RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.Generate(ctx, "role", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFuncAdapter(t *testing.T) {
	f := Func(func(ctx context.Context, roleContext, prompt string) (string, error) {
		return roleContext + "/" + prompt, nil
	})
	out, err := f.Generate(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", out)
}
