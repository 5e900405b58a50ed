// Package llm wraps the external text-generation capability behind a small
// interface. The backing service is slow, rate-limited and nondeterministic;
// callers get bounded retry with backoff on transient failure and a hard
// error on persistent failure.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"tradecouncil/internal/config"
	"tradecouncil/internal/models"
)

// Client generates text for a role given a prompt.
type Client interface {
	Generate(ctx context.Context, roleContext, prompt string) (string, error)
}

// Func adapts a plain function to Client. Used for deterministic stubs in
// tests.
type Func func(ctx context.Context, roleContext, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, roleContext, prompt string) (string, error) {
	return f(ctx, roleContext, prompt)
}

// RetryConfig bounds the retry loop around each generation call.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns the retry policy used for reasoning calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

type chatClient struct {
	chatModel model.BaseChatModel
	retry     RetryConfig
	logger    *zap.Logger
}

// NewChatClient wraps an eino chat model with retry and logging.
func NewChatClient(chatModel model.BaseChatModel, retry RetryConfig, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &chatClient{chatModel: chatModel, retry: retry, logger: logger}
}

// NewFromConfig builds a client for the configured provider. deep selects
// the deep-thinking model used by the manager stages; the quick model serves
// everything else.
func NewFromConfig(ctx context.Context, cfg *config.Config, deep bool, logger *zap.Logger) (Client, error) {
	modelName := cfg.QuickThinkLLM
	if deep {
		modelName = cfg.DeepThinkLLM
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch cfg.LLMProvider {
	case "deepseek":
		chatModel, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     modelName,
			MaxTokens: 4096,
		})
	case "openai":
		maxTokens := 4096
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     modelName,
			MaxTokens: &maxTokens,
		})
	default:
		return nil, models.Permanent("llm", fmt.Errorf("unknown provider %q", cfg.LLMProvider))
	}
	if err != nil {
		return nil, models.Permanent("llm", fmt.Errorf("creating %s chat model: %w", cfg.LLMProvider, err))
	}

	return NewChatClient(chatModel, DefaultRetryConfig(), logger), nil
}

func (c *chatClient) Generate(ctx context.Context, roleContext, prompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(roleContext),
		schema.UserMessage(prompt),
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(c.retry, attempt)
			c.logger.Debug("retrying generation",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := c.chatModel.Generate(ctx, messages)
		if err == nil {
			return strings.TrimSpace(out.Content), nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if isPermanentGenerationError(err) {
			return "", models.Permanent("llm generate", err)
		}
		lastErr = err
	}

	return "", models.Transient("llm generate", fmt.Errorf("max retries exceeded: %w", lastErr))
}

// Failure modes no retry will fix: bad credentials, rejected requests,
// unknown models. Providers surface these as 4xx-style messages.
var permanentErrorMarkers = []string{
	"status code: 400", "status code: 401", "status code: 403", "status code: 404",
	"401 unauthorized", "403 forbidden", "invalid api key", "incorrect api key",
	"invalid_request_error", "model_not_found",
}

func isPermanentGenerationError(err error) bool {
	if models.IsPermanent(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func backoffDelay(r RetryConfig, attempt int) time.Duration {
	delay := float64(r.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= r.Multiplier
	}
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}
	return time.Duration(delay)
}
