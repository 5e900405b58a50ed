package dataflows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Hour, true)

	type payload struct {
		Symbol string `json:"symbol"`
		Value  int    `json:"value"`
	}
	params := map[string]interface{}{"symbol": "AAPL"}

	var missed payload
	assert.False(t, cache.Get("test", "quote", params, &missed))

	require.NoError(t, cache.Set("test", "quote", params, payload{Symbol: "AAPL", Value: 42}))

	var hit payload
	require.True(t, cache.Get("test", "quote", params, &hit))
	assert.Equal(t, 42, hit.Value)

	// Different params mean a different key.
	var other payload
	assert.False(t, cache.Get("test", "quote", map[string]interface{}{"symbol": "MSFT"}, &other))
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), 1*time.Nanosecond, true)

	require.NoError(t, cache.Set("test", "quote", "AAPL", map[string]string{"a": "b"}))
	time.Sleep(5 * time.Millisecond)

	var out map[string]string
	assert.False(t, cache.Get("test", "quote", "AAPL", &out))
}

func TestCacheDisabled(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Hour, false)

	require.NoError(t, cache.Set("test", "quote", "AAPL", "data"))
	var out string
	assert.False(t, cache.Get("test", "quote", "AAPL", &out))
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	attempts := 0
	err := WithRetry(cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	attempts := 0
	err := WithRetry(cfg, func() error {
		attempts++
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestValidateSymbol(t *testing.T) {
	assert.NoError(t, ValidateSymbol("AAPL"))
	assert.NoError(t, ValidateSymbol("brk.b"))
	assert.Error(t, ValidateSymbol(""))
	assert.Error(t, ValidateSymbol("   "))
	assert.Error(t, ValidateSymbol("WAYTOOLONGSYMBOL"))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
}
