package dataflows

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CacheManager handles file-based TTL caching for adapter responses.
type CacheManager struct {
	cacheDir string
	ttl      time.Duration
	enabled  bool
}

// NewCacheManager creates a cache rooted at cacheDir with the given TTL.
func NewCacheManager(cacheDir string, ttl time.Duration, enabled bool) *CacheManager {
	return &CacheManager{cacheDir: cacheDir, ttl: ttl, enabled: enabled}
}

func (cm *CacheManager) key(source, method string, params interface{}) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("%s_%s_%x.json", source, method, md5.Sum(data))
}

// Get retrieves cached data if present and not expired.
func (cm *CacheManager) Get(source, method string, params, result interface{}) bool {
	if !cm.enabled {
		return false
	}
	path := filepath.Join(cm.cacheDir, cm.key(source, method, params))

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > cm.ttl {
		os.Remove(path)
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

// Set stores data in the cache.
func (cm *CacheManager) Set(source, method string, params, data interface{}) error {
	if !cm.enabled {
		return nil
	}
	if err := os.MkdirAll(cm.cacheDir, 0755); err != nil {
		return err
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cm.cacheDir, cm.key(source, method, params)), jsonData, 0644)
}

// RetryConfig configures retry behavior for adapter calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible retry defaults for data adapters.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry executes fn with exponential backoff until it succeeds or the
// retry budget is exhausted.
func WithRetry(config *RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(config.BaseDelay) *
				math.Pow(config.Multiplier, float64(attempt-1)))
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
			time.Sleep(delay)
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ValidateSymbol checks that a stock symbol has a plausible format.
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if len(symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}

// NormalizeSymbol converts a symbol to its canonical upper-case form.
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// FormatDateRange renders a human-readable date range.
func FormatDateRange(start, end time.Time) string {
	return fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}
