package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.MaxDebateRounds)
	assert.Equal(t, 1, cfg.MaxRiskDiscussRounds)
	assert.True(t, cfg.OnlineTools)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDebateRounds = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxRiskDiscussRounds = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RetrievalK = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LLMProvider = "unknown"
	assert.Error(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("MAX_DEBATE_ROUNDS", "3")
	t.Setenv("RUN_TIMEOUT", "5m")
	t.Setenv("ONLINE_TOOLS", "false")
	t.Setenv("FINNHUB_API_KEY", "fh-test")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.LLMProvider)
	assert.Equal(t, 3, cfg.MaxDebateRounds)
	assert.Equal(t, "5m0s", cfg.RunTimeout.String())
	assert.False(t, cfg.OnlineTools)
	assert.Equal(t, "fh-test", cfg.FinnhubAPIKey)
}

func TestDirAndRetrievalOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "5")
	t.Setenv("DATA_DIR", "/var/lib/tc")
	t.Setenv("RESULTS_DIR", "/srv/tc-results")
	t.Setenv("MEMORY_DIR", "/var/lib/tc-memory")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RetrievalK)
	assert.Equal(t, "/srv/tc-results", cfg.ResultsDir)
	assert.Equal(t, "/var/lib/tc", cfg.DataDir)
	assert.Equal(t, "/var/lib/tc/cache", cfg.DataCacheDir)
	assert.Equal(t, "/var/lib/tc-memory", cfg.MemoryDir, "explicit memory dir wins over the data-dir default")
}

func TestBadEnvValueRejected(t *testing.T) {
	t.Setenv("MAX_DEBATE_ROUNDS", "lots")
	_, err := LoadFromEnv()
	require.Error(t, err)
}
