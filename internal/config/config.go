// Package config holds the runtime configuration for an analysis run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	MemoryDir    string `json:"memory_dir"`

	LLMProvider    string `json:"llm_provider"` // "openai" or "deepseek"
	DeepThinkLLM   string `json:"deep_think_llm"`
	QuickThinkLLM  string `json:"quick_think_llm"`
	BackendURL     string `json:"backend_url"`
	OpenAIAPIKey   string `json:"-"`
	DeepSeekAPIKey string `json:"-"`
	FinnhubAPIKey  string `json:"-"`

	MaxDebateRounds      int           `json:"max_debate_rounds"`
	MaxRiskDiscussRounds int           `json:"max_risk_discuss_rounds"`
	RetrievalK           int           `json:"retrieval_k"`
	RunTimeout           time.Duration `json:"run_timeout"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),
		MemoryDir:    filepath.Join(currentDir, "data", "memory"),

		LLMProvider:   "openai",
		DeepThinkLLM:  "o4-mini",
		QuickThinkLLM: "gpt-4o-mini",
		BackendURL:    "https://api.openai.com/v1",

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		RetrievalK:           2,
		RunTimeout:           10 * time.Minute,

		OnlineTools:  true,
		CacheEnabled: true,
		Debug:        false,
	}
}

// LoadFromEnv applies environment overrides on top of the defaults. A .env
// file in the working directory is honored when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	cfg.FinnhubAPIKey = os.Getenv("FINNHUB_API_KEY")

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = v
	}
	if v := os.Getenv("DEEP_THINK_LLM"); v != "" {
		cfg.DeepThinkLLM = v
	}
	if v := os.Getenv("QUICK_THINK_LLM"); v != "" {
		cfg.QuickThinkLLM = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.DataCacheDir = filepath.Join(v, "cache")
		cfg.MemoryDir = filepath.Join(v, "memory")
	}
	if v := os.Getenv("DATA_CACHE_DIR"); v != "" {
		cfg.DataCacheDir = v
	}
	if v := os.Getenv("MEMORY_DIR"); v != "" {
		cfg.MemoryDir = v
	}
	if v := os.Getenv("RETRIEVAL_K"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: RETRIEVAL_K: %w", err)
		}
		cfg.RetrievalK = n
	}
	if v := os.Getenv("MAX_DEBATE_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: MAX_DEBATE_ROUNDS: %w", err)
		}
		cfg.MaxDebateRounds = n
	}
	if v := os.Getenv("MAX_RISK_DISCUSS_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: MAX_RISK_DISCUSS_ROUNDS: %w", err)
		}
		cfg.MaxRiskDiscussRounds = n
	}
	if v := os.Getenv("RUN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: RUN_TIMEOUT: %w", err)
		}
		cfg.RunTimeout = d
	}
	if v := os.Getenv("ONLINE_TOOLS"); v != "" {
		cfg.OnlineTools = v == "true" || v == "1"
	}
	if v := os.Getenv("TRADECOUNCIL_DEBUG"); v != "" {
		cfg.Debug = v == "true" || v == "1"
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxDebateRounds < 1 {
		return fmt.Errorf("config: max_debate_rounds must be >= 1")
	}
	if c.MaxRiskDiscussRounds < 1 {
		return fmt.Errorf("config: max_risk_discuss_rounds must be >= 1")
	}
	if c.RetrievalK < 0 {
		return fmt.Errorf("config: retrieval_k must be >= 0")
	}
	switch c.LLMProvider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("config: unknown llm_provider %q", c.LLMProvider)
	}
	return nil
}

// EnsureDirectories creates the results, data and memory directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.ResultsDir, c.DataDir, c.DataCacheDir, c.MemoryDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
