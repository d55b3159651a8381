package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the embedding and rerank sections.
const (
	EmbeddingOpenAI  = "openai"
	EmbeddingHashing = "hashing"

	RerankHTTP    = "http"
	RerankLexical = "lexical"
)

// Config holds the tenantrag API configuration.
type Config struct {
	HTTP          HTTPConfig         `yaml:"http"`
	Redis         RedisConfig        `yaml:"redis"`
	Embedding     EmbeddingConfig    `yaml:"embedding"`
	Rerank        RerankConfig       `yaml:"rerank"`
	Retrieval     RetrievalConfig    `yaml:"retrieval"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`
	Safety        SafetyConfig       `yaml:"safety"`
	Identity      IdentityConfig     `yaml:"identity"`
	Subscriptions []SubscriptionSeed `yaml:"subscriptions"`
	Audit         AuditConfig        `yaml:"audit"`
	Auth          AuthConfig         `yaml:"auth"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// RedisConfig holds Redis connection settings. Empty Addrs runs everything in-process.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, hashing
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	BatchSize           int    `yaml:"batch_size"`
	CacheSize           int    `yaml:"cache_size"` // in-process LRU entries when Redis is off
	CacheTTLSec         int    `yaml:"cache_ttl_sec"`
}

// RerankConfig holds reranker settings.
type RerankConfig struct {
	Provider   string  `yaml:"provider"` // http, lexical
	BaseURL    string  `yaml:"base_url"`
	APIKey     string  `yaml:"api_key"`
	TimeoutSec int     `yaml:"timeout_sec"`
	RPS        float64 `yaml:"rps"` // 0 = unthrottled
	RawScores  bool    `yaml:"raw_scores"`
}

// RetrievalConfig tunes chunking and ranking.
type RetrievalConfig struct {
	ChunkSize      int      `yaml:"chunk_size"`
	TopK           int      `yaml:"top_k"`
	BaseConfidence *float64 `yaml:"base_confidence"` // nil: 0.7

}

// RateLimitConfig holds the per-agent request quota.
type RateLimitConfig struct {
	Limit     int `yaml:"limit"`
	WindowSec int `yaml:"window_sec"`
}

// Window returns the sliding window length.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSec) * time.Second
}

// SafetyConfig holds content rules. Nil lists use the built-in defaults,
// an explicit empty list disables the rule.
type SafetyConfig struct {
	Keywords  []string `yaml:"keywords"`
	Patterns  []string `yaml:"patterns"`
	Profanity []string `yaml:"profanity"`
}

// IdentityConfig seeds known agents.
type IdentityConfig struct {
	Agents []AgentSeed `yaml:"agents"`
}

// AgentSeed is an agent with a preset credential.
type AgentSeed struct {
	ID         string `yaml:"id"`
	Credential string `yaml:"credential"`
	Role       string `yaml:"role"`
}

// SubscriptionSeed presets an agent's subscription.
type SubscriptionSeed struct {
	Agent  string `yaml:"agent"`
	Status string `yaml:"status"`
	Plan   string `yaml:"plan"`
}

// AuditConfig holds audit journal settings.
type AuditConfig struct {
	MaxEntries    int64 `yaml:"max_entries"`    // Redis list cap
	MemoryEntries int   `yaml:"memory_entries"` // in-process ring size when Redis is off
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 100 << 20
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = EmbeddingHashing
	}
	if c.Embedding.Model == "" && c.Embedding.Provider == EmbeddingOpenAI {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 && c.Embedding.Provider == EmbeddingHashing {
		c.Embedding.Dimensions = 256
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 256
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 10000
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 30 * 24 * 60 * 60
	}

	if c.Rerank.Provider == "" {
		c.Rerank.Provider = RerankLexical
		if c.Rerank.BaseURL != "" {
			c.Rerank.Provider = RerankHTTP
		}
	}
	if c.Rerank.TimeoutSec <= 0 {
		c.Rerank.TimeoutSec = 30
	}

	if c.Retrieval.ChunkSize <= 0 {
		c.Retrieval.ChunkSize = 300
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.BaseConfidence == nil {
		base := 0.7
		c.Retrieval.BaseConfidence = &base
	}

	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 2000
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 24 * 60 * 60
	}

	if c.Audit.MaxEntries <= 0 {
		c.Audit.MaxEntries = 100000
	}
	if c.Audit.MemoryEntries <= 0 {
		c.Audit.MemoryEntries = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Embedding.Provider {
	case EmbeddingOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider %q", EmbeddingOpenAI)
		}
	case EmbeddingHashing:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			EmbeddingOpenAI, EmbeddingHashing, c.Embedding.Provider)
	}

	switch c.Rerank.Provider {
	case RerankHTTP:
		if c.Rerank.BaseURL == "" {
			return fmt.Errorf("rerank.base_url is required for provider %q", RerankHTTP)
		}
	case RerankLexical:
	default:
		return fmt.Errorf("rerank.provider must be %q or %q, got %q",
			RerankHTTP, RerankLexical, c.Rerank.Provider)
	}
	if c.Rerank.RPS < 0 {
		return fmt.Errorf("rerank.rps must not be negative, got %v", c.Rerank.RPS)
	}

	if b := c.Retrieval.BaseConfidence; b != nil && (*b < 0 || *b > 1) {
		return fmt.Errorf("retrieval.base_confidence must be in [0, 1], got %v", *b)
	}

	seen := make(map[string]bool, len(c.Identity.Agents))
	for i, a := range c.Identity.Agents {
		if a.ID == "" || a.Credential == "" {
			return fmt.Errorf("identity.agents[%d]: id and credential are required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("identity.agents[%d]: duplicate agent %q", i, a.ID)
		}
		seen[a.ID] = true
	}
	for i, s := range c.Subscriptions {
		if s.Agent == "" {
			return fmt.Errorf("subscriptions[%d]: agent is required", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
