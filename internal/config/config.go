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

// Analysis modes.
const (
	AnalysisModeMCP = "mcp"
	AnalysisModeLLM = "llm"
)

// Config holds the talentrag service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Profiles  ProfilesConfig  `yaml:"profiles"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis/Valkey connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Algorithm       string `yaml:"algorithm"` // hnsw (default) or flat
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds provider settings for embeddings and completions.
type EmbeddingConfig struct {
	Provider   string             `yaml:"provider"`
	APIKey     string             `yaml:"api_key"`
	BaseURL    string             `yaml:"base_url"`
	Model      string             `yaml:"model"`
	ChatModel  string             `yaml:"chat_model"`
	Dimensions int                `yaml:"dimensions"`
	User       string             `yaml:"user"`
	TimeoutSec int                `yaml:"timeout_sec"`
	MaxRetries int                `yaml:"max_retries"` // negative disables retries
	Rates      map[string]float64 `yaml:"rates"`       // USD per 1000 tokens
	Budget     BudgetConfig       `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// RetrievalConfig holds orchestrator defaults.
type RetrievalConfig struct {
	SimilarLimit     int     `yaml:"similar_limit"`
	SimilarThreshold float64 `yaml:"similar_threshold"`
	SearchLimit      int     `yaml:"search_limit"`
	SearchThreshold  float64 `yaml:"search_threshold"`
	BatchConcurrency int     `yaml:"batch_concurrency"`
	BatchSize        int     `yaml:"batch_size"` // profiles per provider call in batch generation
	QueryInstruction string  `yaml:"query_instruction"` // e.g. "query: " for e5-style models
}

// AnalysisConfig selects and configures the analysis tool.
type AnalysisConfig struct {
	Mode        string  `yaml:"mode"` // mcp (default) | llm
	URL         string  `yaml:"url"`
	Tool        string  `yaml:"tool"`
	APIKey      string  `yaml:"api_key"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	MaxRetries  int     `yaml:"max_retries"`
	Temperature float64 `yaml:"temperature"`
}

// ProfilesConfig holds the upstream profile database settings.
type ProfilesConfig struct {
	DSN          string `yaml:"dsn"`
	EnsureSchema bool   `yaml:"ensure_schema"`
}

// AnalyticsConfig holds search analytics settings.
type AnalyticsConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// Retention returns the search record TTL.
func (a AnalyticsConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
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

// Parse decodes YAML configuration, expanding env variables, applying defaults and validating.
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	c.applyEmbeddingDefaults()
	c.applyRetrievalDefaults()
	c.applyAnalysisDefaults()
	if c.Profiles.DSN == "" {
		c.Profiles.DSN = "file:talent.db?_pragma=busy_timeout(5000)"
	}
	if c.Analytics.RetentionDays <= 0 {
		c.Analytics.RetentionDays = 30
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" {
		e.Model = "text-embedding-3-small"
	}
	if e.ChatModel == "" {
		e.ChatModel = "gpt-4o-mini"
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1536
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
	switch {
	case e.MaxRetries == 0:
		e.MaxRetries = 2
	case e.MaxRetries < 0:
		e.MaxRetries = 0
	}
	if e.Budget.Action == "" {
		e.Budget.Action = "warn"
	}
}

func (c *Config) applyRetrievalDefaults() {
	r := &c.Retrieval
	if r.SimilarLimit <= 0 {
		r.SimilarLimit = 3
	}
	if r.SimilarThreshold <= 0 {
		r.SimilarThreshold = 0.7
	}
	if r.SearchLimit <= 0 {
		r.SearchLimit = 10
	}
	if r.SearchThreshold <= 0 {
		r.SearchThreshold = 0.5
	}
	if r.BatchConcurrency <= 0 {
		r.BatchConcurrency = 4
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 32
	}
}

func (c *Config) applyAnalysisDefaults() {
	a := &c.Analysis
	if a.Mode == "" {
		a.Mode = AnalysisModeMCP
	}
	if a.Tool == "" {
		a.Tool = "analyze_talent"
	}
	if a.TimeoutSec <= 0 {
		a.TimeoutSec = 60
	}
	switch {
	case a.MaxRetries == 0:
		a.MaxRetries = 2
	case a.MaxRetries < 0:
		a.MaxRetries = 0
	}
	if a.Temperature <= 0 {
		a.Temperature = 0.2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	switch c.Index.Algorithm {
	case "", "hnsw", "flat":
	default:
		return fmt.Errorf("index.algorithm must be \"hnsw\" or \"flat\", got %q", c.Index.Algorithm)
	}
	if c.Retrieval.SimilarThreshold > 1 || c.Retrieval.SearchThreshold > 1 {
		return fmt.Errorf("retrieval thresholds must be in [0,1]")
	}
	switch c.Analysis.Mode {
	case "", AnalysisModeLLM:
	case AnalysisModeMCP:
		if c.Analysis.URL == "" {
			return fmt.Errorf("analysis.url is required in %q mode", AnalysisModeMCP)
		}
	default:
		return fmt.Errorf("analysis.mode must be %q or %q, got %q",
			AnalysisModeMCP, AnalysisModeLLM, c.Analysis.Mode)
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
