package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Analysis: AnalysisConfig{Mode: AnalysisModeLLM},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget = BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_AnalysisMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		url     string
		wantErr bool
	}{
		{"llm", AnalysisModeLLM, "", false},
		{"mcp with url", AnalysisModeMCP, "http://tool:8090/mcp", false},
		{"mcp without url", AnalysisModeMCP, "", true},
		{"unknown", "grpc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Analysis.Mode = tt.mode
			cfg.Analysis.URL = tt.url

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_IndexAlgorithm(t *testing.T) {
	for _, algo := range []string{"", "hnsw", "flat"} {
		cfg := validConfig()
		cfg.Index.Algorithm = algo
		if err := cfg.Validate(); err != nil {
			t.Errorf("algorithm %q: unexpected error %v", algo, err)
		}
	}

	cfg := validConfig()
	cfg.Index.Algorithm = "ivf"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown index algorithm")
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.SimilarThreshold = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold > 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.TimeoutSec != 30 {
		t.Errorf("expected embedding TimeoutSec=30, got %d", cfg.Embedding.TimeoutSec)
	}
	if cfg.Embedding.MaxRetries != 2 {
		t.Errorf("expected embedding MaxRetries=2, got %d", cfg.Embedding.MaxRetries)
	}
	if cfg.Embedding.Budget.Action != "warn" {
		t.Errorf("expected budget action warn, got %q", cfg.Embedding.Budget.Action)
	}
	if cfg.Retrieval.SimilarLimit != 3 {
		t.Errorf("expected SimilarLimit=3, got %d", cfg.Retrieval.SimilarLimit)
	}
	if cfg.Retrieval.SimilarThreshold != 0.7 {
		t.Errorf("expected SimilarThreshold=0.7, got %v", cfg.Retrieval.SimilarThreshold)
	}
	if cfg.Retrieval.BatchConcurrency != 4 {
		t.Errorf("expected BatchConcurrency=4, got %d", cfg.Retrieval.BatchConcurrency)
	}
	if cfg.Analysis.Mode != AnalysisModeMCP {
		t.Errorf("expected analysis mode mcp, got %q", cfg.Analysis.Mode)
	}
	if cfg.Analysis.Tool != "analyze_talent" {
		t.Errorf("expected tool analyze_talent, got %q", cfg.Analysis.Tool)
	}
	if cfg.Analytics.Retention() != 30*24*time.Hour {
		t.Errorf("expected 30d retention, got %v", cfg.Analytics.Retention())
	}
}

func TestApplyDefaults_NegativeRetriesDisable(t *testing.T) {
	cfg := Config{
		Embedding: EmbeddingConfig{MaxRetries: -1},
		Analysis:  AnalysisConfig{MaxRetries: -1},
	}
	cfg.ApplyDefaults()

	if cfg.Embedding.MaxRetries != 0 || cfg.Analysis.MaxRetries != 0 {
		t.Errorf("expected retries disabled, got %d/%d", cfg.Embedding.MaxRetries, cfg.Analysis.MaxRetries)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Index:     IndexConfig{HNSWM: 32, HNSWEFConstruct: 400},
		Retrieval: RetrievalConfig{SimilarLimit: 5, SimilarThreshold: 0.8},
		Analysis:  AnalysisConfig{Mode: AnalysisModeLLM, Temperature: 0.7},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Retrieval.SimilarLimit != 5 || cfg.Retrieval.SimilarThreshold != 0.8 {
		t.Errorf("retrieval overridden: %+v", cfg.Retrieval)
	}
	if cfg.Analysis.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %v", cfg.Analysis.Temperature)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TALENT_TEST_PORT", "9090")

	data := []byte(strings.Join([]string{
		"http:",
		"  port: ${TALENT_TEST_PORT}",
		"database:",
		"  addrs: [\"${TALENT_TEST_ADDR:-valkey:6379}\"]",
		"analysis:",
		"  mode: llm",
		"embedding:",
		"  rates:",
		"    custom-model: 0.5",
	}, "\n"))

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "valkey:6379" {
		t.Errorf("expected default addr, got %v", cfg.Database.Addrs)
	}
	if cfg.Embedding.Rates["custom-model"] != 0.5 {
		t.Errorf("expected rate override, got %v", cfg.Embedding.Rates)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected YAML error")
	}
}
