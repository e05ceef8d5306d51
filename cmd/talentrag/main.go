package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/config"
	"github.com/kailas-cloud/talentrag/internal/db"
	dbRedis "github.com/kailas-cloud/talentrag/internal/db/redis"
	"github.com/kailas-cloud/talentrag/internal/domain"
	logpkg "github.com/kailas-cloud/talentrag/internal/logger"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/repository/budget"
	embeddingrepo "github.com/kailas-cloud/talentrag/internal/repository/embedding"
	"github.com/kailas-cloud/talentrag/internal/repository/profile"
	"github.com/kailas-cloud/talentrag/internal/retry"
	chiTransport "github.com/kailas-cloud/talentrag/internal/transport/chi"
	mcpTransport "github.com/kailas-cloud/talentrag/internal/transport/mcp"
	openaiTransport "github.com/kailas-cloud/talentrag/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/talentrag/internal/usecase/analysis"
	embeddinguc "github.com/kailas-cloud/talentrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/talentrag/internal/usecase/health"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/talentrag/internal/usecase/similarity"
	usageuc "github.com/kailas-cloud/talentrag/internal/usecase/usage"
	"github.com/kailas-cloud/talentrag/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting talentrag API server",
		zap.String("build", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("analysis_mode", cfg.Analysis.Mode),
	)

	// Valkey Search and Redis Stack share the FT.* surface, one rueidis store serves both.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterHTTPMetrics()

	embRepo := embeddingrepo.New(store, embeddingrepo.Config{
		Dimensions:      cfg.Embedding.Dimensions,
		SearchRetention: cfg.Analytics.Retention(),
		Algorithm:       db.VectorAlgorithm(strings.ToUpper(cfg.Index.Algorithm)),
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})
	indexStatus, err := embRepo.EnsureIndex(ctx)
	if err != nil {
		logger.Fatal("Failed to ensure embedding index", zap.Error(err))
	}
	if indexStatus.Rebuilt {
		logger.Warn("Embedding index rebuilt for a new vector shape, stale embeddings purged",
			zap.Int("dimensions", cfg.Embedding.Dimensions),
			zap.String("algorithm", cfg.Index.Algorithm),
			zap.Int("purged", indexStatus.Purged),
		)
	}

	profiles, err := profile.Open(cfg.Profiles.DSN)
	if err != nil {
		logger.Fatal("Failed to open profile database", zap.Error(err))
	}
	defer func() { _ = profiles.Close() }()
	if cfg.Profiles.EnsureSchema {
		if err := profiles.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to ensure profile schema", zap.Error(err))
		}
	}

	// Single BudgetTracker shared by embeddings, completions and the usage report.
	tracker := buildBudget(ctx, &cfg, store, logger)
	var budgetChecker embeddinguc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if tracker != nil {
		budgetChecker = tracker
		budgetReader = tracker
	}

	provider := openaiTransport.NewProvider(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		ChatModel:  cfg.Embedding.ChatModel,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Retry:      retryConfig(cfg.Embedding.MaxRetries),
		Rates:      domain.DefaultRates().Merge(cfg.Embedding.Rates),
		Logger:     logger,
	})
	embedder := embeddinguc.NewInstrumentedEmbedder(
		provider, cfg.Embedding.Provider, cfg.Embedding.Model, budgetChecker, logger,
	)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	analyzer, closeAnalyzer := buildAnalyzer(&cfg, embedder, logger)
	defer closeAnalyzer()

	finder := similarity.New(embRepo, logger)
	retrievalSvc := retrieval.New(embRepo, embedder, finder, profiles, analyzer, retrieval.Config{
		SimilarLimit:     cfg.Retrieval.SimilarLimit,
		SimilarThreshold: cfg.Retrieval.SimilarThreshold,
		SearchLimit:      cfg.Retrieval.SearchLimit,
		SearchThreshold:  cfg.Retrieval.SearchThreshold,
		BatchConcurrency: cfg.Retrieval.BatchConcurrency,
		BatchSize:        cfg.Retrieval.BatchSize,
		QueryInstruction: cfg.Retrieval.QueryInstruction,
	}, logger)

	usageSvc := usageuc.New(embRepo, budgetReader)
	healthSvc := healthuc.New(store, profiles, embedder)

	server := chiTransport.NewServer(retrievalSvc, usageSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildBudget returns nil when no limit is configured.
func buildBudget(
	ctx context.Context, cfg *config.Config, store *dbRedis.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	b := cfg.Embedding.Budget
	if b.DailyTokenLimit <= 0 && b.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if b.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	tracker := embeddinguc.NewBudgetTracker(
		cfg.Embedding.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger,
	)
	// Connect persistence store, loads current counters from the DB.
	return tracker.WithStore(ctx, budget.New(store, 48*time.Hour, 62*24*time.Hour))
}

// buildAnalyzer picks the analysis tool by mode. The returned func releases its resources.
func buildAnalyzer(
	cfg *config.Config, embedder *embeddinguc.InstrumentedEmbedder, logger *zap.Logger,
) (retrieval.Analyzer, func()) {
	if cfg.Analysis.Mode == config.AnalysisModeLLM {
		logger.Info("Analysis via chat completions", zap.String("model", cfg.Embedding.ChatModel))
		return analysisuc.NewLLMAnalyzer(embedder, float32(cfg.Analysis.Temperature)), func() {}
	}

	client := mcpTransport.NewAnalysisClient(mcpTransport.Config{
		URL:     cfg.Analysis.URL,
		Tool:    cfg.Analysis.Tool,
		APIKey:  cfg.Analysis.APIKey,
		Timeout: time.Duration(cfg.Analysis.TimeoutSec) * time.Second,
		Retry:   retryConfig(cfg.Analysis.MaxRetries),
		Logger:  logger,
	})
	logger.Info("Analysis via MCP tool",
		zap.String("url", cfg.Analysis.URL),
		zap.String("tool", cfg.Analysis.Tool),
	)
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close analysis client", zap.Error(err))
		}
	}
}

func retryConfig(maxRetries int) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = maxRetries
	return rc
}
