// Command talentrag-seed loads person profiles from a JSONL file into the
// profile database used by talentrag.
//
// Usage:
//
//	talentrag-seed -file profiles.jsonl
//
// The DSN comes from config/{ENV}.yaml (profiles.dsn) unless -dsn is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/config"
	logpkg "github.com/kailas-cloud/talentrag/internal/logger"
	"github.com/kailas-cloud/talentrag/internal/repository/profile"
)

type options struct {
	file string
	dsn  string
}

func main() {
	opts := parseFlags()

	env := config.GetEnv()
	logger, err := logpkg.NewLogger(env)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, env, opts, logger); err != nil {
		logger.Error("Seed failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.file, "file", "profiles.jsonl", "JSONL file, one profile per line")
	flag.StringVar(&o.dsn, "dsn", "", "profile database DSN (default: profiles.dsn from config)")
	flag.Parse()
	return o
}

func run(ctx context.Context, env string, o options, logger *zap.Logger) error {
	start := time.Now()

	dsn := o.dsn
	if dsn == "" {
		cfg, err := config.Load(env)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dsn = cfg.Profiles.DSN
	}

	reader, err := profile.Open(dsn)
	if err != nil {
		return fmt.Errorf("open profiles: %w", err)
	}
	defer func() { _ = reader.Close() }()

	if err := reader.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	f, err := os.Open(filepath.Clean(o.file))
	if err != nil {
		return fmt.Errorf("open %s: %w", o.file, err)
	}
	defer func() { _ = f.Close() }()

	stats, err := reader.Import(ctx, f)
	for _, failure := range stats.Failures {
		logger.Warn("Skipped profile", zap.String("reason", failure))
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	logger.Info("Seed complete",
		zap.String("file", o.file),
		zap.Int("saved", stats.Saved),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
