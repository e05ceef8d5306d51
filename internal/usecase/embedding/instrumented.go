package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/usage/budget"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest batch sent in a single provider request.
const DefaultMaxAPIBatchSize = 256

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64, cost float64)
	Daily() budget.Budget
	Monthly() budget.Budget
}

// InstrumentedEmbedder wraps the provider with budget enforcement and usage accounting.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
// This layer owns budget tracking, budget metrics and the per-request usage collector.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with budget and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Embed checks budget, delegates to the inner embedder, and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if err := p.checkBudget(ctx, "embed", p.model); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.recordUsage(ctx, result.TotalTokens, result.Cost)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Float64("cost", result.Cost),
	)

	return result, nil
}

// BatchEmbed checks budget, splits texts into provider-sized chunks and delegates to inner.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	if err := p.checkBudget(ctx, "batch_embed", p.model); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	duration := time.Since(start)
	p.recordUsage(ctx, result.TotalTokens, result.Cost)

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Float64("cost", result.Cost),
	)

	return result, nil
}

// Complete runs a chat completion through the same budget when the inner provider supports it.
func (p *InstrumentedEmbedder) Complete(
	ctx context.Context, messages []domain.ChatMessage, temperature float32,
) (domain.CompletionResult, error) {
	c, ok := p.inner.(domain.Completer)
	if !ok {
		return domain.CompletionResult{}, &domain.ProviderError{
			Provider: p.provider, Op: "complete", Err: fmt.Errorf("provider does not support completions"),
		}
	}

	if err := p.checkBudget(ctx, "complete", ""); err != nil {
		return domain.CompletionResult{}, err
	}

	start := time.Now()
	result, err := c.Complete(ctx, messages, temperature)
	if err != nil {
		p.logger.Error("Completion request failed",
			zap.String("provider", p.provider),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	p.recordUsage(ctx, result.TotalTokens, result.Cost)

	p.logger.Debug("Completion request completed",
		zap.String("provider", p.provider),
		zap.String("model", result.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck delegates to the inner provider when it can report health.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("provider health: %w", err)
		}
	}
	return nil
}

func (p *InstrumentedEmbedder) checkBudget(ctx context.Context, op, model string) error {
	if p.budget == nil {
		return nil
	}
	if err := p.budget.Check(ctx); err != nil {
		p.logger.Error("Budget exceeded",
			zap.String("provider", p.provider),
			zap.String("op", op),
			zap.Error(err),
		)
		return &domain.ProviderError{Provider: p.provider, Model: model, Op: op, Err: err}
	}
	return nil
}

// embedChunked splits texts into DefaultMaxAPIBatchSize chunks, re-checking budget between chunks.
func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult

	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		if offset > 0 {
			if err := p.checkBudget(ctx, "batch_embed", p.model); err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("chunk %d: %w", offset, err)
			}
		}

		end := min(offset+DefaultMaxAPIBatchSize, len(texts))
		chunk := texts[offset:end]

		chunkResult, err := p.embedInner(ctx, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		out.Embeddings = append(out.Embeddings, chunkResult.Embeddings...)
		out.Model = chunkResult.Model
		out.PromptTokens += chunkResult.PromptTokens
		out.TotalTokens += chunkResult.TotalTokens
		out.Cost += chunkResult.Cost
	}

	return out, nil
}

func (p *InstrumentedEmbedder) embedInner(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch embed: %w", err)
		}
		return res, nil
	}
	res, err := domain.BatchFallback(ctx, p.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch fallback: %w", err)
	}
	return res, nil
}

func (p *InstrumentedEmbedder) recordUsage(ctx context.Context, tokens int, cost float64) {
	domain.UsageFromContext(ctx).Add(tokens, cost)

	if p.budget == nil || tokens <= 0 {
		return
	}
	p.budget.Record(int64(tokens), cost)

	remaining := metrics.EmbeddingBudgetTokensRemaining
	remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.Daily().TokensRemaining()))
	remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.Monthly().TokensRemaining()))
}
