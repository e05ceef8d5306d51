package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/batch"
	"github.com/kailas-cloud/talentrag/internal/domain/profile"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// pending is a profile whose embedding must be generated.
type pending struct {
	idx     int
	profile profile.Profile
	text    string
}

// GenerateAllEmbeddings ensures an embedding for every known profile with bounded concurrency.
// Cache misses are embedded in provider batches when the embedder supports it; a failed
// batch is retried item by item. Per-entity failures are recorded in the summary and
// never stop the run.
func (s *Service) GenerateAllEmbeddings(ctx context.Context) (batch.Summary, error) {
	start := time.Now()

	ids, err := s.profiles.ListProfileIDs(ctx)
	if err != nil {
		return batch.Summary{}, &domain.RetrievalError{Op: "list_profiles", Err: err}
	}

	results := make([]batch.Result, len(ids))
	if s.batcher == nil {
		s.forEach(len(ids), func(i int) { results[i] = s.generateOne(ctx, ids[i]) })
	} else {
		misses := s.collectMisses(ctx, ids, results)
		chunks := chunk(misses, s.cfg.BatchSize)
		s.forEach(len(chunks), func(i int) { s.generateChunk(ctx, chunks[i], results) })
	}

	summary := batch.NewSummary(results, time.Since(start))
	s.logger.Info("Batch embedding generation finished",
		zap.Int("total", summary.Total()),
		zap.Int("generated", summary.Generated()),
		zap.Int("cached", summary.Cached()),
		zap.Int("failed", summary.Failed()),
		zap.Duration("duration", summary.Elapsed()),
	)
	return summary, nil
}

// forEach runs fn for 0..n-1 with at most BatchConcurrency calls in flight.
func (s *Service) forEach(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) generateOne(ctx context.Context, id string) batch.Result {
	if err := ctx.Err(); err != nil {
		return s.failed(id, err)
	}

	p, err := s.profiles.FetchProfile(ctx, id)
	if err != nil {
		return s.failed(id, err)
	}
	emb, err := s.ensureEmbedding(ctx, &p, false)
	if err != nil {
		return s.failed(id, err)
	}
	if emb.Cached {
		return s.done(batch.NewCached(id))
	}
	return s.done(batch.NewOK(id))
}

// collectMisses fills results for cached and unreadable profiles and returns the rest.
func (s *Service) collectMisses(ctx context.Context, ids []string, results []batch.Result) []pending {
	slots := make([]*pending, len(ids))

	s.forEach(len(ids), func(i int) {
		id := ids[i]
		if err := ctx.Err(); err != nil {
			results[i] = s.failed(id, err)
			return
		}
		p, err := s.profiles.FetchProfile(ctx, id)
		if err != nil {
			results[i] = s.failed(id, err)
			return
		}
		if _, ok := s.lookupEmbedding(ctx, p.ID); ok {
			results[i] = s.done(batch.NewCached(id))
			return
		}
		slots[i] = &pending{idx: i, profile: p, text: profile.CanonicalText(p)}
	})

	misses := make([]pending, 0, len(ids))
	for _, m := range slots {
		if m != nil {
			misses = append(misses, *m)
		}
	}
	return misses
}

// generateChunk embeds one chunk in a single provider call and stores each vector.
// When the call fails every item falls back to its own Embed call.
func (s *Service) generateChunk(ctx context.Context, items []pending, results []batch.Result) {
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].text
	}

	res, err := s.batcher.BatchEmbed(ctx, texts)
	if err == nil && len(res.Embeddings) != len(items) {
		err = fmt.Errorf("batch returned %d embeddings for %d texts", len(res.Embeddings), len(items))
	}
	if err != nil {
		s.logger.Warn("Batch embedding request failed, falling back to single requests",
			zap.Int("chunk_size", len(items)),
			zap.Error(err),
		)
		for i := range items {
			results[items[i].idx] = s.generateSingle(ctx, &items[i])
		}
		return
	}

	shares := splitUsage(res, len(items))
	for i := range items {
		it := &items[i]
		if _, err := s.storeEmbedding(ctx, &it.profile, it.text, shares[i]); err != nil {
			results[it.idx] = s.failed(it.profile.ID, err)
			continue
		}
		results[it.idx] = s.done(batch.NewOK(it.profile.ID))
	}
}

func (s *Service) generateSingle(ctx context.Context, it *pending) batch.Result {
	res, err := s.embedder.Embed(ctx, it.text)
	if err != nil {
		return s.failed(it.profile.ID, fmt.Errorf("embed profile: %w", err))
	}
	if _, err := s.storeEmbedding(ctx, &it.profile, it.text, res); err != nil {
		return s.failed(it.profile.ID, err)
	}
	return s.done(batch.NewOK(it.profile.ID))
}

func (s *Service) done(r batch.Result) batch.Result {
	metrics.BatchEmbeddingsTotal.WithLabelValues(string(r.Status())).Inc()
	return r
}

func (s *Service) failed(id string, err error) batch.Result {
	metrics.BatchEmbeddingsTotal.WithLabelValues(string(batch.StatusError)).Inc()
	s.logger.Warn("Batch embedding failed", zap.String("entity_id", id), zap.Error(err))
	return batch.NewError(id, &domain.RetrievalError{Op: "generate_embedding", EntityID: id, Err: err})
}

// splitUsage spreads a batch's token and cost totals evenly over its n vectors.
// The token remainder goes to the first items.
func splitUsage(res domain.BatchEmbeddingResult, n int) []domain.EmbeddingResult {
	out := make([]domain.EmbeddingResult, n)
	for i := range out {
		tokens := res.TotalTokens / n
		prompt := res.PromptTokens / n
		if i < res.TotalTokens%n {
			tokens++
		}
		if i < res.PromptTokens%n {
			prompt++
		}
		out[i] = domain.EmbeddingResult{
			Embedding:    res.Embeddings[i],
			Model:        res.Model,
			PromptTokens: prompt,
			TotalTokens:  tokens,
			Cost:         res.Cost / float64(n),
		}
	}
	return out
}

func chunk(items []pending, size int) [][]pending {
	var out [][]pending
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
