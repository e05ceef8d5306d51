package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects provider token usage and cost for a single HTTP request.
// The handler puts a collector into the context before calling the service;
// services add to it after every provider call; the handler reads it for response headers.
type EmbeddingUsage struct {
	mu          sync.Mutex
	totalTokens int
	cost        float64
	used        bool // true if the provider was consulted, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records consumed tokens and their cost. Safe on a nil receiver.
func (u *EmbeddingUsage) Add(tokens int, cost float64) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.totalTokens += tokens
	u.cost += cost
	u.used = true
	u.mu.Unlock()
}

// TotalTokens returns the tokens recorded so far.
func (u *EmbeddingUsage) TotalTokens() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens
}

// Cost returns the accumulated cost in USD.
func (u *EmbeddingUsage) Cost() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cost
}

// Used reports whether any provider call was recorded.
func (u *EmbeddingUsage) Used() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.used
}
