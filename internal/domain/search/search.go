package search

import (
	"time"

	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
)

// Hit is one entry of the result snapshot kept with a search record.
type Hit struct {
	EntityID   string  `json:"entity_id"`
	Similarity float64 `json:"similarity"`
}

// Record is the analytics entry written once per similarity query. Write-only.
type Record struct {
	ID            string
	QueryVector   []float32
	Type          embedding.Type
	Model         string
	Results       []Hit
	Limit         int
	Threshold     float64
	ExecutionTime time.Duration
	TokensUsed    int
	Cost          float64
	CreatedAt     time.Time
}
