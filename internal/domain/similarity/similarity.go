package similarity

import "github.com/kailas-cloud/talentrag/internal/domain/embedding"

// MaxLimit is the largest result count a caller may ask for.
const MaxLimit = 1000

// Query is a similarity lookup around a known vector.
type Query struct {
	Vector          []float32
	Type            embedding.Type
	Limit           int
	Threshold       float64
	ExcludeEntityID string

	// Provider usage spent producing Vector, recorded with the search.
	Model      string
	TokensUsed int
	Cost       float64
}

// Result is one similar entity. Name, Skills and Technologies are filled by
// a best-effort enrichment lookup and may be empty.
type Result struct {
	EntityID     string   `json:"entity_id"`
	Similarity   float64  `json:"similarity"`
	Name         string   `json:"name,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}
