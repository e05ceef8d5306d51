package embedding

import (
	"fmt"
	"strings"
)

// Type names what an embedding represents for its entity.
type Type string

// Embedding types.
const (
	// TypeProfile embeds the whole canonical profile text.
	TypeProfile Type = "profile"
	// TypeSkills embeds only the skill and technology summary.
	TypeSkills Type = "skills"
)

// IsValid checks if the embedding type is supported.
func (t Type) IsValid() bool {
	return t == TypeProfile || t == TypeSkills
}

// Metadata is a snapshot of the entity taken when the embedding was generated.
type Metadata struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	SkillCount      int    `json:"skill_count"`
	TechnologyCount int    `json:"technology_count"`
	EducationCount  int    `json:"education_count"`
}

// UpsertInput is what the store needs to create or replace one record.
type UpsertInput struct {
	EntityID   string
	Type       Type
	Vector     []float32
	SourceText string
	Model      string
	TokensUsed int
	Cost       float64
	Metadata   Metadata
}

// Validate checks the input before it reaches storage.
func (in *UpsertInput) Validate() error {
	if strings.TrimSpace(in.EntityID) == "" {
		return fmt.Errorf("entity id is required")
	}
	if !in.Type.IsValid() {
		return fmt.Errorf("invalid embedding type: %q", in.Type)
	}
	if len(in.Vector) == 0 {
		return fmt.Errorf("vector is required")
	}
	if in.TokensUsed < 0 {
		return fmt.Errorf("tokens used must be non-negative")
	}
	if in.Cost < 0 {
		return fmt.Errorf("cost must be non-negative")
	}
	return nil
}

// Record is a stored embedding (immutable value object).
type Record struct {
	entityID   string
	embType    Type
	model      string
	vector     []float32
	sourceText string
	tokensUsed int
	cost       float64
	metadata   Metadata
	createdAt  int64
	updatedAt  int64
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	entityID string, t Type, model string, vector []float32, sourceText string,
	tokensUsed int, cost float64, meta Metadata, createdAt, updatedAt int64,
) Record {
	return Record{
		entityID: entityID, embType: t, model: model, vector: vector, sourceText: sourceText,
		tokensUsed: tokensUsed, cost: cost, metadata: meta, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// EntityID returns the owning entity identifier.
func (r *Record) EntityID() string { return r.entityID }

// Type returns the embedding type.
func (r *Record) Type() Type { return r.embType }

// Model returns the model that produced the vector.
func (r *Record) Model() string { return r.model }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// Dimension returns the vector length.
func (r *Record) Dimension() int { return len(r.vector) }

// SourceText returns the text that was embedded.
func (r *Record) SourceText() string { return r.sourceText }

// TokensUsed returns the provider tokens billed for the vector.
func (r *Record) TokensUsed() int { return r.tokensUsed }

// Cost returns the USD cost of the vector.
func (r *Record) Cost() float64 { return r.cost }

// Metadata returns the entity snapshot.
func (r *Record) Metadata() Metadata { return r.metadata }

// CreatedAt returns the creation timestamp (unix millis).
func (r *Record) CreatedAt() int64 { return r.createdAt }

// UpdatedAt returns the last regeneration timestamp (unix millis).
func (r *Record) UpdatedAt() int64 { return r.updatedAt }

// NeighborQuery parameterizes a nearest-neighbor lookup.
type NeighborQuery struct {
	Vector          []float32
	Type            Type
	Limit           int
	Threshold       float64
	ExcludeEntityID string
}

// Neighbor is one nearest-neighbor hit; Similarity is 1 - cosine distance in [0,1].
type Neighbor struct {
	EntityID   string
	Similarity float64
}

// Stats aggregates the stored embeddings.
type Stats struct {
	CountByType map[Type]int
	Total       int
	TotalTokens int
	TotalCost   float64
}
