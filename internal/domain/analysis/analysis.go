package analysis

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain/profile"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
)

// Type is the kind of analysis requested from the analysis tool.
type Type string

// Analysis types.
const (
	TypeTalentProfile Type = "talent_profile"
	TypeSkillGap      Type = "skill_gap"
	TypeCareerPath    Type = "career_path"
	TypeTeamFit       Type = "team_fit"
	TypeRetentionRisk Type = "retention_risk"
)

// IsValid checks if the analysis type is supported.
func (t Type) IsValid() bool {
	switch t {
	case TypeTalentProfile, TypeSkillGap, TypeCareerPath, TypeTeamFit, TypeRetentionRisk:
		return true
	}
	return false
}

// Urgency is a hint to the analysis tool about response priority.
type Urgency string

// Urgency levels.
const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// IsValid checks if the urgency is supported.
func (u Urgency) IsValid() bool {
	return u == UrgencyLow || u == UrgencyNormal || u == UrgencyHigh
}

// Confidentiality is the sensitivity of the data passed to the analysis tool.
type Confidentiality string

// Confidentiality levels.
const (
	ConfidentialityPublic       Confidentiality = "public"
	ConfidentialityInternal     Confidentiality = "internal"
	ConfidentialityConfidential Confidentiality = "confidential"
	ConfidentialityRestricted   Confidentiality = "restricted"
)

// IsValid checks if the confidentiality level is supported.
func (c Confidentiality) IsValid() bool {
	switch c {
	case ConfidentialityPublic, ConfidentialityInternal, ConfidentialityConfidential, ConfidentialityRestricted:
		return true
	}
	return false
}

// Defaults for optional request fields.
const (
	DefaultCallerRole      = "hr_analyst"
	DefaultUrgency         = UrgencyNormal
	DefaultConfidentiality = ConfidentialityInternal
)

// Request is one analysis request for a single entity.
// Zero SimilarLimit / SimilarThreshold mean "use configured defaults".
type Request struct {
	EntityID             string
	Type                 Type
	IncludeSimilar       bool
	IncludeSkillsContext bool
	SimilarLimit         int
	SimilarThreshold     float64
	CallerRole           string
	Urgency              Urgency
	Confidentiality      Confidentiality
}

// Normalize fills defaults and validates the request.
func (r *Request) Normalize() error {
	if strings.TrimSpace(r.EntityID) == "" {
		return fmt.Errorf("entity id is required")
	}
	if r.Type == "" {
		r.Type = TypeTalentProfile
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("invalid analysis type: %q", r.Type)
	}
	if r.CallerRole == "" {
		r.CallerRole = DefaultCallerRole
	}
	if r.Urgency == "" {
		r.Urgency = DefaultUrgency
	}
	if !r.Urgency.IsValid() {
		return fmt.Errorf("invalid urgency: %q", r.Urgency)
	}
	if r.Confidentiality == "" {
		r.Confidentiality = DefaultConfidentiality
	}
	if !r.Confidentiality.IsValid() {
		return fmt.Errorf("invalid confidentiality level: %q", r.Confidentiality)
	}
	if r.SimilarLimit < 0 || r.SimilarLimit > similarity.MaxLimit {
		return fmt.Errorf("similar limit must be between 0 and %d", similarity.MaxLimit)
	}
	if r.SimilarThreshold < 0 || r.SimilarThreshold > 1 {
		return fmt.Errorf("similar threshold must be between 0 and 1")
	}
	return nil
}

// Bundle is the serialized context handed to the analysis tool.
type Bundle struct {
	AnalysisType    Type                `json:"analysis_type"`
	Entity          profile.Profile     `json:"entity"`
	SimilarEntities []similarity.Result `json:"similar_entities"`
	SkillsContext   string              `json:"skills_context,omitempty"`
}

// ToolRequest is the analysis tool call contract.
type ToolRequest struct {
	Context         string
	AnalysisType    Type
	CallerRole      string
	Urgency         Urgency
	Confidentiality Confidentiality
}

// ToolResult is what the analysis tool returns.
type ToolResult struct {
	Text  string
	Usage map[string]any
}

// Result is the orchestrated analysis outcome.
type Result struct {
	EntityID        string
	AnalysisType    Type
	Text            string
	Usage           map[string]any
	SimilarEntities []similarity.Result
	EmbeddingCached bool
}
