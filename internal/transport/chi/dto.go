package chi

import (
	"time"

	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
	"github.com/kailas-cloud/talentrag/internal/domain/batch"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
	domusage "github.com/kailas-cloud/talentrag/internal/domain/usage"
	"github.com/kailas-cloud/talentrag/internal/domain/usage/budget"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeNotFound          ErrorCode = "not_found"
	CodeQuotaExceeded     ErrorCode = "embedding_quota_exceeded"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeProviderError     ErrorCode = "embedding_provider_error"
	CodeAnalysisFailed    ErrorCode = "analysis_failed"
	CodeStoreUnavailable  ErrorCode = "store_unavailable"
	CodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// AnalysisRequest is the body of POST /profiles/{id}/analysis.
type AnalysisRequest struct {
	AnalysisType         string  `json:"analysis_type"`
	IncludeSimilar       *bool   `json:"include_similar"`
	IncludeSkillsContext *bool   `json:"include_skills_context"`
	SimilarLimit         int     `json:"similar_limit"`
	SimilarThreshold     float64 `json:"similar_threshold"`
	CallerRole           string  `json:"caller_role"`
	Urgency              string  `json:"urgency"`
	ConfidentialityLevel string  `json:"confidentiality_level"`
}

func (r *AnalysisRequest) toDomain(entityID string) analysis.Request {
	return analysis.Request{
		EntityID:             entityID,
		Type:                 analysis.Type(r.AnalysisType),
		IncludeSimilar:       derefBool(r.IncludeSimilar, true),
		IncludeSkillsContext: derefBool(r.IncludeSkillsContext, true),
		SimilarLimit:         r.SimilarLimit,
		SimilarThreshold:     r.SimilarThreshold,
		CallerRole:           r.CallerRole,
		Urgency:              analysis.Urgency(r.Urgency),
		Confidentiality:      analysis.Confidentiality(r.ConfidentialityLevel),
	}
}

// AnalysisResponse is the body returned by the analysis endpoint.
type AnalysisResponse struct {
	EntityID        string              `json:"entity_id"`
	AnalysisType    string              `json:"analysis_type"`
	Result          string              `json:"result"`
	Usage           map[string]any      `json:"usage"`
	SimilarEntities []similarity.Result `json:"similar_entities"`
	EmbeddingCached bool                `json:"embedding_cached"`
}

func analysisResultToResponse(r *analysis.Result) AnalysisResponse {
	similar := r.SimilarEntities
	if similar == nil {
		similar = []similarity.Result{}
	}
	usage := r.Usage
	if usage == nil {
		usage = map[string]any{}
	}
	return AnalysisResponse{
		EntityID:        r.EntityID,
		AnalysisType:    string(r.AnalysisType),
		Result:          r.Text,
		Usage:           usage,
		SimilarEntities: similar,
		EmbeddingCached: r.EmbeddingCached,
	}
}

// EmbeddingResponse describes the embedding state of one profile.
type EmbeddingResponse struct {
	EntityID   string  `json:"entity_id"`
	Model      string  `json:"model"`
	Dimension  int     `json:"dimension"`
	Cached     bool    `json:"cached"`
	Created    bool    `json:"created"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}

func embeddingToResponse(e *retrieval.Embedding) EmbeddingResponse {
	return EmbeddingResponse{
		EntityID:   e.EntityID,
		Model:      e.Model,
		Dimension:  len(e.Vector),
		Cached:     e.Cached,
		Created:    e.Created,
		TokensUsed: e.TokensUsed,
		Cost:       e.Cost,
	}
}

// DeleteEmbeddingsResponse reports how many embedding records were removed.
type DeleteEmbeddingsResponse struct {
	EntityID string `json:"entity_id"`
	Deleted  int    `json:"deleted"`
}

// SimilarSearchRequest is the body of POST /search/similar.
type SimilarSearchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

// SimilarResponse wraps similarity hits.
type SimilarResponse struct {
	Items []similarity.Result `json:"items"`
	Count int                 `json:"count"`
}

func similarToResponse(items []similarity.Result) SimilarResponse {
	if items == nil {
		items = []similarity.Result{}
	}
	return SimilarResponse{Items: items, Count: len(items)}
}

// BatchItem is the outcome for one profile in a batch run.
type BatchItem struct {
	EntityID string `json:"entity_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// BatchResponse summarizes GenerateAllEmbeddings.
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Generated int         `json:"generated"`
	Cached    int         `json:"cached"`
	Failed    int         `json:"failed"`
	Total     int         `json:"total"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

func batchSummaryToResponse(s batch.Summary) BatchResponse {
	items := make([]BatchItem, 0, s.Total())
	for _, r := range s.Results() {
		item := BatchItem{EntityID: r.ID(), Status: string(r.Status())}
		if r.Err() != nil {
			item.Error = safeDomainMessage(r.Err())
		}
		items = append(items, item)
	}
	return BatchResponse{
		Items:     items,
		Generated: s.Generated(),
		Cached:    s.Cached(),
		Failed:    s.Failed(),
		Total:     s.Total(),
		ElapsedMS: s.Elapsed().Milliseconds(),
	}
}

// BudgetStatus is one budget window.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensRemaining int64      `json:"tokens_remaining"`
	CostUSD         float64    `json:"cost_usd"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

func budgetToStatus(b budget.Budget) BudgetStatus {
	st := BudgetStatus{
		TokensLimit:     b.TokensLimit(),
		TokensUsed:      b.TokensUsed(),
		TokensRemaining: b.TokensRemaining(),
		CostUSD:         b.CostUSD(),
		IsExhausted:     b.IsExhausted(),
	}
	if b.ResetsAt() > 0 {
		t := time.UnixMilli(b.ResetsAt()).UTC()
		st.ResetsAt = &t
	}
	return st
}

// StatsResponse is the body of GET /embeddings/stats.
type StatsResponse struct {
	CountByType map[string]int `json:"count_by_type"`
	Total       int            `json:"total"`
	TotalTokens int            `json:"total_tokens"`
	TotalCost   float64        `json:"total_cost"`
	Budget      struct {
		Daily   BudgetStatus `json:"daily"`
		Monthly BudgetStatus `json:"monthly"`
	} `json:"budget"`
	GeneratedAt time.Time `json:"generated_at"`
}

func reportToResponse(r *domusage.Report) StatsResponse {
	stats := r.Stats()
	resp := StatsResponse{
		CountByType: make(map[string]int, len(stats.CountByType)),
		Total:       stats.Total,
		TotalTokens: stats.TotalTokens,
		TotalCost:   stats.TotalCost,
		GeneratedAt: time.UnixMilli(r.GeneratedAt()).UTC(),
	}
	for t, n := range stats.CountByType {
		resp.CountByType[string(t)] = n
	}
	resp.Budget.Daily = budgetToStatus(r.Daily())
	resp.Budget.Monthly = budgetToStatus(r.Monthly())
	return resp
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
