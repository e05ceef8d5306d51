package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	healthuc "github.com/kailas-cloud/talentrag/internal/usecase/health"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Server exposes the retrieval orchestrator over HTTP.
type Server struct {
	retrieval retriever
	usage     usageReporter
	health    healthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(retrieval retriever, usage usageReporter, health healthChecker, logger *zap.Logger) *Server {
	return &Server{retrieval: retrieval, usage: usage, health: health, logger: logger}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/profiles/{id}", func(r chi.Router) {
		r.Use(profileScope)
		r.Post("/analysis", s.AnalyzeProfile)
		r.Put("/embedding", s.PutEmbedding)
		r.Delete("/embedding", s.DeleteEmbedding)
		r.Get("/similar", s.SimilarToProfile)
	})
	r.Post("/search/similar", s.SearchSimilar)
	r.Post("/embeddings/batch", s.GenerateAll)
	r.Get("/embeddings/stats", s.Stats)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// AnalyzeProfile handles POST /profiles/{id}/analysis. An empty body uses defaults.
func (s *Server) AnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.retrieval.Analyze(ctx, req.toDomain(chi.URLParam(r, "id")))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, analysisResultToResponse(&res))
}

// PutEmbedding handles PUT /profiles/{id}/embedding. ?force=true regenerates.
func (s *Server) PutEmbedding(w http.ResponseWriter, r *http.Request) {
	force, err := parseBool(r.URL.Query().Get("force"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "force must be a boolean")
		return
	}

	id := chi.URLParam(r, "id")
	ensure := s.retrieval.EnsureEmbedding
	if force {
		ensure = s.retrieval.RegenerateEmbedding
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	emb, err := ensure(ctx, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)

	status := http.StatusOK
	if emb.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, embeddingToResponse(&emb))
}

// DeleteEmbedding handles DELETE /profiles/{id}/embedding.
func (s *Server) DeleteEmbedding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := s.retrieval.DeleteEmbeddings(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteEmbeddingsResponse{EntityID: id, Deleted: n})
}

// SimilarToProfile handles GET /profiles/{id}/similar?limit=&threshold=.
func (s *Server) SimilarToProfile(w http.ResponseWriter, r *http.Request) {
	limit, threshold, err := parseSimilarParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	items, err := s.retrieval.FindSimilarToProfile(ctx, chi.URLParam(r, "id"), limit, threshold)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, similarToResponse(items))
}

// SearchSimilar handles POST /search/similar.
func (s *Server) SearchSimilar(w http.ResponseWriter, r *http.Request) {
	var req SimilarSearchRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if req.Limit < 0 || req.Limit > similarity.MaxLimit || req.Threshold < 0 || req.Threshold > 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("limit must be in [0,%d] and threshold in [0,1]", similarity.MaxLimit))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	items, err := s.retrieval.FindSimilarByText(ctx, req.Query, req.Limit, req.Threshold)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, similarToResponse(items))
}

// GenerateAll handles POST /embeddings/batch.
func (s *Server) GenerateAll(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	summary, err := s.retrieval.GenerateAllEmbeddings(ctx)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, batchSummaryToResponse(summary))
}

// Stats handles GET /embeddings/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := s.usage.GetReport(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// setEmbeddingHeaders reports provider usage for the request when the provider was consulted.
func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
		w.Header().Set("X-Embedding-Cost", strconv.FormatFloat(usage.Cost(), 'f', -1, 64))
	}
}

// decodeBody decodes a JSON body into v. It writes a 400 and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseSimilarParams(r *http.Request) (int, float64, error) {
	q := r.URL.Query()
	var limit int
	var threshold float64
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > similarity.MaxLimit {
			return 0, 0, fmt.Errorf("limit must be an integer in [0,%d]", similarity.MaxLimit)
		}
		limit = n
	}
	if v := q.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return 0, 0, fmt.Errorf("threshold must be a number in [0,1]")
		}
		threshold = f
	}
	return limit, threshold, nil
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidRequest, v)
	}
	return b, nil
}
