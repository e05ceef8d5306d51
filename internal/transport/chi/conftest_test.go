package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
	"github.com/kailas-cloud/talentrag/internal/domain/batch"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
	domusage "github.com/kailas-cloud/talentrag/internal/domain/usage"
	healthuc "github.com/kailas-cloud/talentrag/internal/usecase/health"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
)

// --- Mocks ---

type mockRetriever struct {
	analyzeFn    func(ctx context.Context, req analysis.Request) (analysis.Result, error)
	ensureFn     func(ctx context.Context, id string) (retrieval.Embedding, error)
	regenerateFn func(ctx context.Context, id string) (retrieval.Embedding, error)
	deleteFn     func(ctx context.Context, id string) (int, error)
	toProfileFn  func(ctx context.Context, id string, limit int, threshold float64) ([]similarity.Result, error)
	byTextFn     func(ctx context.Context, text string, limit int, threshold float64) ([]similarity.Result, error)
	batchFn      func(ctx context.Context) (batch.Summary, error)
}

func (m *mockRetriever) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	return m.analyzeFn(ctx, req)
}

func (m *mockRetriever) EnsureEmbedding(ctx context.Context, id string) (retrieval.Embedding, error) {
	return m.ensureFn(ctx, id)
}

func (m *mockRetriever) RegenerateEmbedding(ctx context.Context, id string) (retrieval.Embedding, error) {
	return m.regenerateFn(ctx, id)
}

func (m *mockRetriever) DeleteEmbeddings(ctx context.Context, id string) (int, error) {
	return m.deleteFn(ctx, id)
}

func (m *mockRetriever) FindSimilarToProfile(
	ctx context.Context, id string, limit int, threshold float64,
) ([]similarity.Result, error) {
	return m.toProfileFn(ctx, id, limit, threshold)
}

func (m *mockRetriever) FindSimilarByText(
	ctx context.Context, text string, limit int, threshold float64,
) ([]similarity.Result, error) {
	return m.byTextFn(ctx, text, limit, threshold)
}

func (m *mockRetriever) GenerateAllEmbeddings(ctx context.Context) (batch.Summary, error) {
	return m.batchFn(ctx)
}

type mockUsage struct {
	report domusage.Report
	err    error
}

func (m *mockUsage) GetReport(_ context.Context) (domusage.Report, error) { return m.report, m.err }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestRouter(rt *mockRetriever, apiKeys ...string) http.Handler {
	srv := NewServer(rt, &mockUsage{}, &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}, zap.NewNop())
	return srv.Router(apiKeys)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
