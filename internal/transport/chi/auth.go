package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/logger"
)

// publicPaths skip authentication so probes and scrapers work without a key.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// BearerAuthMiddleware accepts requests carrying one of apiKeys as a Bearer
// token. With no non-empty keys configured it is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if reason := checkBearer(keys, r.Header.Get("Authorization")); reason != "" {
				logger.FromContext(r.Context()).Debug("request rejected", zap.String("reason", reason))
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkBearer returns an empty string when header carries a known key,
// otherwise the client-facing rejection reason.
func checkBearer(keys [][]byte, header string) string {
	if header == "" {
		return "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "authorization header must use Bearer scheme"
	}
	token = strings.TrimSpace(token)

	// Compare against every key so timing does not reveal which one matched.
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	if match != 1 {
		return "invalid api key"
	}
	return ""
}
