package analysis

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// completer generates chat completions (ISP).
type completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, temperature float32) (domain.CompletionResult, error)
}
