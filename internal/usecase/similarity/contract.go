package similarity

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/search"
)

// neighborStore is the slice of the embedding store the finder needs (ISP).
type neighborStore interface {
	NearestNeighbors(ctx context.Context, q embedding.NeighborQuery) ([]embedding.Neighbor, error)
	RecordSearch(ctx context.Context, rec search.Record) error
}
