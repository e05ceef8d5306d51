package health

import "context"

// Pinger is a storage backend that can answer a liveness round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderProbe is an upstream embedding provider that can report reachability.
type ProviderProbe interface {
	HealthCheck(ctx context.Context) error
}

// Component names reported in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentProfiles  = "profiles"
	ComponentEmbedding = "embedding"
)
