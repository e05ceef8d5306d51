package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// DefaultProbeTimeout bounds each individual component probe.
const DefaultProbeTimeout = 2 * time.Second

// Service coordinates health checks.
type Service struct {
	probes  map[string]func(context.Context) error
	timeout time.Duration
}

// New creates a Service. profiles and embedding can be nil.
func New(db, profiles Pinger, embedding ProviderProbe) *Service {
	probes := map[string]func(context.Context) error{ComponentDatabase: db.Ping}
	if profiles != nil {
		probes[ComponentProfiles] = profiles.Ping
	}
	if embedding != nil {
		probes[ComponentEmbedding] = embedding.HealthCheck
	}
	return &Service{probes: probes, timeout: DefaultProbeTimeout}
}

// Check probes all components concurrently. A probe that exceeds the timeout
// counts as failed.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]CheckResult, len(s.probes))
	)
	for name, probe := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := result(probe(pctx))

			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
