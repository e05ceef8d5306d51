package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn == nil {
		return nil
	}
	return m.pingFn(ctx)
}

type mockProbe struct {
	err error
}

func (m *mockProbe) HealthCheck(context.Context) error { return m.err }

func failing(msg string) *mockPinger {
	return &mockPinger{pingFn: func(context.Context) error { return errors.New(msg) }}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		db        Pinger
		profiles  Pinger
		embedding ProviderProbe
		status    Status
		checks    map[string]CheckResult
	}{
		{
			name:      "all healthy",
			db:        &mockPinger{},
			profiles:  &mockPinger{},
			embedding: &mockProbe{},
			status:    Healthy,
			checks: map[string]CheckResult{
				ComponentDatabase: CheckOK, ComponentProfiles: CheckOK, ComponentEmbedding: CheckOK,
			},
		},
		{
			name:      "database down",
			db:        failing("conn refused"),
			embedding: &mockProbe{},
			status:    Degraded,
			checks:    map[string]CheckResult{ComponentDatabase: CheckError, ComponentEmbedding: CheckOK},
		},
		{
			name:      "provider down",
			db:        &mockPinger{},
			embedding: &mockProbe{err: errors.New("timeout")},
			status:    Degraded,
			checks:    map[string]CheckResult{ComponentDatabase: CheckOK, ComponentEmbedding: CheckError},
		},
		{
			name:      "profiles locked",
			db:        &mockPinger{},
			profiles:  failing("sqlite locked"),
			embedding: &mockProbe{},
			status:    Degraded,
			checks: map[string]CheckResult{
				ComponentDatabase: CheckOK, ComponentProfiles: CheckError, ComponentEmbedding: CheckOK,
			},
		},
		{
			name:   "database only",
			db:     &mockPinger{},
			status: Healthy,
			checks: map[string]CheckResult{ComponentDatabase: CheckOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.db, tt.profiles, tt.embedding).Check(context.Background())
			if r.Status != tt.status {
				t.Errorf("status = %q, want %q", r.Status, tt.status)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tt.checks)
			}
			for k, want := range tt.checks {
				if r.Checks[k] != want {
					t.Errorf("%s = %q, want %q", k, r.Checks[k], want)
				}
			}
		})
	}
}

func TestCheck_ProbeTimeout(t *testing.T) {
	hung := &mockPinger{pingFn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	svc := New(hung, nil, nil)
	svc.timeout = 20 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("hung probe was not bounded by the timeout")
	}
	if r.Status != Degraded || r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("report = %+v", r)
	}
}
