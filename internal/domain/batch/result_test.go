package batch

import (
	"errors"
	"testing"
	"time"
)

func TestNewOK(t *testing.T) {
	r := NewOK("p-1")
	if r.ID() != "p-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewCached(t *testing.T) {
	r := NewCached("p-3")
	if r.Status() != StatusCached {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusCached)
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("p-2", err)
	if r.ID() != "p-2" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestNewSummary(t *testing.T) {
	results := []Result{
		NewOK("a"), NewOK("b"), NewError("c", errors.New("x")), NewCached("d"), NewOK("e"),
	}
	s := NewSummary(results, 3*time.Second)

	if s.Total() != 5 {
		t.Errorf("Total() = %d, want 5", s.Total())
	}
	if s.Generated() != 3 {
		t.Errorf("Generated() = %d, want 3", s.Generated())
	}
	if s.Cached() != 1 {
		t.Errorf("Cached() = %d, want 1", s.Cached())
	}
	if s.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", s.Failed())
	}
	if s.Elapsed() != 3*time.Second {
		t.Errorf("Elapsed() = %v", s.Elapsed())
	}
}

func TestNewSummary_Empty(t *testing.T) {
	s := NewSummary(nil, 0)
	if s.Total() != 0 || s.Failed() != 0 {
		t.Errorf("unexpected counts for empty batch: %+v", s)
	}
}
