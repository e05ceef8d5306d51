package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingNotFound signals a missing cached embedding.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding or chat provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals a failed embedding store operation.
	ErrStoreUnavailable = errors.New("embedding store unavailable")
	// ErrAnalysisFailed signals a failed call to the analysis tool.
	ErrAnalysisFailed = errors.New("analysis failed")
)

// ProviderError is a failed call to the embedding/chat provider (network, timeout, quota, API error).
type ProviderError struct {
	Provider   string
	Model      string
	Op         string
	StatusCode int // 0 when the request never got an HTTP response
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrEmbeddingProviderError.Error(), e.Op)
	if e.Model != "" {
		msg += " [" + e.Model + "]"
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is makes every ProviderError match ErrEmbeddingProviderError.
func (e *ProviderError) Is(target error) bool { return target == ErrEmbeddingProviderError }

// StoreError is a failed embedding store operation.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	msg := "store " + e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Kind, e.ID, ErrNotFound.Error())
}

// Is makes every NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound creates a NotFoundError.
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// RetrievalError is a fatal retrieval failure, tagged with the entity and operation.
type RetrievalError struct {
	Op           string
	EntityID     string
	AnalysisType string
	Err          error
}

func (e *RetrievalError) Error() string {
	msg := e.Op
	if e.EntityID != "" {
		msg += " entity=" + e.EntityID
	}
	if e.AnalysisType != "" {
		msg += " analysis=" + e.AnalysisType
	}
	return msg + ": " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error { return e.Err }
