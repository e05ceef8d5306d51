package batch

import "time"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK     ItemStatus = "ok"
	StatusCached ItemStatus = "cached"
	StatusError  ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a result for a freshly generated item.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewCached creates a result for an item that was already stored.
func NewCached(id string) Result { return Result{id: id, status: StatusCached} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary aggregates a whole batch run.
type Summary struct {
	results   []Result
	generated int
	cached    int
	failed    int
	elapsed   time.Duration
}

// NewSummary counts outcomes over results.
func NewSummary(results []Result, elapsed time.Duration) Summary {
	s := Summary{results: results, elapsed: elapsed}
	for _, r := range results {
		switch r.status {
		case StatusOK:
			s.generated++
		case StatusCached:
			s.cached++
		case StatusError:
			s.failed++
		}
	}
	return s
}

// Results returns per-item outcomes.
func (s Summary) Results() []Result { return s.results }

// Generated returns the number of newly embedded items.
func (s Summary) Generated() int { return s.generated }

// Cached returns the number of items that already had an embedding.
func (s Summary) Cached() int { return s.cached }

// Failed returns the number of failed items.
func (s Summary) Failed() int { return s.failed }

// Total returns the number of processed items.
func (s Summary) Total() int { return len(s.results) }

// Elapsed returns the wall time of the batch.
func (s Summary) Elapsed() time.Duration { return s.elapsed }
