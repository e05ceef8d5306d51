package db

// TagFilter restricts a KNN query to hashes whose TAG field equals Value.
// Negate excludes matching hashes instead.
type TagFilter struct {
	Field  string
	Value  string
	Negate bool
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filters      []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hash hit; Score is 1 - cosine distance, clamped to [0,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
