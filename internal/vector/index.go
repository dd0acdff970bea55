// Package vector provides the nearest-neighbour index over answer card embeddings.
package vector

import "context"

// VectorIndex stores card embeddings and answers similarity queries.
type VectorIndex interface {
	Add(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]*VectorResult, error)
	Remove(ctx context.Context, cardIDs []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Entry is one indexed answer card.
type Entry struct {
	CardID   string
	MentorID string
	Vector   []float32
}

// SearchOptions bounds a similarity query.
type SearchOptions struct {
	// NumCandidates is the scan pool for approximate backends.
	NumCandidates int
	// Limit is the maximum number of results returned.
	Limit int
	// MinScore drops results below this similarity.
	MinScore float64
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	CardID   string
	MentorID string
	Score    float64 // inner product; cosine similarity for normalized vectors
}
