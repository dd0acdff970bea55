// Package embedding turns question and answer text into vectors through an
// external embedding service, with caching and failure isolation.
package embedding

import (
	"context"
	"errors"
)

// ErrCircuitOpen is returned while the embedder is refusing calls after repeated failures.
var ErrCircuitOpen = errors.New("embedding circuit open")

// ErrEmptyText is returned for blank input.
var ErrEmptyText = errors.New("embedding: empty text")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
