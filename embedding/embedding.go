// Package embedding turns message texts into vectors through an
// OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"errors"
)

// ErrProvider marks failures of the remote embedding provider. Callers match
// it with errors.Is to separate provider trouble from their own bugs.
var ErrProvider = errors.New("embedding provider error")

// Embedder produces one vector per input text, in input order.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}
