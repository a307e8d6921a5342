// Package embedding maps text to fixed-dimension float vectors using a
// remote embeddings API.
package embedding

import "context"

// Embedder produces embedding vectors for text. Implementations are
// deterministic for a fixed model, with a fixed dimension per model.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the length of vectors this embedder produces.
	Dimension() int
}
