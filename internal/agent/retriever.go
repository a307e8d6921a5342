package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docqa/internal/embedding"
	"docqa/internal/vectorstore"
)

// Retriever embeds queries and searches the vector store.
type Retriever struct {
	embedder embedding.Embedder
	store    *vectorstore.Store
	topK     int
}

// NewRetriever creates a retriever over the given store.
func NewRetriever(embedder embedding.Embedder, store *vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the query and returns the closest chunks.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorstore.Match, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("agent: query embedding failed: %w", err)
	}
	matches, err := r.store.Search(vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("agent: store search failed: %w", err)
	}
	return matches, nil
}

// FormatMatches renders matches as context for the reasoner: a chunk header
// with index and score, then the chunk text, separated by --- rules.
func FormatMatches(matches []vectorstore.Match) string {
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		index := any(i)
		if v, ok := m.Metadata["chunk_index"]; ok {
			index = v
		}
		blocks = append(blocks,
			fmt.Sprintf("**Chunk %v** (score: %.4f)\n%s", index, m.Score, m.Text))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// Sources returns the distinct source names of the matches, sorted. Matches
// without a source metadata entry are reported as "unknown".
func Sources(matches []vectorstore.Match) []string {
	seen := make(map[string]struct{})
	for _, m := range matches {
		source := "unknown"
		if v, ok := m.Metadata["source"].(string); ok && v != "" {
			source = v
		}
		seen[source] = struct{}{}
	}
	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}
