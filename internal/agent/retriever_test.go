package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/vectorstore"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	dimension int
	vectors   map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = make([]float32, f.dimension)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func TestRetriever_Retrieve(t *testing.T) {
	store, err := vectorstore.New(2)
	require.NoError(t, err)
	require.NoError(t, store.Add(
		[][]float32{{0, 0}, {10, 10}},
		[]vectorstore.Payload{
			{Text: "near", Metadata: map[string]any{"source": "a.txt", "chunk_index": 0}},
			{Text: "far", Metadata: map[string]any{"source": "b.txt", "chunk_index": 1}},
		},
	))

	embedder := &fakeEmbedder{
		dimension: 2,
		vectors:   map[string][]float32{"close to origin": {1, 1}},
	}

	r := NewRetriever(embedder, store, 1)
	matches, err := r.Retrieve(context.Background(), "close to origin")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].Text)
}

func TestFormatMatches(t *testing.T) {
	matches := []vectorstore.Match{
		{Text: "first chunk", Metadata: map[string]any{"chunk_index": 0}, Score: 0.25},
		{Text: "second chunk", Metadata: map[string]any{}, Score: 1.5},
	}
	formatted := FormatMatches(matches)
	assert.Contains(t, formatted, "**Chunk 0** (score: 0.2500)\nfirst chunk")
	assert.Contains(t, formatted, "**Chunk 1** (score: 1.5000)\nsecond chunk")
	assert.Contains(t, formatted, "\n\n---\n\n")
}

func TestSources(t *testing.T) {
	matches := []vectorstore.Match{
		{Metadata: map[string]any{"source": "b.txt"}},
		{Metadata: map[string]any{"source": "a.txt"}},
		{Metadata: map[string]any{"source": "a.txt"}},
		{Metadata: map[string]any{}},
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "unknown"}, Sources(matches))
}
