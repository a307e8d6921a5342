package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic",
			text: "One sentence. Another one! A third?",
			want: []string{"One sentence.", "Another one!", "A third?"},
		},
		{
			name: "no terminal punctuation",
			text: "A fragment without an ending",
			want: []string{"A fragment without an ending"},
		},
		{
			name: "decimal numbers stay intact",
			text: "Revenue grew 3.5 percent. Costs fell.",
			want: []string{"Revenue grew 3.5 percent.", "Costs fell."},
		},
		{
			name: "empty",
			text: "   ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}

func TestChunkText_MetadataAndIndexing(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := ChunkText(text, DefaultChunkSize, "report.txt")

	require.Len(t, chunks, 1, "short text fits one chunk")
	c := chunks[0]
	assert.Equal(t, text, c.Text)
	assert.Equal(t, 0, c.Metadata["chunk_index"])
	assert.Equal(t, "report.txt", c.Metadata["source"])
	assert.Equal(t, estimateTokens(text), c.Metadata["estimated_tokens"])
}

func TestChunkText_RespectsBudget(t *testing.T) {
	// 30 sentences of ~10 tokens each against a 50-token budget.
	sentence := "This sentence is about forty characters."
	text := strings.Repeat(sentence+" ", 30)

	chunks := ChunkText(text, 50, "doc.txt")
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Metadata["chunk_index"])
		assert.LessOrEqual(t, estimateTokens(c.Text), 50+estimateTokens(sentence))
		// No chunk ends mid-sentence.
		assert.True(t, strings.HasSuffix(c.Text, "."), "chunk %d: %q", i, c.Text)
	}
}

func TestChunkText_OversizedSentenceStandsAlone(t *testing.T) {
	long := strings.Repeat("word ", 100) + "end."
	text := "Short one. " + long + " Short two."

	chunks := ChunkText(text, 50, "doc.txt")
	require.Len(t, chunks, 3)
	assert.Equal(t, "Short one.", chunks[0].Text)
	assert.Equal(t, strings.TrimSpace(long), chunks[1].Text)
	assert.Equal(t, "Short two.", chunks[2].Text)
}

func TestChunkText_Empty(t *testing.T) {
	assert.Empty(t, ChunkText("", 400, "doc.txt"))
}
