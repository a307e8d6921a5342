package ingest

import (
	"strings"

	"docqa/internal/vectorstore"
)

const (
	// DefaultChunkSize is the approximate token target per chunk.
	DefaultChunkSize = 400

	// approxCharsPerToken is a rough English average used to estimate token
	// counts from character length.
	approxCharsPerToken = 4
)

// ChunkText splits text into chunks of approximately chunkSize tokens without
// breaking mid-sentence. A single sentence that alone exceeds the budget is
// emitted as its own chunk. Each chunk carries chunk_index, source and
// estimated_tokens metadata.
func ChunkText(text string, chunkSize int, source string) []vectorstore.Payload {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	sentences := splitSentences(text)
	var chunks []vectorstore.Payload
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(current, len(chunks), source))
		current = nil
		currentTokens = 0
	}

	for _, sentence := range sentences {
		tokens := estimateTokens(sentence)

		// Oversized sentence: flush what we have, then emit it alone.
		if tokens >= chunkSize {
			flush()
			chunks = append(chunks, buildChunk([]string{sentence}, len(chunks), source))
			continue
		}

		if currentTokens+tokens > chunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	flush()

	return chunks
}

func buildChunk(sentences []string, index int, source string) vectorstore.Payload {
	text := strings.Join(sentences, " ")
	return vectorstore.Payload{
		Text: text,
		Metadata: map[string]any{
			"chunk_index":      index,
			"source":           source,
			"estimated_tokens": estimateTokens(text),
		},
	}
}

// splitSentences breaks text at '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 < len(text) && !isSpace(text[i+1]) {
				continue
			}
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func estimateTokens(text string) int {
	return len(text) / approxCharsPerToken
}
