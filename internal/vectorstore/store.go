// Package vectorstore implements an exact nearest-neighbor store over
// fixed-dimension embedding vectors with attached payloads.
//
// The store is append-only: entries are identified by insertion order, and the
// vector sequence and payload sequence are kept positionally aligned by a
// single internal append. There is no update or delete; applications that need
// to drop entries replace the store wholesale.
//
// The store has no internal locking. Callers in concurrent environments must
// serialize Add against concurrent Add/Search themselves.
package vectorstore

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors returned by the store.
var (
	ErrShapeMismatch     = errors.New("vectorstore: vector/payload shape mismatch")
	ErrDimensionMismatch = errors.New("vectorstore: dimension mismatch")
	ErrCorruptArtifact   = errors.New("vectorstore: corrupt persisted artifact")
)

// Payload is the non-vector data attached 1:1 to each stored vector.
type Payload struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is a single search result. Score is the raw squared-L2 distance
// between the query and the stored vector; smaller is better. It is never
// normalized or inverted into a similarity.
type Match struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

// Store is a flat L2 vector index with parallel payloads.
type Store struct {
	dimension int
	vectors   [][]float32
	payloads  []Payload
}

// New creates an empty store for vectors of the given dimension.
func New(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vectorstore: invalid dimension %d", dimension)
	}
	return &Store{dimension: dimension}, nil
}

// Dimension returns the vector dimension the store was created with.
func (s *Store) Dimension() int { return s.dimension }

// Count returns the number of stored vectors.
func (s *Store) Count() int { return len(s.vectors) }

// Add appends vectors and their payloads to the store, preserving pairwise
// order. The call is all-or-nothing: a count mismatch or a vector of the
// wrong length fails with ErrShapeMismatch and leaves the store unmodified.
func (s *Store) Add(vectors [][]float32, payloads []Payload) error {
	if len(vectors) != len(payloads) {
		return fmt.Errorf("%w: %d vectors vs %d payloads",
			ErrShapeMismatch, len(vectors), len(payloads))
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("%w: vector %d has length %d, want %d",
				ErrShapeMismatch, i, len(v), s.dimension)
		}
	}

	// Single append point for both sequences keeps them aligned.
	s.vectors = append(s.vectors, vectors...)
	s.payloads = append(s.payloads, payloads...)
	return nil
}

// Search returns up to topK matches ordered by ascending squared-L2 distance,
// closest first. Ties are broken by insertion order. An empty store yields an
// empty result, and topK larger than Count is clamped, not an error.
func (s *Store) Search(query []float32, topK int) ([]Match, error) {
	if len(s.vectors) == 0 {
		return []Match{}, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has length %d, want %d",
			ErrShapeMismatch, len(query), s.dimension)
	}
	if topK > len(s.vectors) {
		topK = len(s.vectors)
	}
	if topK <= 0 {
		return []Match{}, nil
	}

	type scored struct {
		idx  int
		dist float32
	}
	ranked := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		ranked[i] = scored{idx: i, dist: squaredL2(query, v)}
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].dist != ranked[b].dist {
			return ranked[a].dist < ranked[b].dist
		}
		return ranked[a].idx < ranked[b].idx
	})

	matches := make([]Match, 0, topK)
	for _, r := range ranked[:topK] {
		p := s.payloads[r.idx]
		meta := p.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		matches = append(matches, Match{
			Text:     p.Text,
			Metadata: meta,
			Score:    r.dist,
		})
	}
	return matches, nil
}

// squaredL2 computes the squared Euclidean distance between two equal-length
// vectors. The square root is never taken; scores compare identically either
// way and this matches the persisted scoring contract.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
