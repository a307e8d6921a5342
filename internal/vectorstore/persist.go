package vectorstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// On-disk layout: two artifacts per saved store. index.bin holds the raw
// vectors (little-endian: dimension uint32, count uint32, then count*dimension
// float32 values in insertion order). payloads.json.gz holds the gzip-compressed
// JSON payload list, same length and order as the index. Both must be present
// and agree in count for Load to succeed.
const (
	indexFile   = "index.bin"
	payloadFile = "payloads.json.gz"
)

// Save serializes the store under dir, creating the directory if absent.
// A store saved here is reconstructed by Load with the same dimension.
func (s *Store) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vectorstore: create %s: %w", dir, err)
	}
	if err := s.writeIndex(filepath.Join(dir, indexFile)); err != nil {
		return err
	}
	return s.writePayloads(filepath.Join(dir, payloadFile))
}

// Load reconstructs a store previously written by Save. The caller-supplied
// dimension must match the persisted index; a mismatch fails with
// ErrDimensionMismatch rather than silently producing garbage distances.
func Load(dir string, dimension int) (*Store, error) {
	store, err := New(dimension)
	if err != nil {
		return nil, err
	}
	if err := store.readIndex(filepath.Join(dir, indexFile)); err != nil {
		return nil, err
	}
	if err := store.readPayloads(filepath.Join(dir, payloadFile)); err != nil {
		return nil, err
	}
	if len(store.payloads) != len(store.vectors) {
		return nil, fmt.Errorf("%w: %d vectors but %d payloads in %s",
			ErrCorruptArtifact, len(store.vectors), len(store.payloads), dir)
	}
	return store, nil
}

func (s *Store) writeIndex(path string) error {
	buf := make([]byte, 0, 8+4*len(s.vectors)*s.dimension)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.dimension))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.vectors)))
	for _, v := range s.vectors {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("vectorstore: write index: %w", err)
	}
	return nil
}

func (s *Store) readIndex(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("vectorstore: read index: %w", err)
	}
	if len(data) < 8 {
		return fmt.Errorf("%w: index header truncated", ErrCorruptArtifact)
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))
	if dim != s.dimension {
		return fmt.Errorf("%w: persisted dimension %d, caller supplied %d",
			ErrDimensionMismatch, dim, s.dimension)
	}
	if len(data) != 8+4*n*dim {
		return fmt.Errorf("%w: index expects %d vectors of dimension %d, have %d bytes",
			ErrCorruptArtifact, n, dim, len(data))
	}
	vectors := make([][]float32, n)
	off := 8
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	s.vectors = vectors
	return nil
}

func (s *Store) writePayloads(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vectorstore: write payloads: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	payloads := s.payloads
	if payloads == nil {
		payloads = []Payload{}
	}
	if err := json.NewEncoder(zw).Encode(payloads); err != nil {
		zw.Close()
		return fmt.Errorf("vectorstore: encode payloads: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("vectorstore: write payloads: %w", err)
	}
	return f.Close()
}

func (s *Store) readPayloads(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("vectorstore: read payloads: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	defer zr.Close()

	var payloads []Payload
	if err := json.NewDecoder(zr).Decode(&payloads); err != nil {
		return fmt.Errorf("%w: decode payloads: %v", ErrCorruptArtifact, err)
	}
	s.payloads = payloads
	return nil
}
