// Package ingest turns source files into store-ready chunks: it routes files
// by type, parses each format to plain text (plus a table for CSV), and
// splits text into sentence-aware chunks with metadata.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for file extensions the pipeline cannot parse.
var ErrUnsupportedType = errors.New("ingest: unsupported file type")

// SupportedTypes lists the file types the pipeline accepts, by extension.
var SupportedTypes = []string{"csv", "json", "pdf", "txt"}

// FileType returns the lowercase file type for a path based on its extension.
func FileType(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "", fmt.Errorf("%w: no extension in %q", ErrUnsupportedType, path)
	}
	for _, t := range SupportedTypes {
		if ext == t {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: .%s (supported: %s)",
		ErrUnsupportedType, ext, strings.Join(SupportedTypes, ", "))
}
