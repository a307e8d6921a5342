package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/tools"
)

// Document is the parsed form of a source file: its text representation and,
// for CSV sources, the raw table kept for numeric computation.
type Document struct {
	Source string
	Text   string
	Table  *tools.Table
}

// Parse routes a file by extension and parses it into a Document.
func Parse(path string) (*Document, error) {
	fileType, err := FileType(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Source: filepath.Base(path)}
	switch fileType {
	case "pdf":
		doc.Text, err = parsePDF(path)
	case "csv":
		doc.Text, doc.Table, err = parseCSV(path)
	case "json":
		doc.Text, err = parseJSON(path)
	case "txt":
		doc.Text, err = parseText(path)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	blankRuns       = regexp.MustCompile(`\n{3,}`)
)

// parsePDF extracts text from every page and normalizes whitespace:
// horizontal runs collapse to one space, 3+ newlines to a blank line.
func parsePDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("ingest: failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("ingest: failed to extract text from PDF %s: %w", path, err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("ingest: failed to extract text from PDF %s: %w", path, err)
	}

	cleaned := horizontalSpace.ReplaceAllString(buf.String(), " ")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned), nil
}

// parseCSV renders each row as "Column: value" lines, rows separated by blank
// lines, and keeps the raw table for the numeric tool.
func parseCSV(path string) (string, *tools.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("ingest: failed to read CSV %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("ingest: failed to parse CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return "", &tools.Table{}, nil
	}

	table := &tools.Table{Columns: records[0], Rows: records[1:]}

	var blocks []string
	for _, row := range table.Rows {
		lines := make([]string, 0, len(table.Columns))
		for i, col := range table.Columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			lines = append(lines, col+": "+value)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n"), table, nil
}

// parseJSON flattens nested objects and arrays into dot/[i] keyed
// "key: value" lines. A top-level array becomes blank-line-separated blocks,
// one per element.
func parseJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ingest: failed to read JSON %s: %w", path, err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("ingest: failed to parse JSON %s: %w", path, err)
	}

	if list, ok := raw.([]any); ok {
		blocks := make([]string, 0, len(list))
		for i, item := range list {
			switch item.(type) {
			case map[string]any, []any:
				blocks = append(blocks, renderFlat(flatten(item, "")))
			default:
				blocks = append(blocks, fmt.Sprintf("[%d]: %v", i, item))
			}
		}
		return strings.Join(blocks, "\n\n"), nil
	}
	return renderFlat(flatten(raw, "")), nil
}

type flatPair struct {
	key   string
	value any
}

// flatten walks nested maps and slices producing dot-separated keys for map
// fields and [i] suffixes for array elements. Map keys are sorted so the text
// representation is deterministic.
func flatten(obj any, prefix string) []flatPair {
	var pairs []flatPair
	switch v := obj.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			switch v[k].(type) {
			case map[string]any, []any:
				pairs = append(pairs, flatten(v[k], key)...)
			default:
				pairs = append(pairs, flatPair{key: key, value: v[k]})
			}
		}
	case []any:
		for i, item := range v {
			key := fmt.Sprintf("%s[%d]", prefix, i)
			switch item.(type) {
			case map[string]any, []any:
				pairs = append(pairs, flatten(item, key)...)
			default:
				pairs = append(pairs, flatPair{key: key, value: item})
			}
		}
	}
	return pairs
}

func renderFlat(pairs []flatPair) string {
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("%s: %v", p.key, p.value))
	}
	return strings.Join(lines, "\n")
}

func parseText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ingest: failed to read %s: %w", path, err)
	}
	return string(data), nil
}
