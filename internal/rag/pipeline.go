// Package rag wires ingestion, retrieval and the LLM agents into the full
// question-answering pipeline.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"docqa/internal/agent"
	"docqa/internal/embedding"
	"docqa/internal/ingest"
	"docqa/internal/tools"
	"docqa/internal/vectorstore"
)

// emptyStoreAnswer is returned for queries before any document is ingested.
const emptyStoreAnswer = "No documents have been ingested yet. Please upload a document first."

// maxMetricColumns caps how many numeric columns feed precomputed metrics
// into the reasoner.
const maxMetricColumns = 3

// Config tunes the pipeline.
type Config struct {
	TopK      int
	ChunkSize int
}

// Pipeline owns the vector store and coordinates the full flow. The store
// itself is unsynchronized, so the pipeline serializes ingestion against
// concurrent queries with a single writer lock.
type Pipeline struct {
	embedder  embedding.Embedder
	store     *vectorstore.Store
	llm       agent.Completer
	log       *slog.Logger
	topK      int
	chunkSize int

	mu         sync.RWMutex
	tables     map[string]*tools.Table
	tableOrder []string
	ingested   []string
}

// New creates a pipeline with explicitly injected collaborators.
func New(embedder embedding.Embedder, store *vectorstore.Store, llm agent.Completer, log *slog.Logger, cfg Config) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = ingest.DefaultChunkSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		embedder:  embedder,
		store:     store,
		llm:       llm,
		log:       log,
		topK:      cfg.TopK,
		chunkSize: cfg.ChunkSize,
		tables:    make(map[string]*tools.Table),
	}
}

// IngestResult reports one ingested file.
type IngestResult struct {
	Source      string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
	TotalChunks int    `json:"total_chunks"`
}

// Ingest parses a file, chunks its text, embeds the chunks and adds them to
// the store. CSV tables are retained for numeric computation.
func (p *Pipeline) Ingest(ctx context.Context, path string) (IngestResult, error) {
	return p.IngestAs(ctx, path, "")
}

// IngestAs ingests a file under an explicit source name. Used for uploads,
// where the file sits in a temp location but should be attributed to its
// original name.
func (p *Pipeline) IngestAs(ctx context.Context, path, source string) (IngestResult, error) {
	doc, err := ingest.Parse(path)
	if err != nil {
		return IngestResult{}, err
	}
	if source != "" {
		doc.Source = source
	}
	if strings.TrimSpace(doc.Text) == "" {
		return IngestResult{}, fmt.Errorf("rag: no text could be extracted from %s", path)
	}

	chunks := ingest.ChunkText(doc.Text, p.chunkSize, doc.Source)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return IngestResult{}, fmt.Errorf("rag: embedding %s: %w", doc.Source, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Add(vectors, chunks); err != nil {
		return IngestResult{}, err
	}
	if doc.Table != nil {
		if _, seen := p.tables[doc.Source]; !seen {
			p.tableOrder = append(p.tableOrder, doc.Source)
		}
		p.tables[doc.Source] = doc.Table
	}
	p.ingested = append(p.ingested, doc.Source)

	p.log.Info("ingested document",
		"source", doc.Source,
		"chunks", len(chunks),
		"total", p.store.Count())

	return IngestResult{
		Source:      doc.Source,
		ChunksAdded: len(chunks),
		TotalChunks: p.store.Count(),
	}, nil
}

// QueryResult is the pipeline's answer to one question.
type QueryResult struct {
	Answer     string     `json:"answer"`
	Sources    []string   `json:"sources"`
	Confidence float64    `json:"confidence"`
	Plan       agent.Plan `json:"plan"`
}

// Query runs the full flow: plan, retrieve, optionally compute metrics, then
// reason over the retrieved context. An empty store yields a polite answer
// with zero confidence rather than an error.
func (p *Pipeline) Query(ctx context.Context, question string) (QueryResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.store.Count() == 0 {
		return QueryResult{Answer: emptyStoreAnswer, Sources: []string{}}, nil
	}

	plan, err := agent.PlanQuery(ctx, p.llm, question)
	if err != nil {
		return QueryResult{}, err
	}
	p.log.Debug("query planned",
		"analysis_type", plan.AnalysisType,
		"needs_numeric", plan.NeedsNumeric)

	retrievalQuery := plan.RetrievalFocus
	if retrievalQuery == "" {
		retrievalQuery = question
	}
	retriever := agent.NewRetriever(p.embedder, p.store, p.topK)
	matches, err := retriever.Retrieve(ctx, retrievalQuery)
	if err != nil {
		return QueryResult{}, err
	}

	var metrics []tools.Metric
	if plan.NeedsNumeric {
		metrics = p.computeMetrics()
	}

	verdict, err := agent.Reason(ctx, p.llm, question, agent.FormatMatches(matches), metrics)
	if err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		Answer:     verdict.Answer.Render(),
		Sources:    agent.Sources(matches),
		Confidence: verdict.Confidence,
		Plan:       plan,
	}, nil
}

// computeMetrics runs average and sum over up to maxMetricColumns numeric
// columns of the first ingested table. Tool failures degrade to fewer
// metrics rather than failing the query.
func (p *Pipeline) computeMetrics() []tools.Metric {
	if len(p.tableOrder) == 0 {
		return nil
	}
	table := p.tables[p.tableOrder[0]]

	var metrics []tools.Metric
	columns := table.NumericColumns()
	if len(columns) > maxMetricColumns {
		columns = columns[:maxMetricColumns]
	}
	for _, col := range columns {
		for _, op := range []string{"average", "sum"} {
			m, err := tools.Execute(table, op, col)
			if err != nil {
				p.log.Warn("numeric tool failed", "operation", op, "column", col, "error", err)
				continue
			}
			metrics = append(metrics, m)
		}
	}
	return metrics
}

// Count returns the number of chunks in the store.
func (p *Pipeline) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store.Count()
}

// IngestedFiles returns the source names ingested this run, in order.
func (p *Pipeline) IngestedFiles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	files := make([]string, len(p.ingested))
	copy(files, p.ingested)
	return files
}

// Save persists the vector store under dir.
func (p *Pipeline) Save(dir string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store.Save(dir)
}
