package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"docqa/internal/tools"
)

const reasonerPrompt = `You are a reasoning agent for a document Q&A system.

You will receive:
1. A user query.
2. Retrieved document chunks (context).
3. Optionally, precomputed numeric metrics.

Your job:
- Answer the query using ONLY the provided context and metrics.
- If the context does not contain enough information, say so clearly.
- NEVER hallucinate or invent facts not present in the context.
- Structure your answer clearly with a short summary first, then details.

Respond with ONLY valid JSON (no extra text):
{
  "answer": "<your structured answer>",
  "confidence": "<high | medium | low>",
  "sources_used": <number of chunks you actually referenced>
}`

// Verdict is the reasoner's validated output.
type Verdict struct {
	Answer      Answer
	Confidence  float64
	SourcesUsed int
}

// Reason generates a grounded answer from the retrieved context and optional
// numeric metrics. A response that is not valid JSON or is missing a required
// key fails with ErrMalformedResponse.
func Reason(ctx context.Context, llm Completer, query, chunks string, metrics []tools.Metric) (Verdict, error) {
	raw, err := llm.Complete(ctx, reasonerPrompt, buildReasonerInput(query, chunks, metrics))
	if err != nil {
		return Verdict{}, fmt.Errorf("agent: reasoner call failed: %w", err)
	}

	fields, err := decodeObject(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: reasoner returned %q", ErrMalformedResponse, raw)
	}
	for _, key := range []string{"answer", "confidence", "sources_used"} {
		if _, ok := fields[key]; !ok {
			return Verdict{}, fmt.Errorf("%w: reasoner response missing %q", ErrMalformedResponse, key)
		}
	}

	verdict := Verdict{
		Answer:     DecodeAnswer(fields["answer"]),
		Confidence: parseConfidence(fields["confidence"]),
	}
	var sourcesUsed float64
	if err := json.Unmarshal(fields["sources_used"], &sourcesUsed); err == nil {
		verdict.SourcesUsed = int(sourcesUsed)
	}
	return verdict, nil
}

func buildReasonerInput(query, chunks string, metrics []tools.Metric) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## User Query\n%s\n", query)
	fmt.Fprintf(&b, "\n## Retrieved Context\n%s", chunks)
	if len(metrics) > 0 {
		formatted, _ := json.MarshalIndent(metrics, "", "  ")
		fmt.Fprintf(&b, "\n\n## Numeric Metrics\n%s", formatted)
	}
	return b.String()
}

// parseConfidence maps the reasoner's confidence to a number: the well-known
// labels get fixed values, numeric values pass through, anything else is 0.5.
func parseConfidence(raw json.RawMessage) float64 {
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		switch strings.ToLower(label) {
		case "high":
			return 0.92
		case "medium":
			return 0.65
		case "low":
			return 0.35
		}
		if v, err := strconv.ParseFloat(label, 64); err == nil {
			return v
		}
		return 0.5
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	return 0.5
}
