// Package agent implements the LLM-backed planning and reasoning steps and
// the retrieval step that grounds them in the vector store.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse indicates the LLM did not return the required JSON
// shape. This is a hard error to the caller.
var ErrMalformedResponse = errors.New("agent: malformed model response")

// Completer abstracts the chat completion client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Plan is the planner's structured analysis of a user query.
type Plan struct {
	AnalysisType   string `json:"analysis_type"`
	NeedsNumeric   bool   `json:"needs_numeric"`
	RetrievalFocus string `json:"retrieval_focus"`
}

const plannerPrompt = `You are a query planner for a document Q&A system.
Given a user query, analyze what type of analysis is needed and respond with ONLY valid JSON (no extra text):

{
  "analysis_type": "<one of: summarization, factual_lookup, comparison, numeric_analysis, general_qa>",
  "needs_numeric": <true or false>,
  "retrieval_focus": "<short description of what to retrieve from the documents>"
}

Rules:
- Set needs_numeric to true only if the query involves numbers, statistics, calculations, or tabular data.
- Keep retrieval_focus concise, one sentence max.
- Always respond with valid JSON only.`

// PlanQuery asks the model to classify a query and decide what to retrieve.
// A response that is not valid JSON or is missing a required key fails with
// ErrMalformedResponse.
func PlanQuery(ctx context.Context, llm Completer, query string) (Plan, error) {
	raw, err := llm.Complete(ctx, plannerPrompt, query)
	if err != nil {
		return Plan{}, fmt.Errorf("agent: planner call failed: %w", err)
	}

	fields, err := decodeObject(raw)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: planner returned %q", ErrMalformedResponse, raw)
	}
	for _, key := range []string{"analysis_type", "needs_numeric", "retrieval_focus"} {
		if _, ok := fields[key]; !ok {
			return Plan{}, fmt.Errorf("%w: planner response missing %q", ErrMalformedResponse, key)
		}
	}

	var plan Plan
	if err := json.Unmarshal([]byte(stripFences(raw)), &plan); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return plan, nil
}

// decodeObject parses a model response as a JSON object, tolerating markdown
// code fences around the payload.
func decodeObject(raw string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
