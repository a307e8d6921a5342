package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AnswerKind discriminates the known answer shapes the reasoner produces.
type AnswerKind int

const (
	// AnswerPlain is a bare string answer.
	AnswerPlain AnswerKind = iota
	// AnswerSummaryDetails is an object with a summary and an optional list
	// of detail items.
	AnswerSummaryDetails
	// AnswerKeyValues is a generic object rendered as key-value pairs.
	AnswerKeyValues
	// AnswerList is a bare array rendered as a bullet list.
	AnswerList
	// AnswerRaw is the fallback for shapes that match no known pattern.
	AnswerRaw
)

// DetailItem is one entry of a SummaryDetails answer.
type DetailItem struct {
	Title       string
	Description string
}

// KeyValue is one entry of a KeyValues answer, order preserved by sorted key.
type KeyValue struct {
	Key   string
	Value string
}

// Answer is a tagged union over the answer shapes the reasoner is known to
// produce. It is validated once at the boundary; rendering never inspects
// raw JSON again.
type Answer struct {
	Kind    AnswerKind
	Text    string
	Summary string
	Details []DetailItem
	Pairs   []KeyValue
	Items   []string
}

// DecodeAnswer classifies a raw answer value into one of the known shapes,
// falling back to a raw-text variant when nothing matches.
func DecodeAnswer(raw json.RawMessage) Answer {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Answer{Kind: AnswerPlain, Text: text}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if summary, ok := obj["summary"]; ok {
			return decodeSummaryDetails(summary, obj)
		}
		return decodeKeyValues(obj)
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		items := make([]string, 0, len(list))
		for _, item := range list {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return Answer{Kind: AnswerList, Items: items}
	}

	return Answer{Kind: AnswerRaw, Text: string(raw)}
}

func decodeSummaryDetails(summary any, obj map[string]any) Answer {
	a := Answer{Kind: AnswerSummaryDetails, Summary: fmt.Sprintf("%v", summary)}
	details, ok := obj["details"].([]any)
	if !ok {
		return a
	}
	for _, item := range details {
		entry, ok := item.(map[string]any)
		if !ok {
			a.Details = append(a.Details, DetailItem{Description: fmt.Sprintf("%v", item)})
			continue
		}
		a.Details = append(a.Details, DetailItem{
			Title:       firstString(entry, "project", "title", "name", "key"),
			Description: firstString(entry, "description", "value", "detail", "text"),
		})
	}
	return a
}

func decodeKeyValues(obj map[string]any) Answer {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := Answer{Kind: AnswerKeyValues}
	for _, k := range keys {
		value := obj[k]
		if list, ok := value.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				parts = append(parts, fmt.Sprintf("- %v", item))
			}
			a.Pairs = append(a.Pairs, KeyValue{Key: k, Value: "\n" + strings.Join(parts, "\n")})
			continue
		}
		a.Pairs = append(a.Pairs, KeyValue{Key: k, Value: fmt.Sprintf("%v", value)})
	}
	return a
}

func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := entry[k]; ok {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Render formats the answer as readable markdown.
func (a Answer) Render() string {
	switch a.Kind {
	case AnswerPlain, AnswerRaw:
		return a.Text
	case AnswerList:
		lines := make([]string, 0, len(a.Items))
		for _, item := range a.Items {
			lines = append(lines, "- "+item)
		}
		return strings.Join(lines, "\n")
	case AnswerSummaryDetails:
		parts := []string{a.Summary}
		for _, d := range a.Details {
			parts = append(parts, "")
			if d.Title != "" {
				parts = append(parts, "**"+d.Title+"**")
			}
			if d.Description != "" {
				parts = append(parts, "  "+d.Description)
			}
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	case AnswerKeyValues:
		parts := make([]string, 0, len(a.Pairs))
		for _, kv := range a.Pairs {
			parts = append(parts, fmt.Sprintf("**%s:** %s", titleKey(kv.Key), kv.Value))
		}
		return strings.Join(parts, "\n")
	}
	return a.Text
}

// titleKey turns a snake_case key into a title-cased label.
func titleKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
