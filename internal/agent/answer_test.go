package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAnswer_Plain(t *testing.T) {
	a := DecodeAnswer(json.RawMessage(`"a plain answer"`))
	assert.Equal(t, AnswerPlain, a.Kind)
	assert.Equal(t, "a plain answer", a.Render())
}

func TestDecodeAnswer_SummaryWithDetails(t *testing.T) {
	raw := `{
		"summary": "Two projects are active.",
		"details": [
			{"project": "atlas", "description": "data platform"},
			{"name": "borealis", "text": "ml pipeline"},
			"a bare detail"
		]
	}`
	a := DecodeAnswer(json.RawMessage(raw))
	assert.Equal(t, AnswerSummaryDetails, a.Kind)
	assert.Equal(t, "Two projects are active.", a.Summary)

	rendered := a.Render()
	assert.Contains(t, rendered, "Two projects are active.")
	assert.Contains(t, rendered, "**atlas**")
	assert.Contains(t, rendered, "data platform")
	assert.Contains(t, rendered, "**borealis**")
	assert.Contains(t, rendered, "a bare detail")
}

func TestDecodeAnswer_SummaryWithoutDetails(t *testing.T) {
	a := DecodeAnswer(json.RawMessage(`{"summary": "Just a summary."}`))
	assert.Equal(t, AnswerSummaryDetails, a.Kind)
	assert.Equal(t, "Just a summary.", a.Render())
}

func TestDecodeAnswer_KeyValues(t *testing.T) {
	raw := `{"total_revenue": 370, "top_quarter": "Q4", "quarters": ["Q1","Q2"]}`
	a := DecodeAnswer(json.RawMessage(raw))
	assert.Equal(t, AnswerKeyValues, a.Kind)

	rendered := a.Render()
	assert.Contains(t, rendered, "**Total Revenue:** 370")
	assert.Contains(t, rendered, "**Top Quarter:** Q4")
	assert.Contains(t, rendered, "- Q1")
	assert.Contains(t, rendered, "- Q2")
}

func TestDecodeAnswer_List(t *testing.T) {
	a := DecodeAnswer(json.RawMessage(`["first", "second"]`))
	assert.Equal(t, AnswerList, a.Kind)
	assert.Equal(t, "- first\n- second", a.Render())
}

func TestDecodeAnswer_RawFallback(t *testing.T) {
	a := DecodeAnswer(json.RawMessage(`42`))
	assert.Equal(t, AnswerRaw, a.Kind)
	assert.Equal(t, "42", a.Render())
}
