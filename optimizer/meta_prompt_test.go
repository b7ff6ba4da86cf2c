package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlearn/promptlearn/dataset"
	"github.com/promptlearn/promptlearn/llm"
)

func sampleBatch() dataset.Batch {
	return dataset.Batch{
		Start: 5,
		Rows: []dataset.Row{
			{"question": "What is Go?", "answer": "A language", "feedback": "too terse"},
			{"question": "What is a channel?", "answer": "A pipe", "feedback": "good"},
		},
	}
}

func TestRenderPromptMode(t *testing.T) {
	m := NewMetaPrompt()
	out := m.Render(RenderInput{
		Batch:             sampleBatch(),
		Candidate:         "Answer the {question}.",
		TemplateVariables: []string{"question"},
		FeedbackColumns:   []string{"feedback"},
		OutputColumn:      "answer",
		Target:            TargetPrompt,
	})

	assert.Contains(t, out, "Answer the {question}.")
	// Example indices are global dataset positions, not batch-local.
	assert.Contains(t, out, "Example 5")
	assert.Contains(t, out, "Example 6")
	assert.Contains(t, out, "Data for baseline prompt: [What is Go?]")
	assert.Contains(t, out, "LLM Output using baseline prompt: A language")
	assert.Contains(t, out, "feedback: too terse")
	assert.Contains(t, out, "HERE ARE SOME ANNOTATIONS THAT MAY BE HELPFUL:\nNone")
}

func TestRenderWithAnnotations(t *testing.T) {
	m := NewMetaPrompt()
	out := m.Render(RenderInput{
		Batch:           sampleBatch(),
		Candidate:       "Answer the question.",
		FeedbackColumns: []string{"feedback"},
		OutputColumn:    "answer",
		Annotations:     []string{"answers are too short", "tone is fine"},
	})

	assert.Contains(t, out, "answers are too short\ntone is fine")
	assert.NotContains(t, out, "{annotations}")
}

func TestRenderEscapesBracesInValues(t *testing.T) {
	m := NewMetaPrompt()
	out := m.Render(RenderInput{
		Batch: dataset.Batch{Rows: []dataset.Row{
			{"question": "use {question} literally", "answer": "ok", "feedback": "has {braces}"},
		}},
		Candidate:         "Answer the {question}.",
		TemplateVariables: []string{"question"},
		FeedbackColumns:   []string{"feedback"},
		OutputColumn:      "answer",
	})

	// Data values get their delimiters stripped; the candidate keeps its own.
	assert.Contains(t, out, "use  question  literally")
	assert.Contains(t, out, "has  braces ")
	assert.Contains(t, out, "Answer the {question}.")
}

func TestRenderMissingAndNilValuesAreNone(t *testing.T) {
	m := NewMetaPrompt()
	out := m.Render(RenderInput{
		Batch: dataset.Batch{Rows: []dataset.Row{
			{"answer": nil, "feedback": ""},
		}},
		Candidate:         "prompt",
		TemplateVariables: []string{"question"},
		FeedbackColumns:   []string{"feedback"},
		OutputColumn:      "answer",
	})

	assert.Contains(t, out, "Data for baseline prompt: [None]")
	assert.Contains(t, out, "LLM Output using baseline prompt: None")
	assert.Contains(t, out, "feedback: None")
}

func TestRenderRulesetMode(t *testing.T) {
	m := NewMetaPrompt()
	out := m.Render(RenderInput{
		Batch:           sampleBatch(),
		Candidate:       "Fix the bug described in {issue}.",
		Ruleset:         "- always run the tests",
		FeedbackColumns: []string{"feedback"},
		OutputColumn:    "answer",
		Target:          TargetRuleset,
	})

	assert.Contains(t, out, "- always run the tests")
	assert.Contains(t, out, "Fix the bug described in {issue}.")
	assert.Contains(t, out, "coding agent patch: A language")
	assert.NotContains(t, out, "Data for baseline prompt")
}

func TestRenderCustomTemplate(t *testing.T) {
	m := NewMetaPromptWithTemplates("PROMPT: {baseline_prompt}\nDATA: {examples}\nNOTES: {annotations}", "")
	out := m.Render(RenderInput{
		Batch:        dataset.Batch{Rows: []dataset.Row{{"answer": "x", "feedback": "y"}}},
		Candidate:    "my prompt",
		OutputColumn: "answer",
	})

	assert.True(t, strings.HasPrefix(out, "PROMPT: my prompt"))
	assert.Contains(t, out, "NOTES: None")
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate("use {a} and {b}", []string{"a", "b"}))

	err := ValidateTemplate("use {a} and {b}", []string{"a"})
	require.Error(t, err)
	assert.Equal(t, llm.ErrorTypeConfiguration, llm.TypeOf(err))
	assert.ErrorContains(t, err, "{b} is not declared")

	err = ValidateTemplate("use {a}", []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "missing from template: b")
}

func TestFormatTemplate(t *testing.T) {
	out, err := FormatTemplate("Q: {question}\nA: {answer}",
		[]string{"question", "answer"},
		dataset.Row{"question": "What is Go?", "answer": "a {typed} language"})

	require.NoError(t, err)
	assert.Equal(t, "Q: What is Go?\nA: a  typed  language", out)
}

func TestFormatTemplateRejectsMismatch(t *testing.T) {
	_, err := FormatTemplate("Q: {question}", []string{"question", "answer"}, dataset.Row{})
	require.Error(t, err)
	assert.Equal(t, llm.ErrorTypeConfiguration, llm.TypeOf(err))
}
