package optimizer

import (
	"fmt"
	"strings"

	"github.com/promptlearn/promptlearn/dataset"
	"github.com/promptlearn/promptlearn/llm"
)

// MetaPrompt renders the instruction that asks a model to improve the
// candidate prompt (or its ruleset), substituting the candidate, the batch's
// examples, and optional annotations into a template.
type MetaPrompt struct {
	template        string
	rulesetTemplate string
}

func NewMetaPrompt() *MetaPrompt {
	return &MetaPrompt{
		template:        MetaPromptTemplate,
		rulesetTemplate: RulesetMetaPromptTemplate,
	}
}

// NewMetaPromptWithTemplates overrides the built-in templates.
func NewMetaPromptWithTemplates(template, rulesetTemplate string) *MetaPrompt {
	if template == "" {
		template = MetaPromptTemplate
	}
	if rulesetTemplate == "" {
		rulesetTemplate = RulesetMetaPromptTemplate
	}
	return &MetaPrompt{template: template, rulesetTemplate: rulesetTemplate}
}

// RenderInput carries everything one batch's rendering needs.
type RenderInput struct {
	Batch             dataset.Batch
	Candidate         string
	TemplateVariables []string
	FeedbackColumns   []string
	OutputColumn      string
	Annotations       []string
	Ruleset           string
	Target            Target
}

// escapeValue strips template delimiters from a substituted value so a
// feedback string cannot close a variable or corrupt re-parsing. The template
// itself is never escaped.
func escapeValue(s string) string {
	s = strings.ReplaceAll(s, startDelim, " ")
	return strings.ReplaceAll(s, endDelim, " ")
}

func cellString(row dataset.Row, column string) string {
	v, ok := row[column]
	if !ok || v == nil {
		return "None"
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "None"
	}
	return escapeValue(s)
}

// Render produces the meta-prompt text for one batch.
func (m *MetaPrompt) Render(in RenderInput) string {
	var content string
	if in.Target == TargetRuleset {
		content = strings.ReplaceAll(m.rulesetTemplate, "{ruleset}", in.Ruleset)
	} else {
		content = m.template
	}
	content = strings.ReplaceAll(content, "{baseline_prompt}", in.Candidate)

	var examples strings.Builder
	for i, row := range in.Batch.Rows {
		idx := in.Batch.Start + i
		output := cellString(row, in.OutputColumn)

		if in.Target == TargetRuleset {
			fmt.Fprintf(&examples, "\nExample %d\n\ncoding agent patch: %s\n", idx, output)
		} else {
			values := make([]string, 0, len(in.TemplateVariables))
			for _, v := range in.TemplateVariables {
				values = append(values, cellString(row, v))
			}
			fmt.Fprintf(&examples, "\nExample %d\n\nData for baseline prompt: [%s]\n\nLLM Output using baseline prompt: %s\n\nOutput level feedback:",
				idx, strings.Join(values, ", "), output)
		}

		for _, col := range in.FeedbackColumns {
			fmt.Fprintf(&examples, "\n%s: %s", col, cellString(row, col))
		}
		examples.WriteString("\n")
	}
	content = strings.ReplaceAll(content, "{examples}", examples.String())

	annotations := "None"
	if len(in.Annotations) > 0 {
		annotations = strings.Join(in.Annotations, "\n")
	}
	content = strings.ReplaceAll(content, "{annotations}", annotations)

	return content
}

// ValidateTemplate rejects templates whose detected variables do not match
// the caller's declared variable list.
func ValidateTemplate(template string, declared []string) error {
	detected := DetectTemplateVariables(template)
	declaredSet := make(map[string]bool, len(declared))
	for _, v := range declared {
		declaredSet[v] = true
	}
	for _, v := range detected {
		if !declaredSet[v] {
			return llm.NewError(llm.ErrorTypeConfiguration,
				fmt.Sprintf("template variable {%s} is not declared", v), nil)
		}
	}
	if missing := missingVariables(template, declared); len(missing) > 0 {
		return llm.NewError(llm.ErrorTypeConfiguration,
			fmt.Sprintf("declared variables missing from template: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

// FormatTemplate substitutes declared variables into a template using exact
// single-brace delimiter matching. Delimiters inside substituted values are
// replaced with spaces; the template text is left alone.
func FormatTemplate(template string, variables []string, values dataset.Row) (string, error) {
	if err := ValidateTemplate(template, variables); err != nil {
		return "", err
	}
	for _, name := range variables {
		value := escapeValue(fmt.Sprint(values[name]))
		template = strings.ReplaceAll(template, startDelim+name+endDelim, value)
	}
	return template, nil
}
