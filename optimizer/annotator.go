package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptlearn/promptlearn/dataset"
	"github.com/promptlearn/promptlearn/llm"
	"github.com/promptlearn/promptlearn/utils"
)

// Annotator pre-digests a batch's feedback into a written annotation through
// one model call. The optimizer embeds annotations into the meta-prompt as
// extra context.
type Annotator struct {
	template string
	llm      llm.LLM
	logger   utils.Logger
}

// NewAnnotator builds an annotator. An empty template selects the built-in
// annotation prompt.
func NewAnnotator(model llm.LLM, logger utils.Logger, template string) *Annotator {
	if template == "" {
		template = AnnotationPromptTemplate
	}
	return &Annotator{template: template, llm: model, logger: logger}
}

// AnnotationInput carries what one annotation's rendering needs.
type AnnotationInput struct {
	Batch             dataset.Batch
	BaselinePrompt    string
	TemplateVariables []string
	FeedbackColumns   []string
	OutputColumn      string
	GroundTruthColumn string
}

// ConstructContent renders the annotation prompt over a batch: per example,
// the template-variable inputs, the observed output, the ground truth when a
// column is named, and every feedback value. Values have template delimiters
// stripped before insertion.
func (a *Annotator) ConstructContent(in AnnotationInput) string {
	content := strings.ReplaceAll(a.template, "{baseline_prompt}", in.BaselinePrompt)

	var examples strings.Builder
	for i, row := range in.Batch.Rows {
		idx := in.Batch.Start + i

		values := make([]string, 0, len(in.TemplateVariables))
		for _, v := range in.TemplateVariables {
			values = append(values, cellString(row, v))
		}

		groundTruth := "N/A"
		if in.GroundTruthColumn != "" {
			groundTruth = cellString(row, in.GroundTruthColumn)
		}

		fmt.Fprintf(&examples, "\nExample %d\n\nInput: [%s]\n\nOutput: %s\n\nGround Truth: %s\n\nFeedback:",
			idx, strings.Join(values, ", "), cellString(row, in.OutputColumn), groundTruth)
		for _, col := range in.FeedbackColumns {
			fmt.Fprintf(&examples, "\n%s: %s", col, cellString(row, col))
		}
		examples.WriteString("\n")
	}

	return strings.ReplaceAll(content, "{examples}", examples.String())
}

// GenerateAnnotation makes the model call for a rendered annotation prompt.
// The shared retry policy applies through the llm layer.
func (a *Annotator) GenerateAnnotation(ctx context.Context, content string) (string, error) {
	a.logger.Debug("generating annotation", "prompt_bytes", len(content))
	return a.llm.Generate(ctx, content)
}
