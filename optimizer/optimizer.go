// Package optimizer implements the token-budgeted batch refinement engine:
// it partitions a feedback dataset into context-window-sized batches and
// threads one evolving candidate (a prompt or a ruleset) through a sequential
// loop of meta-prompt model calls.
package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptlearn/promptlearn/dataset"
	"github.com/promptlearn/promptlearn/llm"
	"github.com/promptlearn/promptlearn/pricing"
	"github.com/promptlearn/promptlearn/tokens"
	"github.com/promptlearn/promptlearn/utils"
)

// Target selects what the loop mutates. It is fixed at the start of a run;
// exactly one state string changes per successfully processed batch.
type Target int

const (
	// TargetPrompt rewrites the candidate prompt itself.
	TargetPrompt Target = iota
	// TargetRuleset rewrites only the supplementary ruleset while the
	// baseline prompt is held fixed.
	TargetRuleset
)

// Evaluator derives new feedback columns from the whole dataset. Returned
// slices must have one value per row.
type Evaluator func(d *dataset.Dataset) (map[string][]any, error)

const defaultContextTokens = 128000

// PromptLearningOptimizer drives the sequential refinement loop.
type PromptLearningOptimizer struct {
	llm       llm.LLM
	prompt    Prompt
	meta      *MetaPrompt
	counter   tokens.Counter
	pricing   *pricing.Calculator
	logger    utils.Logger
	annotator *Annotator

	contextTokens int
	budgetLimit   float64

	templateVariables []string
}

// Option configures the optimizer.
type Option func(*PromptLearningOptimizer)

func WithLogger(logger utils.Logger) Option {
	return func(o *PromptLearningOptimizer) { o.logger = logger }
}

// WithTokenCounter overrides the counter used for batch splitting and budget
// estimation.
func WithTokenCounter(counter tokens.Counter) Option {
	return func(o *PromptLearningOptimizer) { o.counter = counter }
}

// WithPricing attaches a spend ledger. Required for the budget stop
// condition and the usage summary.
func WithPricing(calc *pricing.Calculator) Option {
	return func(o *PromptLearningOptimizer) { o.pricing = calc }
}

// WithContextTokens sets the per-batch token budget.
func WithContextTokens(n int) Option {
	return func(o *PromptLearningOptimizer) { o.contextTokens = n }
}

// WithBudgetLimit sets a currency budget. When the estimated cost of the next
// call would push total spend past it, the loop stops cleanly. Zero disables
// the check.
func WithBudgetLimit(limit float64) Option {
	return func(o *PromptLearningOptimizer) { o.budgetLimit = limit }
}

// WithMetaPrompt overrides the meta-prompt templates.
func WithMetaPrompt(m *MetaPrompt) Option {
	return func(o *PromptLearningOptimizer) { o.meta = m }
}

// NewPromptLearningOptimizer builds an optimizer for the given model and
// prompt. The default token counter is the exact encoding for the model,
// falling back to the chars/4 approximation when no encoding is available.
func NewPromptLearningOptimizer(model llm.LLM, prompt Prompt, opts ...Option) *PromptLearningOptimizer {
	o := &PromptLearningOptimizer{
		llm:           model,
		prompt:        prompt,
		meta:          NewMetaPrompt(),
		logger:        utils.NewLogger(utils.LogLevelWarn),
		contextTokens: defaultContextTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.counter == nil {
		counter, err := tokens.NewTiktokenCounter(model.Model(), o.logger)
		if err != nil {
			o.logger.Warn("exact token counting unavailable, using approximation", "error", err)
			o.counter = tokens.NewApproxCounter()
		} else {
			o.counter = counter
		}
	}
	return o
}

// TemplateVariables returns the placeholder names detected in the baseline
// prompt during the last Optimize call.
func (o *PromptLearningOptimizer) TemplateVariables() []string {
	return o.templateVariables
}

// Usage returns the pricing ledger snapshot, if a ledger is attached.
func (o *PromptLearningOptimizer) Usage() pricing.Summary {
	if o.pricing == nil {
		return pricing.Summary{}
	}
	return o.pricing.Summary()
}

// OptimizeRequest carries one run's inputs.
type OptimizeRequest struct {
	Dataset         *dataset.Dataset
	OutputColumn    string
	FeedbackColumns []string
	Evaluators      []Evaluator
	Annotations     []string
	// Ruleset switches the run to ruleset mode when non-empty: the loop
	// rewrites this text and leaves the prompt untouched.
	Ruleset string
	// ContextTokens overrides the optimizer-level batch budget when positive.
	ContextTokens int
}

// OptimizeResult is the outcome of a run. Prompt has the same representation
// shape as the input; in ruleset mode it is the unchanged input and Ruleset
// carries the rewrite.
type OptimizeResult struct {
	Prompt         Prompt
	Ruleset        string
	Target         Target
	BatchesTotal   int
	BatchesApplied int
	Usage          pricing.Summary
}

func (o *PromptLearningOptimizer) validate(req OptimizeRequest) error {
	if req.Dataset == nil {
		return llm.NewError(llm.ErrorTypeDataset, "dataset is required", nil)
	}
	if len(req.FeedbackColumns) == 0 && len(req.Evaluators) == 0 {
		return llm.NewError(llm.ErrorTypeDataset,
			"either feedback columns or evaluators must be provided; meta-prompt optimization needs feedback", nil)
	}
	if req.OutputColumn == "" {
		return llm.NewError(llm.ErrorTypeDataset, "output column is required", nil)
	}

	required := append([]string{req.OutputColumn}, req.FeedbackColumns...)
	if req.Dataset.Len() > 0 {
		if missing := req.Dataset.MissingColumns(required); len(missing) > 0 {
			return llm.NewError(llm.ErrorTypeDataset,
				fmt.Sprintf("dataset missing required columns: %s", strings.Join(missing, ", ")), nil)
		}
	}
	return nil
}

// RunEvaluators applies each evaluator to the dataset, attaching the returned
// columns as feedback. Individual evaluator failures are logged and skipped;
// they never abort a run. The updated feedback column list is returned.
func (o *PromptLearningOptimizer) RunEvaluators(d *dataset.Dataset, evaluators []Evaluator, feedbackColumns []string) []string {
	o.logger.Info("running evaluators", "count", len(evaluators))
	for i, evaluator := range evaluators {
		results, err := evaluator(d)
		if err != nil {
			o.logger.Warn("evaluator failed, skipping", "index", i, "error", err)
			continue
		}
		for name, values := range results {
			if err := d.AddColumn(name, values); err != nil {
				o.logger.Warn("evaluator column rejected", "column", name, "error", err)
				continue
			}
			feedbackColumns = append(feedbackColumns, name)
		}
	}
	return feedbackColumns
}

// CreateAnnotations renders each annotator template over the whole dataset
// and asks the model for a written annotation. Failed annotators are logged
// and skipped.
func (o *PromptLearningOptimizer) CreateAnnotations(
	ctx context.Context,
	d *dataset.Dataset,
	annotatorTemplates []string,
	feedbackColumns []string,
	outputColumn, groundTruthColumn string,
) []string {
	baseline, err := o.prompt.EditableContent()
	if err != nil {
		o.logger.Warn("cannot annotate without prompt content", "error", err)
		return nil
	}
	vars := DetectTemplateVariables(baseline)

	var annotations []string
	for i, template := range annotatorTemplates {
		annotator := NewAnnotator(o.llm, o.logger, template)
		content := annotator.ConstructContent(AnnotationInput{
			Batch:             dataset.Batch{Start: 0, Rows: d.Rows},
			BaselinePrompt:    baseline,
			TemplateVariables: vars,
			FeedbackColumns:   feedbackColumns,
			OutputColumn:      outputColumn,
			GroundTruthColumn: groundTruthColumn,
		})
		annotation, err := annotator.GenerateAnnotation(ctx, content)
		if err != nil {
			o.logger.Warn("annotator failed, skipping", "index", i, "error", err)
			continue
		}
		annotations = append(annotations, annotation)
	}
	return annotations
}

// Optimize runs the sequential refinement loop. Preconditions are checked
// before any model call, so a bad request incurs no spend. Per-batch failures
// after retry exhaustion are logged and skipped; the result reflects only the
// batches that succeeded.
func (o *PromptLearningOptimizer) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}

	feedbackColumns := req.FeedbackColumns
	if len(req.Evaluators) > 0 {
		feedbackColumns = o.RunEvaluators(req.Dataset, req.Evaluators, feedbackColumns)
	}

	baseline, err := o.prompt.EditableContent()
	if err != nil {
		return nil, err
	}
	o.templateVariables = DetectTemplateVariables(baseline)

	contextTokens := o.contextTokens
	if req.ContextTokens > 0 {
		contextTokens = req.ContextTokens
	}

	target := TargetPrompt
	if req.Ruleset != "" {
		target = TargetRuleset
	}

	splitter := dataset.NewSplitter(o.counter)
	batches := splitter.Split(req.Dataset, req.Dataset.Columns, contextTokens)
	o.logger.Info("processing dataset",
		"rows", req.Dataset.Len(),
		"batches", len(batches),
		"context_tokens", contextTokens)

	// The single piece of mutable state. In prompt mode it is the evolving
	// candidate; in ruleset mode the baseline stays fixed and the ruleset
	// evolves instead.
	state := baseline
	if target == TargetRuleset {
		state = req.Ruleset
	}

	applied := 0
	for i, batch := range batches {
		in := RenderInput{
			Batch:             batch,
			TemplateVariables: o.templateVariables,
			FeedbackColumns:   feedbackColumns,
			OutputColumn:      req.OutputColumn,
			Annotations:       req.Annotations,
			Target:            target,
		}
		if target == TargetRuleset {
			in.Candidate = baseline
			in.Ruleset = state
		} else {
			in.Candidate = state
		}
		metaContent := o.meta.Render(in)

		if o.budgetLimit > 0 && o.pricing != nil {
			estimated := o.counter.Estimate(metaContent)
			if o.pricing.WouldExceed(o.llm.Model(), estimated, 0, o.budgetLimit) {
				o.logger.Warn("budget limit reached, stopping optimization",
					"batch", i+1,
					"total_cost", o.pricing.TotalCost(),
					"budget", o.budgetLimit)
				break
			}
		}

		response, err := o.llm.Generate(ctx, metaContent)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Error("batch failed, keeping current state",
				"batch", i+1, "batches", len(batches), "error", err)
			continue
		}

		if target == TargetPrompt {
			if missing := missingVariables(response, o.templateVariables); len(missing) > 0 {
				o.logger.Warn("rewrite dropped template variables, skipping batch",
					"batch", i+1, "missing", strings.Join(missing, ", "))
				continue
			}
		}

		state = response
		applied++
		o.logger.Info("batch optimized", "batch", i+1, "batches", len(batches))
	}

	result := &OptimizeResult{
		Target:         target,
		BatchesTotal:   len(batches),
		BatchesApplied: applied,
		Usage:          o.Usage(),
	}
	if target == TargetRuleset {
		result.Ruleset = state
		result.Prompt = o.prompt
	} else {
		result.Prompt = o.prompt.WithEditableContent(state)
	}
	return result, nil
}
