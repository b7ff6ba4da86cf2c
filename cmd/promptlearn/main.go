// Command promptlearn runs one prompt optimization pass over a feedback
// dataset and prints the rewritten prompt (or ruleset) plus the usage
// summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/promptlearn/promptlearn"
	"github.com/promptlearn/promptlearn/config"
	"github.com/promptlearn/promptlearn/dataset"
	"github.com/promptlearn/promptlearn/optimizer"
	"github.com/promptlearn/promptlearn/utils"
)

type cmdFlags struct {
	datasetPath     string
	promptText      string
	promptFile      string
	rulesetFile     string
	outputColumn    string
	feedbackColumns string
	provider        string
	model           string
	contextTokens   int
	budgetLimit     float64
	logLevel        string
	showUsage       bool
}

func parseFlags() *cmdFlags {
	flags := &cmdFlags{}
	flag.StringVar(&flags.datasetPath, "dataset", "", "Path to the dataset (.json, .jsonl, or .csv)")
	flag.StringVar(&flags.promptText, "prompt", "", "Baseline prompt text")
	flag.StringVar(&flags.promptFile, "prompt-file", "", "File containing the baseline prompt")
	flag.StringVar(&flags.rulesetFile, "ruleset-file", "", "File containing a ruleset; enables ruleset mode")
	flag.StringVar(&flags.outputColumn, "output-column", "output", "Column holding model outputs")
	flag.StringVar(&flags.feedbackColumns, "feedback-columns", "", "Comma-separated feedback column names")
	flag.StringVar(&flags.provider, "provider", "", "Model provider")
	flag.StringVar(&flags.model, "model", "", "Model identifier")
	flag.IntVar(&flags.contextTokens, "context-tokens", 0, "Per-batch token budget")
	flag.Float64Var(&flags.budgetLimit, "budget", 0, "Currency budget; 0 disables the check")
	flag.StringVar(&flags.logLevel, "log-level", "warn", "Log level (off, error, warn, info, debug)")
	flag.BoolVar(&flags.showUsage, "usage", false, "Print the usage summary as JSON after the run")
	flag.Parse()
	return flags
}

func loadPrompt(flags *cmdFlags) (string, error) {
	if flags.promptText != "" {
		return flags.promptText, nil
	}
	if flags.promptFile != "" {
		data, err := os.ReadFile(flags.promptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("either -prompt or -prompt-file is required")
}

func buildConfig(flags *cmdFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.contextTokens > 0 {
		cfg.ContextTokens = flags.contextTokens
	}
	if flags.budgetLimit > 0 {
		cfg.BudgetLimit = flags.budgetLimit
	}
	var level utils.LogLevel
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

func main() {
	flags := parseFlags()

	if flags.datasetPath == "" {
		log.Fatal("-dataset is required")
	}
	promptText, err := loadPrompt(flags)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	engine, err := promptlearn.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("engine setup failed: %v", err)
	}

	ds, err := dataset.Load(flags.datasetPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	req := optimizer.OptimizeRequest{
		Dataset:      ds,
		OutputColumn: flags.outputColumn,
	}
	if flags.feedbackColumns != "" {
		for _, col := range strings.Split(flags.feedbackColumns, ",") {
			req.FeedbackColumns = append(req.FeedbackColumns, strings.TrimSpace(col))
		}
	}
	if flags.rulesetFile != "" {
		data, err := os.ReadFile(flags.rulesetFile)
		if err != nil {
			log.Fatalf("reading ruleset file: %v", err)
		}
		req.Ruleset = string(data)
	}

	opt := engine.NewOptimizer(optimizer.TextPrompt{Text: promptText})
	result, err := opt.Optimize(context.Background(), req)
	if err != nil {
		log.Fatalf("optimization failed: %v", err)
	}

	if result.Target == optimizer.TargetRuleset {
		fmt.Println(result.Ruleset)
	} else {
		content, err := result.Prompt.EditableContent()
		if err != nil {
			log.Fatalf("reading optimized prompt: %v", err)
		}
		fmt.Println(content)
	}

	fmt.Fprintf(os.Stderr, "applied %d/%d batches\n", result.BatchesApplied, result.BatchesTotal)
	if flags.showUsage {
		summary, err := json.MarshalIndent(result.Usage, "", "  ")
		if err != nil {
			log.Fatalf("encoding usage summary: %v", err)
		}
		fmt.Fprintln(os.Stderr, string(summary))
	}
}
