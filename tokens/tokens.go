// Package tokens measures the token cost of text. Two interchangeable
// strategies: an exact tiktoken-backed counter and a fast chars/4
// approximation.
package tokens

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/promptlearn/promptlearn/utils"
)

const fallbackEncoding = "cl100k_base"

// Counter measures token cost. CountRows returns one count per row, summing
// the named columns; absent or nil values count zero.
type Counter interface {
	Count(text string) int
	CountRows(rows []map[string]any, columns []string) []int
	Estimate(text string) int
}

// valueText renders a cell for counting. Nil counts as empty.
func valueText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// TiktokenCounter counts with the sub-word encoding of the target model.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter resolves the encoding for model, falling back to
// cl100k_base for models tiktoken does not know.
func NewTiktokenCounter(model string, logger utils.Logger) (*TiktokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("no encoding for model, falling back", "model", model, "encoding", fallbackEncoding, "error", err)
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get fallback encoding: %w", err)
		}
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}

func (c *TiktokenCounter) CountRows(rows []map[string]any, columns []string) []int {
	counts := make([]int, 0, len(rows))
	for _, row := range rows {
		total := 0
		for _, col := range columns {
			if v, ok := row[col]; ok {
				total += c.Count(valueText(v))
			}
		}
		counts = append(counts, total)
	}
	return counts
}

// Estimate trades precision for speed: character count, floor-divided by 4.
func (c *TiktokenCounter) Estimate(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// ApproxCounter applies the chars/4 rule everywhere. Unicode text is counted
// by character length with no special-casing of multi-byte characters.
type ApproxCounter struct{}

func NewApproxCounter() *ApproxCounter {
	return &ApproxCounter{}
}

func (c *ApproxCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return utf8.RuneCountInString(text) / 4
}

// CountRows sums character lengths across the named columns, then divides
// once, mirroring the per-row arithmetic of the exact counter's contract.
func (c *ApproxCounter) CountRows(rows []map[string]any, columns []string) []int {
	counts := make([]int, 0, len(rows))
	for _, row := range rows {
		chars := 0
		for _, col := range columns {
			if v, ok := row[col]; ok {
				chars += utf8.RuneCountInString(valueText(v))
			}
		}
		counts = append(counts, chars/4)
	}
	return counts
}

func (c *ApproxCounter) Estimate(text string) int {
	return c.Count(text)
}
