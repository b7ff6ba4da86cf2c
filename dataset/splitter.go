package dataset

import (
	"fmt"

	"github.com/promptlearn/promptlearn/tokens"
)

// Batch is a contiguous, order-preserving slice of a dataset. Start is the
// index of its first row in the original dataset, so example numbering stays
// stable across batches.
type Batch struct {
	Start int
	Rows  []Row
}

func (b Batch) Len() int {
	return len(b.Rows)
}

// Splitter partitions a dataset into token-budgeted batches.
type Splitter struct {
	counter tokens.Counter
}

func NewSplitter(counter tokens.Counter) *Splitter {
	return &Splitter{counter: counter}
}

// Split partitions d into the minimum contiguous batches whose per-batch
// token totals (over the named columns) stay within maxTokens. Greedy single
// pass: a row that would push the running total past the budget closes the
// current batch and opens the next one. A row whose own count exceeds the
// budget still lands in the batch it opens, so it becomes a singleton batch
// rather than being dropped. An empty dataset yields no batches.
func (s *Splitter) Split(d *Dataset, columns []string, maxTokens int) []Batch {
	if d == nil || len(d.Rows) == 0 {
		return nil
	}

	rowTokens := s.counter.CountRows(d.Rows, columns)

	var batches []Batch
	batchStart := 0
	batchTokens := 0
	for i, count := range rowTokens {
		if batchTokens+count > maxTokens && i > batchStart {
			batches = append(batches, Batch{Start: batchStart, Rows: d.Rows[batchStart:i]})
			batchStart = i
			batchTokens = count
		} else {
			batchTokens += count
		}
	}
	if batchStart < len(d.Rows) {
		batches = append(batches, Batch{Start: batchStart, Rows: d.Rows[batchStart:]})
	}
	return batches
}

// EstimateBatchCount gives a fast upper-bound batch count without
// materializing batches, for progress reporting.
func (s *Splitter) EstimateBatchCount(d *Dataset, columns []string, maxTokens int) int {
	if d == nil || len(d.Rows) == 0 {
		return 0
	}

	total := 0
	for _, row := range d.Rows {
		for _, col := range columns {
			if v, ok := row[col]; ok {
				total += s.counter.Estimate(valueText(v))
			}
		}
	}

	count := (total + maxTokens - 1) / maxTokens
	if count < 1 {
		count = 1
	}
	return count
}

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
