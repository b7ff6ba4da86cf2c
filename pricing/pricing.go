// Package pricing maps model identifiers to per-1K token costs and keeps a
// cumulative spend ledger. Amounts are plain float64; the ledger is advisory,
// not authoritative billing.
package pricing

import (
	"strings"
)

// ModelPricing is an immutable per-model price pair, in currency units per
// 1K tokens.
type ModelPricing struct {
	Name        string
	InputPer1K  float64
	OutputPer1K float64
}

// priceTable is ordered: exact lookups win, then the first family match.
// Keeping it a slice makes family resolution deterministic.
var priceTable = []ModelPricing{
	{Name: "gpt-4", InputPer1K: 0.03, OutputPer1K: 0.06},
	{Name: "gpt-4-turbo", InputPer1K: 0.01, OutputPer1K: 0.03},
	{Name: "gpt-3.5-turbo", InputPer1K: 0.0015, OutputPer1K: 0.002},
	{Name: "gemini-2.5-flash", InputPer1K: 0.0003, OutputPer1K: 0.0025},
	{Name: "gemini-2.5-pro", InputPer1K: 0.00125, OutputPer1K: 0.01},
	{Name: "gemini-pro", InputPer1K: 0.00125, OutputPer1K: 0.01},
}

// fallback is the conservative estimate for unknown models.
var fallback = ModelPricing{Name: "unknown", InputPer1K: 0.01, OutputPer1K: 0.03}

// PricingFor resolves pricing by exact name, then case-insensitive family
// match (full key substring, then alphabetic key tokens of three or more
// characters), then the conservative fallback.
func PricingFor(model string) ModelPricing {
	for _, p := range priceTable {
		if p.Name == model {
			return p
		}
	}

	lower := strings.ToLower(model)
	for _, p := range priceTable {
		if strings.Contains(lower, p.Name) {
			return p
		}
	}
	for _, p := range priceTable {
		for _, part := range strings.Split(p.Name, "-") {
			if len(part) >= 3 && isAlpha(part) && strings.Contains(lower, part) {
				return p
			}
		}
	}
	return fallback
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Summary is a snapshot of the ledger.
type Summary struct {
	TotalCost         float64 `json:"total_cost"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalTokens       int     `json:"total_tokens"`
}

// Calculator accumulates spend across model calls. It is not safe for
// concurrent use; the sequential optimization loop is its only writer.
type Calculator struct {
	totalCost         float64
	totalInputTokens  int
	totalOutputTokens int
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Cost is the pure price of a call, without touching the ledger.
func (c *Calculator) Cost(model string, inputTokens, outputTokens int) float64 {
	p := PricingFor(model)
	return float64(inputTokens)/1000*p.InputPer1K + float64(outputTokens)/1000*p.OutputPer1K
}

// Record adds a call to the ledger and returns its incremental cost.
func (c *Calculator) Record(model string, inputTokens, outputTokens int) float64 {
	cost := c.Cost(model, inputTokens, outputTokens)
	c.totalCost += cost
	c.totalInputTokens += inputTokens
	c.totalOutputTokens += outputTokens
	return cost
}

// WouldExceed reports whether recording this call would push total spend past
// budget. It is advisory; the optimizer uses it as a stop condition.
func (c *Calculator) WouldExceed(model string, inputTokens, outputTokens int, budget float64) bool {
	return c.totalCost+c.Cost(model, inputTokens, outputTokens) > budget
}

func (c *Calculator) TotalCost() float64 {
	return c.totalCost
}

func (c *Calculator) Summary() Summary {
	return Summary{
		TotalCost:         c.totalCost,
		TotalInputTokens:  c.totalInputTokens,
		TotalOutputTokens: c.totalOutputTokens,
		TotalTokens:       c.totalInputTokens + c.totalOutputTokens,
	}
}

// Reset zeroes the ledger.
func (c *Calculator) Reset() {
	c.totalCost = 0
	c.totalInputTokens = 0
	c.totalOutputTokens = 0
}
