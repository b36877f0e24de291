package types

import "github.com/reclaimtech/buyback-backend/pkg/enums"

// BreakdownLine is one explainable step of a price computation.
type BreakdownLine struct {
	Label string              `json:"label"`
	Delta int64               `json:"delta"`
	Kind  enums.BreakdownKind `json:"kind"`
}

// Breakdown is the ordered list of lines that sum to a quote.
type Breakdown []BreakdownLine

// RawTotal sums the base entry plus every non-rule line. Rule lines record
// clamping corrections and are excluded so the raw pre-clamp price can be
// reconstructed from the breakdown alone.
func (b Breakdown) RawTotal() int64 {
	var total int64
	for _, line := range b {
		if line.Kind == enums.BreakdownKindRule {
			continue
		}
		total += line.Delta
	}
	return total
}

// Total sums every line including rule corrections, yielding the final price.
func (b Breakdown) Total() int64 {
	var total int64
	for _, line := range b {
		total += line.Delta
	}
	return total
}
