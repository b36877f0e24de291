package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// Adjustment is one resolved delta ready for evaluation: a question answer,
// reported defect, or included accessory with its configured price effect.
type Adjustment struct {
	Label string
	Kind  enums.BreakdownKind
	Delta types.PriceDelta
}

// Result carries the computed quote. RawPrice is the pre-clamp sum of base
// plus all contributions; FinalPrice is the clamped, rounded quote.
type Result struct {
	RawPrice   int64
	FinalPrice int64
	Breakdown  types.Breakdown
}

var oneHundred = decimal.NewFromInt(100)

// ComputePrice evaluates the adjustments against the base price and applies
// the rule clamp. Percent deltas always scale off the original base price,
// never off the running total, so adjustments stay order-independent within
// a category. The function performs no I/O.
func ComputePrice(basePrice int64, adjustments []Adjustment, rules types.RuleSet) Result {
	breakdown := types.Breakdown{{
		Label: "base",
		Delta: basePrice,
		Kind:  enums.BreakdownKindBase,
	}}

	raw := basePrice
	for _, adj := range adjustments {
		contribution := contributionOf(basePrice, adj.Delta)
		raw += contribution
		breakdown = append(breakdown, types.BreakdownLine{
			Label: adj.Label,
			Delta: contribution,
			Kind:  adj.Kind,
		})
	}

	final, ruleLines := applyRules(basePrice, raw, rules)
	breakdown = append(breakdown, ruleLines...)

	return Result{
		RawPrice:   raw,
		FinalPrice: final,
		Breakdown:  breakdown,
	}
}

// contributionOf converts a configured delta into a minor-unit amount,
// rounding half away from zero so every breakdown line is integral.
func contributionOf(basePrice int64, delta types.PriceDelta) int64 {
	switch delta.Kind {
	case enums.DeltaKindPercent:
		return decimal.NewFromInt(basePrice).
			Mul(decimal.NewFromFloat(delta.Value)).
			Div(oneHundred).
			Round(0).
			IntPart()
	default:
		return decimal.NewFromFloat(delta.Value).Round(0).IntPart()
	}
}

// applyRules runs the clamp sequence once over the summed raw price. Each
// step that changes the value appends a rule line so the final price stays
// reconstructable from the breakdown.
func applyRules(basePrice, raw int64, rules types.RuleSet) (int64, types.Breakdown) {
	var lines types.Breakdown
	value := raw

	record := func(label string, next int64) {
		if next == value {
			return
		}
		lines = append(lines, types.BreakdownLine{
			Label: label,
			Delta: next - value,
			Kind:  enums.BreakdownKindRule,
		})
		value = next
	}

	base := decimal.NewFromInt(basePrice)
	minBound := base.Mul(decimal.NewFromFloat(1 + rules.MinPercent/100)).Round(0).IntPart()
	maxBound := base.Mul(decimal.NewFromFloat(1 + rules.MaxPercent/100)).Round(0).IntPart()
	if value < minBound {
		record("min percent bound", minBound)
	}
	if value > maxBound {
		record("max percent bound", maxBound)
	}

	if value < rules.FloorPrice {
		record("floor price", rules.FloorPrice)
	}
	if rules.CapPrice != nil && value > *rules.CapPrice {
		record("cap price", *rules.CapPrice)
	}

	if multiple := rules.RoundToNearest; multiple > 1 {
		rounded := decimal.NewFromInt(value).
			Div(decimal.NewFromInt(multiple)).
			Round(0).
			IntPart() * multiple
		record("rounding", rounded)
	}

	if value < 0 {
		record("zero floor", 0)
	}

	return value, lines
}
