package pricing

import (
	"testing"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

func defaultRules() types.RuleSet {
	return types.DefaultRuleSet()
}

func TestComputePrice_TypicalQuote(t *testing.T) {
	adjustments := []Adjustment{
		{Label: "Battery below 80%", Kind: enums.BreakdownKindQuestion, Delta: types.PriceDelta{Kind: enums.DeltaKindPercent, Value: -5}},
		{Label: "Cracked screen", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -2000}},
		{Label: "Original charger", Kind: enums.BreakdownKindAccessory, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: 500}},
	}

	result := ComputePrice(50000, adjustments, defaultRules())

	if result.RawPrice != 46000 {
		t.Fatalf("expected raw 46000, got %d", result.RawPrice)
	}
	if result.FinalPrice != 46000 {
		t.Fatalf("expected final 46000, got %d", result.FinalPrice)
	}
	if len(result.Breakdown) != 4 {
		t.Fatalf("expected 4 breakdown lines, got %d: %+v", len(result.Breakdown), result.Breakdown)
	}
	if result.Breakdown[0].Kind != enums.BreakdownKindBase || result.Breakdown[0].Delta != 50000 {
		t.Fatalf("expected base line first, got %+v", result.Breakdown[0])
	}
	if result.Breakdown[1].Delta != -2500 {
		t.Fatalf("expected -2500 percent contribution, got %d", result.Breakdown[1].Delta)
	}
}

func TestComputePrice_PercentScalesOffBase(t *testing.T) {
	// Two -10% deltas must each contribute -5000 off the original base,
	// not compound against the running total.
	adjustments := []Adjustment{
		{Label: "a", Kind: enums.BreakdownKindQuestion, Delta: types.PriceDelta{Kind: enums.DeltaKindPercent, Value: -10}},
		{Label: "b", Kind: enums.BreakdownKindQuestion, Delta: types.PriceDelta{Kind: enums.DeltaKindPercent, Value: -10}},
	}

	result := ComputePrice(50000, adjustments, defaultRules())

	if result.RawPrice != 40000 {
		t.Fatalf("expected raw 40000, got %d", result.RawPrice)
	}
	if result.Breakdown[1].Delta != -5000 || result.Breakdown[2].Delta != -5000 {
		t.Fatalf("expected equal -5000 contributions, got %+v", result.Breakdown)
	}
}

func TestComputePrice_ClampsToMinPercentBound(t *testing.T) {
	adjustments := []Adjustment{
		{Label: "dead device", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -46000}},
	}

	result := ComputePrice(50000, adjustments, defaultRules())

	if result.RawPrice != 4000 {
		t.Fatalf("expected raw 4000, got %d", result.RawPrice)
	}
	// minPercent -90 of 50000 is 5000.
	if result.FinalPrice != 5000 {
		t.Fatalf("expected clamped final 5000, got %d", result.FinalPrice)
	}
	last := result.Breakdown[len(result.Breakdown)-1]
	if last.Kind != enums.BreakdownKindRule || last.Delta != 1000 {
		t.Fatalf("expected +1000 rule correction, got %+v", last)
	}
}

func TestComputePrice_ClampsToMaxPercentBound(t *testing.T) {
	adjustments := []Adjustment{
		{Label: "rare bundle", Kind: enums.BreakdownKindAccessory, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: 40000}},
	}

	result := ComputePrice(50000, adjustments, defaultRules())

	// maxPercent +50 of 50000 is 75000.
	if result.FinalPrice != 75000 {
		t.Fatalf("expected capped final 75000, got %d", result.FinalPrice)
	}
}

func TestComputePrice_FloorAndCap(t *testing.T) {
	cap := int64(40000)
	rules := types.RuleSet{
		RoundToNearest: 10,
		FloorPrice:     8000,
		CapPrice:       &cap,
		MinPercent:     -90,
		MaxPercent:     50,
	}

	low := ComputePrice(50000, []Adjustment{
		{Label: "x", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -44000}},
	}, rules)
	if low.FinalPrice != 8000 {
		t.Fatalf("expected floor 8000, got %d", low.FinalPrice)
	}

	high := ComputePrice(50000, nil, rules)
	if high.FinalPrice != 40000 {
		t.Fatalf("expected cap 40000, got %d", high.FinalPrice)
	}
}

func TestComputePrice_RoundsHalfUp(t *testing.T) {
	rules := types.RuleSet{RoundToNearest: 10, MinPercent: -90, MaxPercent: 50}

	down := ComputePrice(50000, []Adjustment{
		{Label: "x", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -3997}},
	}, rules)
	if down.FinalPrice != 46000 {
		t.Fatalf("expected 46003 rounded down to 46000, got %d", down.FinalPrice)
	}

	half := ComputePrice(50000, []Adjustment{
		{Label: "x", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -3995}},
	}, rules)
	if half.FinalPrice != 46010 {
		t.Fatalf("expected 46005 rounded half-up to 46010, got %d", half.FinalPrice)
	}
}

func TestComputePrice_NeverNegative(t *testing.T) {
	rules := types.RuleSet{RoundToNearest: 10, MinPercent: -200, MaxPercent: 50}

	result := ComputePrice(1000, []Adjustment{
		{Label: "x", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -1500}},
	}, rules)

	if result.FinalPrice != 0 {
		t.Fatalf("expected zero floor, got %d", result.FinalPrice)
	}
	last := result.Breakdown[len(result.Breakdown)-1]
	if last.Kind != enums.BreakdownKindRule {
		t.Fatalf("expected rule line explaining zero floor, got %+v", last)
	}
}

func TestComputePrice_BreakdownLaws(t *testing.T) {
	adjustments := []Adjustment{
		{Label: "q", Kind: enums.BreakdownKindQuestion, Delta: types.PriceDelta{Kind: enums.DeltaKindPercent, Value: -7.5}},
		{Label: "d", Kind: enums.BreakdownKindDefect, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: -1234}},
		{Label: "a", Kind: enums.BreakdownKindAccessory, Delta: types.PriceDelta{Kind: enums.DeltaKindAbs, Value: 333}},
	}

	result := ComputePrice(41999, adjustments, defaultRules())

	if got := result.Breakdown.RawTotal(); got != result.RawPrice {
		t.Fatalf("raw total %d does not match raw price %d", got, result.RawPrice)
	}
	if got := result.Breakdown.Total(); got != result.FinalPrice {
		t.Fatalf("breakdown total %d does not match final price %d", got, result.FinalPrice)
	}
	if result.FinalPrice%10 != 0 {
		t.Fatalf("final price %d is not a multiple of 10", result.FinalPrice)
	}
	if result.FinalPrice < 0 {
		t.Fatalf("final price is negative: %d", result.FinalPrice)
	}
}

func TestComputePrice_NoAdjustments(t *testing.T) {
	result := ComputePrice(46000, nil, defaultRules())

	if result.RawPrice != 46000 || result.FinalPrice != 46000 {
		t.Fatalf("expected identity result, got %+v", result)
	}
	if len(result.Breakdown) != 1 {
		t.Fatalf("expected only the base line, got %+v", result.Breakdown)
	}
}
