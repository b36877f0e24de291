package types

import "github.com/reclaimtech/buyback-backend/pkg/enums"

// PriceDelta is one configured adjustment: an absolute minor-unit amount or a
// signed percentage of the variant base price.
type PriceDelta struct {
	Kind  enums.DeltaKind `json:"kind"`
	Value float64         `json:"value"`
}

// QuestionOption binds one selectable answer to its price delta.
type QuestionOption struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Delta PriceDelta `json:"delta"`
}

// QuestionSpec defines one condition question on a product.
type QuestionSpec struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Required bool             `json:"required"`
	Options  []QuestionOption `json:"options"`
}

// DefectOption defines one reportable defect and its deduction.
type DefectOption struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Delta PriceDelta `json:"delta"`
}

// AccessoryOption defines one includable accessory and its bump.
type AccessoryOption struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Delta PriceDelta `json:"delta"`
}

// PricingConfig is the per-product questionnaire configuration, stored as
// jsonb on the catalog product.
type PricingConfig struct {
	Questions   []QuestionSpec    `json:"questions"`
	Defects     []DefectOption    `json:"defects"`
	Accessories []AccessoryOption `json:"accessories"`
}

// RuleSet bounds and rounds a computed price. Percent bounds are relative to
// the base price; floor/cap are absolute minor-unit amounts.
type RuleSet struct {
	RoundToNearest int64   `json:"round_to_nearest"`
	FloorPrice     int64   `json:"floor_price"`
	CapPrice       *int64  `json:"cap_price,omitempty"`
	MinPercent     float64 `json:"min_percent"`
	MaxPercent     float64 `json:"max_percent"`
}

// DefaultRuleSet mirrors the catalog defaults applied when a product carries
// no explicit rule configuration.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		RoundToNearest: 10,
		FloorPrice:     0,
		MinPercent:     -90,
		MaxPercent:     50,
	}
}
