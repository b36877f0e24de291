package types

import "time"

// CommissionLine itemizes one component of an order's commission.
type CommissionLine struct {
	Label       string  `json:"label"`
	RatePercent float64 `json:"rate_percent"`
	Amount      int64   `json:"amount"`
}

// CommissionSnapshot is the commission sub-record embedded on an order.
// IsApplied is the idempotency guard for ledger apply/rollback: it is true
// only between a successful confirm and any subsequent cancel.
type CommissionSnapshot struct {
	TotalRate   float64          `json:"total_rate"`
	TotalAmount int64            `json:"total_amount"`
	Breakdown   []CommissionLine `json:"breakdown"`
	IsApplied   bool             `json:"is_applied"`
	AppliedAt   *time.Time       `json:"applied_at,omitempty"`
}
