package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
)

// OrderCreatedEvent signals a draft pickup order was materialized from an offer session.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	SessionID   uuid.UUID `json:"session_id"`
	Category    string    `json:"category"`
	QuoteAmount int64     `json:"quote_amount"`
}

// OrderSubmittedEvent is emitted when a draft is opened to the partner pool.
type OrderSubmittedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Category    string    `json:"category"`
	QuoteAmount int64     `json:"quote_amount"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OrderClaimedEvent is emitted when a partner wins the claim race.
type OrderClaimedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// OrderAssignedEvent is emitted when a pickup agent is attached to a claimed order.
type OrderAssignedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	AgentID   uuid.UUID `json:"agent_id"`
}

// OrderConfirmedEvent is emitted when the user accepts the final quote.
type OrderConfirmedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	PartnerID    uuid.UUID `json:"partner_id"`
	ActualAmount int64     `json:"actual_amount"`
	ConfirmedAt  time.Time `json:"confirmed_at"`
}

// OrderCancelledEvent records a terminal cancellation with its reason.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	PartnerID   *uuid.UUID `json:"partner_id,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CancelledAt time.Time  `json:"cancelled_at"`
}

// OrderReopenedEvent is emitted when a rejected acceptance returns the order to the pool.
type OrderReopenedEvent struct {
	OrderID           uuid.UUID `json:"order_id"`
	PreviousPartnerID uuid.UUID `json:"previous_partner_id"`
}

// OrderPickedEvent is emitted when the device is collected.
type OrderPickedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	AgentID   uuid.UUID `json:"agent_id"`
	PickedAt  time.Time `json:"picked_at"`
}

// OrderPaidEvent is emitted when the user payout is recorded.
type OrderPaidEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	PartnerID      uuid.UUID           `json:"partner_id"`
	Amount         int64               `json:"amount"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TransactionRef string              `json:"transaction_ref,omitempty"`
	PaidAt         time.Time           `json:"paid_at"`
}

// CommissionAppliedEvent carries the ledger result for a confirmed order.
type CommissionAppliedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	PartnerID   uuid.UUID `json:"partner_id"`
	WalletID    uuid.UUID `json:"wallet_id"`
	Amount      int64     `json:"amount"`
	RatePercent float64   `json:"rate_percent"`
	Category    string    `json:"category"`
}

// CommissionReversedEvent carries the ledger rollback for a cancelled order.
type CommissionReversedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	WalletID  uuid.UUID `json:"wallet_id"`
	Amount    int64     `json:"amount"`
}

// SessionSweepEvent summarizes an expiry sweep run.
type SessionSweepEvent struct {
	SweepID      uuid.UUID `json:"sweep_id"`
	ExpiredCount int64     `json:"expired_count"`
	SweptAt      time.Time `json:"swept_at"`
}
