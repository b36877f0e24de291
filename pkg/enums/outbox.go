package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePickupOrder  OutboxAggregateType = "pickup_order"
	AggregateOfferSession OutboxAggregateType = "offer_session"
	AggregateWallet       OutboxAggregateType = "wallet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePickupOrder,
	AggregateOfferSession,
	AggregateWallet,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderSubmitted      OutboxEventType = "order_submitted"
	EventOrderClaimed        OutboxEventType = "order_claimed"
	EventOrderAssigned       OutboxEventType = "order_assigned"
	EventOrderConfirmed      OutboxEventType = "order_confirmed"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventOrderReopened       OutboxEventType = "order_reopened"
	EventOrderPicked         OutboxEventType = "order_picked"
	EventOrderPaid           OutboxEventType = "order_paid"
	EventCommissionApplied   OutboxEventType = "commission_applied"
	EventCommissionReversed  OutboxEventType = "commission_reversed"
	EventSessionSweepCleaned OutboxEventType = "session_sweep_cleaned"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderSubmitted,
	EventOrderClaimed,
	EventOrderAssigned,
	EventOrderConfirmed,
	EventOrderCancelled,
	EventOrderReopened,
	EventOrderPicked,
	EventOrderPaid,
	EventCommissionApplied,
	EventCommissionReversed,
	EventSessionSweepCleaned,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
