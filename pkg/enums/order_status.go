package enums

import "fmt"

// OrderStatus tracks the lifecycle of a pickup order.
type OrderStatus string

const (
	OrderStatusDraft             OrderStatus = "draft"
	OrderStatusOpen              OrderStatus = "open"
	OrderStatusPendingAcceptance OrderStatus = "pending_acceptance"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusPicked            OrderStatus = "picked"
	OrderStatusPaid              OrderStatus = "paid"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusOpen,
	OrderStatusPendingAcceptance,
	OrderStatusConfirmed,
	OrderStatusCancelled,
	OrderStatusPicked,
	OrderStatusPaid,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusPaid
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
