package enums

import "fmt"

// OrderType distinguishes how a device reaches the partner.
type OrderType string

const (
	OrderTypePickup  OrderType = "pickup"
	OrderTypeDropoff OrderType = "dropoff"
)

var validOrderTypes = []OrderType{
	OrderTypePickup,
	OrderTypeDropoff,
}

// String implements fmt.Stringer.
func (t OrderType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
