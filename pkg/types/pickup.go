package types

import "time"

// PickupAddress is the jsonb address snapshot stored on an order.
type PickupAddress struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// PickupSlot is the scheduled window a partner should arrive in.
type PickupSlot struct {
	Date  time.Time `json:"date"`
	Start string    `json:"start"`
	End   string    `json:"end"`
}
