package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// PickupOrder is a buyback order created from an offer session. The partner
// assignment and status columns together carry the claim invariant: an order
// is claimable only while status is open and partner_id is null.
type PickupOrder struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string                    `gorm:"column:order_number;not null;uniqueIndex"`
	SessionID     uuid.UUID                 `gorm:"column:session_id;type:uuid;not null"`
	UserID        *uuid.UUID                `gorm:"column:user_id;type:uuid"`
	PartnerID     *uuid.UUID                `gorm:"column:partner_id;type:uuid;index"`
	AgentID       *uuid.UUID                `gorm:"column:agent_id;type:uuid"`
	Status        enums.OrderStatus         `gorm:"column:status;type:order_status;not null;default:'draft';index"`
	OrderType     enums.OrderType           `gorm:"column:order_type;type:text;not null;default:'pickup'"`
	Category      string                    `gorm:"column:category;not null"`
	Currency      enums.Currency            `gorm:"column:currency;type:text;not null;default:'INR'"`
	QuoteAmount   int64                     `gorm:"column:quote_amount;not null"`
	ActualAmount  *int64                    `gorm:"column:actual_amount"`
	Commission    *types.CommissionSnapshot `gorm:"column:commission;type:jsonb;serializer:json"`
	PaymentMethod enums.PaymentMethod       `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	Address       types.PickupAddress       `gorm:"column:address;type:jsonb;serializer:json"`
	Location      types.GeographyPoint      `gorm:"column:location;type:geography(Point,4326)"`
	Slot          types.PickupSlot          `gorm:"column:slot;type:jsonb;serializer:json"`
	CancelReason  *string                   `gorm:"column:cancel_reason"`
	TransactionRef *string                  `gorm:"column:transaction_ref"`
	ClaimedAt     *time.Time                `gorm:"column:claimed_at"`
	ConfirmedAt   *time.Time                `gorm:"column:confirmed_at"`
	CancelledAt   *time.Time                `gorm:"column:cancelled_at"`
	PickedAt      *time.Time                `gorm:"column:picked_at"`
	PaidAt        *time.Time                `gorm:"column:paid_at"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// CommissionApplied reports whether commission is currently posted for the order.
func (o *PickupOrder) CommissionApplied() bool {
	return o.Commission != nil && o.Commission.IsApplied
}
