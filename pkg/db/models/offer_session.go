package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// OfferSession is an ephemeral, token-addressable record of one price
// computation: the questionnaire inputs plus the computed quote. Inputs are
// immutable except through the explicit update operations, which recompute
// the outputs and refresh ComputedAt.
type OfferSession struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token       string          `gorm:"column:token;not null;uniqueIndex"`
	UserID      *uuid.UUID      `gorm:"column:user_id;type:uuid"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	Answers     types.JSONMap   `gorm:"column:answers;type:jsonb;serializer:json"`
	Defects     []string        `gorm:"column:defects;type:jsonb;serializer:json"`
	Accessories []string        `gorm:"column:accessories;type:jsonb;serializer:json"`
	BasePrice   int64           `gorm:"column:base_price;not null"`
	RawPrice    int64           `gorm:"column:raw_price;not null"`
	FinalPrice  int64           `gorm:"column:final_price;not null"`
	Currency    enums.Currency  `gorm:"column:currency;type:text;not null;default:'INR'"`
	Breakdown   types.Breakdown `gorm:"column:breakdown;type:jsonb;serializer:json"`
	ComputedAt  time.Time       `gorm:"column:computed_at;not null"`
	ExpiresAt   time.Time       `gorm:"column:expires_at;not null;index"`
	ConsumedAt  *time.Time      `gorm:"column:consumed_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the session is past its expiry horizon at now.
func (s *OfferSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Consumed reports whether an order was already created from this session.
func (s *OfferSession) Consumed() bool {
	return s.ConsumedAt != nil
}
