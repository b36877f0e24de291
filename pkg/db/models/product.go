package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// Product is a catalog device eligible for buyback. The questionnaire and
// rule configuration are owned by catalog management and read-only here.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Category      string              `gorm:"column:category;not null;index"`
	Brand         string              `gorm:"column:brand;not null"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	PricingConfig types.PricingConfig `gorm:"column:pricing_config;type:jsonb;serializer:json"`
	RuleSet       *types.RuleSet      `gorm:"column:rule_set;type:jsonb;serializer:json"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ProductVariant is one storage/color configuration with its own base price.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	BasePrice int64     `gorm:"column:base_price;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
