package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
)

// CommissionRule maps a category and order type to a commission rate. Rows
// with a partner id are per-partner overrides and win over the global rows
// where partner id is null.
type CommissionRule struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartnerID   *uuid.UUID      `gorm:"column:partner_id;type:uuid;index"`
	Category    string          `gorm:"column:category;not null;index"`
	OrderType   enums.OrderType `gorm:"column:order_type;type:text;not null"`
	RatePercent float64         `gorm:"column:rate_percent;not null"`
	Active      bool            `gorm:"column:active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
