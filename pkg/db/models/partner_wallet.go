package models

import (
	"time"

	"github.com/google/uuid"
)

// PartnerWallet carries a partner's running balance plus the commission the
// partner owes the platform. Both columns are derived projections of the
// append-only transaction log and can be recomputed from it.
type PartnerWallet struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartnerID         uuid.UUID `gorm:"column:partner_id;type:uuid;not null;uniqueIndex"`
	Balance           int64     `gorm:"column:balance;not null;default:0"`
	CommissionBalance int64     `gorm:"column:commission_balance;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Transactions []WalletTransaction `gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
}
