package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
)

// WalletTransaction is one immutable entry in a partner wallet's log. Rows
// are only ever appended; the wallet balance is the sum of signed deltas.
type WalletTransaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID  uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type      enums.TransactionType `gorm:"column:type;type:wallet_transaction_type;not null"`
	Amount    int64                 `gorm:"column:amount;not null"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Category  string                `gorm:"column:category;not null"`
	Note      *string               `gorm:"column:note"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// SignedDelta returns the transaction's effect on the wallet balance.
func (t *WalletTransaction) SignedDelta() int64 {
	if t.Type == enums.TransactionTypeDebit {
		return -t.Amount
	}
	return t.Amount
}
