package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/pagination"
)

// Repository manages partner wallets, the append-only transaction log and
// commission rate rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindWalletByPartner(ctx context.Context, partnerID uuid.UUID) (*models.PartnerWallet, error)
	FindOrCreateWallet(ctx context.Context, partnerID uuid.UUID) (*models.PartnerWallet, error)
	AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindTransaction(ctx context.Context, orderID uuid.UUID, txType enums.TransactionType) (*models.WalletTransaction, error)
	AdjustCommissionBalance(ctx context.Context, walletID uuid.UUID, delta int64) error
	SetCommissionBalance(ctx context.Context, walletID uuid.UUID, value int64) error
	SumCommissionDeltas(ctx context.Context, walletID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error)
	FindActiveRule(ctx context.Context, partnerID *uuid.UUID, category string, orderType enums.OrderType) (*models.CommissionRule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindWalletByPartner(ctx context.Context, partnerID uuid.UUID) (*models.PartnerWallet, error) {
	var wallet models.PartnerWallet
	err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindOrCreateWallet(ctx context.Context, partnerID uuid.UUID) (*models.PartnerWallet, error) {
	wallet, err := r.FindWalletByPartner(ctx, partnerID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.PartnerWallet{ID: uuid.New(), PartnerID: partnerID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// FindTransaction looks up the log entry for an order and direction. At most
// one exists per pair, enforced by ux_wallet_transactions_order_type.
func (r *repository) FindTransaction(ctx context.Context, orderID uuid.UUID, txType enums.TransactionType) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, txType).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) AdjustCommissionBalance(ctx context.Context, walletID uuid.UUID, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.PartnerWallet{}).
		Where("id = ?", walletID).
		Update("commission_balance", gorm.Expr("commission_balance + ?", delta)).Error
}

func (r *repository) SetCommissionBalance(ctx context.Context, walletID uuid.UUID, value int64) error {
	return r.db.WithContext(ctx).
		Model(&models.PartnerWallet{}).
		Where("id = ?", walletID).
		Update("commission_balance", value).Error
}

// SumCommissionDeltas re-derives the commission balance from the log. Debits
// owe commission, credits reverse it.
func (r *repository) SumCommissionDeltas(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0)", enums.TransactionTypeDebit).
		Where("wallet_id = ?", walletID).
		Scan(&total).Error
	return total, err
}

func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var txns []models.WalletTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) FindActiveRule(ctx context.Context, partnerID *uuid.UUID, category string, orderType enums.OrderType) (*models.CommissionRule, error) {
	query := r.db.WithContext(ctx).
		Where("category = ? AND order_type = ? AND active = ?", category, orderType, true)
	if partnerID != nil {
		query = query.Where("partner_id = ?", *partnerID)
	} else {
		query = query.Where("partner_id IS NULL")
	}

	var rule models.CommissionRule
	if err := query.Order("updated_at DESC").First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}
