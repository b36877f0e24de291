package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/pagination"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	wallets := `
CREATE TABLE IF NOT EXISTS partner_wallets (
  id TEXT PRIMARY KEY,
  partner_id TEXT NOT NULL UNIQUE,
  balance INTEGER NOT NULL DEFAULT 0,
  commission_balance INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount INTEGER NOT NULL,
  order_id TEXT NOT NULL,
  category TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`
	txnIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_wallet_transactions_order_type
  ON wallet_transactions (order_id, type);`
	rules := `
CREATE TABLE IF NOT EXISTS commission_rules (
  id TEXT PRIMARY KEY,
  partner_id TEXT,
  category TEXT NOT NULL,
  order_type TEXT NOT NULL,
  rate_percent REAL NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, schema := range []string{wallets, transactions, txnIndex, rules} {
		require.NoError(t, db.Exec(schema).Error)
	}
	for _, table := range []string{"partner_wallets", "wallet_transactions", "commission_rules"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newLedgerService(t *testing.T, db *gorm.DB) (Service, Repository, *recordingOutbox) {
	t.Helper()

	repo := NewRepository(db)
	sink := &recordingOutbox{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
	svc, err := NewService(repo, &gormTxRunner{db: db}, sink, config.CommissionConfig{DefaultRatePercent: 3}, nil, logg)
	require.NoError(t, err)
	return svc, repo, sink
}

func TestCommissionAmount(t *testing.T) {
	assert.Equal(t, int64(1380), CommissionAmount(46000, 3))
	assert.Equal(t, int64(1150), CommissionAmount(46000, 2.5))
	// Half rounds away from zero.
	assert.Equal(t, int64(1), CommissionAmount(10, 5))
	assert.Equal(t, int64(0), CommissionAmount(0, 3))
}

func TestResolveRate_OverrideThenGlobalThenDefault(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, _, _ := newLedgerService(t, db)
	ctx := context.Background()

	partnerID := uuid.New()

	rate, err := svc.ResolveRate(ctx, partnerID, "smartphone", enums.OrderTypePickup)
	require.NoError(t, err)
	assert.Equal(t, float64(3), rate, "configured default when no rules exist")

	require.NoError(t, db.Create(&models.CommissionRule{
		ID:          uuid.New(),
		Category:    "smartphone",
		OrderType:   enums.OrderTypePickup,
		RatePercent: 4,
		Active:      true,
	}).Error)

	rate, err = svc.ResolveRate(ctx, partnerID, "smartphone", enums.OrderTypePickup)
	require.NoError(t, err)
	assert.Equal(t, float64(4), rate, "global rule beats configured default")

	require.NoError(t, db.Create(&models.CommissionRule{
		ID:          uuid.New(),
		PartnerID:   &partnerID,
		Category:    "smartphone",
		OrderType:   enums.OrderTypePickup,
		RatePercent: 2.5,
		Active:      true,
	}).Error)

	rate, err = svc.ResolveRate(ctx, partnerID, "smartphone", enums.OrderTypePickup)
	require.NoError(t, err)
	assert.Equal(t, 2.5, rate, "partner override wins")
}

func TestResolveRate_IgnoresInactiveRules(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, _, _ := newLedgerService(t, db)

	require.NoError(t, db.Create(&models.CommissionRule{
		ID:          uuid.New(),
		Category:    "smartphone",
		OrderType:   enums.OrderTypePickup,
		RatePercent: 9,
		Active:      false,
	}).Error)

	rate, err := svc.ResolveRate(context.Background(), uuid.New(), "smartphone", enums.OrderTypePickup)
	require.NoError(t, err)
	assert.Equal(t, float64(3), rate)
}

func TestApply_PostsDebitAndIncrementsBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, repo, sink := newLedgerService(t, db)
	ctx := context.Background()

	partnerID := uuid.New()
	orderID := uuid.New()

	result, err := svc.Apply(ctx, ApplyInput{
		PartnerID:  partnerID,
		OrderID:    orderID,
		OrderValue: 46000,
		Category:   "smartphone",
		OrderType:  enums.OrderTypePickup,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1380), result.Amount)
	assert.Equal(t, float64(3), result.RatePercent)

	wallet, err := repo.FindWalletByPartner(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1380), wallet.CommissionBalance)

	txns, err := repo.ListTransactions(ctx, wallet.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, enums.TransactionTypeDebit, txns[0].Type)
	assert.Equal(t, orderID, txns[0].OrderID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, enums.EventCommissionApplied, sink.events[0].EventType)
}

func TestApply_RepeatForSameOrderPostsOnce(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, repo, sink := newLedgerService(t, db)
	ctx := context.Background()

	partnerID := uuid.New()
	orderID := uuid.New()
	input := ApplyInput{
		PartnerID:  partnerID,
		OrderID:    orderID,
		OrderValue: 46000,
		Category:   "smartphone",
		OrderType:  enums.OrderTypePickup,
	}

	first, err := svc.Apply(ctx, input)
	require.NoError(t, err)

	second, err := svc.Apply(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first.Amount, second.Amount)
	assert.Equal(t, first.WalletID, second.WalletID)

	wallet, err := repo.FindWalletByPartner(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1380), wallet.CommissionBalance, "repeat apply must not double the debit")

	txns, err := repo.ListTransactions(ctx, wallet.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	assert.Len(t, sink.events, 1, "only the winning apply emits")
}

func TestRollback_RepeatForSameOrderCreditsOnce(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, repo, _ := newLedgerService(t, db)
	ctx := context.Background()

	partnerID := uuid.New()
	orderID := uuid.New()

	result, err := svc.Apply(ctx, ApplyInput{
		PartnerID:  partnerID,
		OrderID:    orderID,
		OrderValue: 46000,
		Category:   "smartphone",
		OrderType:  enums.OrderTypePickup,
	})
	require.NoError(t, err)

	rollback := RollbackInput{
		PartnerID: partnerID,
		OrderID:   orderID,
		Amount:    result.Amount,
		Reason:    "order cancelled",
	}
	require.NoError(t, svc.Rollback(ctx, rollback))
	require.NoError(t, svc.Rollback(ctx, rollback))

	wallet, err := repo.FindWalletByPartner(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.CommissionBalance, "repeat rollback must not over-credit")

	txns, err := repo.ListTransactions(ctx, wallet.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestApplyRollback_RoundTripRestoresBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, repo, sink := newLedgerService(t, db)
	ctx := context.Background()

	partnerID := uuid.New()
	orderID := uuid.New()

	result, err := svc.Apply(ctx, ApplyInput{
		PartnerID:  partnerID,
		OrderID:    orderID,
		OrderValue: 46000,
		Category:   "smartphone",
		OrderType:  enums.OrderTypePickup,
	})
	require.NoError(t, err)

	err = svc.Rollback(ctx, RollbackInput{
		PartnerID: partnerID,
		OrderID:   orderID,
		Amount:    result.Amount,
		Reason:    "order cancelled",
	})
	require.NoError(t, err)

	wallet, err := repo.FindWalletByPartner(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.CommissionBalance)

	txns, err := repo.ListTransactions(ctx, wallet.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, txns, 2, "rollback appends, never deletes")

	require.Len(t, sink.events, 2)
	assert.Equal(t, enums.EventCommissionReversed, sink.events[1].EventType)
}

func TestRecompute_FixesDrift(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc, repo, _ := newLedgerService(t, db)
	ctx := context.Background()

	partnerID := uuid.New()
	_, err := svc.Apply(ctx, ApplyInput{
		PartnerID:  partnerID,
		OrderID:    uuid.New(),
		OrderValue: 46000,
		Category:   "smartphone",
		OrderType:  enums.OrderTypePickup,
	})
	require.NoError(t, err)

	wallet, err := repo.FindWalletByPartner(ctx, partnerID)
	require.NoError(t, err)
	require.NoError(t, repo.SetCommissionBalance(ctx, wallet.ID, 999999))

	balance, err := svc.Recompute(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1380), balance)

	wallet, err = repo.FindWalletByPartner(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1380), wallet.CommissionBalance)
}
