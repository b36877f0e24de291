package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/config"
	dbpkg "github.com/reclaimtech/buyback-backend/pkg/db"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/metrics"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/outbox/payloads"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ApplyInput carries everything needed to post commission for one order.
type ApplyInput struct {
	PartnerID  uuid.UUID
	OrderID    uuid.UUID
	OrderValue int64
	Category   string
	OrderType  enums.OrderType
	Actor      outbox.ActorRef
}

// RollbackInput reverses a previously applied commission.
type RollbackInput struct {
	PartnerID uuid.UUID
	OrderID   uuid.UUID
	Amount    int64
	Reason    string
	Actor     outbox.ActorRef
}

// CommissionResult is what gets snapshotted onto the order after apply.
type CommissionResult struct {
	WalletID    uuid.UUID
	RatePercent float64
	Amount      int64
	Lines       []types.CommissionLine
}

// Sentinels for the per-order dedupe inside Apply and Rollback. Returning
// them from the transaction function rolls the transaction back with nothing
// written.
var (
	errAlreadyPosted   = errors.New("commission already posted for order")
	errAlreadyReversed = errors.New("commission already reversed for order")
)

// Service posts commission against partner wallets. The wallet log is
// append-only; balances are derived and adjusted alongside each append in
// the same transaction.
type Service interface {
	ResolveRate(ctx context.Context, partnerID uuid.UUID, category string, orderType enums.OrderType) (float64, error)
	Apply(ctx context.Context, input ApplyInput) (*CommissionResult, error)
	Rollback(ctx context.Context, input RollbackInput) error
	Recompute(ctx context.Context, partnerID uuid.UUID) (int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	cfg     config.CommissionConfig
	metrics *metrics.LedgerMetrics
	logger  *logger.Logger
}

// NewService wires a commission ledger service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cfg config.CommissionConfig, ledgerMetrics *metrics.LedgerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		cfg:     cfg,
		metrics: ledgerMetrics,
		logger:  logg,
	}, nil
}

// ResolveRate prefers an active partner-specific override, then the global
// rule for the category and order type, then the configured default.
func (s *service) ResolveRate(ctx context.Context, partnerID uuid.UUID, category string, orderType enums.OrderType) (float64, error) {
	if partnerID != uuid.Nil {
		rule, err := s.repo.FindActiveRule(ctx, &partnerID, category, orderType)
		if err == nil {
			return rule.RatePercent, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner commission rule")
		}
	}

	rule, err := s.repo.FindActiveRule(ctx, nil, category, orderType)
	if err == nil {
		return rule.RatePercent, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default commission rule")
	}

	return s.cfg.DefaultRatePercent, nil
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*CommissionResult, error) {
	if input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.OrderValue < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order value cannot be negative")
	}

	rate, err := s.ResolveRate(ctx, input.PartnerID, input.Category, input.OrderType)
	if err != nil {
		return nil, err
	}
	amount := CommissionAmount(input.OrderValue, rate)

	result := &CommissionResult{
		RatePercent: rate,
		Amount:      amount,
		Lines: []types.CommissionLine{
			{Label: "platform commission", RatePercent: rate, Amount: amount},
		},
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindTransaction(ctx, input.OrderID, enums.TransactionTypeDebit); err == nil {
			return errAlreadyPosted
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "check posted commission")
		}

		wallet, err := repo.FindOrCreateWallet(ctx, input.PartnerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "resolve partner wallet")
		}
		result.WalletID = wallet.ID

		txn := &models.WalletTransaction{
			ID:       uuid.New(),
			WalletID: wallet.ID,
			Type:     enums.TransactionTypeDebit,
			Amount:   amount,
			OrderID:  input.OrderID,
			Category: input.Category,
		}
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			// A concurrent confirm won the insert between the check
			// above and this write.
			if dbpkg.IsUniqueViolation(err, "wallet_transactions") {
				return errAlreadyPosted
			}
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "append commission debit")
		}
		if err := repo.AdjustCommissionBalance(ctx, wallet.ID, amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "increment commission balance")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommissionApplied,
			AggregateType: enums.AggregateWallet,
			AggregateID:   wallet.ID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.CommissionAppliedEvent{
				OrderID:     input.OrderID,
				PartnerID:   input.PartnerID,
				WalletID:    wallet.ID,
				Amount:      amount,
				RatePercent: rate,
				Category:    input.Category,
			},
		})
	})
	if errors.Is(err, errAlreadyPosted) {
		existing, findErr := s.repo.FindTransaction(ctx, input.OrderID, enums.TransactionTypeDebit)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, findErr, "load posted commission")
		}
		result.WalletID = existing.WalletID
		result.Amount = existing.Amount
		result.Lines = []types.CommissionLine{
			{Label: "platform commission", RatePercent: rate, Amount: existing.Amount},
		}
		logCtx := s.logger.WithOrderID(ctx, input.OrderID.String())
		s.logger.Info(logCtx, "commission already posted, returning existing entry")
		return result, nil
	}
	if err != nil {
		s.metrics.IncFailure("apply")
		return nil, err
	}

	s.metrics.IncApplied(input.Category)
	logCtx := s.logger.WithFields(ctx, map[string]any{
		"order_id":     input.OrderID.String(),
		"partner_id":   input.PartnerID.String(),
		"amount":       amount,
		"rate_percent": rate,
	})
	s.logger.Info(logCtx, "commission applied")
	return result, nil
}

func (s *service) Rollback(ctx context.Context, input RollbackInput) error {
	if input.PartnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rollback amount must be positive")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindTransaction(ctx, input.OrderID, enums.TransactionTypeCredit); err == nil {
			return errAlreadyReversed
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "check reversed commission")
		}

		wallet, err := repo.FindWalletByPartner(ctx, input.PartnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeLedger, "wallet missing for rollback")
			}
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "resolve partner wallet")
		}

		var note *string
		if input.Reason != "" {
			note = &input.Reason
		}
		txn := &models.WalletTransaction{
			ID:       uuid.New(),
			WalletID: wallet.ID,
			Type:     enums.TransactionTypeCredit,
			Amount:   input.Amount,
			OrderID:  input.OrderID,
			Category: "commission_reversal",
			Note:     note,
		}
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			if dbpkg.IsUniqueViolation(err, "wallet_transactions") {
				return errAlreadyReversed
			}
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "append commission credit")
		}
		if err := repo.AdjustCommissionBalance(ctx, wallet.ID, -input.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeLedger, err, "decrement commission balance")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommissionReversed,
			AggregateType: enums.AggregateWallet,
			AggregateID:   wallet.ID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.CommissionReversedEvent{
				OrderID:   input.OrderID,
				PartnerID: input.PartnerID,
				WalletID:  wallet.ID,
				Amount:    input.Amount,
			},
		})
	})
	if errors.Is(err, errAlreadyReversed) {
		logCtx := s.logger.WithOrderID(ctx, input.OrderID.String())
		s.logger.Info(logCtx, "commission already reversed, skipping")
		return nil
	}
	if err != nil {
		s.metrics.IncFailure("rollback")
		return err
	}

	s.metrics.IncReversed("commission_reversal")
	logCtx := s.logger.WithFields(ctx, map[string]any{
		"order_id":   input.OrderID.String(),
		"partner_id": input.PartnerID.String(),
		"amount":     input.Amount,
	})
	s.logger.Info(logCtx, "commission reversed")
	return nil
}

// Recompute re-derives the commission balance from the transaction log and
// writes it back. Reconciliation helper for balance drift.
func (s *service) Recompute(ctx context.Context, partnerID uuid.UUID) (int64, error) {
	if partnerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}

	var balance int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.FindWalletByPartner(ctx, partnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve partner wallet")
		}

		balance, err = repo.SumCommissionDeltas(ctx, wallet.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet log")
		}
		if balance == wallet.CommissionBalance {
			return nil
		}

		logCtx := s.logger.WithFields(ctx, map[string]any{
			"partner_id": partnerID.String(),
			"stored":     wallet.CommissionBalance,
			"derived":    balance,
		})
		s.logger.Warn(logCtx, "commission balance drift detected")
		return repo.SetCommissionBalance(ctx, wallet.ID, balance)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// CommissionAmount rounds value*rate/100 half away from zero to a whole unit.
func CommissionAmount(orderValue int64, ratePercent float64) int64 {
	return decimal.NewFromInt(orderValue).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
