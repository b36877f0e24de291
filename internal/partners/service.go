package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/internal/ledger"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/pagination"
)

// WalletView is a partner-facing snapshot of the wallet plus one page of
// the transaction log.
type WalletView struct {
	WalletID          uuid.UUID                  `json:"wallet_id"`
	Balance           int64                      `json:"balance"`
	CommissionBalance int64                      `json:"commission_balance"`
	Transactions      []models.WalletTransaction `json:"transactions"`
	NextCursor        string                     `json:"next_cursor,omitempty"`
}

// Service exposes partner lookups and the wallet view.
type Service interface {
	GetPartner(ctx context.Context, id uuid.UUID) (*models.Partner, error)
	GetWallet(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*WalletView, error)
}

type service struct {
	repo   Repository
	ledger ledger.Repository
}

// NewService wires a partners service.
func NewService(repo Repository, ledgerRepo ledger.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partners repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, ledger: ledgerRepo}, nil
}

func (s *service) GetPartner(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	partner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	}
	return partner, nil
}

func (s *service) GetWallet(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*WalletView, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}

	wallet, err := s.ledger.FindWalletByPartner(ctx, partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No transactions yet; present an empty wallet rather than 404.
			return &WalletView{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	txns, err := s.ledger.ListTransactions(ctx, wallet.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet transactions")
	}

	view := &WalletView{
		WalletID:          wallet.ID,
		Balance:           wallet.Balance,
		CommissionBalance: wallet.CommissionBalance,
	}

	limit := pagination.NormalizeLimit(params.Limit)
	if len(txns) > limit {
		last := txns[limit-1]
		view.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		txns = txns[:limit]
	}
	view.Transactions = txns
	return view, nil
}
