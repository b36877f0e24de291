package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/internal/catalog"
	"github.com/reclaimtech/buyback-backend/internal/ledger"
	"github.com/reclaimtech/buyback-backend/internal/sessions"
	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
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

// CreateInput materializes a pickup order from an unexpired, unconsumed
// offer session.
type CreateInput struct {
	SessionID     uuid.UUID
	UserID        *uuid.UUID
	Address       types.PickupAddress
	Location      types.GeographyPoint
	Slot          types.PickupSlot
	PaymentMethod enums.PaymentMethod
	OrderType     enums.OrderType
	OpenNow       bool
	Actor         outbox.ActorRef
}

// Service owns the pickup order state machine. Confirm and cancel
// orchestrate the commission ledger; ledger failures never block a
// transition, they are logged and surfaced for reconciliation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PickupOrder, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.PickupOrder, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.PickupOrder, error)
	Submit(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error)
	Claim(ctx context.Context, orderID, partnerID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error)
	Assign(ctx context.Context, orderID, partnerID uuid.UUID, agentID *uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error)
	Confirm(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error)
	Reject(ctx context.Context, orderID, partnerID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string, actor outbox.ActorRef) (*models.PickupOrder, error)
	MarkPicked(ctx context.Context, orderID uuid.UUID, actualAmount int64, actor outbox.ActorRef) (*models.PickupOrder, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, transactionRef string, actor outbox.ActorRef) (*models.PickupOrder, error)
}

type service struct {
	repo     Repository
	sessions sessions.Repository
	catalog  catalog.Service
	ledger   ledger.Service
	tx       txRunner
	outbox   outboxPublisher
	cfg      config.OrdersConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the order lifecycle service.
func NewService(
	repo Repository,
	sessionRepo sessions.Repository,
	catalogSvc catalog.Service,
	ledgerSvc ledger.Service,
	tx txRunner,
	outboxSvc outboxPublisher,
	cfg config.OrdersConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if sessionRepo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
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
		repo:     repo,
		sessions: sessionRepo,
		catalog:  catalogSvc,
		ledger:   ledgerSvc,
		tx:       tx,
		outbox:   outboxSvc,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PickupOrder, error) {
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	orderType := input.OrderType
	if orderType == "" {
		orderType = enums.OrderTypePickup
	}
	if !orderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sessionRepo := s.sessions.WithTx(tx)

		session, err := sessionRepo.FindByID(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer session")
		}
		if session.Expired(now) {
			return pkgerrors.New(pkgerrors.CodeExpired, "offer session expired")
		}

		rows, err := sessionRepo.MarkConsumed(ctx, session.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume offer session")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer session already used")
		}

		profile, err := s.catalog.ResolvePricingProfile(ctx, session.ProductID, session.VariantID)
		if err != nil {
			return err
		}

		orderNumber, err := s.nextOrderNumber(ctx, repo, now)
		if err != nil {
			return err
		}

		status := enums.OrderStatusDraft
		if input.OpenNow {
			status = enums.OrderStatusOpen
		}
		order = &models.PickupOrder{
			ID:            uuid.New(),
			OrderNumber:   orderNumber,
			SessionID:     session.ID,
			UserID:        input.UserID,
			Status:        status,
			OrderType:     orderType,
			Category:      profile.Product.Category,
			Currency:      session.Currency,
			QuoteAmount:   session.FinalPrice,
			PaymentMethod: input.PaymentMethod,
			Address:       input.Address,
			Location:      input.Location,
			Slot:          input.Slot,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup order")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				SessionID:   session.ID,
				Category:    order.Category,
				QuoteAmount: order.QuoteAmount,
			},
		}); err != nil {
			return err
		}

		if !input.OpenNow {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSubmitted,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.OrderSubmittedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Category:    order.Category,
				QuoteAmount: order.QuoteAmount,
				SubmittedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"quote_amount": order.QuoteAmount,
	})
	s.logg.Info(logCtx, "pickup order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.findOrder(ctx, s.repo, orderID)
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*models.PickupOrder, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) Submit(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.Status == enums.OrderStatusOpen {
			order = current
			return nil
		}

		rows, err := repo.TransitionStatus(ctx, orderID, []enums.OrderStatus{enums.OrderStatusDraft}, map[string]any{
			"status": enums.OrderStatusOpen,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be submitted")
		}

		current.Status = enums.OrderStatusOpen
		order = current
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSubmitted,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   current.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderSubmittedEvent{
				OrderID:     current.ID,
				OrderNumber: current.OrderNumber,
				Category:    current.Category,
				QuoteAmount: current.QuoteAmount,
				SubmittedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Claim is the race-sensitive transition: one conditional update decides the
// winner, losers get a clean conflict with no partial side effects.
func (s *service) Claim(ctx context.Context, orderID, partnerID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.Claim(ctx, orderID, partnerID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		if rows == 0 {
			if _, err := s.findOrder(ctx, repo, orderID); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "order no longer available")
		}

		order, err = s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderClaimed,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderClaimedEvent{
				OrderID:   orderID,
				PartnerID: partnerID,
				ClaimedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   orderID.String(),
		"partner_id": partnerID.String(),
	})
	s.logg.Info(logCtx, "order claimed")
	return order, nil
}

func (s *service) Assign(ctx context.Context, orderID, partnerID uuid.UUID, agentID *uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{
			"partner_id": partnerID,
			"status":     enums.OrderStatusPendingAcceptance,
			"claimed_at": now,
		}
		if agentID != nil {
			updates["agent_id"] = *agentID
		}
		rows, err := repo.TransitionStatus(ctx, orderID, []enums.OrderStatus{enums.OrderStatusDraft, enums.OrderStatusOpen}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign order")
		}
		if rows == 0 {
			if _, err := s.findOrder(ctx, repo, orderID); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be assigned in current state")
		}

		order, err = s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}

		event := payloads.OrderAssignedEvent{
			OrderID:   orderID,
			PartnerID: partnerID,
		}
		if agentID != nil {
			event.AgentID = *agentID
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderAssigned,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data:          event,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Confirm completes the acceptance and posts commission. The transition
// commits on its own; a ledger failure leaves the order confirmed with no
// commission snapshot, which reconciliation picks up.
func (s *service) Confirm(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.Status == enums.OrderStatusConfirmed {
			order = current
			return nil
		}
		if current.PartnerID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no partner to confirm")
		}

		rows, err := repo.TransitionStatus(ctx, orderID, []enums.OrderStatus{enums.OrderStatusPendingAcceptance}, map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be confirmed in current state")
		}

		current.Status = enums.OrderStatusConfirmed
		current.ConfirmedAt = &now
		order = current
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderConfirmedEvent{
				OrderID:      orderID,
				PartnerID:    *current.PartnerID,
				ActualAmount: current.QuoteAmount,
				ConfirmedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if !order.CommissionApplied() {
		s.applyCommission(ctx, order, actor)
	}
	return order, nil
}

// Reject hands a pending acceptance back. With ReopenOnReject the order
// returns to the pool as claimable; otherwise it cancels outright.
func (s *service) Reject(ctx context.Context, orderID, partnerID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}

	if !s.cfg.ReopenOnReject {
		return s.Cancel(ctx, orderID, "partner rejected pickup", actor)
	}

	var order *models.PickupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.PartnerID == nil || *current.PartnerID != partnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this partner")
		}

		rows, err := repo.TransitionStatus(ctx, orderID, []enums.OrderStatus{enums.OrderStatusPendingAcceptance}, map[string]any{
			"status":     enums.OrderStatusOpen,
			"partner_id": nil,
			"agent_id":   nil,
			"claimed_at": nil,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be rejected in current state")
		}

		current.Status = enums.OrderStatusOpen
		current.PartnerID = nil
		current.AgentID = nil
		current.ClaimedAt = nil
		order = current
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderReopened,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderReopenedEvent{
				OrderID:           orderID,
				PreviousPartnerID: partnerID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.Status == enums.OrderStatusCancelled {
			order = current
			return nil
		}

		cancellable := []enums.OrderStatus{
			enums.OrderStatusDraft,
			enums.OrderStatusOpen,
			enums.OrderStatusPendingAcceptance,
			enums.OrderStatusConfirmed,
		}
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if reason != "" {
			updates["cancel_reason"] = reason
		}
		rows, err := repo.TransitionStatus(ctx, orderID, cancellable, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled in current state")
		}

		current.Status = enums.OrderStatusCancelled
		current.CancelledAt = &now
		if reason != "" {
			current.CancelReason = &reason
		}
		order = current
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderCancelledEvent{
				OrderID:     orderID,
				PartnerID:   current.PartnerID,
				Reason:      reason,
				CancelledAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if order.CommissionApplied() {
		s.rollbackCommission(ctx, order, reason, actor)
	}
	return order, nil
}

func (s *service) MarkPicked(ctx context.Context, orderID uuid.UUID, actualAmount int64, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actualAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actual amount cannot be negative")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.PartnerID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no partner")
		}

		rows, err := repo.TransitionStatus(ctx, orderID, []enums.OrderStatus{enums.OrderStatusConfirmed}, map[string]any{
			"status":        enums.OrderStatusPicked,
			"actual_amount": actualAmount,
			"picked_at":     now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order picked")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed orders can be picked")
		}

		current.Status = enums.OrderStatusPicked
		current.ActualAmount = &actualAmount
		current.PickedAt = &now
		order = current

		event := payloads.OrderPickedEvent{
			OrderID:   orderID,
			PartnerID: *current.PartnerID,
			PickedAt:  now,
		}
		if current.AgentID != nil {
			event.AgentID = *current.AgentID
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPicked,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data:          event,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, transactionRef string, actor outbox.ActorRef) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	now := s.now()
	var order *models.PickupOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.PartnerID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no partner")
		}

		updates := map[string]any{
			"status":  enums.OrderStatusPaid,
			"paid_at": now,
		}
		if transactionRef != "" {
			updates["transaction_ref"] = transactionRef
		}
		rows, err := repo.TransitionStatus(ctx, orderID, []enums.OrderStatus{enums.OrderStatusPicked}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only picked orders can be paid")
		}

		current.Status = enums.OrderStatusPaid
		current.PaidAt = &now
		if transactionRef != "" {
			current.TransactionRef = &transactionRef
		}
		order = current

		amount := current.QuoteAmount
		if current.ActualAmount != nil {
			amount = *current.ActualAmount
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderPaidEvent{
				OrderID:        orderID,
				PartnerID:      *current.PartnerID,
				Amount:         amount,
				PaymentMethod:  current.PaymentMethod,
				TransactionRef: transactionRef,
				PaidAt:         now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// applyCommission posts commission in its own transaction after a confirm
// has committed. On failure the order stays confirmed and the gap is logged.
func (s *service) applyCommission(ctx context.Context, order *models.PickupOrder, actor outbox.ActorRef) {
	value := order.QuoteAmount
	if order.ActualAmount != nil {
		value = *order.ActualAmount
	}

	result, err := s.ledger.Apply(ctx, ledger.ApplyInput{
		PartnerID:  *order.PartnerID,
		OrderID:    order.ID,
		OrderValue: value,
		Category:   order.Category,
		OrderType:  order.OrderType,
		Actor:      actor,
	})
	if err != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "commission apply failed, order confirmed without snapshot", err)
		return
	}

	now := s.now()
	snapshot := &types.CommissionSnapshot{
		TotalRate:   result.RatePercent,
		TotalAmount: result.Amount,
		Breakdown:   result.Lines,
		IsApplied:   true,
		AppliedAt:   &now,
	}
	if err := s.repo.UpdateCommission(ctx, order.ID, snapshot); err != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "commission snapshot write failed", err)
		return
	}
	order.Commission = snapshot
}

// rollbackCommission reverses a posted commission after a cancel has
// committed, then clears the applied flag.
func (s *service) rollbackCommission(ctx context.Context, order *models.PickupOrder, reason string, actor outbox.ActorRef) {
	err := s.ledger.Rollback(ctx, ledger.RollbackInput{
		PartnerID: *order.PartnerID,
		OrderID:   order.ID,
		Amount:    order.Commission.TotalAmount,
		Reason:    reason,
		Actor:     actor,
	})
	if err != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "commission rollback failed, order cancelled with stale snapshot", err)
		return
	}

	snapshot := *order.Commission
	snapshot.IsApplied = false
	if err := s.repo.UpdateCommission(ctx, order.ID, &snapshot); err != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "commission snapshot clear failed", err)
		return
	}
	order.Commission = &snapshot
}

func (s *service) findOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.PickupOrder, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) nextOrderNumber(ctx context.Context, repo Repository, now time.Time) (string, error) {
	dayKey := now.UTC().Format("20060102")
	seq, err := repo.NextSequence(ctx, dayKey)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}
	return fmt.Sprintf("%s-%s-%04d", s.cfg.NumberPrefix, dayKey, seq), nil
}
