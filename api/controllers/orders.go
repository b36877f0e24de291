package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/api/middleware"
	"github.com/reclaimtech/buyback-backend/api/responses"
	"github.com/reclaimtech/buyback-backend/api/validators"
	"github.com/reclaimtech/buyback-backend/internal/orders"
	"github.com/reclaimtech/buyback-backend/internal/partners"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/types"
	"github.com/reclaimtech/buyback-backend/pkg/visibility"
)

type orderCreateRequest struct {
	SessionID     string               `json:"session_id" validate:"required,uuid"`
	Address       types.PickupAddress  `json:"address" validate:"required"`
	Location      types.GeographyPoint `json:"location" validate:"required"`
	Slot          types.PickupSlot     `json:"slot"`
	PaymentMethod string               `json:"payment_method"`
	OrderType     string               `json:"order_type"`
	OpenNow       bool                 `json:"open_now"`
}

type orderAssignRequest struct {
	PartnerID string  `json:"partner_id" validate:"required,uuid"`
	AgentID   *string `json:"agent_id,omitempty"`
}

type orderCancelRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type orderPickedRequest struct {
	ActualAmount int64 `json:"actual_amount" validate:"required,min=0"`
}

type orderPaidRequest struct {
	TransactionRef string `json:"transaction_ref" validate:"required,min=3,max=120"`
}

type orderView struct {
	ID             uuid.UUID                 `json:"id"`
	OrderNumber    string                    `json:"order_number"`
	SessionID      uuid.UUID                 `json:"session_id"`
	PartnerID      *uuid.UUID                `json:"partner_id,omitempty"`
	AgentID        *uuid.UUID                `json:"agent_id,omitempty"`
	Status         enums.OrderStatus         `json:"status"`
	OrderType      enums.OrderType           `json:"order_type"`
	Category       string                    `json:"category"`
	Currency       enums.Currency            `json:"currency"`
	QuoteAmount    int64                     `json:"quote_amount"`
	ActualAmount   *int64                    `json:"actual_amount,omitempty"`
	Commission     *types.CommissionSnapshot `json:"commission,omitempty"`
	PaymentMethod  enums.PaymentMethod       `json:"payment_method"`
	Address        types.PickupAddress       `json:"address"`
	Location       types.GeographyPoint      `json:"location"`
	Slot           types.PickupSlot          `json:"slot"`
	CancelReason   *string                   `json:"cancel_reason,omitempty"`
	TransactionRef *string                   `json:"transaction_ref,omitempty"`
	ClaimedAt      *time.Time                `json:"claimed_at,omitempty"`
	ConfirmedAt    *time.Time                `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time                `json:"cancelled_at,omitempty"`
	PickedAt       *time.Time                `json:"picked_at,omitempty"`
	PaidAt         *time.Time                `json:"paid_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

func newOrderView(o *models.PickupOrder) orderView {
	return orderView{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		SessionID:      o.SessionID,
		PartnerID:      o.PartnerID,
		AgentID:        o.AgentID,
		Status:         o.Status,
		OrderType:      o.OrderType,
		Category:       o.Category,
		Currency:       o.Currency,
		QuoteAmount:    o.QuoteAmount,
		ActualAmount:   o.ActualAmount,
		Commission:     o.Commission,
		PaymentMethod:  o.PaymentMethod,
		Address:        o.Address,
		Location:       o.Location,
		Slot:           o.Slot,
		CancelReason:   o.CancelReason,
		TransactionRef: o.TransactionRef,
		ClaimedAt:      o.ClaimedAt,
		ConfirmedAt:    o.ConfirmedAt,
		CancelledAt:    o.CancelledAt,
		PickedAt:       o.PickedAt,
		PaidAt:         o.PaidAt,
		CreatedAt:      o.CreatedAt,
	}
}

// OrderCreate materializes an order from an offer session, consuming it.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var req orderCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := uuid.Parse(req.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id"))
			return
		}

		input := orders.CreateInput{
			SessionID: sessionID,
			Address:   req.Address,
			Location:  req.Location,
			Slot:      req.Slot,
			OpenNow:   req.OpenNow,
			Actor:     actorFromContext(r),
		}
		if req.PaymentMethod != "" {
			method, parseErr := enums.ParsePaymentMethod(req.PaymentMethod)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment method"))
				return
			}
			input.PaymentMethod = method
		}
		if req.OrderType != "" {
			orderType, parseErr := enums.ParseOrderType(req.OrderType)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid order type"))
				return
			}
			input.OrderType = orderType
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if userID, parseErr := uuid.Parse(raw); parseErr == nil {
				input.UserID = &userID
			}
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

// OrderDetail returns one order by id.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderSubmit opens a draft order to the partner pool.
func OrderSubmit(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderAction(svc, logg, w, r, func(orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
			return svc.Submit(r.Context(), orderID, actor)
		})
	}
}

// OrderClaim races the caller against other partners for an open order.
// Eligibility is checked before the claim so ineligible partners never
// consume the open slot.
func OrderClaim(svc orders.Service, partnersSvc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || partnersSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partner, err := partnersSvc.GetPartner(r.Context(), partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := visibility.EnsurePartnerEligible(visibility.PartnerEligibilityInput{
			Partner:       partner,
			OrderLocation: current.Location,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Claim(r.Context(), orderID, partnerID, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderAssign lets an operator hand the order to a specific partner.
func OrderAssign(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := uuid.Parse(req.PartnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner id"))
			return
		}
		var agentID *uuid.UUID
		if req.AgentID != nil && strings.TrimSpace(*req.AgentID) != "" {
			parsed, parseErr := uuid.Parse(*req.AgentID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid agent id"))
				return
			}
			agentID = &parsed
		}

		order, err := svc.Assign(r.Context(), orderID, partnerID, agentID, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderConfirm accepts the pickup; commission posting follows the transition.
func OrderConfirm(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderAction(svc, logg, w, r, func(orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
			return svc.Confirm(r.Context(), orderID, actor)
		})
	}
}

// OrderReject returns a pending order to the pool, or cancels it when reopen is disabled.
func OrderReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reject(r.Context(), orderID, partnerID, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderCancel terminates the order and reverses commission when one was posted.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderCancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, req.Reason, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderPicked records the device handover with the inspected amount.
func OrderPicked(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderPickedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkPicked(r.Context(), orderID, req.ActualAmount, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderPaid records the payout reference and closes the order.
func OrderPaid(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderPaidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkPaid(r.Context(), orderID, req.TransactionRef, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

func orderAction(svc orders.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request, action func(uuid.UUID, outbox.ActorRef) (*models.PickupOrder, error)) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	order, err := action(orderID, actorFromContext(r))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newOrderView(order))
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

func partnerIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.PartnerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "partner context required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner id")
	}
	return id, nil
}

func actorFromContext(r *http.Request) outbox.ActorRef {
	actor := outbox.ActorRef{Role: middleware.RoleFromContext(r.Context())}
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		if userID, err := uuid.Parse(raw); err == nil {
			actor.UserID = userID
		}
	}
	if raw := middleware.PartnerIDFromContext(r.Context()); raw != "" {
		if partnerID, err := uuid.Parse(raw); err == nil {
			actor.PartnerID = &partnerID
		}
	}
	return actor
}
