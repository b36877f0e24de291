package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/api/middleware"
	"github.com/reclaimtech/buyback-backend/internal/orders"
	"github.com/reclaimtech/buyback-backend/internal/partners"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/pagination"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

type stubOrderService struct {
	order    *models.PickupOrder
	getErr   error
	claimErr error
	claims   int
}

func (s *stubOrderService) Create(ctx context.Context, input orders.CreateInput) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) Get(ctx context.Context, orderID uuid.UUID) (*models.PickupOrder, error) {
	return s.order, s.getErr
}

func (s *stubOrderService) GetByNumber(ctx context.Context, orderNumber string) (*models.PickupOrder, error) {
	return s.order, s.getErr
}

func (s *stubOrderService) Submit(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) Claim(ctx context.Context, orderID, partnerID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	s.claims++
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	return s.order, nil
}

func (s *stubOrderService) Assign(ctx context.Context, orderID, partnerID uuid.UUID, agentID *uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) Confirm(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) Reject(ctx context.Context, orderID, partnerID uuid.UUID, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason string, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) MarkPicked(ctx context.Context, orderID uuid.UUID, actualAmount int64, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

func (s *stubOrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, transactionRef string, actor outbox.ActorRef) (*models.PickupOrder, error) {
	return s.order, nil
}

type stubPartnerService struct {
	partner *models.Partner
	err     error
}

func (s stubPartnerService) GetPartner(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	return s.partner, s.err
}

func (s stubPartnerService) GetWallet(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*partners.WalletView, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
}

func openOrder(location types.GeographyPoint) *models.PickupOrder {
	return &models.PickupOrder{
		ID:          uuid.New(),
		OrderNumber: "BB-20260901-0001",
		SessionID:   uuid.New(),
		Status:      enums.OrderStatusOpen,
		OrderType:   enums.OrderTypePickup,
		Category:    "smartphone",
		Currency:    enums.CurrencyINR,
		QuoteAmount: 46000,
		Location:    location,
		CreatedAt:   time.Now(),
	}
}

func activePartner(location types.GeographyPoint, radiusM int) *models.Partner {
	return &models.Partner{
		ID:             uuid.New(),
		Name:           "Test Partner",
		Location:       location,
		ServiceRadiusM: radiusM,
		Active:         true,
	}
}

func orderRequest(method, target string, orderID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func withPartnerContext(req *http.Request, partnerID uuid.UUID) *http.Request {
	ctx := middleware.WithPartnerID(req.Context(), partnerID.String())
	ctx = middleware.WithRole(ctx, string(enums.ActorRolePartner))
	return req.WithContext(ctx)
}

func TestOrderClaimSuccess(t *testing.T) {
	location := types.GeographyPoint{Lat: 12.9716, Lng: 77.5946}
	order := openOrder(location)
	svc := &stubOrderService{order: order}
	handler := OrderClaim(svc, stubPartnerService{partner: activePartner(location, 10000)}, nil)

	partnerID := uuid.New()
	req := withPartnerContext(orderRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/claim", order.ID), partnerID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.claims != 1 {
		t.Fatalf("expected one claim call, got %d", svc.claims)
	}
	var envelope struct {
		Data orderView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != order.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.ID)
	}
}

func TestOrderClaimLostRaceConflict(t *testing.T) {
	location := types.GeographyPoint{Lat: 12.9716, Lng: 77.5946}
	order := openOrder(location)
	svc := &stubOrderService{
		order:    order,
		claimErr: pkgerrors.New(pkgerrors.CodeConflict, "this order was just taken"),
	}
	handler := OrderClaim(svc, stubPartnerService{partner: activePartner(location, 10000)}, nil)

	req := withPartnerContext(orderRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/claim", order.ID), uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestOrderClaimOutOfRangeForbidden(t *testing.T) {
	orderLocation := types.GeographyPoint{Lat: 12.9716, Lng: 77.5946}
	farAway := types.GeographyPoint{Lat: 13.0827, Lng: 80.2707}
	order := openOrder(orderLocation)
	svc := &stubOrderService{order: order}
	handler := OrderClaim(svc, stubPartnerService{partner: activePartner(farAway, 10000)}, nil)

	req := withPartnerContext(orderRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/claim", order.ID), uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if svc.claims != 0 {
		t.Fatalf("claim should not run for an out-of-range partner")
	}
}

func TestOrderClaimMissingPartnerContext(t *testing.T) {
	location := types.GeographyPoint{Lat: 12.9716, Lng: 77.5946}
	order := openOrder(location)
	handler := OrderClaim(&stubOrderService{order: order}, stubPartnerService{partner: activePartner(location, 10000)}, nil)

	req := orderRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/claim", order.ID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestOrderDetailInvalidID(t *testing.T) {
	handler := OrderDetail(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCancelRequiresReason(t *testing.T) {
	order := openOrder(types.GeographyPoint{Lat: 12.9716, Lng: 77.5946})
	handler := OrderCancel(&stubOrderService{order: order}, nil)

	req := orderRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", order.ID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
