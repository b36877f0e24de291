package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/internal/geo"
	"github.com/reclaimtech/buyback-backend/internal/orders"
	"github.com/reclaimtech/buyback-backend/internal/partners"
	"github.com/reclaimtech/buyback-backend/internal/sessions"
	"github.com/reclaimtech/buyback-backend/pkg/auth"
	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/pagination"
	"github.com/rs/zerolog"
)

type stubSessions struct{}

func (stubSessions) Create(context.Context, sessions.CreateInput) (*models.OfferSession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubSessions) Get(context.Context, string) (*models.OfferSession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer session not found")
}
func (stubSessions) Extend(context.Context, uuid.UUID, int) (*models.OfferSession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubSessions) UpdateField(context.Context, uuid.UUID, string, any) (*models.OfferSession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubSessions) Delete(context.Context, uuid.UUID) error { return nil }
func (stubSessions) SweepExpired(context.Context) (int64, error) {
	return 0, nil
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, orders.CreateInput) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) Get(context.Context, uuid.UUID) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
func (stubOrders) GetByNumber(context.Context, string) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
func (stubOrders) Submit(context.Context, uuid.UUID, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) Claim(context.Context, uuid.UUID, uuid.UUID, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) Assign(context.Context, uuid.UUID, uuid.UUID, *uuid.UUID, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) Confirm(context.Context, uuid.UUID, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) Reject(context.Context, uuid.UUID, uuid.UUID, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) Cancel(context.Context, uuid.UUID, string, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) MarkPicked(context.Context, uuid.UUID, int64, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}
func (stubOrders) MarkPaid(context.Context, uuid.UUID, string, outbox.ActorRef) (*models.PickupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}

type stubPartners struct{}

func (stubPartners) GetPartner(context.Context, uuid.UUID) (*models.Partner, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
}
func (stubPartners) GetWallet(context.Context, uuid.UUID, pagination.Params) (*partners.WalletView, error) {
	return &partners.WalletView{}, nil
}

type stubGeo struct{}

func (stubGeo) FindAvailable(context.Context, float64, float64, float64, int) ([]geo.RankedOrder, error) {
	return nil, nil
}

type allowAllSessions struct{}

func (allowAllSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 30}

	return NewRouter(RouterParams{
		Config:         cfg,
		Logger:         logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
		SessionChecker: allowAllSessions{},
		Sessions:       stubSessions{},
		Orders:         stubOrders{},
		Partners:       stubPartners{},
		Geo:            stubGeo{},
	})
}

func TestHealthLiveRoute(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestSessionDetailIsPublic(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/some-token", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected stubbed 404 got %d", rec.Code)
	}
}

func TestOrderRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestPartnerRoutesRequirePartnerRole(t *testing.T) {
	router := testRouter(t)
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 30}
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/partner/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestPartnerWalletAllowsPartnerToken(t *testing.T) {
	router := testRouter(t)
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 30}
	partnerID := uuid.New()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID:    uuid.New(),
		PartnerID: &partnerID,
		Role:      enums.ActorRolePartner,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/partner/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
