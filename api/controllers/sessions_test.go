package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/internal/sessions"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

type stubSessionService struct {
	session *models.OfferSession
	err     error
}

func (s stubSessionService) Create(ctx context.Context, input sessions.CreateInput) (*models.OfferSession, error) {
	return s.session, s.err
}

func (s stubSessionService) Get(ctx context.Context, ref string) (*models.OfferSession, error) {
	return s.session, s.err
}

func (s stubSessionService) Extend(ctx context.Context, id uuid.UUID, hours int) (*models.OfferSession, error) {
	return s.session, s.err
}

func (s stubSessionService) UpdateField(ctx context.Context, id uuid.UUID, field string, value any) (*models.OfferSession, error) {
	return s.session, s.err
}

func (s stubSessionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s stubSessionService) SweepExpired(ctx context.Context) (int64, error) {
	return 0, s.err
}

func quotedSession() *models.OfferSession {
	return &models.OfferSession{
		ID:         uuid.New(),
		Token:      "tok_2f8a91c3d4",
		ProductID:  uuid.New(),
		VariantID:  uuid.New(),
		BasePrice:  50000,
		RawPrice:   46000,
		FinalPrice: 46000,
		Currency:   enums.CurrencyINR,
		Breakdown: types.Breakdown{
			{Label: "base", Delta: 50000},
			{Label: "Screen cracked", Delta: -4000},
		},
		ComputedAt: time.Now(),
		ExpiresAt:  time.Now().Add(72 * time.Hour),
	}
}

func TestSessionCreateSuccess(t *testing.T) {
	session := quotedSession()
	handler := SessionCreate(stubSessionService{session: session}, nil)

	body := `{"product_id":"` + session.ProductID.String() + `","variant_id":"` + session.VariantID.String() + `","answers":{"screen":"cracked"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(body))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data sessionView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != session.Token {
		t.Fatalf("unexpected token: %s", envelope.Data.Token)
	}
	if envelope.Data.FinalPrice != 46000 {
		t.Fatalf("unexpected final price: %d", envelope.Data.FinalPrice)
	}
}

func TestSessionCreateRejectsUnknownFields(t *testing.T) {
	handler := SessionCreate(stubSessionService{session: quotedSession()}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","variant_id":"` + uuid.NewString() + `","bogus":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(body))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSessionDetailExpiredMapsToGone(t *testing.T) {
	handler := SessionDetail(stubSessionService{
		err: pkgerrors.New(pkgerrors.CodeExpired, "offer session has expired"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/tok_expired", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("token", "tok_expired")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected 410 got %d", resp.Code)
	}
}

func TestSessionExtendValidatesHours(t *testing.T) {
	session := quotedSession()
	handler := SessionExtend(stubSessionService{session: session}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+session.ID.String()+"/extend", strings.NewReader(`{"hours":0}`))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("sessionId", session.ID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
