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
	"github.com/reclaimtech/buyback-backend/internal/sessions"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

type sessionCreateRequest struct {
	ProductID   string         `json:"product_id" validate:"required,uuid"`
	VariantID   string         `json:"variant_id" validate:"required,uuid"`
	Answers     map[string]any `json:"answers"`
	Defects     []string       `json:"defects"`
	Accessories []string       `json:"accessories"`
}

type sessionExtendRequest struct {
	Hours int `json:"hours" validate:"required,min=1,max=168"`
}

type sessionAnswersRequest struct {
	Answers map[string]any `json:"answers" validate:"required"`
}

type sessionDefectsRequest struct {
	Defects []string `json:"defects" validate:"required"`
}

type sessionAccessoriesRequest struct {
	Accessories []string `json:"accessories" validate:"required"`
}

type sessionView struct {
	ID          uuid.UUID       `json:"id"`
	Token       string          `json:"token"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	Answers     types.JSONMap   `json:"answers,omitempty"`
	Defects     []string        `json:"defects,omitempty"`
	Accessories []string        `json:"accessories,omitempty"`
	BasePrice   int64           `json:"base_price"`
	RawPrice    int64           `json:"raw_price"`
	FinalPrice  int64           `json:"final_price"`
	Currency    string          `json:"currency"`
	Breakdown   types.Breakdown `json:"breakdown"`
	ComputedAt  time.Time       `json:"computed_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Consumed    bool            `json:"consumed"`
}

func newSessionView(s *models.OfferSession) sessionView {
	return sessionView{
		ID:          s.ID,
		Token:       s.Token,
		ProductID:   s.ProductID,
		VariantID:   s.VariantID,
		Answers:     s.Answers,
		Defects:     s.Defects,
		Accessories: s.Accessories,
		BasePrice:   s.BasePrice,
		RawPrice:    s.RawPrice,
		FinalPrice:  s.FinalPrice,
		Currency:    string(s.Currency),
		Breakdown:   s.Breakdown,
		ComputedAt:  s.ComputedAt,
		ExpiresAt:   s.ExpiresAt,
		Consumed:    s.Consumed(),
	}
}

// SessionCreate opens an offer session with a freshly computed quote.
func SessionCreate(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		var req sessionCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		variantID, err := uuid.Parse(req.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		input := sessions.CreateInput{
			ProductID:   productID,
			VariantID:   variantID,
			Answers:     types.JSONMap(req.Answers),
			Defects:     req.Defects,
			Accessories: req.Accessories,
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if userID, parseErr := uuid.Parse(raw); parseErr == nil {
				input.UserID = &userID
			}
		}

		session, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionView(session))
	}
}

// SessionDetail resolves a session by token or id.
func SessionDetail(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		ref := strings.TrimSpace(chi.URLParam(r, "token"))
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session reference is required"))
			return
		}

		session, err := svc.Get(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionView(session))
	}
}

// SessionUpdateAnswers replaces the questionnaire answers and recomputes the quote.
func SessionUpdateAnswers(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionAnswersRequest
		sessionUpdateField(svc, logg, w, r, &req, sessions.FieldAnswers, func() any {
			return types.JSONMap(req.Answers)
		})
	}
}

// SessionUpdateDefects replaces the defect list and recomputes the quote.
func SessionUpdateDefects(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionDefectsRequest
		sessionUpdateField(svc, logg, w, r, &req, sessions.FieldDefects, func() any {
			return req.Defects
		})
	}
}

// SessionUpdateAccessories replaces the accessory list and recomputes the quote.
func SessionUpdateAccessories(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionAccessoriesRequest
		sessionUpdateField(svc, logg, w, r, &req, sessions.FieldAccessories, func() any {
			return req.Accessories
		})
	}
}

func sessionUpdateField(svc sessions.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request, req any, field string, value func() any) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
		return
	}

	sessionID, err := parseSessionID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if err := validators.DecodeJSONBody(r, req); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	session, err := svc.UpdateField(r.Context(), sessionID, field, value())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newSessionView(session))
}

// SessionExtend pushes the expiry out, capped at the configured horizon.
func SessionExtend(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		sessionID, err := parseSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req sessionExtendRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Extend(r.Context(), sessionID, req.Hours)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionView(session))
	}
}

func parseSessionID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id")
	}
	return id, nil
}
