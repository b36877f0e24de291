package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/api/middleware"
	"github.com/reclaimtech/buyback-backend/api/responses"
	"github.com/reclaimtech/buyback-backend/api/validators"
	pkgauth "github.com/reclaimtech/buyback-backend/pkg/auth"
	"github.com/reclaimtech/buyback-backend/pkg/auth/session"
	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
)

type sessionIssuer interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type tokenMintRequest struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	PartnerID *string `json:"partner_id,omitempty" validate:"omitempty,uuid"`
	Role      string  `json:"role" validate:"required"`
}

type tokenRefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPairView struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenMint issues an access/refresh pair for the given actor. Admin-only;
// credentials are checked upstream by whatever identity provider fronts the
// platform.
func TokenMint(cfg config.JWTConfig, issuer sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if issuer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var req tokenMintRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id"))
			return
		}

		var partnerID *uuid.UUID
		if req.PartnerID != nil {
			parsed, err := uuid.Parse(*req.PartnerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid partner id"))
				return
			}
			partnerID = &parsed
		}
		if role == enums.ActorRolePartner && partnerID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "partner role requires a partner id"))
			return
		}

		accessID := session.NewAccessID()
		refreshToken, err := issuer.Generate(r.Context(), accessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session"))
			return
		}

		accessToken, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
			UserID:    userID,
			PartnerID: partnerID,
			Role:      role,
			JTI:       accessID,
		})
		if err != nil {
			// The orphaned session entry expires on its own TTL.
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tokenPairView{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int64(cfg.AccessTokenTTL().Seconds()),
		})
	}
}

// TokenRefresh rotates a refresh token and re-mints the access token with the
// same actor claims. The old access token may already be expired.
func TokenRefresh(cfg config.JWTConfig, issuer sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if issuer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var req tokenRefreshRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := pkgauth.ParseAccessTokenAllowExpired(cfg, req.AccessToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}
		if claims.ID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}

		newAccessID, newRefresh, err := issuer.Rotate(r.Context(), claims.ID, req.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRefreshToken) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}

		accessToken, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
			UserID:    claims.UserID,
			PartnerID: claims.PartnerID,
			Role:      claims.Role,
			JTI:       newAccessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, tokenPairView{
			AccessToken:  accessToken,
			RefreshToken: newRefresh,
			ExpiresIn:    int64(cfg.AccessTokenTTL().Seconds()),
		})
	}
}

// Logout revokes the caller's refresh session, invalidating the access token
// for the remainder of its lifetime.
func Logout(issuer sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if issuer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}

		if err := issuer.Revoke(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}

		responses.WriteSuccess(w, map[string]bool{"revoked": true})
	}
}
