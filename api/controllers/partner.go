package controllers

import (
	"net/http"
	"strings"

	"github.com/reclaimtech/buyback-backend/api/responses"
	"github.com/reclaimtech/buyback-backend/api/validators"
	"github.com/reclaimtech/buyback-backend/internal/geo"
	"github.com/reclaimtech/buyback-backend/internal/partners"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/pagination"
)

type availableOrderView struct {
	Order          orderView `json:"order"`
	DistanceMeters float64   `json:"distance_meters"`
}

// PartnerAvailableOrders lists open unclaimed orders ranked by distance from the caller.
func PartnerAvailableOrders(svc geo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "geo service unavailable"))
			return
		}

		lat, _, err := validators.ParseQueryFloat(r, "lat", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, _, err := validators.ParseQueryFloat(r, "lng", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, _, err := validators.ParseQueryFloat(r, "radius", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ranked, err := svc.FindAvailable(r.Context(), lat, lng, radius, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]availableOrderView, 0, len(ranked))
		for i := range ranked {
			views = append(views, availableOrderView{
				Order:          newOrderView(&ranked[i].Order),
				DistanceMeters: ranked[i].DistanceMeters,
			})
		}
		responses.WriteSuccess(w, views)
	}
}

// PartnerWallet returns the caller's wallet balances with a transaction page.
func PartnerWallet(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partners service unavailable"))
			return
		}

		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		wallet, err := svc.GetWallet(r.Context(), partnerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}
