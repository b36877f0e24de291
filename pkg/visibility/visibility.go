package visibility

import (
	"math"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

const earthRadiusMeters = 6371000.0

// PartnerEligibilityInput drives the shared eligibility checks before a
// partner may take an order.
type PartnerEligibilityInput struct {
	Partner       *models.Partner
	OrderLocation types.GeographyPoint
}

// EnsurePartnerEligible enforces canonical rules so inactive or out-of-range
// partners never acquire orders regardless of which surface they come through.
func EnsurePartnerEligible(input PartnerEligibilityInput) error {
	if input.Partner == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
	}
	if !input.Partner.Active {
		return pkgerrors.New(pkgerrors.CodeForbidden, "partner is not active")
	}
	if input.Partner.ServiceRadiusM <= 0 {
		return pkgerrors.New(pkgerrors.CodeForbidden, "partner has no service area")
	}

	distance := DistanceMeters(input.Partner.Location, input.OrderLocation)
	if distance > float64(input.Partner.ServiceRadiusM) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order is outside the partner service area")
	}
	return nil
}

// DistanceMeters computes the haversine distance between two points.
func DistanceMeters(a, b types.GeographyPoint) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
