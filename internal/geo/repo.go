package geo

import (
	"context"

	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
)

// Repository runs proximity queries against pickup orders. Read-only.
type Repository interface {
	FindOpenOrdersWithin(ctx context.Context, lat, lng float64, radiusMeters float64, limit int) ([]RankedOrder, error)
}

// RankedOrder pairs an order with its distance from the query point.
type RankedOrder struct {
	Order          models.PickupOrder
	DistanceMeters float64
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a geo repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindOpenOrdersWithin returns open, unassigned orders whose pickup point
// lies within the radius, nearest first then most recent. The partial index
// on (status, partner_id) keeps the candidate set small before the
// geography filter runs.
func (r *repository) FindOpenOrdersWithin(ctx context.Context, lat, lng float64, radiusMeters float64, limit int) ([]RankedOrder, error) {
	type row struct {
		models.PickupOrder
		DistanceMeters float64 `gorm:"column:distance_meters"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Select("pickup_orders.*, ST_Distance(location, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography) AS distance_meters", lng, lat).
		Where("status = ? AND partner_id IS NULL", enums.OrderStatusOpen).
		Where("ST_DWithin(location, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)", lng, lat, radiusMeters).
		Order("distance_meters ASC, created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedOrder, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, RankedOrder{Order: r.PickupOrder, DistanceMeters: r.DistanceMeters})
	}
	return ranked, nil
}
