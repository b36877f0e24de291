package geo

import (
	"context"
	"fmt"

	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
)

const (
	defaultRadiusMeters = 10000
	maxRadiusMeters     = 100000
	defaultLimit        = 20
	maxLimit            = 100
)

// Service ranks claimable orders around a partner's location. Results are a
// hint, not a reservation: any listed order can be claimed by someone else
// before the caller acts.
type Service interface {
	FindAvailable(ctx context.Context, lat, lng float64, radiusMeters float64, limit int) ([]RankedOrder, error)
}

type service struct {
	repo Repository
}

// NewService wires a geo matching service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("geo repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) FindAvailable(ctx context.Context, lat, lng float64, radiusMeters float64, limit int) ([]RankedOrder, error) {
	if lat < -90 || lat > 90 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude out of range")
	}
	if lng < -180 || lng > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "longitude out of range")
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultRadiusMeters
	}
	if radiusMeters > maxRadiusMeters {
		radiusMeters = maxRadiusMeters
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	orders, err := s.repo.FindOpenOrdersWithin(ctx, lat, lng, radiusMeters, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query nearby orders")
	}
	return orders, nil
}
