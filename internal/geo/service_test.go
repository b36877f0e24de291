package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
)

type fakeRepo struct {
	lat, lng float64
	radius   float64
	limit    int
	results  []RankedOrder
}

func (f *fakeRepo) FindOpenOrdersWithin(_ context.Context, lat, lng float64, radiusMeters float64, limit int) ([]RankedOrder, error) {
	f.lat, f.lng = lat, lng
	f.radius = radiusMeters
	f.limit = limit
	return f.results, nil
}

func TestFindAvailable_AppliesDefaultsAndCaps(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.FindAvailable(context.Background(), 12.97, 77.59, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(defaultRadiusMeters), repo.radius)
	assert.Equal(t, defaultLimit, repo.limit)

	_, err = svc.FindAvailable(context.Background(), 12.97, 77.59, 9e9, 9000)
	require.NoError(t, err)
	assert.Equal(t, float64(maxRadiusMeters), repo.radius)
	assert.Equal(t, maxLimit, repo.limit)
}

func TestFindAvailable_RejectsBadCoordinates(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	require.NoError(t, err)

	_, err = svc.FindAvailable(context.Background(), 91, 0, 0, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.FindAvailable(context.Background(), 0, -181, 0, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
