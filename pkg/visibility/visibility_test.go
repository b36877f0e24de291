package visibility

import (
	"math"
	"testing"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

func basePartner() *models.Partner {
	return &models.Partner{
		Name:           "Speedy Pickups",
		Phone:          "+911234567890",
		Location:       types.GeographyPoint{Lat: 12.9716, Lng: 77.5946},
		ServiceRadiusM: 10000,
		Active:         true,
	}
}

func TestEnsurePartnerEligible(t *testing.T) {
	nearby := types.GeographyPoint{Lat: 12.9810, Lng: 77.6050}

	t.Run("partner missing", func(t *testing.T) {
		err := EnsurePartnerEligible(PartnerEligibilityInput{OrderLocation: nearby})
		if err == nil {
			t.Fatal("expected not found error")
		}
		if errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found code, got %s", errors.As(err).Code())
		}
	})

	t.Run("inactive partner", func(t *testing.T) {
		partner := basePartner()
		partner.Active = false
		err := EnsurePartnerEligible(PartnerEligibilityInput{Partner: partner, OrderLocation: nearby})
		if errors.As(err) == nil || errors.As(err).Code() != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("zero radius", func(t *testing.T) {
		partner := basePartner()
		partner.ServiceRadiusM = 0
		err := EnsurePartnerEligible(PartnerEligibilityInput{Partner: partner, OrderLocation: nearby})
		if errors.As(err) == nil || errors.As(err).Code() != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("within range", func(t *testing.T) {
		if err := EnsurePartnerEligible(PartnerEligibilityInput{Partner: basePartner(), OrderLocation: nearby}); err != nil {
			t.Fatalf("expected eligible, got %v", err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		far := types.GeographyPoint{Lat: 13.3409, Lng: 74.7421}
		err := EnsurePartnerEligible(PartnerEligibilityInput{Partner: basePartner(), OrderLocation: far})
		if errors.As(err) == nil || errors.As(err).Code() != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestDistanceMeters(t *testing.T) {
	a := types.GeographyPoint{Lat: 12.9716, Lng: 77.5946}

	if got := DistanceMeters(a, a); got != 0 {
		t.Fatalf("expected zero distance, got %f", got)
	}

	// Bangalore to Chennai is roughly 290km.
	b := types.GeographyPoint{Lat: 13.0827, Lng: 80.2707}
	got := DistanceMeters(a, b)
	if math.Abs(got-290000) > 10000 {
		t.Fatalf("expected ~290km, got %f", got)
	}
}
