package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

type fakeRepo struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products: make(map[uuid.UUID]*models.Product),
		variants: make(map[uuid.UUID]*models.ProductVariant),
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeRepo) FindVariant(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	variant, ok := f.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return variant, nil
}

func (f *fakeRepo) ListActiveProducts(_ context.Context, category string) ([]models.Product, error) {
	var out []models.Product
	for _, product := range f.products {
		if !product.IsActive {
			continue
		}
		if category != "" && product.Category != category {
			continue
		}
		out = append(out, *product)
	}
	return out, nil
}

func (f *fakeRepo) ListVariants(_ context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	var out []models.ProductVariant
	for _, variant := range f.variants {
		if variant.ProductID == productID && variant.IsActive {
			out = append(out, *variant)
		}
	}
	return out, nil
}

func seedCatalog(repo *fakeRepo) (*models.Product, *models.ProductVariant) {
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Pixel 8",
		Category: "smartphone",
		IsActive: true,
	}
	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		Name:      "128GB",
		BasePrice: 50000,
		IsActive:  true,
	}
	repo.products[product.ID] = product
	repo.variants[variant.ID] = variant
	return product, variant
}

func TestResolvePricingProfile(t *testing.T) {
	repo := newFakeRepo()
	product, variant := seedCatalog(repo)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	profile, err := svc.ResolvePricingProfile(context.Background(), product.ID, variant.ID)
	if err != nil {
		t.Fatalf("ResolvePricingProfile: %v", err)
	}
	if profile.BasePrice != 50000 {
		t.Fatalf("expected base price 50000, got %d", profile.BasePrice)
	}
	if profile.Rules.RoundToNearest != types.DefaultRuleSet().RoundToNearest {
		t.Fatalf("expected default rule set when product carries none")
	}
}

func TestResolvePricingProfile_ProductRuleSetWins(t *testing.T) {
	repo := newFakeRepo()
	product, variant := seedCatalog(repo)
	product.RuleSet = &types.RuleSet{
		MinPercent:     -50,
		MaxPercent:     20,
		RoundToNearest: 100,
	}

	svc, _ := NewService(repo)
	profile, err := svc.ResolvePricingProfile(context.Background(), product.ID, variant.ID)
	if err != nil {
		t.Fatalf("ResolvePricingProfile: %v", err)
	}
	if profile.Rules.RoundToNearest != 100 {
		t.Fatalf("expected product rule set, got rounding %d", profile.Rules.RoundToNearest)
	}
}

func TestResolvePricingProfile_Missing(t *testing.T) {
	repo := newFakeRepo()
	_, variant := seedCatalog(repo)

	svc, _ := NewService(repo)

	_, err := svc.ResolvePricingProfile(context.Background(), uuid.New(), variant.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for missing product, got %v", err)
	}
}

func TestResolvePricingProfile_InactiveVariant(t *testing.T) {
	repo := newFakeRepo()
	product, variant := seedCatalog(repo)
	variant.IsActive = false

	svc, _ := NewService(repo)

	_, err := svc.ResolvePricingProfile(context.Background(), product.ID, variant.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for inactive variant, got %v", err)
	}
}

func TestResolvePricingProfile_VariantProductMismatch(t *testing.T) {
	repo := newFakeRepo()
	product, _ := seedCatalog(repo)

	other := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		BasePrice: 1000,
		IsActive:  true,
	}
	repo.variants[other.ID] = other

	svc, _ := NewService(repo)

	_, err := svc.ResolvePricingProfile(context.Background(), product.ID, other.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for mismatched variant, got %v", err)
	}
}
