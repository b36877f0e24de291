package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// PricingProfile bundles everything the pricing engine needs for one variant.
type PricingProfile struct {
	Product   *models.Product
	Variant   *models.ProductVariant
	BasePrice int64
	Config    types.PricingConfig
	Rules     types.RuleSet
}

// Service resolves pricing inputs from the catalog.
type Service interface {
	ResolvePricingProfile(ctx context.Context, productID, variantID uuid.UUID) (*PricingProfile, error)
	ListProducts(ctx context.Context, category string) ([]models.Product, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ResolvePricingProfile(ctx context.Context, productID, variantID uuid.UUID) (*PricingProfile, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}

	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available for buyback")
	}

	variant, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if variant.ProductID != product.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
	}
	if !variant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not available for buyback")
	}

	rules := types.DefaultRuleSet()
	if product.RuleSet != nil {
		rules = *product.RuleSet
	}
	if rules.RoundToNearest <= 0 {
		rules.RoundToNearest = types.DefaultRuleSet().RoundToNearest
	}

	return &PricingProfile{
		Product:   product,
		Variant:   variant,
		BasePrice: variant.BasePrice,
		Config:    product.PricingConfig,
		Rules:     rules,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.repo.ListActiveProducts(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) ListVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	variants, err := s.repo.ListVariants(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	return variants, nil
}
