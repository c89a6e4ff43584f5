package service

import (
	"context"
	"errors"

	"github.com/seonmall/storefront/internal/app/model"
	"github.com/seonmall/storefront/pkg/api"
	"github.com/seonmall/storefront/pkg/logger"
)

var ErrProductNotFound = errors.New("product not found")

// CatalogService reads products and variations from the API. Variant
// attributes arrive normalized; see model.VariantAttribute.
type CatalogService interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetVariations(ctx context.Context, productID string) ([]model.Variation, error)
	SearchProducts(ctx context.Context, filter api.ProductFilter) ([]model.Product, error)
	BuildLineItem(product *model.Product, variation *model.Variation, quantity int) model.CartLineItem
}

type catalogService struct {
	client *api.Client
}

func NewCatalogService(client *api.Client) CatalogService {
	return &catalogService{client: client}
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	logger.Debug("Fetching product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.client.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetVariations(ctx context.Context, productID string) ([]model.Variation, error) {
	variations, err := s.client.GetVariations(ctx, productID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch variations", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return variations, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, filter api.ProductFilter) ([]model.Product, error) {
	products, err := s.client.SearchProducts(ctx, filter)
	if err != nil {
		logger.Error("Product search failed", err)
		return nil, err
	}

	logger.Debug("Product search completed", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

// BuildLineItem snapshots a product (and optional variation) into a cart
// line item. The variation's price and identity win when one is selected.
func (s *catalogService) BuildLineItem(product *model.Product, variation *model.Variation, quantity int) model.CartLineItem {
	item := model.CartLineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	}
	if product.ImageURL != "" {
		imageURL := product.ImageURL
		item.ImageURL = &imageURL
	}
	if variation != nil {
		variationID := variation.ID
		item.VariationID = &variationID
		if variation.Price > 0 {
			item.UnitPrice = variation.Price
		}
	}
	return item
}
