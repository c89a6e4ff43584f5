package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/seonmall/storefront/internal/app/model"
)

// GetProduct fetches a single catalog product.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	path := "/product/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &product); err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &product, nil
}

// GetVariations fetches the purchasable variations of a product. Attribute
// normalization happens during unmarshal, see model.VariantAttribute.
func (c *Client) GetVariations(ctx context.Context, productID string) ([]model.Variation, error) {
	var variations []model.Variation
	path := "/product/" + url.PathEscape(productID) + "/variations"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &variations); err != nil {
		return nil, fmt.Errorf("failed to fetch variations for %s: %w", productID, err)
	}
	return variations, nil
}

// SearchProducts queries the catalog with the given filter.
func (c *Client) SearchProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := url.Values{}
	if filter.Query != "" {
		query.Set("q", filter.Query)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.MinPrice > 0 {
		query.Set("minPrice", strconv.FormatFloat(filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice > 0 {
		query.Set("maxPrice", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/product"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var products []model.Product
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}
	return products, nil
}
