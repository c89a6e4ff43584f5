package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/seonmall/storefront/internal/app/model"
)

// PlaceOrder submits an order for an authenticated shopper and returns the
// created order identifier.
func (c *Client) PlaceOrder(ctx context.Context, payload model.OrderPayload) (string, error) {
	return c.placeOrder(ctx, "/order", payload)
}

// PlaceGuestOrder submits a guest-checkout order.
func (c *Client) PlaceGuestOrder(ctx context.Context, payload model.OrderPayload) (string, error) {
	return c.placeOrder(ctx, "/order/guest-checkout", payload)
}

func (c *Client) placeOrder(ctx context.Context, path string, payload model.OrderPayload) (string, error) {
	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return "", err
	}

	orderID := resp.id()
	if orderID == "" {
		return "", fmt.Errorf("%w: order response missing identifier", ErrServerError)
	}
	return orderID, nil
}
