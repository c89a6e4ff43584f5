// Package storage provides the durable key-value store backing the cart and
// checkout draft across application restarts.
package storage

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is a synchronous, origin-scoped string store. Writes are applied
// immediately after each mutation; a read after a successful Set observes
// the written value.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Well-known record keys.
const (
	KeyCart          = "cart"
	KeyCheckoutDraft = "checkoutFormData"
	KeyDeviceID      = "deviceId"
)
