package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/seonmall/storefront/internal/app/model"
	"github.com/seonmall/storefront/internal/storage"
	"github.com/seonmall/storefront/pkg/logger"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrIndexOutOfRange = errors.New("cart index out of range")
)

// CartService holds the cart line items and their derived aggregates.
// Every mutation recomputes the aggregates and persists the full cart
// record; storage failures are logged and ignored, the in-memory state
// stays authoritative for the session.
type CartService interface {
	AddItem(ctx context.Context, item model.CartLineItem) error
	RemoveItem(ctx context.Context, index int) error
	UpdateQuantity(ctx context.Context, index, quantity int) error
	Clear(ctx context.Context) error
	Cart() model.Cart
	Items() []model.CartLineItem
	TotalItems() int
	TotalPrice() float64
}

type cartService struct {
	store storage.Store

	mu   sync.Mutex
	cart model.Cart
}

// NewCartService restores the persisted cart record. A missing, unreadable
// or unparseable record falls back to the empty cart; restoration never
// fails construction.
func NewCartService(ctx context.Context, store storage.Store) CartService {
	s := &cartService{store: store}

	raw, err := store.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			logger.Warn("Failed to read persisted cart, starting empty", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return s
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		logger.Warn("Persisted cart record is corrupt, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		return s
	}

	// A tampered or stale record must not resurrect a line the invariants
	// forbid; quantity never persists below one.
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.Quantity >= 1 {
			kept = append(kept, item)
		}
	}
	if dropped := len(cart.Items) - len(kept); dropped > 0 {
		logger.Warn("Dropped invalid lines from persisted cart", map[string]interface{}{
			"dropped": dropped,
		})
	}
	cart.Items = kept

	// Aggregates are derived, never trusted from storage.
	cart.Recompute()
	s.cart = cart

	logger.Info("Cart restored", map[string]interface{}{
		"items":       len(cart.Items),
		"total_items": cart.TotalItems,
	})
	return s
}

func (s *cartService) AddItem(ctx context.Context, item model.CartLineItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.cart.Items {
		if s.cart.Items[i].Key() == item.Key() {
			s.cart.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.cart.Items = append(s.cart.Items, item)
	}

	s.cart.Recompute()
	s.persistLocked(ctx)

	logger.Debug("Cart item added", map[string]interface{}{
		"product_id": item.ProductID,
		"merged":     merged,
		"quantity":   item.Quantity,
	})
	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, index)
}

func (s *cartService) UpdateQuantity(ctx context.Context, index, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Dropping below one unit removes the line entirely; quantity never
	// persists at zero.
	if quantity < 1 {
		return s.removeLocked(ctx, index)
	}

	if index < 0 || index >= len(s.cart.Items) {
		return ErrIndexOutOfRange
	}

	s.cart.Items[index].Quantity = quantity
	s.cart.Recompute()
	s.persistLocked(ctx)
	return nil
}

func (s *cartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = model.Cart{}
	// Overwrite the stored record rather than deleting it.
	s.persistLocked(ctx)

	logger.Info("Cart cleared")
	return nil
}

func (s *cartService) Cart() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *cartService) Items() []model.CartLineItem {
	return s.Cart().Items
}

func (s *cartService) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems
}

func (s *cartService) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice
}

func (s *cartService) removeLocked(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.cart.Items) {
		return ErrIndexOutOfRange
	}

	s.cart.Items = append(s.cart.Items[:index], s.cart.Items[index+1:]...)
	s.cart.Recompute()
	s.persistLocked(ctx)
	return nil
}

func (s *cartService) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.cart)
	if err != nil {
		logger.Error("Failed to encode cart for persistence", err)
		return
	}
	if err := s.store.Set(ctx, storage.KeyCart, string(data)); err != nil {
		logger.Error("Failed to persist cart", err)
	}
}

func (s *cartService) snapshotLocked() model.Cart {
	out := s.cart
	out.Items = make([]model.CartLineItem, len(s.cart.Items))
	copy(out.Items, s.cart.Items)
	return out
}
