package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seonmall/storefront/internal/app/model"
	"github.com/seonmall/storefront/internal/storage"
)

func setupCartServiceTest(t *testing.T) (CartService, storage.Store) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return NewCartService(context.Background(), store), store
}

func lineItem(productID string, variationID *string, price float64, quantity int) model.CartLineItem {
	return model.CartLineItem{
		ProductID:   productID,
		VariationID: variationID,
		Name:        "Item " + productID,
		UnitPrice:   price,
		Quantity:    quantity,
	}
}

func strPtr(s string) *string {
	return &s
}

func TestCartService_AddItem_MergesSameIdentity(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 2)))
	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 3)))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems())
	assert.Equal(t, 500.0, cart.TotalPrice())
}

func TestCartService_AddItem_DistinctVariationsStaySeparate(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 1)))
	require.NoError(t, cart.AddItem(ctx, lineItem("p1", strPtr("v1"), 120, 1)))
	require.NoError(t, cart.AddItem(ctx, lineItem("p1", strPtr("v2"), 130, 1)))

	assert.Len(t, cart.Items(), 3)
	assert.Equal(t, 3, cart.TotalItems())
	assert.Equal(t, 350.0, cart.TotalPrice())
}

func TestCartService_AddItem_RejectsNonPositiveQuantity(t *testing.T) {
	cart, _ := setupCartServiceTest(t)

	err := cart.AddItem(context.Background(), lineItem("p1", nil, 100, 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 0, cart.TotalItems())
}

func TestCartService_UpdateQuantity_ZeroRemovesLine(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 2)))
	require.NoError(t, cart.UpdateQuantity(ctx, 0, 0))

	assert.Empty(t, cart.Items())
	assert.Equal(t, 0, cart.TotalItems())
	assert.Equal(t, 0.0, cart.TotalPrice())
}

func TestCartService_UpdateQuantity_ReplacesQuantity(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 2)))
	require.NoError(t, cart.UpdateQuantity(ctx, 0, 7))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
	assert.Equal(t, 700.0, cart.TotalPrice())
}

func TestCartService_RemoveItem_OutOfRange(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 1)))

	assert.ErrorIs(t, cart.RemoveItem(ctx, -1), ErrIndexOutOfRange)
	assert.ErrorIs(t, cart.RemoveItem(ctx, 1), ErrIndexOutOfRange)
	assert.Len(t, cart.Items(), 1)
}

func TestCartService_AggregatesHoldAfterEveryMutation(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	checkInvariants := func() {
		t.Helper()
		items := cart.Items()
		wantItems := 0
		wantPrice := 0.0
		for _, item := range items {
			require.GreaterOrEqual(t, item.Quantity, 1)
			wantItems += item.Quantity
			wantPrice += item.UnitPrice * float64(item.Quantity)
		}
		assert.Equal(t, wantItems, cart.TotalItems())
		assert.Equal(t, wantPrice, cart.TotalPrice())
		assert.Equal(t, wantItems == 0, len(items) == 0)
	}

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 2)))
	checkInvariants()
	require.NoError(t, cart.AddItem(ctx, lineItem("p2", strPtr("v1"), 50, 4)))
	checkInvariants()
	require.NoError(t, cart.UpdateQuantity(ctx, 1, 1))
	checkInvariants()
	require.NoError(t, cart.RemoveItem(ctx, 0))
	checkInvariants()
	require.NoError(t, cart.UpdateQuantity(ctx, 0, 0))
	checkInvariants()
}

func TestCartService_Clear(t *testing.T) {
	cart, _ := setupCartServiceTest(t)
	ctx := context.Background()

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 2)))
	require.NoError(t, cart.Clear(ctx))

	assert.Empty(t, cart.Items())
	assert.Equal(t, 0, cart.TotalItems())
	assert.Equal(t, 0.0, cart.TotalPrice())

	// The stored record is overwritten, not deleted.
	raw, err := backingStore(t, cart).Get(ctx, storage.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":null,"totalItems":0,"totalPrice":0}`, raw)
}

// backingStore digs the store out of the service for persistence checks.
func backingStore(t *testing.T, cart CartService) storage.Store {
	t.Helper()
	s, ok := cart.(*cartService)
	require.True(t, ok)
	return s.store
}

func TestCartService_RestoresAcrossRestarts(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := NewCartService(ctx, st)
	require.NoError(t, first.AddItem(ctx, lineItem("p1", strPtr("v1"), 100, 2)))

	second := NewCartService(ctx, st)
	items := second.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, second.TotalItems())
	assert.Equal(t, 200.0, second.TotalPrice())
}

func TestCartService_CorruptRecordFallsBackToEmpty(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.KeyCart, "{not json"))

	cart := NewCartService(ctx, st)
	assert.Empty(t, cart.Items())
	assert.Equal(t, 0, cart.TotalItems())
}

func TestCartService_RestoredAggregatesAreRecomputed(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// A tampered record with wrong aggregates: the derived values win.
	record := `{"items":[{"productId":"p1","variationId":null,"name":"x","unitPrice":100,"imageUrl":null,"quantity":2}],"totalItems":99,"totalPrice":1.5}`
	require.NoError(t, st.Set(ctx, storage.KeyCart, record))

	cart := NewCartService(ctx, st)
	assert.Equal(t, 2, cart.TotalItems())
	assert.Equal(t, 200.0, cart.TotalPrice())
}

func TestCartService_RestoreDropsZeroQuantityLines(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	record := `{"items":[` +
		`{"productId":"p1","variationId":null,"name":"x","unitPrice":100,"imageUrl":null,"quantity":0},` +
		`{"productId":"p2","variationId":null,"name":"y","unitPrice":50,"imageUrl":null,"quantity":2}` +
		`],"totalItems":2,"totalPrice":100}`
	require.NoError(t, st.Set(ctx, storage.KeyCart, record))

	cart := NewCartService(ctx, st)
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)
	assert.Equal(t, 2, cart.TotalItems())
	assert.Equal(t, 100.0, cart.TotalPrice())
}

func TestCartService_RestoreWithOnlyInvalidLinesIsEmpty(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	record := `{"items":[{"productId":"p1","variationId":null,"name":"x","unitPrice":100,"imageUrl":null,"quantity":0}],"totalItems":1,"totalPrice":100}`
	require.NoError(t, st.Set(ctx, storage.KeyCart, record))

	cart := NewCartService(ctx, st)
	assert.Empty(t, cart.Items())
	assert.Equal(t, 0, cart.TotalItems())
	assert.Equal(t, 0.0, cart.TotalPrice())
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("storage unavailable")
}
func (failingStore) Set(context.Context, string, string) error {
	return errors.New("storage unavailable")
}
func (failingStore) Delete(context.Context, string) error {
	return errors.New("storage unavailable")
}
func (failingStore) Close() error { return nil }

func TestCartService_StorageFailuresDoNotBlockMutations(t *testing.T) {
	ctx := context.Background()
	cart := NewCartService(ctx, failingStore{})

	require.NoError(t, cart.AddItem(ctx, lineItem("p1", nil, 100, 2)))
	assert.Equal(t, 2, cart.TotalItems())

	require.NoError(t, cart.UpdateQuantity(ctx, 0, 3))
	require.NoError(t, cart.Clear(ctx))
	assert.Empty(t, cart.Items())
}
