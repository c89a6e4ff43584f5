package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seonmall/storefront/internal/app/model"
)

// fakeAPI is a gin-backed stand-in for the storefront REST API.
type fakeAPI struct {
	server *httptest.Server

	csrfFetches   int32
	csrfSequence  int32
	rejectCSRF    func(attempt int32) bool // per order-attempt decision
	orderAttempts int32
	lastCSRF      atomic.Value
	lastAuth      atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fakeAPI{}
	router := gin.New()

	router.GET("/api/auth/csrf-token", func(c *gin.Context) {
		n := atomic.AddInt32(&f.csrfFetches, 1)
		c.JSON(http.StatusOK, gin.H{"csrfToken": fmt.Sprintf("csrf-%d", n)})
	})

	router.POST("/api/order", func(c *gin.Context) {
		attempt := atomic.AddInt32(&f.orderAttempts, 1)
		f.lastCSRF.Store(c.GetHeader("X-CSRF-Token"))
		f.lastAuth.Store(c.GetHeader("Authorization"))

		if f.rejectCSRF != nil && f.rejectCSRF(attempt) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "CSRF_TOKEN_INVALID",
				"message": "invalid csrf token",
			})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order": gin.H{"_id": "ord-123"}})
	})

	router.GET("/api/product/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    c.Param("id"),
			"name":  "Gold Ring",
			"price": 100.0,
		})
	})

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL: f.server.URL + "/api",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func samplePayload() model.OrderPayload {
	return model.OrderPayload{
		Items: []model.OrderItem{
			{Product: "p1", Quantity: 2, UnitPrice: 100},
		},
		SubTotal:    200,
		TaxAmount:   20,
		TotalAmount: 220,
	}
}

func TestClient_AttachesCSRFOnWrites(t *testing.T) {
	f := newFakeAPI(t)
	client := f.client(t)

	orderID, err := client.PlaceOrder(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "ord-123", orderID)

	assert.Equal(t, "csrf-1", f.lastCSRF.Load())
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.csrfFetches))
}

func TestClient_ReusesCachedCSRFAcrossWrites(t *testing.T) {
	f := newFakeAPI(t)
	client := f.client(t)
	ctx := context.Background()

	_, err := client.PlaceOrder(ctx, samplePayload())
	require.NoError(t, err)
	_, err = client.PlaceOrder(ctx, samplePayload())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.csrfFetches))
}

func TestClient_NoCSRFOnReads(t *testing.T) {
	f := newFakeAPI(t)
	client := f.client(t)

	product, err := client.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Gold Ring", product.Name)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.csrfFetches))
}

func TestClient_RetriesOnceAfterCSRFRejection(t *testing.T) {
	f := newFakeAPI(t)
	f.rejectCSRF = func(attempt int32) bool { return attempt == 1 }
	client := f.client(t)

	orderID, err := client.PlaceOrder(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "ord-123", orderID)

	// One rejected attempt, one replay with a freshly fetched token.
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.orderAttempts))
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.csrfFetches))
	assert.Equal(t, "csrf-2", f.lastCSRF.Load())
}

func TestClient_SecondCSRFRejectionPropagates(t *testing.T) {
	f := newFakeAPI(t)
	f.rejectCSRF = func(attempt int32) bool { return true }
	client := f.client(t)

	_, err := client.PlaceOrder(context.Background(), samplePayload())
	require.Error(t, err)
	assert.True(t, IsCSRFRejection(err))
	assert.ErrorIs(t, err, ErrForbidden)

	// Exactly one replay, never more.
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.orderAttempts))
}

func TestClient_ProceedsWithoutCSRFWhenFetchFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var sawHeader atomic.Value
	router.GET("/api/auth/csrf-token", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "boom"})
	})
	router.POST("/api/order", func(c *gin.Context) {
		sawHeader.Store(c.GetHeader("X-CSRF-Token"))
		c.JSON(http.StatusCreated, gin.H{"orderId": "ord-9"})
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/api"})
	require.NoError(t, err)

	orderID, err := client.PlaceOrder(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "ord-9", orderID)
	assert.Equal(t, "", sawHeader.Load())
}

func TestClient_AttachesBearerToken(t *testing.T) {
	f := newFakeAPI(t)
	client := f.client(t)
	client.SetTokenProvider(func() string { return "access-token" })

	_, err := client.PlaceOrder(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-token", f.lastAuth.Load())
}

func TestClient_ParsesServerErrorMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/order", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "ORDER_INVALID",
			"message": "cart contents changed, please review your order",
		})
	})
	router.GET("/api/auth/csrf-token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"csrfToken": "csrf-1"})
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/api"})
	require.NoError(t, err)

	_, err = client.PlaceOrder(context.Background(), samplePayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "cart contents changed, please review your order",
		HumanMessage(err, "generic"))
	assert.Equal(t, "generic", HumanMessage(fmt.Errorf("plain"), "generic"))
}

func TestClient_GuestOrderResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/auth/csrf-token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"csrfToken": "csrf-1"})
	})
	router.POST("/api/order/guest-checkout", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"orderId": "guest-ord-7"})
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/api"})
	require.NoError(t, err)

	orderID, err := client.PlaceGuestOrder(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "guest-ord-7", orderID)
}

func TestClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
