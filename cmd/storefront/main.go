package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/seonmall/storefront/config"
	"github.com/seonmall/storefront/internal/app/model"
	"github.com/seonmall/storefront/internal/app/service"
	"github.com/seonmall/storefront/internal/storage"
	"github.com/seonmall/storefront/pkg/api"
	"github.com/seonmall/storefront/pkg/logger"
	"github.com/seonmall/storefront/pkg/sealed"
)

func main() {
	demo := flag.String("demo", "", "run a scripted checkout dry-run for the given product ID and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.App.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.App.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.App.LogFormat,
		EnableColor: true,
	})

	logger.Info("Starting storefront", map[string]interface{}{
		"environment": cfg.App.Environment,
		"api":         cfg.API.BaseURL,
		"storage":     cfg.Storage.Backend,
		"log_level":   logLevel,
	})

	// Initialize local storage
	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", err)
		}
	}()

	// Initialize API client
	client, err := api.NewClient(api.Config{
		BaseURL:                cfg.API.BaseURL,
		Timeout:                cfg.API.Timeout,
		CSRFTokenValidity:      cfg.CSRF.TokenValidity,
		CSRFMinRefetchInterval: cfg.CSRF.MinRefetchInterval,
	})
	if err != nil {
		logger.Fatal("Failed to initialize API client", err)
	}

	// Initialize services
	ctx := context.Background()
	session := service.NewSessionService(client, cfg.Session.RefreshMargin)
	defer session.Stop()

	cart := service.NewCartService(ctx, store)
	catalog := service.NewCatalogService(client)

	box, err := sealed.NewBox(cfg.Checkout.DraftKey)
	if err != nil {
		logger.Fatal("Failed to initialize draft sealing", err)
	}
	if !box.Sealing() {
		logger.Warn("No draft key configured, checkout drafts are stored unencrypted")
	}
	checkout := service.NewCheckoutService(ctx, cart, session, client, store, box, cfg.Checkout)

	// Try to resume a previous session from the refresh cookie. Failure just
	// means the shopper starts anonymous.
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := session.Refresh(startupCtx); err != nil {
		logger.Info("No existing session, starting anonymous")
	}
	cancel()

	if *demo != "" {
		if err := runDemo(ctx, *demo, catalog, cart, checkout); err != nil {
			logger.Fatal("Demo run failed", err)
		}
		return
	}

	logger.Info("Storefront ready", map[string]interface{}{
		"logged_in":  session.IsLoggedIn(),
		"cart_items": cart.TotalItems(),
		"step":       checkout.ActiveStep(),
		"pid":        os.Getpid(),
	})

	// Wait for interrupt signal to shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down storefront...")
	logger.Info("Storefront stopped")
}

// runDemo smoke-tests the configured API: fetch a product, add it to the
// cart and walk the checkout wizard up to the review summary. Nothing is
// ordered.
func runDemo(
	ctx context.Context,
	productID string,
	catalog service.CatalogService,
	cart service.CartService,
	checkout service.CheckoutService,
) error {
	product, err := catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	item := catalog.BuildLineItem(product, nil, 1)
	if err := cart.AddItem(ctx, item); err != nil {
		return err
	}

	if err := checkout.Begin(ctx); err != nil {
		return err
	}
	checkout.SetPaymentMethod(ctx, model.PaymentCOD)

	summary := checkout.Summary()
	logger.Info("Demo checkout summary", map[string]interface{}{
		"product":  product.Name,
		"subtotal": summary.Subtotal,
		"shipping": summary.Shipping,
		"tax":      summary.Tax,
		"total":    summary.Total,
	})
	return nil
}

// openStore picks the storage backend. Redis is namespaced per device with
// an ID generated once and persisted locally.
func openStore(cfg *config.Config) (storage.Store, error) {
	fileStore, err := storage.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Backend != "redis" {
		return fileStore, nil
	}

	deviceID, err := loadDeviceID(fileStore)
	if err != nil {
		return nil, err
	}
	return storage.NewRedisStore(&cfg.Redis, deviceID)
}

func loadDeviceID(store storage.Store) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := store.Get(ctx, storage.KeyDeviceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := store.Set(ctx, storage.KeyDeviceID, id); err != nil {
		return "", err
	}

	logger.Info("Generated device ID", map[string]interface{}{
		"device_id": id,
	})
	return id, nil
}
