package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Session  SessionConfig
	CSRF     CSRFConfig
	Checkout CheckoutConfig
	Storage  StorageConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFormat   string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	// RefreshMargin is how long before token expiry the silent refresh fires.
	RefreshMargin time.Duration
}

type CSRFConfig struct {
	// TokenValidity bounds how long a fetched anti-forgery token is reused.
	TokenValidity time.Duration
	// MinRefetchInterval throttles back-to-back token fetches.
	MinRefetchInterval time.Duration
}

type CheckoutConfig struct {
	// TaxRate is a flat fraction of the subtotal, e.g. 0.10 for 10%.
	TaxRate float64
	// Flat shipping fees per method.
	ShippingStandard  float64
	ShippingExpress   float64
	ShippingOvernight float64
	// DraftKey is the base64-encoded 32-byte key sealing the persisted
	// checkout draft. Empty means the draft is stored in the clear.
	DraftKey []byte
	// PhonePattern is the locale digit pattern for shipping phone numbers.
	PhonePattern string
}

type StorageConfig struct {
	Backend string // "file" or "redis"
	DataDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	draftKey, err := parseKey(getEnv("CHECKOUT_DRAFT_KEY", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_DRAFT_KEY: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8080/api"),
			Timeout: parseDuration(getEnv("API_TIMEOUT", "30s"), 30*time.Second),
		},
		Session: SessionConfig{
			RefreshMargin: parseDuration(getEnv("SESSION_REFRESH_MARGIN", "60s"), 60*time.Second),
		},
		CSRF: CSRFConfig{
			TokenValidity:      parseDuration(getEnv("CSRF_TOKEN_VALIDITY", "25m"), 25*time.Minute),
			MinRefetchInterval: parseDuration(getEnv("CSRF_MIN_REFETCH_INTERVAL", "1m"), time.Minute),
		},
		Checkout: CheckoutConfig{
			TaxRate:           parseFloat(getEnv("CHECKOUT_TAX_RATE", "0.10"), 0.10),
			ShippingStandard:  parseFloat(getEnv("SHIPPING_FEE_STANDARD", "0"), 0),
			ShippingExpress:   parseFloat(getEnv("SHIPPING_FEE_EXPRESS", "9.99"), 9.99),
			ShippingOvernight: parseFloat(getEnv("SHIPPING_FEE_OVERNIGHT", "19.99"), 19.99),
			DraftKey:          draftKey,
			PhonePattern:      getEnv("CHECKOUT_PHONE_PATTERN", `^\d{10,11}$`),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "file"),
			DataDir: getEnv("STORAGE_DATA_DIR", ".storefront"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
	}

	return config, nil
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ShippingFee returns the flat fee for a shipping method. Unknown methods
// fall back to the standard fee.
func (c *CheckoutConfig) ShippingFee(method string) float64 {
	switch method {
	case "express":
		return c.ShippingExpress
	case "overnight":
		return c.ShippingOvernight
	default:
		return c.ShippingStandard
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, defaultValue)
		return defaultValue
	}
	return duration
}

func parseFloat(s string, defaultValue float64) float64 {
	var value float64
	if _, err := fmt.Sscanf(s, "%g", &value); err != nil {
		log.Printf("Invalid number %s, using default %g", s, defaultValue)
		return defaultValue
	}
	return value
}

func parseInt(s string, defaultValue int) int {
	var value int
	if _, err := fmt.Sscanf(s, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}

func parseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
