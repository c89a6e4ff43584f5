package api

import (
	"errors"
	"strings"
	"time"
)

// Config holds the API client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://shop.example.com/api".
	BaseURL string
	// Timeout applies to every outbound request.
	Timeout time.Duration
	// CSRFTokenValidity bounds how long a fetched anti-forgery token is
	// reused before a fresh one is fetched.
	CSRFTokenValidity time.Duration
	// CSRFMinRefetchInterval throttles back-to-back anti-forgery fetches.
	CSRFMinRefetchInterval time.Duration
}

// Validate checks required configuration values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base URL is required")
	}
	return nil
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c *Config) csrfValidity() time.Duration {
	if c.CSRFTokenValidity <= 0 {
		return 25 * time.Minute
	}
	return c.CSRFTokenValidity
}

func (c *Config) csrfMinRefetch() time.Duration {
	if c.CSRFMinRefetchInterval <= 0 {
		return time.Minute
	}
	return c.CSRFMinRefetchInterval
}
