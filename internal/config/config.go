package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/shopping-ecommerce/cart-service/internal/domain"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogBaseURL  string
	CartTTL         time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// Load reads configuration from the environment with sensible defaults.
// The shipping values are configuration rather than constants so future
// per-market deployments can override them.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_BASE_URL", "http://localhost:8081")
	v.SetDefault("CART_TTL", "168h") // 7 days of inactivity
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", "500000")
	v.SetDefault("SHIPPING_FEE", "30000")
	v.AutomaticEnv()

	threshold, err := decimal.NewFromString(v.GetString("FREE_SHIPPING_THRESHOLD"))
	if err != nil {
		return nil, fmt.Errorf("invalid FREE_SHIPPING_THRESHOLD: %w", err)
	}
	fee, err := decimal.NewFromString(v.GetString("SHIPPING_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_FEE: %w", err)
	}

	return &Config{
		HTTPPort:              v.GetString("HTTP_PORT"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		CatalogBaseURL:        v.GetString("CATALOG_BASE_URL"),
		CartTTL:               v.GetDuration("CART_TTL"),
		RequestTimeout:        v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout:       v.GetDuration("SHUTDOWN_TIMEOUT"),
		FreeShippingThreshold: threshold,
		ShippingFee:           fee,
	}, nil
}

func (c *Config) ShippingPolicy() domain.ShippingPolicy {
	return domain.ShippingPolicy{
		FreeShippingThreshold: c.FreeShippingThreshold,
		ShippingFee:           c.ShippingFee,
	}
}
