package config

import (
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/services/order/internal/service"
)

type ServiceConfig struct {
	config.Config

	Pricing service.Pricing
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")

	return ServiceConfig{
		Config: cfg,
		Pricing: service.Pricing{
			FreeShippingThreshold: config.EnvInt64Default("FREE_SHIPPING_THRESHOLD", service.DefaultPricing.FreeShippingThreshold),
			ShippingFlat:          config.EnvInt64Default("SHIPPING_FLAT", service.DefaultPricing.ShippingFlat),
			TaxRateBps:            config.EnvInt64Default("TAX_RATE_BPS", service.DefaultPricing.TaxRateBps),
		},
	}
}
