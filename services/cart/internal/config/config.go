package config

import "github.com/Skotchmaster/storefront/pkg/config"

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cart"
	}
	cfg.KafkaGroupID = config.KafkaGroupID("cart", "cart-orders")

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")

	return ServiceConfig{Config: cfg}
}
