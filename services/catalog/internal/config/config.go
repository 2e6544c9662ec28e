package config

import (
	"time"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type ServiceConfig struct {
	config.Config

	CacheTTL time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "catalog"
	}
	cfg.KafkaGroupID = config.KafkaGroupID("catalog", "catalog-stock")

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	return ServiceConfig{
		Config:   cfg,
		CacheTTL: config.EnvDurationDefault("PRODUCT_CACHE_TTL", 5*time.Minute),
	}
}
