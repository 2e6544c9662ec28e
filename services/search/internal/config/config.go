package config

import (
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/services/search/internal/index"
)

type ServiceConfig struct {
	config.Config

	ESIndex string
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "search"
	}
	cfg.KafkaGroupID = config.KafkaGroupID("search", "search-indexer")

	config.MustNonEmpty(cfg.ESURL, "ES_URL")

	return ServiceConfig{
		Config:  cfg,
		ESIndex: config.EnvDefault("ES_INDEX", index.DefaultIndex),
	}
}
