package config

import (
	"github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	config.Config

	CartURL     string
	WishlistURL string
	OrderURL    string
	SearchURL   string

	// CookieSecure marks the CSRF cookie Secure. Enable behind TLS.
	CookieSecure   bool
	// TrustedOrigins may send mutating requests from another host, e.g. the
	// storefront web app during development.
	TrustedOrigins []string
}

func Load() Config {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "gateway"
	}

	out := Config{
		Config:       cfg,
		CartURL:      config.EnvDefault("CART_URL", ""),
		WishlistURL:  config.EnvDefault("WISHLIST_URL", ""),
		OrderURL:     config.EnvDefault("ORDER_URL", ""),
		SearchURL:    config.EnvDefault("SEARCH_URL", ""),
		CookieSecure: config.EnvDefault("COOKIE_SECURE", "false") == "true",

		TrustedOrigins: config.CSV(config.EnvDefault("CSRF_TRUSTED_ORIGINS", "")),
	}

	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")
	config.MustNonEmpty(out.CartURL, "CART_URL")
	config.MustNonEmpty(out.WishlistURL, "WISHLIST_URL")
	config.MustNonEmpty(out.OrderURL, "ORDER_URL")

	return out
}
