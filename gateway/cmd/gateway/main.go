package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/gateway/internal/config"
	"github.com/Skotchmaster/storefront/gateway/internal/httpserver"
	"github.com/Skotchmaster/storefront/gateway/internal/middleware"
	"github.com/Skotchmaster/storefront/pkg/authclient"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/Skotchmaster/storefront/pkg/shutdown"
)

func main() {
	pkgconfig.LoadDotEnv("gateway/.env", ".env")
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	csrfCfg.SkipPaths = middleware.CSRFSkipPaths
	csrfCfg.TrustedOrigins = cfg.TrustedOrigins

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:     cfg.AuthHTTPURL,
		CatalogURL:  cfg.CatalogHTTPURL,
		CartURL:     cfg.CartURL,
		WishlistURL: cfg.WishlistURL,
		OrderURL:    cfg.OrderURL,
		SearchURL:   cfg.SearchURL,
		JWTSecret:   cfg.JWTAccessSecret,
		CSRFConfig:  csrfCfg,
		Logger:      logger,
		Ready:       authclient.NewClient(cfg.AuthHTTPURL).Live,
	}); err != nil {
		log.Fatalf("gateway routes: %v", err)
	}
	if cfg.SearchURL == "" {
		logger.Warn("search not configured, /api/v1/search disabled")
	}

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_error", "error", err)
	}
}
