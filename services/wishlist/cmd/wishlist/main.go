package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/shutdown"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/config"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/models"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/repo"
	"github.com/Skotchmaster/storefront/services/wishlist/internal/service"
)

func main() {
	pkgconfig.LoadDotEnv("services/wishlist/.env", ".env")
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.OpenAndMigrate(initCtx, cfg.DatabaseURL, models.All()...)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, logger)
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}

	svc := &service.WishlistService{
		Repo:    &repo.GormRepo{DB: db},
		Catalog: catalogclient.NewClient(cfg.CatalogHTTPURL),
		Events:  publisher,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		WishlistHandler: &httpserver.WishlistHTTP{Svc: svc},
		JWTSecret:       cfg.JWTAccessSecret,
		AuthClient:      authclient.NewClient(cfg.AuthHTTPURL),
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server_stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}
}
