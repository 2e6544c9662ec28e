package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	"github.com/Skotchmaster/storefront/pkg/cache"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/shutdown"

	catalogcfg "github.com/Skotchmaster/storefront/services/catalog/internal/config"
	"github.com/Skotchmaster/storefront/services/catalog/internal/consumer"
	"github.com/Skotchmaster/storefront/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/repo"
	"github.com/Skotchmaster/storefront/services/catalog/internal/service"
)

func main() {
	pkgconfig.LoadDotEnv("services/catalog/.env", ".env")
	cfg := catalogcfg.Load()

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

	svc := &service.CatalogService{
		Repo:     &repo.GormRepo{DB: db},
		CacheTTL: cfg.CacheTTL,
		Events:   publisher,
	}

	var redisCache *cache.Redis
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedis(ctx, cfg.RedisURL, "catalog:")
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		svc.Cache = redisCache
	} else {
		logger.Warn("redis not configured, product cache disabled")
	}

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		reader := events.NewReader(cfg.KafkaBrokers, cfg.KafkaGroupID, events.TopicOrder)
		c := events.NewConsumer(reader, consumer.Handler(svc), logger.With("consumer", events.TopicOrder))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Run(logging.IntoContext(ctx, logger)); err != nil {
				logger.Error("consumer_stopped", "error", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthClient:     authclient.NewClient(cfg.AuthHTTPURL),
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server_stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	wg.Wait()

	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}
}
