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

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/shutdown"

	searchcfg "github.com/Skotchmaster/storefront/services/search/internal/config"
	"github.com/Skotchmaster/storefront/services/search/internal/consumer"
	"github.com/Skotchmaster/storefront/services/search/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/search/internal/index"
	"github.com/Skotchmaster/storefront/services/search/internal/service"
)

func main() {
	pkgconfig.LoadDotEnv("services/search/.env", ".env")
	cfg := searchcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	es, err := index.NewClient(index.ESConfig{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}
	store := &index.Store{ES: es, Index: cfg.ESIndex}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = store.EnsureIndex(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("elasticsearch index init: %v", err)
	}

	svc := &service.SearchService{Index: store}

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		reader := events.NewReader(cfg.KafkaBrokers, cfg.KafkaGroupID, events.TopicProduct)
		c := events.NewConsumer(reader, consumer.Handler(svc), logger.With("consumer", events.TopicProduct))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Run(logging.IntoContext(ctx, logger)); err != nil {
				logger.Error("consumer_stopped", "error", err)
			}
		}()
	} else {
		logger.Warn("kafka not configured, search index will not follow the catalog")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		SearchHandler: &httpserver.SearchHTTP{Svc: svc},
		Ready:         store.Ping,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_starting", "addr", srv.Addr, "index", cfg.ESIndex)
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
}
