package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warehouse-manage/api/internal/di"
	"github.com/warehouse-manage/api/internal/handlers"
	"github.com/warehouse-manage/api/internal/platform/config"
	"github.com/warehouse-manage/api/internal/platform/idempotency"
	"github.com/warehouse-manage/api/internal/platform/observability"
	"github.com/warehouse-manage/api/internal/repositories"
	"github.com/warehouse-manage/api/internal/repositories/httpapi"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	client, err := httpapi.NewClient(httpapi.ClientOptions{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		logger.Fatal("failed to build upstream client", zap.Error(err))
	}

	registry := httpapi.NewRegistry(client)
	container, err := di.NewContainer(cfg, registry, di.ContainerDeps{
		Logger: observability.ServiceLogHook(logger),
	})
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	orderHandlers := handlers.NewOrderHandlers(
		container.Services.Workflow,
		container.Services.Pricing,
		container.Services.Forecast,
		container.Services.Catalog,
		container.Services.Resolver,
	)
	catalogHandlers := handlers.NewCatalogHandlers(container.Services.Catalog)

	idemStore := idempotency.NewMemoryStore()

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
			idempotency.Middleware(idemStore,
				idempotency.WithMethods(http.MethodPost),
				idempotency.WithTTL(cfg.Workflow.IdempotencyTTL),
				idempotency.WithLogger(zap.NewStdLog(logger)),
			),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(catalogProber{catalog: registry.Catalog()})),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithPlaceOrderRoutes(orderHandlers.PlaceOrderRoutes),
		handlers.WithSubmissionRoutes(orderHandlers.SubmissionRoutes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	janitorDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-janitorDone:
				return
			case now := <-ticker.C:
				if _, err := idemStore.CleanupExpired(ctx, now.UTC(), 0); err != nil {
					logger.Warn("idempotency cleanup failed", zap.Error(err))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("server failed", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}
	close(janitorDone)

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// catalogProber backs the readiness probe with a lightweight catalog read.
type catalogProber struct {
	catalog repositories.CatalogRepository
}

func (p catalogProber) Ping(ctx context.Context) error {
	if p.catalog == nil {
		return nil
	}
	_, err := p.catalog.ListProducts(ctx)
	return err
}
