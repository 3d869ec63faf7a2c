// Package server assembles Trackify from configuration: logging, metrics,
// the storage backend, the business services and the HTTP API. The terminal
// client reuses the same assembly without starting the HTTP server.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/trackify/internal/archive"
	"github.com/dmitrijs2005/trackify/internal/currency"
	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/metrics"
	"github.com/dmitrijs2005/trackify/internal/server/config"
	"github.com/dmitrijs2005/trackify/internal/server/httpapi"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trackify/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	manager  repomanager.RepositoryManager
	svc      services.Bundle
}

// NewApp opens storage and builds every service. A nil factory selects the
// backend from configuration alone.
func NewApp(ctx context.Context, cfg *config.Config, factory *repomanager.Factory) (*App, error) {
	logger := logging.New(cfg.Env, cfg.LogLevel)
	return NewAppWithLogger(ctx, cfg, factory, logger)
}

func NewAppWithLogger(ctx context.Context, cfg *config.Config, factory *repomanager.Factory, logger logging.Logger) (*App, error) {
	mt := metrics.New()

	m, err := factory.Open(ctx, cfg.StorageBackend, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	logger.Info(ctx, "storage ready", "backend", cfg.StorageBackend)

	var archiver services.Archiver
	if cfg.S3Bucket != "" {
		u, err := archive.New(ctx, archive.Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			logger.Warn(ctx, "report archive disabled", "err", err)
		} else {
			archiver = u
		}
	}

	converter := currency.NewConverter(currency.Options{
		BaseURL:      cfg.CurrencyAPIBaseURL,
		To:           cfg.CurrencyTarget,
		FallbackRate: cfg.CurrencyFallbackRate,
		Logger:       logger,
		Metrics:      mt,
	})

	return &App{
		config:  cfg,
		logger:  logger,
		metrics: mt,
		manager: m,
		svc: services.Bundle{
			Users:     services.NewUserService(m, logger, cfg),
			Wallet:    services.NewWalletService(m, logger, mt),
			Products:  services.NewProductService(m, logger),
			Reports:   services.NewReportService(m, logger, archiver),
			Converter: converter,
		},
	}, nil
}

func (app *App) Services() services.Bundle {
	return app.svc
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

// Close releases the storage backend.
func (app *App) Close() error {
	return app.manager.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until a termination signal arrives or ctx is
// cancelled, then closes storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.metrics, app.svc, app.config.SecretKey)
	runErr := s.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "HTTP server failed", "err", runErr)
	}

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "closing storage failed", "err", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
