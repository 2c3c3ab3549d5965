// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/jobrunner/mensura/internal/adapters/csv"
	"github.com/jobrunner/mensura/internal/adapters/geopackage"
	httpAdapter "github.com/jobrunner/mensura/internal/adapters/http"
	"github.com/jobrunner/mensura/internal/adapters/landxml"
	"github.com/jobrunner/mensura/internal/adapters/metrics"
	"github.com/jobrunner/mensura/internal/adapters/storage"
	"github.com/jobrunner/mensura/internal/adapters/watcher"
	"github.com/jobrunner/mensura/internal/application"
	"github.com/jobrunner/mensura/internal/config"
	"github.com/jobrunner/mensura/internal/ports/input"
	"github.com/jobrunner/mensura/internal/ports/output"
)

// App holds all application components for watch mode.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Converter  *application.ConvertService
	Delivery   *application.DeliveryService
	HTTPServer *httpAdapter.Server
	Watcher    *watcher.Watcher
	Metrics    *metrics.Collector
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize conversion service with all document readers
	readers := []output.DocumentReader{
		landxml.NewParser(landxml.Options{SwapXY: cfg.Convert.SwapXY}),
		csv.NewReader(),
	}
	app.Converter = application.NewConvertService(
		readers,
		geopackage.NewWriter(),
		metricsCollector,
		logger,
	)

	// Initialize delivery
	store, err := initStorage(ctx, cfg.Delivery)
	if err != nil {
		return nil, fmt.Errorf("initializing delivery storage: %w", err)
	}
	app.Delivery = application.NewDeliveryService(
		store,
		cfg.Delivery.Type,
		cfg.Delivery.Prefix,
		metricsCollector,
		logger,
	)

	// Initialize status HTTP server
	if cfg.Server.Enabled {
		var metricsHandler http.Handler
		if app.Metrics != nil {
			metricsHandler = metrics.Handler()
		}
		app.HTTPServer = httpAdapter.NewServer(
			cfg.Server,
			app.Converter.History(),
			metricsHandler,
			logger,
		)
	}

	// Initialize source directory watcher
	if cfg.Watch.Dir != "" {
		w, err := watcher.New(
			watcher.Config{
				Paths:      []string{cfg.Watch.Dir},
				Debounce:   cfg.Watch.Debounce,
				Extensions: cfg.Watch.Extensions,
			},
			app.handleSourceEvent,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing watcher: %w", err)
		}
		app.Watcher = w
	}

	return app, nil
}

// Start starts all application components. Blocks until the HTTP
// server stops, or until ctx is cancelled when the server is disabled.
func (a *App) Start(ctx context.Context) error {
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
	}

	if a.HTTPServer != nil {
		return a.HTTPServer.Start()
	}

	<-ctx.Done()
	return nil
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", "error", err)
		}
	}

	return nil
}

// handleSourceEvent converts a source document dropped into the watch
// directory. A failed conversion is logged and never stops the watcher.
func (a *App) handleSourceEvent(ctx context.Context, event watcher.Event) error {
	if event.Operation != watcher.OpCreate && event.Operation != watcher.OpModify {
		return nil
	}

	a.Logger.Info("source document detected", "path", event.Path)

	basePath := a.outputBase(event.Path)
	result, err := a.Converter.ConvertFile(ctx, event.Path, basePath, a.convertOptions())
	if err != nil {
		return fmt.Errorf("converting %s: %w", event.Path, err)
	}

	if a.Delivery.Enabled() {
		if err := a.Delivery.Deliver(ctx, result.Path); err != nil {
			return fmt.Errorf("delivering %s: %w", result.Path, err)
		}
	}

	return nil
}

// outputBase maps a source path to the output base path in the
// configured output directory.
func (a *App) outputBase(sourcePath string) string {
	name := filepath.Base(sourcePath)
	stem := name[:len(name)-len(filepath.Ext(name))]
	return filepath.Join(a.Config.Export.OutputDir, stem)
}

func (a *App) convertOptions() input.ConvertOptions {
	return input.ConvertOptions{
		Timestamp:     a.Config.Export.Timestamp,
		FallbackSRID:  a.Config.Convert.FallbackSRID,
		PerCodeLayers: a.Config.Convert.PerCodeLayers,
		Surfaces:      a.Config.Convert.Surfaces,
	}
}

// initStorage initializes the delivery storage adapter. Returns nil
// storage when delivery is disabled.
func initStorage(ctx context.Context, cfg config.DeliveryConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
		})

	default:
		return nil, fmt.Errorf("unknown delivery type: %s", cfg.Type)
	}
}
