package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/mensura/internal/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and convert incoming source documents",
	Long: `Watch runs mensura as a service: source documents dropped into the
watch directory are converted automatically, results are optionally
delivered to object storage, and a status API with Prometheus metrics
is served over HTTP.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("dir", "", "directory to watch for source documents")
	watchCmd.Flags().String("output-dir", ".", "directory for output files")
	watchCmd.Flags().String("host", "0.0.0.0", "status server host")
	watchCmd.Flags().Int("port", 8080, "status server port")
	watchCmd.Flags().String("delivery-type", "none", "delivery backend (none, local, s3, azure)")

	_ = viper.BindPFlag("watch.dir", watchCmd.Flags().Lookup("dir"))
	_ = viper.BindPFlag("export.output_dir", watchCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("server.host", watchCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", watchCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("delivery.type", watchCmd.Flags().Lookup("delivery-type"))
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Watch.Dir == "" {
		return fmt.Errorf("watch directory is required (--dir or watch.dir)")
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting mensura",
		"version", version,
		"watch_dir", cfg.Watch.Dir,
		"output_dir", cfg.Export.OutputDir,
		"delivery_type", cfg.Delivery.Type,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := application.Start(ctx); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("stopped")
	return nil
}
