package application

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/jobrunner/mensura/internal/ports/output"
)

// DeliveryService uploads finished GeoPackages to remote storage.
// Delivery runs after the export committed; a failed upload leaves the
// local file in place and never rolls the conversion back.
type DeliveryService struct {
	storage output.ObjectStorage
	backend string
	prefix  string
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewDeliveryService creates the delivery service. A nil storage means
// delivery is disabled; Deliver becomes a no-op.
func NewDeliveryService(
	storage output.ObjectStorage,
	backend, prefix string,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *DeliveryService {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &DeliveryService{
		storage: storage,
		backend: backend,
		prefix:  prefix,
		metrics: metrics,
		logger:  logger,
	}
}

// Enabled reports whether a storage backend is configured.
func (s *DeliveryService) Enabled() bool {
	return s.storage != nil
}

// Deliver uploads one local file under the configured prefix. The object
// key is the file's base name; existing objects are not overwritten.
func (s *DeliveryService) Deliver(ctx context.Context, localPath string) error {
	if s.storage == nil {
		return nil
	}

	key := filepath.Base(localPath)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		s.metrics.IncDelivery(s.backend, false)
		return err
	}
	if exists {
		s.logger.Warn("delivery skipped: object exists", "backend", s.backend, "key", key)
		return nil
	}

	if err := s.storage.Upload(ctx, localPath, key); err != nil {
		s.metrics.IncDelivery(s.backend, false)
		s.logger.Error("delivery failed", "backend", s.backend, "key", key, "error", err)
		return err
	}

	s.metrics.IncDelivery(s.backend, true)
	s.logger.Info("delivered", "backend", s.backend, "key", key)
	return nil
}
