// Package application contains the application services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jobrunner/mensura/internal/domain"
	"github.com/jobrunner/mensura/internal/ports/input"
	"github.com/jobrunner/mensura/internal/ports/output"
)

// ConvertService implements the ConverterService port: it reads a source
// document, assembles and normalizes layers, and commits them through
// the layer writer.
type ConvertService struct {
	readers map[string]output.DocumentReader
	writer  output.LayerWriter
	naming  *NamingResolver
	history *History
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewConvertService creates the conversion service. Readers are keyed by
// the file extensions they declare; a later reader takes precedence on
// overlap.
func NewConvertService(
	readers []output.DocumentReader,
	writer output.LayerWriter,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *ConvertService {
	byExt := make(map[string]output.DocumentReader)
	for _, r := range readers {
		for _, ext := range r.Extensions() {
			byExt[strings.ToLower(ext)] = r
		}
	}
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &ConvertService{
		readers: byExt,
		writer:  writer,
		naming:  NewNamingResolver(),
		history: NewHistory(0),
		metrics: metrics,
		logger:  logger,
	}
}

// History returns the service's conversion history.
func (s *ConvertService) History() *History {
	return s.history
}

// ConvertFile implements input.ConverterService.
func (s *ConvertService) ConvertFile(ctx context.Context, sourcePath, basePath string, opts input.ConvertOptions) (*input.ConvertResult, error) {
	start := time.Now()

	reader, ok := s.readers[strings.ToLower(filepath.Ext(sourcePath))]
	if !ok {
		s.metrics.IncConversion(false)
		return nil, fmt.Errorf("%s: %w", sourcePath, domain.ErrReaderNotFound)
	}

	doc, err := reader.Read(ctx, sourcePath)
	if err != nil {
		s.metrics.IncConversion(false)
		return nil, err
	}
	if doc.IsEmpty() {
		s.metrics.IncConversion(false)
		return nil, fmt.Errorf("%s: %w", sourcePath, domain.ErrEmptyDocument)
	}

	srid := resolveSRID(doc.SRID, opts)
	layers, err := BuildLayers(doc, srid, opts.PerCodeLayers, opts.Surfaces)
	if err != nil {
		s.metrics.IncConversion(false)
		return nil, err
	}

	path, features, err := s.export(ctx, layers, basePath, opts)
	if err != nil {
		s.metrics.IncConversion(false)
		return nil, err
	}

	result := &input.ConvertResult{
		Source:    sourcePath,
		Path:      path,
		SRID:      srid,
		Layers:    len(layers),
		Features:  features,
		Duration:  time.Since(start),
		StartedAt: start,
	}
	s.finish(result)
	return result, nil
}

// ExportLayers implements input.ConverterService.
func (s *ConvertService) ExportLayers(ctx context.Context, layers []domain.VectorLayer, basePath string, opts input.ConvertOptions) (string, error) {
	path, _, err := s.export(ctx, layers, basePath, opts)
	if err != nil {
		s.metrics.IncConversion(false)
	}
	return path, err
}

// Append implements input.ConverterService.
func (s *ConvertService) Append(ctx context.Context, path, table string, schema []domain.Field, features []domain.Feature) (int, error) {
	n, err := s.writer.Append(ctx, path, SanitizeTableName(table), schema, features)
	if err != nil {
		return 0, err
	}
	s.metrics.AddFeaturesWritten(n)
	s.logger.Info("features appended", "path", path, "table", table, "count", n)
	return n, nil
}

func (s *ConvertService) export(ctx context.Context, layers []domain.VectorLayer, basePath string, opts input.ConvertOptions) (string, int, error) {
	if len(layers) == 0 {
		return "", 0, domain.ErrNoLayers
	}

	normalized := NormalizeLayers(layers, true)
	path := s.naming.Resolve(basePath, opts.Timestamp)

	if err := s.writer.Export(ctx, path, normalized); err != nil {
		return "", 0, err
	}

	features := 0
	for i := range normalized {
		features += len(normalized[i].Features)
	}
	s.metrics.AddLayersWritten(len(normalized))
	s.metrics.AddFeaturesWritten(features)
	return path, features, nil
}

func (s *ConvertService) finish(result *input.ConvertResult) {
	s.metrics.IncConversion(true)
	s.metrics.ObserveExportDuration(result.Duration)
	s.history.Add(*result)
	s.logger.Info("conversion finished",
		"source", result.Source,
		"path", result.Path,
		"srid", result.SRID,
		"layers", result.Layers,
		"features", result.Features,
		"duration", result.Duration,
	)
}

// resolveSRID applies the CRS precedence: explicit override, then the
// document's declared CRS, then the configured fallback.
func resolveSRID(docSRID int, opts input.ConvertOptions) int {
	if opts.SRIDOverride != 0 {
		return opts.SRIDOverride
	}
	if docSRID != 0 {
		return docSRID
	}
	return opts.FallbackSRID
}
