// Package input defines the primary/driving ports of the application.
package input

import (
	"context"
	"time"

	"github.com/jobrunner/mensura/internal/domain"
)

// ConvertOptions controls one conversion-and-export run.
type ConvertOptions struct {
	// Timestamp appends __YYYY-MM-DD_HHMM to the output base name.
	Timestamp bool

	// SRIDOverride forces the output CRS; 0 means use the document's
	// CRS, falling back to FallbackSRID. Pass-through only, never a
	// reprojection.
	SRIDOverride int
	FallbackSRID int

	// PerCodeLayers additionally emits one point layer per base code.
	PerCodeLayers bool

	// Surfaces controls whether faces and boundaries are imported.
	Surfaces bool
}

// ConvertResult describes one successful conversion.
type ConvertResult struct {
	Source    string        `json:"source"`
	Path      string        `json:"path"`
	SRID      int           `json:"srid"`
	Layers    int           `json:"layers"`
	Features  int           `json:"features"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

// ConverterService defines the primary port for conversions and exports.
type ConverterService interface {
	// ConvertFile reads a source document and exports its layers into a
	// brand-new GeoPackage derived from basePath.
	ConvertFile(ctx context.Context, sourcePath, basePath string, opts ConvertOptions) (*ConvertResult, error)

	// ExportLayers writes already-assembled layers into a brand-new
	// GeoPackage derived from basePath. Returns the final written path.
	ExportLayers(ctx context.Context, layers []domain.VectorLayer, basePath string, opts ConvertOptions) (string, error)

	// Append appends features to an existing table in an existing
	// container, aligning the table schema first. Returns the number of
	// appended features.
	Append(ctx context.Context, path, table string, schema []domain.Field, features []domain.Feature) (int, error)
}
