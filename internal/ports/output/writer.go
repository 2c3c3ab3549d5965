// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/jobrunner/mensura/internal/domain"
)

// LayerWriter defines the secondary port for committing vector layers to
// a container format.
type LayerWriter interface {
	// Export creates a brand-new container at path holding one table per
	// layer. The path must not exist; on failure no file is left behind.
	Export(ctx context.Context, path string, layers []domain.VectorLayer) error

	// Append appends features to an existing table, adding incoming-only
	// fields to the table schema first. Existing rows are never touched.
	Append(ctx context.Context, path, table string, schema []domain.Field, features []domain.Feature) (int, error)
}

// DocumentReader defines the secondary port for reading a source document
// (LandXML, CSV) into the in-memory survey model.
type DocumentReader interface {
	// Read parses the file at path. Pure read, no side effects.
	Read(ctx context.Context, path string) (*domain.Document, error)

	// Extensions returns the lower-case file extensions this reader
	// handles, including the leading dot.
	Extensions() []string
}
