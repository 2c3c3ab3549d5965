package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobrunner/mensura/internal/adapters/csv"
	"github.com/jobrunner/mensura/internal/adapters/landxml"
	"github.com/jobrunner/mensura/internal/application"
	"github.com/jobrunner/mensura/internal/domain"
	"github.com/jobrunner/mensura/internal/ports/output"
)

var appendCmd = &cobra.Command{
	Use:   "append <geopackage> <table> <source>",
	Short: "Append points from a source document to an existing table",
	Long: `Append reads the points of a LandXML or delimited point file and
inserts them into an existing GeoPackage table. Missing attribute
columns are added; a type conflict aborts before anything is written.`,
	Args: cobra.ExactArgs(3),
	RunE: runAppend,
}

func init() {
	appendCmd.Flags().Bool("swap-xy", true, "source ordinates are northing/easting")
}

func runAppend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	gpkgPath, table, sourcePath := args[0], args[1], args[2]
	swapXY, _ := cmd.Flags().GetBool("swap-xy")

	doc, err := readDocument(cmd, sourcePath, swapXY)
	if err != nil {
		return err
	}
	if doc.IsEmpty() {
		return fmt.Errorf("%s: %w", sourcePath, domain.ErrEmptyDocument)
	}

	layer, err := appendLayer(doc, sourcePath)
	if err != nil {
		return err
	}

	svc := newConvertService(cfg, logger)
	n, err := svc.Append(cmd.Context(), gpkgPath, table, layer.Fields, layer.Features)
	if err != nil {
		return err
	}

	fmt.Printf("%s: appended %d features to %q\n", gpkgPath, n, table)
	return nil
}

// appendLayer builds the normalized point layer to insert. A document
// carrying only line work has no points and nothing to append.
func appendLayer(doc *domain.Document, sourcePath string) (domain.VectorLayer, error) {
	layer := application.PointsLayer(doc, 0)
	if layer == nil {
		return domain.VectorLayer{}, fmt.Errorf("%s: no points to append: %w", sourcePath, domain.ErrInvalidInput)
	}
	normalized := application.NormalizeLayers([]domain.VectorLayer{*layer}, false)
	return normalized[0], nil
}

// readDocument picks the reader matching the source extension.
func readDocument(cmd *cobra.Command, sourcePath string, swapXY bool) (*domain.Document, error) {
	readers := []output.DocumentReader{
		landxml.NewParser(landxml.Options{SwapXY: swapXY}),
		csv.NewReader(),
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	for _, r := range readers {
		for _, e := range r.Extensions() {
			if e == ext {
				return r.Read(cmd.Context(), sourcePath)
			}
		}
	}

	return nil, fmt.Errorf("%s: %w", sourcePath, domain.ErrReaderNotFound)
}
