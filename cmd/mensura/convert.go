package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/mensura/internal/adapters/csv"
	"github.com/jobrunner/mensura/internal/adapters/geopackage"
	"github.com/jobrunner/mensura/internal/adapters/landxml"
	"github.com/jobrunner/mensura/internal/application"
	"github.com/jobrunner/mensura/internal/config"
	"github.com/jobrunner/mensura/internal/ports/input"
	"github.com/jobrunner/mensura/internal/ports/output"
)

var convertCmd = &cobra.Command{
	Use:   "convert <source> [output-base]",
	Short: "Convert a source document into a new GeoPackage",
	Long: `Convert reads a LandXML or delimited point file and writes its
layers into a brand-new GeoPackage. The output name is derived from the
source name unless an output base is given; an existing file is never
overwritten.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Int("srid", 0, "force the output SRID (overrides the document CRS)")
	convertCmd.Flags().Int("fallback-srid", 0, "SRID used when the document declares no CRS")
	convertCmd.Flags().Bool("swap-xy", true, "source ordinates are northing/easting")
	convertCmd.Flags().Bool("per-code", false, "emit one point layer per base code")
	convertCmd.Flags().Bool("surfaces", true, "export face and boundary layers")
	convertCmd.Flags().Bool("timestamp", true, "append a run timestamp to the output name")
	convertCmd.Flags().String("output-dir", ".", "directory for the output file")

	_ = viper.BindPFlag("convert.fallback_srid", convertCmd.Flags().Lookup("fallback-srid"))
	_ = viper.BindPFlag("convert.swap_xy", convertCmd.Flags().Lookup("swap-xy"))
	_ = viper.BindPFlag("convert.per_code_layers", convertCmd.Flags().Lookup("per-code"))
	_ = viper.BindPFlag("convert.surfaces", convertCmd.Flags().Lookup("surfaces"))
	_ = viper.BindPFlag("export.timestamp", convertCmd.Flags().Lookup("timestamp"))
	_ = viper.BindPFlag("export.output_dir", convertCmd.Flags().Lookup("output-dir"))
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	srid, _ := cmd.Flags().GetInt("srid")

	sourcePath := args[0]
	basePath := defaultOutputBase(sourcePath, cfg.Export.OutputDir)
	if len(args) > 1 {
		basePath = args[1]
	}

	svc := newConvertService(cfg, logger)

	result, err := svc.ConvertFile(cmd.Context(), sourcePath, basePath, input.ConvertOptions{
		Timestamp:     cfg.Export.Timestamp,
		SRIDOverride:  srid,
		FallbackSRID:  cfg.Convert.FallbackSRID,
		PerCodeLayers: cfg.Convert.PerCodeLayers,
		Surfaces:      cfg.Convert.Surfaces,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d layers, %d features (SRID %d)\n",
		result.Path, result.Layers, result.Features, result.SRID)
	return nil
}

// newConvertService wires a standalone conversion service for one-shot
// commands, without metrics or delivery.
func newConvertService(cfg *config.Config, logger *slog.Logger) *application.ConvertService {
	readers := []output.DocumentReader{
		landxml.NewParser(landxml.Options{SwapXY: cfg.Convert.SwapXY}),
		csv.NewReader(),
	}
	return application.NewConvertService(readers, geopackage.NewWriter(), nil, logger)
}

func defaultOutputBase(sourcePath, outputDir string) string {
	name := filepath.Base(sourcePath)
	stem := name[:len(name)-len(filepath.Ext(name))]
	return filepath.Join(outputDir, stem)
}
