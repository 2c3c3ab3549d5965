package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jobrunner/mensura/internal/domain"
	"github.com/jobrunner/mensura/internal/ports/input"
	"github.com/jobrunner/mensura/internal/ports/output"
)

func newTestService(reader output.DocumentReader, writer *mockWriter, metrics output.MetricsCollector) *ConvertService {
	svc := NewConvertService([]output.DocumentReader{reader}, writer, metrics, slog.Default())
	svc.naming.Exists = func(string) bool { return false }
	return svc
}

func TestConvertFile(t *testing.T) {
	writer := &mockWriter{}
	metrics := &mockMetrics{}
	svc := newTestService(&mockReader{doc: surveyDoc()}, writer, metrics)

	result, err := svc.ConvertFile(context.Background(), "survey.xml", "out/site", input.ConvertOptions{Surfaces: true})
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}

	if result.Path != "out/site.gpkg" {
		t.Errorf("path = %q, want out/site.gpkg", result.Path)
	}
	if result.SRID != 25832 {
		t.Errorf("srid = %d, want the document CRS", result.SRID)
	}
	// points, breaklines, faces.
	if result.Layers != 3 {
		t.Errorf("layers = %d, want 3", result.Layers)
	}
	if result.Features != 4+1+2 {
		t.Errorf("features = %d, want 7", result.Features)
	}

	layers, ok := writer.exported["out/site.gpkg"]
	if !ok {
		t.Fatalf("nothing exported, writer saw %v", writer.exported)
	}
	for _, l := range layers {
		if l.GeometryColumn != "geom" {
			t.Errorf("layer %q geometry column = %q, want geom", l.Name, l.GeometryColumn)
		}
		if !l.SpatialIndex {
			t.Errorf("layer %q must request a spatial index", l.Name)
		}
	}

	if metrics.conversions[true] != 1 || metrics.conversions[false] != 0 {
		t.Errorf("conversion metrics = %v, want one success", metrics.conversions)
	}
	if metrics.layers != 3 || metrics.features != 7 {
		t.Errorf("written metrics = %d/%d layers/features, want 3/7", metrics.layers, metrics.features)
	}

	if svc.History().Len() != 1 {
		t.Errorf("history length = %d, want 1", svc.History().Len())
	}
}

func TestConvertFileWithoutSurfaces(t *testing.T) {
	writer := &mockWriter{}
	svc := newTestService(&mockReader{doc: surveyDoc()}, writer, nil)

	result, err := svc.ConvertFile(context.Background(), "survey.xml", "out/site", input.ConvertOptions{})
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	// Faces and boundaries stay home without the surfaces option.
	if result.Layers != 2 {
		t.Errorf("layers = %d, want points and breaklines only", result.Layers)
	}
}

func TestConvertFileSRIDPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		docSRID  int
		opts     input.ConvertOptions
		wantSRID int
	}{
		{"document wins over fallback", 25832, input.ConvertOptions{FallbackSRID: 4326}, 25832},
		{"override wins over document", 25832, input.ConvertOptions{SRIDOverride: 25833}, 25833},
		{"fallback fills the gap", 0, input.ConvertOptions{FallbackSRID: 25832}, 25832},
		{"nothing known", 0, input.ConvertOptions{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := surveyDoc()
			doc.SRID = tt.docSRID
			svc := newTestService(&mockReader{doc: doc}, &mockWriter{}, nil)

			result, err := svc.ConvertFile(context.Background(), "survey.xml", "out", input.ConvertOptions{
				SRIDOverride: tt.opts.SRIDOverride,
				FallbackSRID: tt.opts.FallbackSRID,
			})
			if err != nil {
				t.Fatalf("ConvertFile() error = %v", err)
			}
			if result.SRID != tt.wantSRID {
				t.Errorf("srid = %d, want %d", result.SRID, tt.wantSRID)
			}
		})
	}
}

func TestConvertFilePerCodeLayers(t *testing.T) {
	doc := surveyDoc()
	doc.Points[2].Code = "KS"
	doc.Points[3].Code = ""

	writer := &mockWriter{}
	svc := newTestService(&mockReader{doc: doc}, writer, nil)

	result, err := svc.ConvertFile(context.Background(), "survey.xml", "out", input.ConvertOptions{PerCodeLayers: true})
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	// GP, KS, points (uncoded), breaklines.
	if result.Layers != 4 {
		t.Errorf("layers = %d, want 4", result.Layers)
	}
}

func TestConvertFileErrors(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		metrics := &mockMetrics{}
		svc := newTestService(&mockReader{doc: surveyDoc()}, &mockWriter{}, metrics)

		_, err := svc.ConvertFile(context.Background(), "survey.dwg", "out", input.ConvertOptions{})
		if !errors.Is(err, domain.ErrReaderNotFound) {
			t.Fatalf("ConvertFile() error = %v, want ErrReaderNotFound", err)
		}
		if metrics.conversions[false] != 1 {
			t.Errorf("failure metrics = %v, want one failure", metrics.conversions)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		svc := newTestService(&mockReader{doc: &domain.Document{}}, &mockWriter{}, nil)
		_, err := svc.ConvertFile(context.Background(), "survey.xml", "out", input.ConvertOptions{})
		if !errors.Is(err, domain.ErrEmptyDocument) {
			t.Fatalf("ConvertFile() error = %v, want ErrEmptyDocument", err)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		readErr := &domain.ParseError{Element: "LandXML"}
		svc := newTestService(&mockReader{readErr: readErr}, &mockWriter{}, nil)
		_, err := svc.ConvertFile(context.Background(), "survey.xml", "out", input.ConvertOptions{})
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("ConvertFile() error = %v, want the reader's ParseError", err)
		}
	})

	t.Run("writer failure", func(t *testing.T) {
		exportErr := &domain.ExportError{Path: "out.gpkg"}
		metrics := &mockMetrics{}
		svc := newTestService(&mockReader{doc: surveyDoc()}, &mockWriter{exportErr: exportErr}, metrics)
		_, err := svc.ConvertFile(context.Background(), "survey.xml", "out", input.ConvertOptions{})
		var wantErr *domain.ExportError
		if !errors.As(err, &wantErr) {
			t.Fatalf("ConvertFile() error = %v, want ExportError", err)
		}
		if svc.History().Len() != 0 {
			t.Error("failed conversions must not enter the history")
		}
	})
}

func TestExportLayers(t *testing.T) {
	writer := &mockWriter{}
	svc := newTestService(&mockReader{doc: surveyDoc()}, writer, nil)

	layers := []domain.VectorLayer{{
		Name:         "custom layer",
		GeometryType: domain.GeomPoint,
		SRID:         25832,
		Features: []domain.Feature{{
			Geometry: domain.NewPointGeometry(domain.NewCoordinate(1, 2)),
		}},
	}}

	path, err := svc.ExportLayers(context.Background(), layers, "out/custom", input.ConvertOptions{})
	if err != nil {
		t.Fatalf("ExportLayers() error = %v", err)
	}
	if path != "out/custom.gpkg" {
		t.Errorf("path = %q, want out/custom.gpkg", path)
	}
	exported := writer.exported[path]
	if len(exported) != 1 || exported[0].Name != "custom_layer" {
		t.Errorf("exported = %v, want one normalized layer", exported)
	}

	if _, err := svc.ExportLayers(context.Background(), nil, "out/empty", input.ConvertOptions{}); !errors.Is(err, domain.ErrNoLayers) {
		t.Errorf("ExportLayers(nil) error = %v, want ErrNoLayers", err)
	}
}

func TestServiceAppend(t *testing.T) {
	writer := &mockWriter{}
	metrics := &mockMetrics{}
	svc := newTestService(&mockReader{doc: surveyDoc()}, writer, metrics)

	features := []domain.Feature{{Geometry: domain.NewPointGeometry(domain.NewCoordinate(1, 2))}}
	n, err := svc.Append(context.Background(), "site.gpkg", "My Points", nil, features)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if n != 1 || writer.appended != 1 {
		t.Errorf("appended = %d/%d, want 1", n, writer.appended)
	}
	if metrics.features != 1 {
		t.Errorf("feature metrics = %d, want 1", metrics.features)
	}
}
