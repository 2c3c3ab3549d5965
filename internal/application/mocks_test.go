package application

import (
	"context"
	"time"

	"github.com/jobrunner/mensura/internal/domain"
)

// mockReader implements output.DocumentReader for testing.
type mockReader struct {
	doc     *domain.Document
	readErr error
	exts    []string
}

func (m *mockReader) Read(_ context.Context, _ string) (*domain.Document, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.doc, nil
}

func (m *mockReader) Extensions() []string {
	if m.exts != nil {
		return m.exts
	}
	return []string{".xml"}
}

// mockWriter implements output.LayerWriter for testing.
type mockWriter struct {
	exported  map[string][]domain.VectorLayer
	exportErr error
	appendErr error
	appended  int
}

func (m *mockWriter) Export(_ context.Context, path string, layers []domain.VectorLayer) error {
	if m.exportErr != nil {
		return m.exportErr
	}
	if m.exported == nil {
		m.exported = make(map[string][]domain.VectorLayer)
	}
	m.exported[path] = layers
	return nil
}

func (m *mockWriter) Append(_ context.Context, _, _ string, _ []domain.Field, features []domain.Feature) (int, error) {
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.appended += len(features)
	return len(features), nil
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	uploads   map[string]string
	existing  map[string]bool
	uploadErr error
	existsErr error
}

func (m *mockStorage) Upload(_ context.Context, localPath, key string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if m.uploads == nil {
		m.uploads = make(map[string]string)
	}
	m.uploads[key] = localPath
	return nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[key], nil
}

// mockMetrics implements output.MetricsCollector for testing.
type mockMetrics struct {
	conversions map[bool]int
	layers      int
	features    int
	deliveries  map[string]int
}

func (m *mockMetrics) IncConversion(success bool) {
	if m.conversions == nil {
		m.conversions = make(map[bool]int)
	}
	m.conversions[success]++
}

func (m *mockMetrics) ObserveExportDuration(_ time.Duration) {}

func (m *mockMetrics) AddLayersWritten(count int) { m.layers += count }

func (m *mockMetrics) AddFeaturesWritten(count int) { m.features += count }

func (m *mockMetrics) IncDelivery(backend string, success bool) {
	if m.deliveries == nil {
		m.deliveries = make(map[string]int)
	}
	key := backend + ":fail"
	if success {
		key = backend + ":ok"
	}
	m.deliveries[key]++
}

// surveyDoc builds a document with 4 points, a breakline and two faces.
func surveyDoc() *domain.Document {
	doc := &domain.Document{SRID: 25832}
	coords := [][3]float64{
		{0, 0, 10}, {10, 0, 11}, {10, 10, 12}, {0, 10, 13},
	}
	for i, c := range coords {
		doc.AddPoint(domain.SurveyPoint{
			ID:    string(rune('1' + i)),
			Coord: domain.NewCoordinateZ(c[0], c[1], c[2]),
			Code:  "GP",
		})
	}
	doc.Breaklines = append(doc.Breaklines, domain.Breakline{
		Name: "BL1", PointIDs: []string{"1", "2", "3"},
	})
	doc.Faces = append(doc.Faces,
		domain.Face{Surface: "DGM", P1: "1", P2: "2", P3: "3"},
		domain.Face{Surface: "DGM", P1: "2", P2: "3", P3: "4"},
	)
	return doc
}
