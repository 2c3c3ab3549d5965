package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobrunner/mensura/internal/application"
	"github.com/jobrunner/mensura/internal/config"
	"github.com/jobrunner/mensura/internal/ports/input"
)

func newTestServer(t *testing.T, history *application.History) *Server {
	t.Helper()
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080}
	return NewServer(cfg, history, nil, slog.Default())
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, application.NewHistory(0))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, application.NewHistory(0))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandleConversions(t *testing.T) {
	history := application.NewHistory(0)
	history.Add(input.ConvertResult{
		Source:    "site.xml",
		Path:      "out/site.gpkg",
		SRID:      25832,
		Layers:    3,
		Features:  42,
		Duration:  120 * time.Millisecond,
		StartedAt: time.Date(2024, 5, 1, 14, 7, 0, 0, time.UTC),
	})
	history.Add(input.ConvertResult{Source: "later.xml", Path: "out/later.gpkg"})

	srv := newTestServer(t, history)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Conversions []input.ConvertResult `json:"conversions"`
		Count       int                   `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if len(body.Conversions) != 2 || body.Conversions[0].Source != "later.xml" {
		t.Errorf("conversions not newest first: %+v", body.Conversions)
	}
}

func TestMetricsRouteOnlyWithHandler(t *testing.T) {
	srv := newTestServer(t, application.NewHistory(0))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status without metrics handler = %d, want %d", rec.Code, http.StatusNotFound)
	}

	withMetrics := NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		application.NewHistory(0),
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		slog.Default(),
	)

	rec = httptest.NewRecorder()
	withMetrics.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status with metrics handler = %d, want %d", rec.Code, http.StatusOK)
	}
}
