package application

import (
	"strings"
	"testing"

	"github.com/jobrunner/mensura/internal/domain"
)

func TestSanitizeTableName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "points", "points"},
		{"spaces", "GP 1 Bolzen", "GP_1_Bolzen"},
		{"umlauts", "Straße", "Stra_e"},
		{"special runs", "a//b::c", "a_b_c"},
		{"hyphen kept", "site-2024", "site-2024"},
		{"empty", "", "layer"},
		{"only specials", "///", "layer"},
		{"long", strings.Repeat("x", 80), strings.Repeat("x", 63)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTableName(tt.in); got != tt.want {
				t.Errorf("SanitizeTableName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Marker Type", "marker_type"},
		{"CODE", "code"},
		{"fid", "fid_"},
		{"geom", "geom_"},
		{"", "field"},
	}

	for _, tt := range tests {
		if got := SanitizeFieldName(tt.in); got != tt.want {
			t.Errorf("SanitizeFieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLayers(t *testing.T) {
	layers := []domain.VectorLayer{
		{
			Name:         "GP Punkte",
			GeometryType: domain.GeomPoint,
			SRID:         25832,
			Fields: []domain.Field{
				{Name: "ID", Type: domain.FieldText},
				{Name: "Marker Type", Type: domain.FieldText},
			},
			Features: []domain.Feature{{
				Geometry:   domain.NewPointGeometry(domain.NewCoordinate(1, 2)),
				Properties: map[string]any{"ID": "1", "Marker Type": "bolt"},
			}},
		},
	}

	got := NormalizeLayers(layers, true)
	if len(got) != 1 {
		t.Fatalf("layers = %d, want 1", len(got))
	}
	l := got[0]
	if l.Name != "GP_Punkte" {
		t.Errorf("name = %q, want GP_Punkte", l.Name)
	}
	if l.GeometryColumn != "geom" {
		t.Errorf("geometry column = %q, want geom", l.GeometryColumn)
	}
	if !l.SpatialIndex {
		t.Error("spatial index flag must be set")
	}
	if l.Fields[0].Name != "id" || l.Fields[1].Name != "marker_type" {
		t.Errorf("fields = %v, want sanitized names", l.FieldNames())
	}
	// Properties follow the renamed fields.
	if v, ok := l.Features[0].GetProperty("marker_type"); !ok || v != "bolt" {
		t.Errorf("re-keyed property = %v (%v), want bolt", v, ok)
	}
	if _, ok := l.Features[0].GetProperty("Marker Type"); ok {
		t.Error("original property key must not survive normalization")
	}

	// The input must stay untouched.
	if layers[0].Name != "GP Punkte" || layers[0].GeometryColumn != "" {
		t.Error("NormalizeLayers must not modify its input")
	}
	if _, ok := layers[0].Features[0].GetProperty("Marker Type"); !ok {
		t.Error("NormalizeLayers must not modify input features")
	}
}

func TestNormalizeLayersCollisions(t *testing.T) {
	layers := []domain.VectorLayer{
		{Name: "points", GeometryType: domain.GeomPoint},
		{Name: "Points?", GeometryType: domain.GeomPoint},
		{Name: "points", GeometryType: domain.GeomPoint},
	}

	got := NormalizeLayers(layers, false)
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	// Sanitization maps "Points?" to "Points", distinct from "points" in
	// declaration order; the second "points" gets a suffix.
	want := []string{"points", "Points", "points_1"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v (deterministic declaration order)", names, want)
			break
		}
	}

	// Field collisions within one layer get the same treatment.
	fieldLayer := []domain.VectorLayer{{
		Name: "l",
		Fields: []domain.Field{
			{Name: "Code", Type: domain.FieldText},
			{Name: "code", Type: domain.FieldText},
			{Name: "c o d e", Type: domain.FieldText},
		},
	}}
	fl := NormalizeLayers(fieldLayer, false)[0]
	if fl.Fields[0].Name != "code" || fl.Fields[1].Name != "code_1" || fl.Fields[2].Name != "c_o_d_e" {
		t.Errorf("fields = %v, want deterministic suffixes", fl.FieldNames())
	}
}
