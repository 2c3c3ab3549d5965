package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jobrunner/mensura/internal/domain"
)

// Identifier limits for GeoPackage tables and columns.
const maxIdentifierLen = 63

var invalidIdentChars = regexp.MustCompile(`[^\w\-]+`)

// SanitizeTableName maps an arbitrary layer name to a safe GeoPackage
// table name: runs of characters outside [0-9A-Za-z_-] collapse to a
// single underscore and the result is truncated.
func SanitizeTableName(name string) string {
	s := invalidIdentChars.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "layer"
	}
	if len(s) > maxIdentifierLen {
		s = s[:maxIdentifierLen]
	}
	return s
}

// SanitizeFieldName maps an attribute name to a safe column name. Field
// names are additionally lowercased so schemas compare predictably when
// appending.
func SanitizeFieldName(name string) string {
	s := strings.ToLower(SanitizeTableName(name))
	if s == "layer" && strings.TrimSpace(name) == "" {
		s = "field"
	}
	switch s {
	case "fid", "geom":
		// Reserved by the container layout.
		return s + "_"
	}
	return s
}

// NormalizeLayers prepares layers for export: table and field names are
// sanitized and deduplicated deterministically in declaration order,
// the geometry column is fixed to "geom", feature properties are re-keyed
// to the sanitized field names, and the spatial-index flag is applied.
// The input is not modified.
func NormalizeLayers(layers []domain.VectorLayer, spatialIndex bool) []domain.VectorLayer {
	out := make([]domain.VectorLayer, 0, len(layers))
	tableNames := make(map[string]bool)

	for i := range layers {
		src := &layers[i]
		layer := domain.VectorLayer{
			Name:           uniqueName(SanitizeTableName(src.Name), tableNames),
			GeometryType:   src.GeometryType,
			GeometryColumn: "geom",
			SRID:           src.SRID,
			SpatialIndex:   spatialIndex,
		}

		rename := make(map[string]string, len(src.Fields))
		fieldNames := make(map[string]bool)
		for _, f := range src.Fields {
			name := uniqueName(SanitizeFieldName(f.Name), fieldNames)
			rename[f.Name] = name
			layer.Fields = append(layer.Fields, domain.Field{Name: name, Type: f.Type})
		}

		layer.Features = make([]domain.Feature, len(src.Features))
		for j := range src.Features {
			feat := domain.Feature{Geometry: src.Features[j].Geometry}
			if props := src.Features[j].Properties; props != nil {
				feat.Properties = make(map[string]any, len(props))
				for k, v := range props {
					if renamed, ok := rename[k]; ok {
						feat.Properties[renamed] = v
					} else {
						feat.Properties[SanitizeFieldName(k)] = v
					}
				}
			}
			layer.Features[j] = feat
		}
		out = append(out, layer)
	}
	return out
}

// uniqueName reserves name in seen, appending _1, _2, ... on collision.
// Suffixed names still respect the identifier length limit.
func uniqueName(name string, seen map[string]bool) string {
	candidate := name
	for n := 1; seen[candidate]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		stem := name
		if len(stem)+len(suffix) > maxIdentifierLen {
			stem = stem[:maxIdentifierLen-len(suffix)]
		}
		candidate = stem + suffix
	}
	seen[candidate] = true
	return candidate
}
