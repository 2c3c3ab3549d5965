package application

import (
	"sort"

	"github.com/jobrunner/mensura/internal/domain"
)

// Layer builders turn the parsed survey model into in-memory vector
// layers. Builders return nil when the document has nothing for them;
// the caller decides what an empty result means.

// PointsLayer builds the single all-points layer.
func PointsLayer(doc *domain.Document, srid int) *domain.VectorLayer {
	if len(doc.Points) == 0 {
		return nil
	}
	return pointLayerFrom("points", doc.Points, srid)
}

// PerCodePointLayers builds one point layer per base code, in order of
// first appearance. Points without a code land in a "points" layer.
func PerCodePointLayers(doc *domain.Document, srid int) []domain.VectorLayer {
	var order []string
	buckets := make(map[string][]domain.SurveyPoint)
	for i := range doc.Points {
		code := doc.Points[i].CodeBase()
		if code == "" {
			code = "points"
		}
		if _, ok := buckets[code]; !ok {
			order = append(order, code)
		}
		buckets[code] = append(buckets[code], doc.Points[i])
	}

	layers := make([]domain.VectorLayer, 0, len(order))
	for _, code := range order {
		layers = append(layers, *pointLayerFrom(code, buckets[code], srid))
	}
	return layers
}

func pointLayerFrom(name string, points []domain.SurveyPoint, srid int) *domain.VectorLayer {
	fields := []domain.Field{
		{Name: "id", Type: domain.FieldText},
		{Name: "code", Type: domain.FieldText},
		{Name: "desc", Type: domain.FieldText},
	}
	// Feature properties become extra text columns, sorted for a stable
	// schema across runs.
	propKeys := make(map[string]bool)
	for i := range points {
		for k := range points[i].Props {
			propKeys[k] = true
		}
	}
	extra := make([]string, 0, len(propKeys))
	for k := range propKeys {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		fields = append(fields, domain.Field{Name: k, Type: domain.FieldText})
	}

	layer := &domain.VectorLayer{
		Name:         name,
		GeometryType: domain.GeomPoint,
		SRID:         srid,
		Fields:       fields,
	}
	for i := range points {
		p := &points[i]
		props := map[string]any{"id": p.ID}
		if p.Code != "" {
			props["code"] = p.Code
		}
		if p.Desc != "" {
			props["desc"] = p.Desc
		}
		for k, v := range p.Props {
			props[k] = v
		}
		layer.Features = append(layer.Features, domain.Feature{
			Geometry:   domain.NewPointGeometry(p.Coord),
			Properties: props,
		})
	}
	return layer
}

// BreaklinesLayer builds the breakline layer. Reference-form breaklines
// are resolved against the point collection; parsing already validated
// the references.
func BreaklinesLayer(doc *domain.Document, srid int) (*domain.VectorLayer, error) {
	if len(doc.Breaklines) == 0 {
		return nil, nil
	}
	layer := &domain.VectorLayer{
		Name:         "breaklines",
		GeometryType: domain.GeomLineString,
		SRID:         srid,
		Fields: []domain.Field{
			{Name: "name", Type: domain.FieldText},
			{Name: "desc", Type: domain.FieldText},
		},
	}
	for i := range doc.Breaklines {
		bl := &doc.Breaklines[i]
		coords, err := ResolveBreakline(doc, bl)
		if err != nil {
			return nil, err
		}
		props := map[string]any{"name": bl.Name}
		if bl.Desc != "" {
			props["desc"] = bl.Desc
		}
		layer.Features = append(layer.Features, domain.Feature{
			Geometry:   domain.NewLineGeometry(coords),
			Properties: props,
		})
	}
	return layer, nil
}

// LinesLayer builds one layer for plan features and alignments, one
// feature per coordinate part.
func LinesLayer(doc *domain.Document, srid int) *domain.VectorLayer {
	if len(doc.Lines) == 0 {
		return nil
	}
	layer := &domain.VectorLayer{
		Name:         "lines",
		GeometryType: domain.GeomLineString,
		SRID:         srid,
		Fields: []domain.Field{
			{Name: "obj_type", Type: domain.FieldText},
			{Name: "obj_name", Type: domain.FieldText},
			{Name: "obj_desc", Type: domain.FieldText},
			{Name: "part_no", Type: domain.FieldInteger},
		},
	}
	for i := range doc.Lines {
		lw := &doc.Lines[i]
		for partNo, part := range lw.Parts {
			props := map[string]any{
				"obj_type": lw.Kind,
				"obj_name": lw.Name,
				"part_no":  int64(partNo + 1),
			}
			if lw.Desc != "" {
				props["obj_desc"] = lw.Desc
			}
			layer.Features = append(layer.Features, domain.Feature{
				Geometry:   domain.NewLineGeometry(part),
				Properties: props,
			})
		}
	}
	if len(layer.Features) == 0 {
		return nil
	}
	return layer
}

// BoundariesLayer builds the surface-boundary polygon layer.
func BoundariesLayer(doc *domain.Document, srid int) *domain.VectorLayer {
	if len(doc.Boundaries) == 0 {
		return nil
	}
	layer := &domain.VectorLayer{
		Name:         "boundaries",
		GeometryType: domain.GeomPolygon,
		SRID:         srid,
		Fields: []domain.Field{
			{Name: "surface", Type: domain.FieldText},
			{Name: "bnd_type", Type: domain.FieldText},
		},
	}
	for i := range doc.Boundaries {
		b := &doc.Boundaries[i]
		layer.Features = append(layer.Features, domain.Feature{
			Geometry: domain.NewPolygonGeometry([][]domain.Coordinate{b.Ring}),
			Properties: map[string]any{
				"surface":  b.Surface,
				"bnd_type": b.Type,
			},
		})
	}
	return layer
}

// FacesLayer assembles the TIN triangle layer.
func FacesLayer(doc *domain.Document, srid int) (*domain.VectorLayer, error) {
	features, err := AssembleFaces(doc)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, nil
	}
	return &domain.VectorLayer{
		Name:         "faces",
		GeometryType: domain.GeomPolygon,
		SRID:         srid,
		Fields: []domain.Field{
			{Name: "face_id", Type: domain.FieldInteger},
			{Name: "surface", Type: domain.FieldText},
		},
		Features: features,
	}, nil
}

// BuildLayers assembles all layers of a document in a fixed order:
// points (single or per code), breaklines, lines, then surface layers
// when requested.
func BuildLayers(doc *domain.Document, srid int, perCode, surfaces bool) ([]domain.VectorLayer, error) {
	var layers []domain.VectorLayer

	if perCode {
		layers = append(layers, PerCodePointLayers(doc, srid)...)
	} else if l := PointsLayer(doc, srid); l != nil {
		layers = append(layers, *l)
	}

	bl, err := BreaklinesLayer(doc, srid)
	if err != nil {
		return nil, err
	}
	if bl != nil {
		layers = append(layers, *bl)
	}

	if l := LinesLayer(doc, srid); l != nil {
		layers = append(layers, *l)
	}

	if surfaces {
		fl, err := FacesLayer(doc, srid)
		if err != nil {
			return nil, err
		}
		if fl != nil {
			layers = append(layers, *fl)
		}
		if l := BoundariesLayer(doc, srid); l != nil {
			layers = append(layers, *l)
		}
	}
	return layers, nil
}
