package domain

// GeometryType represents the geometry type of a vector layer.
type GeometryType string

// Geometry type constants, matching gpkg_geometry_columns naming.
const (
	GeomPoint      GeometryType = "POINT"
	GeomLineString GeometryType = "LINESTRING"
	GeomPolygon    GeometryType = "POLYGON"
)

// FieldType represents the semantic type of an attribute field.
type FieldType string

// Field type constants.
const (
	FieldInteger FieldType = "integer"
	FieldReal    FieldType = "real"
	FieldText    FieldType = "text"
	FieldDate    FieldType = "date"
)

// SQLType returns the SQLite declared type for the field type.
func (t FieldType) SQLType() string {
	switch t {
	case FieldInteger:
		return "INTEGER"
	case FieldReal:
		return "REAL"
	case FieldDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// WidensTo reports whether a value of this type can be stored in a column
// of the target type without loss. Integer values fit in real columns;
// no other cross-type storage is considered safe.
func (t FieldType) WidensTo(target FieldType) bool {
	if t == target {
		return true
	}
	return t == FieldInteger && target == FieldReal
}

// Field is one attribute column of a vector layer.
type Field struct {
	Name string
	Type FieldType
}

// Geometry represents a single geometry value.
//
// Rings holds one coordinate sequence for points (length 1) and
// linestrings, and one sequence per ring for polygons. Polygon rings are
// stored closed (first vertex repeated at the end).
type Geometry struct {
	Type  GeometryType
	Rings [][]Coordinate
}

// NewPointGeometry creates a point geometry.
func NewPointGeometry(c Coordinate) Geometry {
	return Geometry{Type: GeomPoint, Rings: [][]Coordinate{{c}}}
}

// NewLineGeometry creates a linestring geometry.
func NewLineGeometry(coords []Coordinate) Geometry {
	return Geometry{Type: GeomLineString, Rings: [][]Coordinate{coords}}
}

// NewPolygonGeometry creates a polygon geometry from closed rings.
func NewPolygonGeometry(rings [][]Coordinate) Geometry {
	return Geometry{Type: GeomPolygon, Rings: rings}
}

// HasZ reports whether every vertex of the geometry carries an elevation.
func (g Geometry) HasZ() bool {
	any := false
	for _, ring := range g.Rings {
		for _, c := range ring {
			if !c.HasZ {
				return false
			}
			any = true
		}
	}
	return any
}

// IsEmpty reports whether the geometry has no vertices.
func (g Geometry) IsEmpty() bool {
	for _, ring := range g.Rings {
		if len(ring) > 0 {
			return false
		}
	}
	return true
}

// Extent computes the bounding box of the geometry.
func (g Geometry) Extent() (Extent, bool) {
	var e Extent
	found := false
	for _, ring := range g.Rings {
		re, ok := ExtentOf(ring)
		if !ok {
			continue
		}
		if !found {
			e = re
			found = true
			continue
		}
		e = e.Union(re)
	}
	return e, found
}

// Feature is one geometry value plus its attribute values.
// Absent attributes are represented by missing map keys (written as null).
type Feature struct {
	Geometry   Geometry
	Properties map[string]any
}

// GetProperty returns a property value by key.
func (f *Feature) GetProperty(key string) (any, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

// VectorLayer is an in-memory vector layer: a name, a geometry type, an
// ordered field schema, and a sequence of features. SRID is carried
// verbatim from the source; the layer is never reprojected.
type VectorLayer struct {
	Name           string
	GeometryType   GeometryType
	GeometryColumn string
	SRID           int
	Fields         []Field
	Features       []Feature

	// SpatialIndex marks the layer as requiring a spatial index when
	// exported. Set by the normalizer, honored by the writer.
	SpatialIndex bool
}

// FieldNames returns the field names in declaration order.
func (l *VectorLayer) FieldNames() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// GetField returns a field by name.
func (l *VectorLayer) GetField(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasZ reports whether the layer should be written Z-enabled: every
// feature geometry must carry Z. A single unknown elevation demotes the
// whole layer to 2D rather than inventing a zero.
func (l *VectorLayer) HasZ() bool {
	if len(l.Features) == 0 {
		return false
	}
	for i := range l.Features {
		if !l.Features[i].Geometry.HasZ() {
			return false
		}
	}
	return true
}

// Extent computes the bounding box over all features.
func (l *VectorLayer) Extent() (Extent, bool) {
	var e Extent
	found := false
	for i := range l.Features {
		fe, ok := l.Features[i].Geometry.Extent()
		if !ok {
			continue
		}
		if !found {
			e = fe
			found = true
			continue
		}
		e = e.Union(fe)
	}
	return e, found
}
