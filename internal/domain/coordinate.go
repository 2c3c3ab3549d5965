// Package domain contains the core business entities and value objects.
package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a single vertex with an optional elevation.
//
// HasZ distinguishes "elevation is zero" from "elevation is unknown":
// a coordinate without Z must be treated as 2D downstream, never as Z=0.
type Coordinate struct {
	X    float64 // Easting
	Y    float64 // Northing
	Z    float64 // Elevation, only meaningful when HasZ is true
	HasZ bool
}

// NewCoordinate creates a 2D coordinate.
func NewCoordinate(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

// NewCoordinateZ creates a 3D coordinate.
func NewCoordinateZ(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, HasZ: true}
}

// String returns a string representation of the coordinate.
func (c Coordinate) String() string {
	if c.HasZ {
		return fmt.Sprintf("(%f %f %f)", c.X, c.Y, c.Z)
	}
	return fmt.Sprintf("(%f %f)", c.X, c.Y)
}

// Projection represents a coordinate reference system.
type Projection struct {
	SRID int    // EPSG Code
	Name string // Human-readable name
}

// Common SRID constants.
const (
	SRIDUndefined    = 0     // No CRS recorded
	SRIDWGS84        = 4326  // WGS 84
	SRIDETRS89UTM32N = 25832 // ETRS89 / UTM zone 32N
	SRIDETRS89UTM33N = 25833 // ETRS89 / UTM zone 33N
	SRIDDHDN3GK2     = 31466 // DHDN / Gauß-Krüger zone 2
	SRIDDHDN3GK3     = 31467 // DHDN / Gauß-Krüger zone 3
)

// CommonProjections contains frequently used projections.
var CommonProjections = map[int]Projection{
	SRIDWGS84:        {SRID: SRIDWGS84, Name: "WGS 84"},
	SRIDETRS89UTM32N: {SRID: SRIDETRS89UTM32N, Name: "ETRS89 / UTM zone 32N"},
	SRIDETRS89UTM33N: {SRID: SRIDETRS89UTM33N, Name: "ETRS89 / UTM zone 33N"},
	SRIDDHDN3GK2:     {SRID: SRIDDHDN3GK2, Name: "DHDN / Gauß-Krüger zone 2"},
	SRIDDHDN3GK3:     {SRID: SRIDDHDN3GK3, Name: "DHDN / Gauß-Krüger zone 3"},
}

// IsKnownSRID returns true if the SRID is in the common projections list.
func IsKnownSRID(srid int) bool {
	_, ok := CommonProjections[srid]
	return ok
}

// Extent represents a spatial bounding box.
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// ExtentOf computes the bounding box of a set of coordinates.
// The second return value is false when the set is empty.
func ExtentOf(coords []Coordinate) (Extent, bool) {
	if len(coords) == 0 {
		return Extent{}, false
	}
	e := Extent{
		MinX: coords[0].X, MaxX: coords[0].X,
		MinY: coords[0].Y, MaxY: coords[0].Y,
	}
	for _, c := range coords[1:] {
		e = e.Include(c)
	}
	return e, true
}

// Include returns the extent expanded to cover the coordinate.
func (e Extent) Include(c Coordinate) Extent {
	return Extent{
		MinX: math.Min(e.MinX, c.X),
		MinY: math.Min(e.MinY, c.Y),
		MaxX: math.Max(e.MaxX, c.X),
		MaxY: math.Max(e.MaxY, c.Y),
	}
}

// Union returns the smallest extent covering both extents.
func (e Extent) Union(other Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, other.MinX),
		MinY: math.Min(e.MinY, other.MinY),
		MaxX: math.Max(e.MaxX, other.MaxX),
		MaxY: math.Max(e.MaxY, other.MaxY),
	}
}

// Contains checks if a coordinate is within the extent.
func (e Extent) Contains(c Coordinate) bool {
	return c.X >= e.MinX && c.X <= e.MaxX && c.Y >= e.MinY && c.Y <= e.MaxY
}

// IsValid checks if the extent has valid dimensions.
func (e Extent) IsValid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Width returns the width of the extent.
func (e Extent) Width() float64 {
	return math.Abs(e.MaxX - e.MinX)
}

// Height returns the height of the extent.
func (e Extent) Height() float64 {
	return math.Abs(e.MaxY - e.MinY)
}
