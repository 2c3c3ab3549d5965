package geopackage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jobrunner/mensura/internal/domain"
)

// GeoPackage binary geometry encoding: the standard header (magic "GP",
// version, flags, srs_id, envelope) followed by little-endian ISO WKB.

const (
	wkbPoint      uint32 = 1
	wkbLineString uint32 = 2
	wkbPolygon    uint32 = 3

	// Z-enabled types add 1000 to the base type.
	wkbZOffset uint32 = 1000
)

func wkbType(t domain.GeometryType, hasZ bool) (uint32, error) {
	var base uint32
	switch t {
	case domain.GeomPoint:
		base = wkbPoint
	case domain.GeomLineString:
		base = wkbLineString
	case domain.GeomPolygon:
		base = wkbPolygon
	default:
		return 0, fmt.Errorf("unsupported geometry type %q", t)
	}
	if hasZ {
		base += wkbZOffset
	}
	return base, nil
}

// encodeGeometry encodes one geometry as a GeoPackage binary blob.
// hasZ is a layer-level decision, not a per-geometry one: every blob in
// a table must agree with the declared geometry type.
func encodeGeometry(g domain.Geometry, srid int, hasZ bool) ([]byte, error) {
	if g.IsEmpty() {
		return nil, fmt.Errorf("empty geometry")
	}
	typ, err := wkbType(g.Type, hasZ)
	if err != nil {
		return nil, err
	}
	ext, _ := g.Extent()

	// Header: magic, version 0, flags 0x03 (little-endian, XY envelope),
	// srs_id, then the 4-double envelope.
	buf := make([]byte, 0, 40+wkbSize(g, hasZ))
	buf = append(buf, 'G', 'P', 0, 0x03)
	buf = appendUint32(buf, uint32(int32(srid))) //#nosec G115 -- srs_id is a 32-bit EPSG code
	buf = appendFloat64(buf, ext.MinX)
	buf = appendFloat64(buf, ext.MaxX)
	buf = appendFloat64(buf, ext.MinY)
	buf = appendFloat64(buf, ext.MaxY)

	// WKB body, little-endian byte order.
	buf = append(buf, 1)
	buf = appendUint32(buf, typ)
	switch g.Type {
	case domain.GeomPoint:
		buf = appendVertex(buf, g.Rings[0][0], hasZ)
	case domain.GeomLineString:
		buf = appendRing(buf, g.Rings[0], hasZ)
	case domain.GeomPolygon:
		buf = appendUint32(buf, uint32(len(g.Rings))) //#nosec G115 -- ring count
		for _, ring := range g.Rings {
			buf = appendRing(buf, ring, hasZ)
		}
	}
	return buf, nil
}

func wkbSize(g domain.Geometry, hasZ bool) int {
	dim := 2
	if hasZ {
		dim = 3
	}
	n := 5
	switch g.Type {
	case domain.GeomPoint:
		n += dim * 8
	case domain.GeomLineString:
		n += 4 + len(g.Rings[0])*dim*8
	case domain.GeomPolygon:
		n += 4
		for _, ring := range g.Rings {
			n += 4 + len(ring)*dim*8
		}
	}
	return n
}

func appendRing(buf []byte, ring []domain.Coordinate, hasZ bool) []byte {
	buf = appendUint32(buf, uint32(len(ring))) //#nosec G115 -- vertex count
	for _, c := range ring {
		buf = appendVertex(buf, c, hasZ)
	}
	return buf
}

func appendVertex(buf []byte, c domain.Coordinate, hasZ bool) []byte {
	buf = appendFloat64(buf, c.X)
	buf = appendFloat64(buf, c.Y)
	if hasZ {
		buf = appendFloat64(buf, c.Z)
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendFloat64(buf []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
}

// decodeEnvelope reads the envelope back out of a GeoPackage blob, used
// when appending to keep the rtree index and contents extent current.
func decodeEnvelope(blob []byte) (domain.Extent, bool) {
	if len(blob) < 40 || blob[0] != 'G' || blob[1] != 'P' {
		return domain.Extent{}, false
	}
	envelope := (blob[3] >> 1) & 0x07
	if envelope == 0 {
		return domain.Extent{}, false
	}
	return domain.Extent{
		MinX: math.Float64frombits(binary.LittleEndian.Uint64(blob[8:])),
		MaxX: math.Float64frombits(binary.LittleEndian.Uint64(blob[16:])),
		MinY: math.Float64frombits(binary.LittleEndian.Uint64(blob[24:])),
		MaxY: math.Float64frombits(binary.LittleEndian.Uint64(blob[32:])),
	}, true
}
