// Package landxml provides the LandXML document reader.
package landxml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jobrunner/mensura/internal/domain"
)

var errDuplicatePointID = errors.New("duplicate point id")

// Options controls parsing behavior.
type Options struct {
	// SwapXY maps northing-first ordinate pairs to (X, Y). LandXML
	// point lists are conventionally northing easting [elevation].
	SwapXY bool
}

// DefaultOptions returns the options matching common field-collector
// output (northing first).
func DefaultOptions() Options {
	return Options{SwapXY: true}
}

// Parser reads LandXML documents into the survey model.
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Extensions implements output.DocumentReader.
func (p *Parser) Extensions() []string {
	return []string{".xml", ".landxml"}
}

// Read implements output.DocumentReader.
func (p *Parser) Read(_ context.Context, path string) (*domain.Document, error) {
	f, err := os.Open(path) //#nosec G304 -- path is a caller-resolved input file
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return p.Parse(f)
}

// Parse decodes one LandXML document. A document may contain any subset
// of points, breaklines, line features and surfaces; Parse is a pure
// read with no side effects.
//
// Duplicate point ids anywhere in the document fail with a ParseError:
// silently overwriting a point would corrupt breakline and face
// references. Breakline point references are validated here; face
// references are validated by the surface assembler, their first
// dereferencing consumer.
func (p *Parser) Parse(r io.Reader) (*domain.Document, error) {
	var raw xmlLandXML
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &domain.ParseError{Element: "LandXML", Err: err}
	}

	doc := &domain.Document{}

	if raw.CoordinateSystem != nil {
		// Pass-through only: a non-numeric epsgCode is treated as absent.
		if epsg, err := strconv.Atoi(strings.TrimSpace(raw.CoordinateSystem.EPSGCode)); err == nil {
			doc.SRID = epsg
		}
	}

	featureProps := collectFeatureProps(raw.CgPoints)

	if raw.CgPoints != nil {
		for _, cp := range raw.CgPoints.Points {
			if err := p.addCgPoint(doc, cp, featureProps); err != nil {
				return nil, err
			}
		}
	}

	for _, pf := range raw.PlanFeatures {
		p.addLineWork(doc, "PlanFeature", pf.Name, pf.Desc, pf.PntList3D, pf.PntList2D, pf.CoordGeom)
	}
	for _, al := range raw.Alignments {
		p.addLineWork(doc, "Alignment", al.Name, al.Desc, "", "", al.CoordGeom)
	}

	for _, surf := range raw.Surfaces {
		if err := p.addSurface(doc, surf); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func (p *Parser) addCgPoint(doc *domain.Document, cp xmlCgPoint, featureProps map[string]map[string]string) error {
	id := cp.Name
	if id == "" {
		id = cp.ID
	}
	if id == "" {
		return &domain.ParseError{Element: "CgPoint", Err: errors.New("missing point id")}
	}

	coord, err := p.parseOrdinates(strings.TrimSpace(cp.Text))
	if err != nil {
		return &domain.ParseError{Element: "CgPoint", ID: id, Err: err}
	}

	pt := domain.SurveyPoint{
		ID:    id,
		Coord: coord,
		Code:  strings.TrimSpace(cp.Code),
		Desc:  strings.TrimSpace(cp.Desc),
	}
	if props, ok := featureProps[cp.FeatureRef]; ok && cp.FeatureRef != "" {
		pt.Props = props
	}

	if !doc.AddPoint(pt) {
		return &domain.ParseError{Element: "CgPoint", ID: id, Err: errDuplicatePointID}
	}
	return nil
}

func (p *Parser) addSurface(doc *domain.Document, surf xmlSurface) error {
	name := surf.Name
	if name == "" {
		name = surf.Desc
	}
	if name == "" {
		name = "Surface"
	}

	if surf.SourceData != nil {
		for _, bnd := range surf.SourceData.Boundaries {
			ring := p.ringFromLists(bnd.PntList3D, bnd.PntList2D)
			if len(ring) < 3 {
				continue
			}
			doc.Boundaries = append(doc.Boundaries, domain.Boundary{
				Surface: name,
				Type:    bnd.BndType,
				Ring:    ring,
			})
		}
		for _, bl := range surf.SourceData.Breaklines {
			if err := p.addBreakline(doc, bl); err != nil {
				return err
			}
		}
	}

	if surf.Definition == nil {
		return nil
	}

	for _, dp := range surf.Definition.Points {
		if dp.ID == "" {
			return &domain.ParseError{Element: "P", Err: errors.New("missing point id")}
		}
		coord, err := p.parseOrdinates(strings.TrimSpace(dp.Text))
		if err != nil {
			return &domain.ParseError{Element: "P", ID: dp.ID, Err: err}
		}
		if !doc.AddPoint(domain.SurveyPoint{ID: dp.ID, Coord: coord}) {
			return &domain.ParseError{Element: "P", ID: dp.ID, Err: errDuplicatePointID}
		}
	}

	for _, f := range surf.Definition.Faces {
		ids, err := faceIDs(f)
		if err != nil {
			return err
		}
		doc.Faces = append(doc.Faces, domain.Face{
			Surface: name,
			P1:      ids[0],
			P2:      ids[1],
			P3:      ids[2],
		})
	}

	return nil
}

func (p *Parser) addBreakline(doc *domain.Document, bl xmlBreakline) error {
	name := bl.Name
	if name == "" {
		name = fmt.Sprintf("BL_%d", len(doc.Breaklines)+1)
	}

	if refs := strings.Fields(bl.PntRefs); len(refs) > 0 {
		if len(refs) < 2 {
			return &domain.ParseError{Element: "Breakline", ID: name,
				Err: errors.New("fewer than 2 point references")}
		}
		for _, ref := range refs {
			if _, ok := doc.Point(ref); !ok {
				return &domain.ReferenceError{Kind: "breakline", Owner: name, PointID: ref}
			}
		}
		doc.Breaklines = append(doc.Breaklines, domain.Breakline{
			Name:     name,
			Desc:     strings.TrimSpace(bl.Desc),
			PointIDs: refs,
		})
		return nil
	}

	coords := p.lineFromLists(bl.PntList3D, bl.PntList2D)
	if coords == nil {
		return &domain.ParseError{Element: "Breakline", ID: name,
			Err: errors.New("no point references or vertex list")}
	}
	if len(coords) < 2 {
		return &domain.ParseError{Element: "Breakline", ID: name,
			Err: errors.New("fewer than 2 vertices")}
	}
	doc.Breaklines = append(doc.Breaklines, domain.Breakline{
		Name:   name,
		Desc:   strings.TrimSpace(bl.Desc),
		Coords: coords,
	})
	return nil
}

func (p *Parser) addLineWork(doc *domain.Document, kind, name, desc, list3D, list2D string, cg *xmlCoordGeom) {
	var collected [][]domain.Coordinate
	if line := p.lineFromLists(list3D, list2D); len(line) >= 2 {
		collected = append(collected, line)
	}
	if cg != nil {
		for _, ln := range cg.Lines {
			start, okS := p.parseEndpoint(ln.Start, doc)
			end, okE := p.parseEndpoint(ln.End, doc)
			if okS && okE {
				collected = append(collected, []domain.Coordinate{start, end})
			}
		}
	}
	if len(collected) == 0 {
		return
	}
	doc.Lines = append(doc.Lines, domain.LineWork{
		Kind:  kind,
		Name:  name,
		Desc:  strings.TrimSpace(desc),
		Parts: collected,
	})
}

// parseEndpoint reads a <Start>/<End> element holding either literal
// ordinates or a point-id reference.
func (p *Parser) parseEndpoint(text string, doc *domain.Document) (domain.Coordinate, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Coordinate{}, false
	}
	if coord, err := p.parseOrdinates(text); err == nil {
		return coord, true
	}
	tok := strings.Fields(text)[0]
	if pt, ok := doc.Point(tok); ok {
		return pt.Coord, true
	}
	return domain.Coordinate{}, false
}

// parseOrdinates parses "a b [c]" into a coordinate, applying SwapXY.
// The elevation is copied verbatim when present and marked unknown when
// absent.
func (p *Parser) parseOrdinates(text string) (domain.Coordinate, error) {
	vals, err := parseFloats(text)
	if err != nil {
		return domain.Coordinate{}, err
	}
	if len(vals) < 2 {
		return domain.Coordinate{}, fmt.Errorf("expected at least 2 ordinates, got %d", len(vals))
	}
	x, y := vals[0], vals[1]
	if p.opts.SwapXY {
		x, y = y, x
	}
	if len(vals) >= 3 {
		return domain.NewCoordinateZ(x, y, vals[2]), nil
	}
	return domain.NewCoordinate(x, y), nil
}

// lineFromLists parses a PntList3D or PntList2D vertex list, preferring
// the 3D list when both are present.
func (p *Parser) lineFromLists(list3D, list2D string) []domain.Coordinate {
	if s := strings.TrimSpace(list3D); s != "" {
		return p.coordsFromList(s, 3)
	}
	if s := strings.TrimSpace(list2D); s != "" {
		return p.coordsFromList(s, 2)
	}
	return nil
}

func (p *Parser) ringFromLists(list3D, list2D string) []domain.Coordinate {
	ring := p.lineFromLists(list3D, list2D)
	if len(ring) >= 3 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

func (p *Parser) coordsFromList(text string, dims int) []domain.Coordinate {
	vals, err := parseFloats(text)
	if err != nil {
		return nil
	}
	var coords []domain.Coordinate
	for i := 0; i+dims <= len(vals); i += dims {
		x, y := vals[i], vals[i+1]
		if p.opts.SwapXY {
			x, y = y, x
		}
		if dims == 3 {
			coords = append(coords, domain.NewCoordinateZ(x, y, vals[i+2]))
		} else {
			coords = append(coords, domain.NewCoordinate(x, y))
		}
	}
	return coords
}

func faceIDs(f xmlF) ([3]string, error) {
	if f.P1 != "" && f.P2 != "" && f.P3 != "" {
		return [3]string{f.P1, f.P2, f.P3}, nil
	}
	toks := strings.Fields(f.Text)
	if len(toks) < 3 {
		return [3]string{}, &domain.ParseError{Element: "F",
			Err: fmt.Errorf("expected 3 point references, got %d", len(toks))}
	}
	return [3]string{toks[0], toks[1], toks[2]}, nil
}

func collectFeatureProps(cg *xmlCgPoints) map[string]map[string]string {
	props := make(map[string]map[string]string)
	if cg == nil {
		return props
	}
	for _, fe := range cg.Features {
		if fe.Code == "" {
			continue
		}
		m := make(map[string]string, len(fe.Properties))
		for _, pr := range fe.Properties {
			if lbl := strings.TrimSpace(pr.Label); lbl != "" {
				m[lbl] = pr.Value
			}
		}
		props[fe.Code] = m
	}
	return props
}

func parseFloats(text string) ([]float64, error) {
	fields := strings.Fields(text)
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ordinate %q", f)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
