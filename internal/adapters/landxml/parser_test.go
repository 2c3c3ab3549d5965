package landxml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jobrunner/mensura/internal/domain"
)

const surveyDoc = `<?xml version="1.0"?>
<LandXML xmlns="http://www.landxml.org/schema/LandXML-1.2">
  <CoordinateSystem epsgCode="25832" name="ETRS89 / UTM 32N"/>
  <CgPoints>
    <Feature code="GP">
      <Property label="marker type" value="bolt"/>
    </Feature>
    <CgPoint name="1" code="GP 1" desc="corner" featureRef="GP">100.0 10.0 50.1</CgPoint>
    <CgPoint name="2" code="GP">100.0 20.0 50.2</CgPoint>
    <CgPoint name="3" code="KS">110.0 20.0 50.3</CgPoint>
    <CgPoint name="4">110.0 10.0 50.4</CgPoint>
  </CgPoints>
  <Surfaces>
    <Surface name="DGM">
      <SourceData>
        <Breaklines>
          <Breakline name="BL1">
            <PntRefs>1 2 3</PntRefs>
          </Breakline>
        </Breaklines>
      </SourceData>
      <Definition surfType="TIN">
        <Faces>
          <F>1 2 3</F>
          <F>2 3 4</F>
        </Faces>
      </Definition>
    </Surface>
  </Surfaces>
</LandXML>`

func parseString(t *testing.T, doc string, opts Options) *domain.Document {
	t.Helper()
	parsed, err := NewParser(opts).Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return parsed
}

func TestParseSurveyDocument(t *testing.T) {
	doc := parseString(t, surveyDoc, Options{SwapXY: false})

	if doc.SRID != 25832 {
		t.Errorf("SRID = %d, want 25832", doc.SRID)
	}
	if got := len(doc.Points); got != 4 {
		t.Fatalf("points = %d, want 4", got)
	}
	if got := len(doc.Breaklines); got != 1 {
		t.Fatalf("breaklines = %d, want 1", got)
	}
	if got := len(doc.Faces); got != 2 {
		t.Fatalf("faces = %d, want 2", got)
	}

	bl := doc.Breaklines[0]
	wantRefs := []string{"1", "2", "3"}
	if len(bl.PointIDs) != len(wantRefs) {
		t.Fatalf("breakline refs = %v, want %v", bl.PointIDs, wantRefs)
	}
	for i, ref := range wantRefs {
		if bl.PointIDs[i] != ref {
			t.Errorf("breakline ref[%d] = %q, want %q (order must be preserved)", i, bl.PointIDs[i], ref)
		}
	}

	p1, ok := doc.Point("1")
	if !ok {
		t.Fatal("point 1 not found")
	}
	if p1.Coord.X != 100.0 || p1.Coord.Y != 10.0 {
		t.Errorf("point 1 = (%v, %v), want (100, 10)", p1.Coord.X, p1.Coord.Y)
	}
	if !p1.Coord.HasZ || p1.Coord.Z != 50.1 {
		t.Errorf("point 1 Z = %+v, want 50.1 copied verbatim", p1.Coord)
	}
	if p1.Code != "GP 1" {
		t.Errorf("point 1 code = %q, want %q", p1.Code, "GP 1")
	}
	if p1.Props["marker type"] != "bolt" {
		t.Errorf("point 1 props = %v, want marker type=bolt from featureRef", p1.Props)
	}

	face := doc.Faces[0]
	if face.P1 != "1" || face.P2 != "2" || face.P3 != "3" {
		t.Errorf("face 0 = %v, want (1,2,3) winding preserved", face.IDs())
	}
}

func TestParseSwapXY(t *testing.T) {
	doc := parseString(t, surveyDoc, Options{SwapXY: true})

	p1, ok := doc.Point("1")
	if !ok {
		t.Fatal("point 1 not found")
	}
	// Source order is northing easting; swapped, easting becomes X.
	if p1.Coord.X != 10.0 || p1.Coord.Y != 100.0 {
		t.Errorf("point 1 = (%v, %v), want (10, 100)", p1.Coord.X, p1.Coord.Y)
	}
}

func TestParseMissingZ(t *testing.T) {
	const doc = `<LandXML>
  <CgPoints>
    <CgPoint name="1">100.0 10.0</CgPoint>
  </CgPoints>
</LandXML>`

	parsed := parseString(t, doc, Options{SwapXY: false})
	p, ok := parsed.Point("1")
	if !ok {
		t.Fatal("point 1 not found")
	}
	if p.Coord.HasZ {
		t.Error("absent Z must be marked unknown, not zero")
	}
}

func TestParseDuplicatePointID(t *testing.T) {
	const doc = `<LandXML>
  <CgPoints>
    <CgPoint name="7">1 2 3</CgPoint>
    <CgPoint name="7">4 5 6</CgPoint>
  </CgPoints>
</LandXML>`

	_, err := NewParser(Options{}).Parse(strings.NewReader(doc))
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse() error = %v, want ParseError", err)
	}
	if parseErr.ID != "7" {
		t.Errorf("ParseError.ID = %q, want offending id %q", parseErr.ID, "7")
	}
}

func TestParseDuplicateAcrossSections(t *testing.T) {
	// CgPoints and surface definition points share one id namespace.
	const doc = `<LandXML>
  <CgPoints>
    <CgPoint name="1">1 2 3</CgPoint>
  </CgPoints>
  <Surfaces>
    <Surface name="S">
      <Definition surfType="TIN">
        <Pnts>
          <P id="1">1 2 3</P>
        </Pnts>
      </Definition>
    </Surface>
  </Surfaces>
</LandXML>`

	_, err := NewParser(Options{}).Parse(strings.NewReader(doc))
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse() error = %v, want ParseError", err)
	}
	if parseErr.Element != "P" || parseErr.ID != "1" {
		t.Errorf("ParseError = %+v, want element P, id 1", parseErr)
	}
}

func TestParseDanglingBreaklineReference(t *testing.T) {
	const doc = `<LandXML>
  <CgPoints>
    <CgPoint name="1">1 2 3</CgPoint>
  </CgPoints>
  <Surfaces>
    <Surface name="S">
      <SourceData>
        <Breaklines>
          <Breakline name="BL1">
            <PntRefs>1 99</PntRefs>
          </Breakline>
        </Breaklines>
      </SourceData>
    </Surface>
  </Surfaces>
</LandXML>`

	_, err := NewParser(Options{}).Parse(strings.NewReader(doc))
	var refErr *domain.ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("Parse() error = %v, want ReferenceError", err)
	}
	if refErr.PointID != "99" {
		t.Errorf("ReferenceError.PointID = %q, want %q", refErr.PointID, "99")
	}
}

func TestParseBreaklineVertexList(t *testing.T) {
	const doc = `<LandXML>
  <Surfaces>
    <Surface name="S">
      <SourceData>
        <Breaklines>
          <Breakline name="BL1">
            <PntList3D>1 2 3 4 5 6 7 8 9</PntList3D>
          </Breakline>
        </Breaklines>
      </SourceData>
    </Surface>
  </Surfaces>
</LandXML>`

	parsed := parseString(t, doc, Options{SwapXY: false})
	if len(parsed.Breaklines) != 1 {
		t.Fatalf("breaklines = %d, want 1", len(parsed.Breaklines))
	}
	bl := parsed.Breaklines[0]
	if len(bl.Coords) != 3 {
		t.Fatalf("breakline vertices = %d, want 3", len(bl.Coords))
	}
	if !bl.Coords[1].HasZ || bl.Coords[1].Z != 6 {
		t.Errorf("vertex 1 = %+v, want Z=6", bl.Coords[1])
	}
}

func TestParseSurfacePointsAndFaceAttrs(t *testing.T) {
	const doc = `<LandXML>
  <Surfaces>
    <Surface name="S">
      <Definition surfType="TIN">
        <Pnts>
          <P id="10">1 2 3</P>
          <P id="11">4 5 6</P>
          <P id="12">7 8 9</P>
        </Pnts>
        <Faces>
          <F p1="10" p2="11" p3="12"/>
        </Faces>
      </Definition>
    </Surface>
  </Surfaces>
</LandXML>`

	parsed := parseString(t, doc, Options{SwapXY: false})
	if len(parsed.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(parsed.Points))
	}
	if len(parsed.Faces) != 1 {
		t.Fatalf("faces = %d, want 1", len(parsed.Faces))
	}
	if got := parsed.Faces[0].IDs(); got != [3]string{"10", "11", "12"} {
		t.Errorf("face ids = %v, want attribute form (10,11,12)", got)
	}
}

func TestParseMalformedXML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"truncated", `<LandXML><CgPoints>`},
		{"bad ordinate", `<LandXML><CgPoints><CgPoint name="1">1 abc</CgPoint></CgPoints></LandXML>`},
		{"too few ordinates", `<LandXML><CgPoints><CgPoint name="1">42</CgPoint></CgPoints></LandXML>`},
		{"face with two refs", `<LandXML><Surfaces><Surface><Definition><Faces><F>1 2</F></Faces></Definition></Surface></Surfaces></LandXML>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(Options{}).Parse(strings.NewReader(tt.doc))
			var parseErr *domain.ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Parse() error = %v, want ParseError", err)
			}
		})
	}
}

func TestParseLineWork(t *testing.T) {
	const doc = `<LandXML>
  <CgPoints>
    <CgPoint name="1">0 0 1</CgPoint>
    <CgPoint name="2">10 10 2</CgPoint>
  </CgPoints>
  <PlanFeatures>
    <PlanFeature name="fence" desc="site fence">
      <CoordGeom>
        <Line>
          <Start>1</Start>
          <End>2</End>
        </Line>
      </CoordGeom>
    </PlanFeature>
  </PlanFeatures>
  <Alignments>
    <Alignment name="axis">
      <CoordGeom>
        <Line>
          <Start>0.0 0.0</Start>
          <End>5.0 5.0</End>
        </Line>
      </CoordGeom>
    </Alignment>
  </Alignments>
</LandXML>`

	parsed := parseString(t, doc, Options{SwapXY: false})
	if len(parsed.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(parsed.Lines))
	}

	pf := parsed.Lines[0]
	if pf.Kind != "PlanFeature" || pf.Name != "fence" {
		t.Errorf("line 0 = %s %q, want PlanFeature fence", pf.Kind, pf.Name)
	}
	if len(pf.Parts) != 1 || len(pf.Parts[0]) != 2 {
		t.Fatalf("line 0 parts = %v, want one 2-vertex part", pf.Parts)
	}
	// Point-id endpoints resolve to CgPoint coordinates.
	if pf.Parts[0][1].X != 10 || !pf.Parts[0][1].HasZ {
		t.Errorf("line 0 end = %+v, want resolved point 2 with Z", pf.Parts[0][1])
	}

	al := parsed.Lines[1]
	if al.Kind != "Alignment" {
		t.Errorf("line 1 kind = %q, want Alignment", al.Kind)
	}
	if al.Parts[0][0].HasZ {
		t.Error("2D alignment endpoint should have unknown Z")
	}
}

func TestParseBoundaries(t *testing.T) {
	const doc = `<LandXML>
  <Surfaces>
    <Surface name="S">
      <SourceData>
        <Boundaries>
          <Boundary bndType="outer">
            <PntList2D>0 0 10 0 10 10 0 10</PntList2D>
          </Boundary>
        </Boundaries>
      </SourceData>
    </Surface>
  </Surfaces>
</LandXML>`

	parsed := parseString(t, doc, Options{SwapXY: false})
	if len(parsed.Boundaries) != 1 {
		t.Fatalf("boundaries = %d, want 1", len(parsed.Boundaries))
	}
	b := parsed.Boundaries[0]
	if b.Type != "outer" {
		t.Errorf("boundary type = %q, want outer", b.Type)
	}
	if len(b.Ring) != 5 || b.Ring[0] != b.Ring[4] {
		t.Errorf("boundary ring = %v, want closed 5-vertex ring", b.Ring)
	}
}

func TestParseSubsetOnly(t *testing.T) {
	// A document may contain any subset of the three sections.
	const doc = `<LandXML>
  <CgPoints>
    <CgPoint name="1">1 2</CgPoint>
  </CgPoints>
</LandXML>`

	parsed := parseString(t, doc, Options{})
	if len(parsed.Points) != 1 || len(parsed.Breaklines) != 0 || len(parsed.Faces) != 0 {
		t.Errorf("subset parse = %d/%d/%d points/breaklines/faces, want 1/0/0",
			len(parsed.Points), len(parsed.Breaklines), len(parsed.Faces))
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.xml")
	if err := os.WriteFile(path, []byte(surveyDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	parser := NewParser(Options{SwapXY: false})
	doc, err := parser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(doc.Points) != 4 {
		t.Errorf("points = %d, want 4", len(doc.Points))
	}

	if _, err := parser.Read(context.Background(), filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("Read() of a missing file should fail")
	}
}

func TestExtensions(t *testing.T) {
	exts := NewParser(DefaultOptions()).Extensions()
	want := map[string]bool{".xml": true, ".landxml": true}
	for _, ext := range exts {
		if !want[ext] {
			t.Errorf("unexpected extension %q", ext)
		}
		delete(want, ext)
	}
	if len(want) != 0 {
		t.Errorf("missing extensions: %v", want)
	}
}
