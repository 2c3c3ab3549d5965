package domain

import "strings"

// SurveyPoint is one surveyed point from a source document.
// The id is source-defined and unique within a single document.
type SurveyPoint struct {
	ID    string
	Coord Coordinate
	Code  string            // Full code as authored
	Desc  string            // Free-text description
	Props map[string]string // Feature properties attached via featureRef
}

// CodeBase returns the code up to the first space.
func (p *SurveyPoint) CodeBase() string {
	base, _ := SplitCode(p.Code)
	return base
}

// CodeSuffix returns the code portion after the first space.
func (p *SurveyPoint) CodeSuffix() string {
	_, suffix := SplitCode(p.Code)
	return suffix
}

// SplitCode splits a point code at the first space into base and suffix.
func SplitCode(code string) (base, suffix string) {
	s := strings.TrimSpace(code)
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// Breakline is a linear survey feature. It is defined either by ordered
// point-id references (PointIDs, at least two, each resolving in the
// document's point collection) or by inline coordinates (Coords) when the
// source carries literal vertex lists. Exactly one of the two is set.
type Breakline struct {
	Name     string
	Desc     string
	PointIDs []string
	Coords   []Coordinate
}

// Face is one triangle of a TIN surface, referencing three distinct
// point ids. Winding is preserved as authored.
type Face struct {
	Surface string
	P1      string
	P2      string
	P3      string
}

// IDs returns the three point references in authored order.
func (f Face) IDs() [3]string {
	return [3]string{f.P1, f.P2, f.P3}
}

// Distinct reports whether the three point ids are pairwise distinct.
func (f Face) Distinct() bool {
	return f.P1 != f.P2 && f.P2 != f.P3 && f.P1 != f.P3
}

// LineWork is a generic linear feature from the source document
// (plan feature or alignment), carried as literal coordinate parts.
type LineWork struct {
	Kind  string // "PlanFeature" or "Alignment"
	Name  string
	Desc  string
	Parts [][]Coordinate
}

// Boundary is one surface boundary ring.
type Boundary struct {
	Surface string
	Type    string // "outer" or "inner"
	Ring    []Coordinate
}

// Document holds the parsed content of one source document. The point
// collection spans the whole document: CgPoints and surface definition
// points share one id namespace.
type Document struct {
	SRID       int // EPSG code from the document, SRIDUndefined if absent
	Points     []SurveyPoint
	Breaklines []Breakline
	Lines      []LineWork
	Faces      []Face
	Boundaries []Boundary

	index map[string]int
}

// Point returns a point by id.
func (d *Document) Point(id string) (*SurveyPoint, bool) {
	if d.index == nil {
		d.reindex()
	}
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return &d.Points[i], true
}

// AddPoint appends a point. The second return value is false when the id
// is already present; the point is not added in that case.
func (d *Document) AddPoint(p SurveyPoint) bool {
	if d.index == nil {
		d.reindex()
	}
	if _, exists := d.index[p.ID]; exists {
		return false
	}
	d.index[p.ID] = len(d.Points)
	d.Points = append(d.Points, p)
	return true
}

func (d *Document) reindex() {
	d.index = make(map[string]int, len(d.Points))
	for i := range d.Points {
		d.index[d.Points[i].ID] = i
	}
}

// IsEmpty reports whether the document carries no features at all.
func (d *Document) IsEmpty() bool {
	return len(d.Points) == 0 && len(d.Breaklines) == 0 &&
		len(d.Lines) == 0 && len(d.Faces) == 0 && len(d.Boundaries) == 0
}
