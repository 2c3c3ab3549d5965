package application

import (
	"strconv"

	"github.com/jobrunner/mensura/internal/domain"
)

// AssembleFaces resolves the document's TIN faces into closed triangle
// polygons. Every face must reference three distinct, resolvable point
// ids; the first violation aborts the whole assembly. Triangle order and
// vertex winding follow the source document, so assembling twice yields
// identical output.
func AssembleFaces(doc *domain.Document) ([]domain.Feature, error) {
	if len(doc.Faces) == 0 {
		return nil, nil
	}

	features := make([]domain.Feature, 0, len(doc.Faces))
	for i := range doc.Faces {
		face := &doc.Faces[i]
		owner := strconv.Itoa(i + 1)

		if !face.Distinct() {
			return nil, &domain.ReferenceError{
				Kind:   "face",
				Owner:  owner,
				Reason: "vertices are not distinct",
			}
		}

		ring := make([]domain.Coordinate, 0, 4)
		for _, id := range face.IDs() {
			pt, ok := doc.Point(id)
			if !ok {
				return nil, &domain.ReferenceError{Kind: "face", Owner: owner, PointID: id}
			}
			ring = append(ring, pt.Coord)
		}
		ring = append(ring, ring[0])

		features = append(features, domain.Feature{
			Geometry: domain.NewPolygonGeometry([][]domain.Coordinate{ring}),
			Properties: map[string]any{
				"face_id": int64(i + 1),
				"surface": face.Surface,
			},
		})
	}
	return features, nil
}

// ResolveBreakline materializes a breakline's vertex sequence. Reference
// form breaklines resolve through the point collection; inline form
// breaklines carry their vertices already.
func ResolveBreakline(doc *domain.Document, bl *domain.Breakline) ([]domain.Coordinate, error) {
	if len(bl.Coords) > 0 {
		return bl.Coords, nil
	}
	coords := make([]domain.Coordinate, 0, len(bl.PointIDs))
	for _, id := range bl.PointIDs {
		pt, ok := doc.Point(id)
		if !ok {
			return nil, &domain.ReferenceError{Kind: "breakline", Owner: bl.Name, PointID: id}
		}
		coords = append(coords, pt.Coord)
	}
	return coords, nil
}
