package landxml

import "encoding/xml"

// XML mapping for the consumed LandXML subset. Field tags use local
// names only so documents with any LandXML schema version namespace
// decode the same way.

type xmlLandXML struct {
	XMLName          xml.Name             `xml:"LandXML"`
	CoordinateSystem *xmlCoordinateSystem `xml:"CoordinateSystem"`
	CgPoints         *xmlCgPoints         `xml:"CgPoints"`
	PlanFeatures     []xmlPlanFeature     `xml:"PlanFeatures>PlanFeature"`
	Alignments       []xmlAlignment       `xml:"Alignments>Alignment"`
	Surfaces         []xmlSurface         `xml:"Surfaces>Surface"`
}

type xmlCoordinateSystem struct {
	EPSGCode string `xml:"epsgCode,attr"`
	Name     string `xml:"name,attr"`
	Desc     string `xml:"desc,attr"`
}

type xmlCgPoints struct {
	Features []xmlFeatureDef `xml:"Feature"`
	Points   []xmlCgPoint    `xml:"CgPoint"`
}

type xmlFeatureDef struct {
	Code       string        `xml:"code,attr"`
	Properties []xmlProperty `xml:"Property"`
}

type xmlProperty struct {
	Label string `xml:"label,attr"`
	Value string `xml:"value,attr"`
}

type xmlCgPoint struct {
	Name       string `xml:"name,attr"`
	ID         string `xml:"id,attr"`
	Code       string `xml:"code,attr"`
	Desc       string `xml:"desc,attr"`
	FeatureRef string `xml:"featureRef,attr"`
	Text       string `xml:",chardata"`
}

type xmlPlanFeature struct {
	Name      string        `xml:"name,attr"`
	Desc      string        `xml:"desc,attr"`
	PntList3D string        `xml:"PntList3D"`
	PntList2D string        `xml:"PntList2D"`
	CoordGeom *xmlCoordGeom `xml:"CoordGeom"`
}

type xmlAlignment struct {
	Name      string        `xml:"name,attr"`
	Desc      string        `xml:"desc,attr"`
	CoordGeom *xmlCoordGeom `xml:"CoordGeom"`
}

type xmlCoordGeom struct {
	Lines []xmlCoordGeomLine `xml:"Line"`
}

type xmlCoordGeomLine struct {
	Start string `xml:"Start"`
	End   string `xml:"End"`
}

type xmlSurface struct {
	Name       string         `xml:"name,attr"`
	Desc       string         `xml:"desc,attr"`
	SourceData *xmlSourceData `xml:"SourceData"`
	Definition *xmlDefinition `xml:"Definition"`
}

type xmlSourceData struct {
	Boundaries []xmlBoundary  `xml:"Boundaries>Boundary"`
	Breaklines []xmlBreakline `xml:"Breaklines>Breakline"`
}

type xmlBoundary struct {
	BndType   string `xml:"bndType,attr"`
	PntList3D string `xml:"PntList3D"`
	PntList2D string `xml:"PntList2D"`
}

type xmlBreakline struct {
	Name      string `xml:"name,attr"`
	Desc      string `xml:"desc,attr"`
	PntRefs   string `xml:"PntRefs"`
	PntList3D string `xml:"PntList3D"`
	PntList2D string `xml:"PntList2D"`
}

type xmlDefinition struct {
	SurfType string `xml:"surfType,attr"`
	Points   []xmlP `xml:"Pnts>P"`
	Faces    []xmlF `xml:"Faces>F"`
}

type xmlP struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type xmlF struct {
	P1   string `xml:"p1,attr"`
	P2   string `xml:"p2,attr"`
	P3   string `xml:"p3,attr"`
	Text string `xml:",chardata"`
}
