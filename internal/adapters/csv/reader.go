// Package csv provides a point-list document reader for delimited
// coordinate files, the common export format of total stations and
// GNSS rovers.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jobrunner/mensura/internal/domain"
)

var errDuplicatePointID = errors.New("duplicate point id")

// column aliases accepted in the header row, lowercased.
var (
	idColumns   = []string{"id", "name", "point", "pt", "nr"}
	xColumns    = []string{"x", "east", "easting", "e"}
	yColumns    = []string{"y", "north", "northing", "n"}
	zColumns    = []string{"z", "elev", "elevation", "height", "h"}
	codeColumns = []string{"code", "feature"}
	descColumns = []string{"desc", "description", "remark"}
)

// Reader parses delimited point files. Files must carry a header row;
// the delimiter is detected from it (comma or semicolon).
type Reader struct{}

// NewReader creates a point-file reader.
func NewReader() *Reader {
	return &Reader{}
}

// Extensions implements output.DocumentReader.
func (r *Reader) Extensions() []string {
	return []string{".csv", ".txt"}
}

// Read implements output.DocumentReader.
func (r *Reader) Read(_ context.Context, path string) (*domain.Document, error) {
	f, err := os.Open(path) //#nosec G304 -- path is a caller-resolved input file
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return r.Parse(f)
}

// Parse reads one point file into a document. Point files carry no
// CRS metadata, so the resulting document has an undefined SRID.
func (r *Reader) Parse(src io.Reader) (*domain.Document, error) {
	buffered := newPeekReader(src)
	cr := csv.NewReader(buffered)
	cr.Comma = detectDelimiter(buffered.peekLine())
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.ParseError{Element: "header", Err: err}
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, &domain.ParseError{Element: "header", Err: err}
	}

	doc := &domain.Document{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ParseError{Element: "record", ID: strconv.Itoa(line), Err: err}
		}
		if err := addRecord(doc, record, cols); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

type columnMap struct {
	id, x, y, z, code, desc int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{id: -1, x: -1, y: -1, z: -1, code: -1, desc: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.id < 0 && contains(idColumns, name):
			cols.id = i
		case cols.x < 0 && contains(xColumns, name):
			cols.x = i
		case cols.y < 0 && contains(yColumns, name):
			cols.y = i
		case cols.z < 0 && contains(zColumns, name):
			cols.z = i
		case cols.code < 0 && contains(codeColumns, name):
			cols.code = i
		case cols.desc < 0 && contains(descColumns, name):
			cols.desc = i
		}
	}
	if cols.id < 0 || cols.x < 0 || cols.y < 0 {
		return cols, fmt.Errorf("header %v lacks id, x or y column", header)
	}
	return cols, nil
}

func addRecord(doc *domain.Document, record []string, cols columnMap) error {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := field(cols.id)
	if id == "" {
		return &domain.ParseError{Element: "record", Err: errors.New("missing point id")}
	}

	x, err := strconv.ParseFloat(field(cols.x), 64)
	if err != nil {
		return &domain.ParseError{Element: "record", ID: id, Err: fmt.Errorf("invalid ordinate %q", field(cols.x))}
	}
	y, err := strconv.ParseFloat(field(cols.y), 64)
	if err != nil {
		return &domain.ParseError{Element: "record", ID: id, Err: fmt.Errorf("invalid ordinate %q", field(cols.y))}
	}

	coord := domain.NewCoordinate(x, y)
	if zs := field(cols.z); zs != "" {
		z, err := strconv.ParseFloat(zs, 64)
		if err != nil {
			return &domain.ParseError{Element: "record", ID: id, Err: fmt.Errorf("invalid ordinate %q", zs)}
		}
		coord = domain.NewCoordinateZ(x, y, z)
	}

	pt := domain.SurveyPoint{
		ID:    id,
		Coord: coord,
		Code:  field(cols.code),
		Desc:  field(cols.desc),
	}
	if !doc.AddPoint(pt) {
		return &domain.ParseError{Element: "record", ID: id, Err: errDuplicatePointID}
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func detectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// peekReader exposes the first line of a stream without consuming it.
type peekReader struct {
	src  io.Reader
	head []byte
	pos  int
}

func newPeekReader(src io.Reader) *peekReader {
	buf := make([]byte, 4096)
	n, _ := io.ReadFull(src, buf)
	return &peekReader{src: src, head: buf[:n]}
}

func (p *peekReader) peekLine() string {
	if i := strings.IndexByte(string(p.head), '\n'); i >= 0 {
		return string(p.head[:i])
	}
	return string(p.head)
}

func (p *peekReader) Read(b []byte) (int, error) {
	if p.pos < len(p.head) {
		n := copy(b, p.head[p.pos:])
		p.pos += n
		return n, nil
	}
	return p.src.Read(b)
}
