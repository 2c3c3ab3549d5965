// Package geopackage writes vector layers to GeoPackage files using the
// sqlite3 driver directly, without an external spatial library.
package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/jobrunner/mensura/internal/domain"
)

// GeoPackage file identification pragmas ("GPKG", spec version 1.3).
const (
	applicationID = 0x47504B47
	userVersion   = 10300
)

// Writer implements the LayerWriter port. Exports are all-or-nothing:
// a half-written file is never left behind, and an existing file is
// never overwritten.
type Writer struct{}

// NewWriter creates a GeoPackage writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Export writes all layers to a new GeoPackage at path. The target file
// must not exist; collision-free naming is the caller's concern. On any
// failure the partial file is removed and an ExportError returned.
func (w *Writer) Export(ctx context.Context, path string, layers []domain.VectorLayer) error {
	if len(layers) == 0 {
		return domain.ErrNoLayers
	}

	if _, err := os.Stat(path); err == nil {
		return &domain.ExportError{Path: path, Err: fmt.Errorf("file exists: %w", domain.ErrConflict)}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &domain.ExportError{Path: path, Err: err}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_fk=1", path))
	if err != nil {
		return &domain.ExportError{Path: path, Err: err}
	}

	fail := func(layer string, err error) error {
		_ = db.Close()
		_ = os.Remove(path)
		return &domain.ExportError{Path: path, Layer: layer, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		return fail("", err)
	}
	for _, pragma := range []string{
		fmt.Sprintf("PRAGMA application_id = %d", applicationID),
		fmt.Sprintf("PRAGMA user_version = %d", userVersion),
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fail("", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail("", err)
	}

	if err := createCoreTables(ctx, tx); err != nil {
		_ = tx.Rollback()
		return fail("", err)
	}
	if err := insertSpatialRefSystems(ctx, tx, layers); err != nil {
		_ = tx.Rollback()
		return fail("", err)
	}

	for i := range layers {
		if err := writeLayer(ctx, tx, &layers[i]); err != nil {
			_ = tx.Rollback()
			return fail(layers[i].Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fail("", err)
	}
	return db.Close()
}

func createCoreTables(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE,
			max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
			CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
			CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE gpkg_extensions (
			table_name TEXT,
			column_name TEXT,
			extension_name TEXT NOT NULL,
			definition TEXT NOT NULL,
			scope TEXT NOT NULL,
			CONSTRAINT ge_tce UNIQUE (table_name, column_name, extension_name)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating core tables: %w", err)
		}
	}
	return nil
}

const wgs84Definition = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

// insertSpatialRefSystems writes the three mandatory srs rows plus one
// row per distinct layer SRID. Definitions are carried as pass-through
// EPSG references; no reprojection happens on export.
func insertSpatialRefSystems(ctx context.Context, tx *sql.Tx, layers []domain.VectorLayer) error {
	const insert = `INSERT OR IGNORE INTO gpkg_spatial_ref_sys
		(srs_name, srs_id, organization, organization_coordsys_id, definition)
		VALUES (?, ?, ?, ?, ?)`

	rows := [][]any{
		{"Undefined Cartesian SRS", -1, "NONE", -1, "undefined"},
		{"Undefined Geographic SRS", 0, "NONE", 0, "undefined"},
		{"WGS 84", domain.SRIDWGS84, "EPSG", domain.SRIDWGS84, wgs84Definition},
	}
	seen := map[int]bool{-1: true, 0: true, domain.SRIDWGS84: true}
	for i := range layers {
		srid := layers[i].SRID
		if seen[srid] {
			continue
		}
		seen[srid] = true
		name := fmt.Sprintf("EPSG:%d", srid)
		if proj, ok := domain.CommonProjections[srid]; ok {
			name = proj.Name
		}
		rows = append(rows, []any{name, srid, "EPSG", srid, "undefined"})
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, row...); err != nil {
			return fmt.Errorf("writing spatial_ref_sys: %w", err)
		}
	}
	return nil
}

func writeLayer(ctx context.Context, tx *sql.Tx, layer *domain.VectorLayer) error {
	hasZ := layer.HasZ()

	cols := []string{
		"fid INTEGER PRIMARY KEY AUTOINCREMENT",
		fmt.Sprintf("%s BLOB", quoteIdent(layer.GeometryColumn)),
	}
	for _, f := range layer.Fields {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(f.Name), f.Type.SQLType()))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(layer.Name), strings.Join(cols, ", ")) //#nosec G201 -- identifiers sanitized by the normalizer
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating feature table: %w", err)
	}

	if err := registerLayer(ctx, tx, layer, hasZ); err != nil {
		return err
	}

	fids, err := insertFeatures(ctx, tx, layer, hasZ)
	if err != nil {
		return err
	}

	if layer.SpatialIndex {
		if err := createSpatialIndex(ctx, tx, layer, fids); err != nil {
			return err
		}
	}
	return nil
}

func registerLayer(ctx context.Context, tx *sql.Tx, layer *domain.VectorLayer, hasZ bool) error {
	var minX, minY, maxX, maxY any
	if ext, ok := layer.Extent(); ok {
		minX, minY, maxX, maxY = ext.MinX, ext.MinY, ext.MaxX, ext.MaxY
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO gpkg_contents
		(table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
		VALUES (?, 'features', ?, ?, ?, ?, ?, ?)`,
		layer.Name, layer.Name, minX, minY, maxX, maxY, layer.SRID)
	if err != nil {
		return fmt.Errorf("registering contents: %w", err)
	}

	z := 0
	if hasZ {
		z = 1
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO gpkg_geometry_columns
		(table_name, column_name, geometry_type_name, srs_id, z, m)
		VALUES (?, ?, ?, ?, ?, 0)`,
		layer.Name, layer.GeometryColumn, string(layer.GeometryType), layer.SRID, z)
	if err != nil {
		return fmt.Errorf("registering geometry column: %w", err)
	}
	return nil
}

func insertFeatures(ctx context.Context, tx *sql.Tx, layer *domain.VectorLayer, hasZ bool) ([]int64, error) {
	placeholders := make([]string, 0, len(layer.Fields)+1)
	names := []string{quoteIdent(layer.GeometryColumn)}
	placeholders = append(placeholders, "?")
	for _, f := range layer.Fields {
		names = append(names, quoteIdent(f.Name))
		placeholders = append(placeholders, "?")
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", //#nosec G201 -- identifiers sanitized by the normalizer
		quoteIdent(layer.Name), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stmt.Close() }()

	fids := make([]int64, 0, len(layer.Features))
	for i := range layer.Features {
		feat := &layer.Features[i]
		blob, err := encodeGeometry(feat.Geometry, layer.SRID, hasZ)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		args := make([]any, 0, len(layer.Fields)+1)
		args = append(args, blob)
		for _, f := range layer.Fields {
			if v, ok := feat.GetProperty(f.Name); ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		fid, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		fids = append(fids, fid)
	}
	return fids, nil
}

// createSpatialIndex creates the rtree virtual table directly and
// registers the gpkg_rtree_index extension for it.
func createSpatialIndex(ctx context.Context, tx *sql.Tx, layer *domain.VectorLayer, fids []int64) error {
	indexTable := rtreeName(layer.Name, layer.GeometryColumn)

	create := fmt.Sprintf("CREATE VIRTUAL TABLE %s USING rtree(id, minx, maxx, miny, maxy)", //#nosec G201 -- identifiers sanitized by the normalizer
		quoteIdent(indexTable))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating rtree table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (id, minx, maxx, miny, maxy) VALUES (?, ?, ?, ?, ?)", //#nosec G201
		quoteIdent(indexTable))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := range layer.Features {
		ext, ok := layer.Features[i].Geometry.Extent()
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, fids[i], ext.MinX, ext.MaxX, ext.MinY, ext.MaxY); err != nil {
			return fmt.Errorf("populating rtree index: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO gpkg_extensions
		(table_name, column_name, extension_name, definition, scope)
		VALUES (?, ?, 'gpkg_rtree_index', 'http://www.geopackage.org/spec/#extension_rtree', 'write-only')`,
		layer.Name, layer.GeometryColumn)
	if err != nil {
		return fmt.Errorf("registering rtree extension: %w", err)
	}
	return nil
}

func rtreeName(table, column string) string {
	return fmt.Sprintf("rtree_%s_%s", table, column)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
