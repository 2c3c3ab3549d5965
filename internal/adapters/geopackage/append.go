package geopackage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jobrunner/mensura/internal/domain"
)

// Append adds features to an existing table in an existing GeoPackage.
// Missing attribute columns are added with ALTER TABLE; a type conflict
// between an incoming field and an existing column aborts the whole
// operation before any schema change is made. The batch is atomic.
func (w *Writer) Append(ctx context.Context, path, table string, schema []domain.Field, features []domain.Feature) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, &domain.ExportError{Path: path, Layer: table, Err: err}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rw&_fk=1", path))
	if err != nil {
		return 0, &domain.ExportError{Path: path, Layer: table, Err: err}
	}
	defer func() { _ = db.Close() }()

	meta, err := readTableMeta(ctx, db, table)
	if err != nil {
		return 0, err
	}

	existing, err := readColumnTypes(ctx, db, table)
	if err != nil {
		return 0, &domain.ExportError{Path: path, Layer: table, Err: err}
	}

	// Validate the full schema before touching the table: a conflict in
	// the last field must not leave columns from the first behind.
	var missing []domain.Field
	for _, f := range schema {
		if f.Name == "fid" || f.Name == meta.geomColumn {
			continue
		}
		et, ok := existing[strings.ToLower(f.Name)]
		if !ok {
			missing = append(missing, f)
			continue
		}
		if !f.Type.WidensTo(et) {
			return 0, &domain.SchemaConflictError{
				Table:    table,
				Field:    f.Name,
				Existing: et,
				Incoming: f.Type,
			}
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.ExportError{Path: path, Layer: table, Err: err}
	}
	fail := func(err error) (int, error) {
		_ = tx.Rollback()
		return 0, &domain.ExportError{Path: path, Layer: table, Err: err}
	}

	for _, f := range missing {
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", //#nosec G201 -- identifiers quoted
			quoteIdent(table), quoteIdent(f.Name), f.Type.SQLType())
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fail(fmt.Errorf("adding column %q: %w", f.Name, err))
		}
	}

	fids, batchExt, extSeen, err := appendFeatures(ctx, tx, table, meta, schema, features)
	if err != nil {
		return fail(err)
	}

	if meta.hasIndex {
		if err := appendIndexRows(ctx, tx, meta, fids, features); err != nil {
			return fail(err)
		}
	}

	if extSeen {
		if err := updateContentsExtent(ctx, tx, table, batchExt); err != nil {
			return fail(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.ExportError{Path: path, Layer: table, Err: err}
	}
	return len(features), nil
}

type tableMeta struct {
	table      string
	geomColumn string
	geomType   domain.GeometryType
	srid       int
	hasZ       bool
	hasIndex   bool
}

func readTableMeta(ctx context.Context, db *sql.DB, table string) (tableMeta, error) {
	meta := tableMeta{table: table}
	var z int
	var typeName string
	err := db.QueryRowContext(ctx, `
		SELECT g.column_name, g.geometry_type_name, g.srs_id, g.z
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON c.table_name = g.table_name
		WHERE c.table_name = ? AND c.data_type = 'features'`, table,
	).Scan(&meta.geomColumn, &typeName, &meta.srid, &z)
	if err == sql.ErrNoRows {
		return meta, fmt.Errorf("%q: %w", table, domain.ErrTableNotFound)
	}
	if err != nil {
		return meta, err
	}
	meta.geomType = domain.GeometryType(strings.ToUpper(typeName))
	meta.hasZ = z == 1

	var count int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		rtreeName(table, meta.geomColumn),
	).Scan(&count)
	if err != nil {
		return meta, err
	}
	meta.hasIndex = count > 0
	return meta, nil
}

// readColumnTypes introspects the table's declared column types.
func readColumnTypes(ctx context.Context, db *sql.DB, table string) (map[string]domain.FieldType, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)) //#nosec G201 -- identifier quoted
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	types := make(map[string]domain.FieldType)
	for rows.Next() {
		var cid, notNull, pk int
		var name, declType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		types[strings.ToLower(name)] = fieldTypeOf(declType)
	}
	return types, rows.Err()
}

// fieldTypeOf maps a SQLite declared type back to a field type, using
// the same affinity rules SQLite applies.
func fieldTypeOf(declared string) domain.FieldType {
	d := strings.ToUpper(declared)
	switch {
	case strings.Contains(d, "DATE"):
		return domain.FieldDate
	case strings.Contains(d, "INT"):
		return domain.FieldInteger
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return domain.FieldReal
	default:
		return domain.FieldText
	}
}

func appendFeatures(ctx context.Context, tx *sql.Tx, table string, meta tableMeta, schema []domain.Field, features []domain.Feature) ([]int64, domain.Extent, bool, error) {
	var batchExt domain.Extent
	extSeen := false

	names := []string{quoteIdent(meta.geomColumn)}
	placeholders := []string{"?"}
	for _, f := range schema {
		if f.Name == "fid" || f.Name == meta.geomColumn {
			continue
		}
		names = append(names, quoteIdent(f.Name))
		placeholders = append(placeholders, "?")
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", //#nosec G201 -- identifiers quoted
		quoteIdent(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return nil, batchExt, false, err
	}
	defer func() { _ = stmt.Close() }()

	fids := make([]int64, 0, len(features))
	for i := range features {
		feat := &features[i]
		if feat.Geometry.Type != meta.geomType {
			return nil, batchExt, false, fmt.Errorf("feature %d: geometry type %s does not match table type %s",
				i, feat.Geometry.Type, meta.geomType)
		}
		blob, err := encodeGeometry(feat.Geometry, meta.srid, meta.hasZ)
		if err != nil {
			return nil, batchExt, false, fmt.Errorf("feature %d: %w", i, err)
		}
		args := make([]any, 0, len(schema)+1)
		args = append(args, blob)
		for _, f := range schema {
			if f.Name == "fid" || f.Name == meta.geomColumn {
				continue
			}
			if v, ok := feat.GetProperty(f.Name); ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, batchExt, false, fmt.Errorf("feature %d: %w", i, err)
		}
		fid, err := res.LastInsertId()
		if err != nil {
			return nil, batchExt, false, err
		}
		fids = append(fids, fid)

		if ext, ok := feat.Geometry.Extent(); ok {
			if extSeen {
				batchExt = batchExt.Union(ext)
			} else {
				batchExt = ext
				extSeen = true
			}
		}
	}
	return fids, batchExt, extSeen, nil
}

func appendIndexRows(ctx context.Context, tx *sql.Tx, meta tableMeta, fids []int64, features []domain.Feature) error {
	insert := fmt.Sprintf("INSERT INTO %s (id, minx, maxx, miny, maxy) VALUES (?, ?, ?, ?, ?)", //#nosec G201
		quoteIdent(rtreeName(meta.table, meta.geomColumn)))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := range features {
		ext, ok := features[i].Geometry.Extent()
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, fids[i], ext.MinX, ext.MaxX, ext.MinY, ext.MaxY); err != nil {
			return fmt.Errorf("updating rtree index: %w", err)
		}
	}
	return nil
}

// updateContentsExtent grows the registered extent to cover the batch.
func updateContentsExtent(ctx context.Context, tx *sql.Tx, table string, ext domain.Extent) error {
	_, err := tx.ExecContext(ctx, `UPDATE gpkg_contents SET
			min_x = CASE WHEN min_x IS NULL THEN ? ELSE MIN(min_x, ?) END,
			min_y = CASE WHEN min_y IS NULL THEN ? ELSE MIN(min_y, ?) END,
			max_x = CASE WHEN max_x IS NULL THEN ? ELSE MAX(max_x, ?) END,
			max_y = CASE WHEN max_y IS NULL THEN ? ELSE MAX(max_y, ?) END,
			last_change = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE table_name = ?`,
		ext.MinX, ext.MinX, ext.MinY, ext.MinY,
		ext.MaxX, ext.MaxX, ext.MaxY, ext.MaxY,
		table)
	if err != nil {
		return fmt.Errorf("updating contents extent: %w", err)
	}
	return nil
}
