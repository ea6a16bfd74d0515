package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/TobiSchelling/ufosightings/internal/aggregate"
	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

// LoadAll returns every row of the sightings table.
func (db *DB) LoadAll(ctx context.Context) ([]sighting.Record, error) {
	return db.queryRecords(ctx, "SELECT * FROM "+db.table)
}

// FindByShape returns rows whose shape matches, ignoring case and
// surrounding whitespace.
func (db *DB) FindByShape(ctx context.Context, shape string) ([]sighting.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE LOWER(TRIM(%s)) = ?", db.table, db.shape)
	return db.queryRecords(ctx, query, sighting.NormalizeShape(shape))
}

// FindByYear returns rows whose date falls in year. The year is extracted
// server-side.
func (db *DB) FindByYear(ctx context.Context, year int) ([]sighting.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", db.table, db.dialect.yearExpr(db.date))
	return db.queryRecords(ctx, query, year)
}

// TopYears returns the n years with the most dated sightings.
func (db *DB) TopYears(ctx context.Context, n int) ([]aggregate.TopCount[int], error) {
	if n <= 0 {
		return []aggregate.TopCount[int]{}, nil
	}
	year := db.dialect.yearExpr(db.date)
	query := fmt.Sprintf(`SELECT %[1]s AS sighting_year, COUNT(*) AS total
		FROM %[2]s
		WHERE %[3]s IS NOT NULL AND %[1]s IS NOT NULL
		GROUP BY %[1]s
		ORDER BY total DESC, sighting_year ASC
		LIMIT ?`, year, db.table, db.date)

	rows, err := db.conn.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("querying top years: %w", err)
	}
	defer rows.Close()

	var entries []aggregate.TopCount[int]
	for rows.Next() {
		var y, count int64
		if err := rows.Scan(&y, &count); err != nil {
			return nil, fmt.Errorf("scanning top years: %w", err)
		}
		entries = append(entries, aggregate.TopCount[int]{Key: int(y), Count: int(count)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading top years: %w", err)
	}
	return aggregate.Rank(entries, n), nil
}

// TopShapes returns the n most reported shapes, normalized to lower case.
// Empty and NULL shapes are not counted.
func (db *DB) TopShapes(ctx context.Context, n int) ([]aggregate.TopCount[string], error) {
	if n <= 0 {
		return []aggregate.TopCount[string]{}, nil
	}
	query := fmt.Sprintf(`SELECT LOWER(TRIM(%[1]s)) AS shape_name, COUNT(*) AS total
		FROM %[2]s
		WHERE %[1]s IS NOT NULL AND TRIM(%[1]s) != ''
		GROUP BY LOWER(TRIM(%[1]s))
		ORDER BY total DESC, shape_name ASC
		LIMIT ?`, db.shape, db.table)

	rows, err := db.conn.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("querying top shapes: %w", err)
	}
	defer rows.Close()

	var entries []aggregate.TopCount[string]
	for rows.Next() {
		var shape string
		var count int64
		if err := rows.Scan(&shape, &count); err != nil {
			return nil, fmt.Errorf("scanning top shapes: %w", err)
		}
		entries = append(entries, aggregate.TopCount[string]{Key: shape, Count: int(count)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading top shapes: %w", err)
	}
	return aggregate.Rank(entries, n), nil
}

func (db *DB) queryRecords(ctx context.Context, query string, args ...any) ([]sighting.Record, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sightings: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// scanRecords turns a result set into records keyed by column name. Byte
// slices become strings; NULL stays nil.
func scanRecords(rows *sql.Rows) ([]sighting.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	records := make([]sighting.Record, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning sighting: %w", err)
		}

		rec := make(sighting.Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sightings: %w", err)
	}
	return records, nil
}

// count returns the number of rows in the sightings table.
func (db *DB) count(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+db.table).Scan(&n)
	return n, err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
