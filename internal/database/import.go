package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

// importColumns are the descriptive columns copied from a dataset row. The
// shape and date columns use the configured names.
var importColumns = []string{
	sighting.FieldCity,
	sighting.FieldState,
	sighting.FieldCountry,
	sighting.FieldDuration,
	sighting.FieldComments,
	"duration_seconds",
	"latitude",
	"longitude",
	"date_posted",
}

// ImportResult summarizes an Import run.
type ImportResult struct {
	Inserted  int
	Undated   int
	TotalInDB int
}

// EnsureTable creates the sightings table if it does not exist.
func (db *DB) EnsureTable(ctx context.Context) error {
	cols := []string{
		db.dialect.idColumn,
		db.date + " " + db.dialect.dateType,
		db.shape + " TEXT",
	}
	for _, c := range importColumns {
		cols = append(cols, c+" TEXT")
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", db.table, strings.Join(cols, ",\n    "))
	if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", db.table, err)
	}
	return nil
}

// Import loads dataset records into the sightings table inside one
// transaction. Dates are stored as ISO text; a record whose date cannot be
// parsed is stored with a NULL date so year queries skip it.
func (db *DB) Import(ctx context.Context, records []sighting.Record) (*ImportResult, error) {
	if err := db.EnsureTable(ctx); err != nil {
		return nil, err
	}

	cols := append([]string{db.date, db.shape}, importColumns...)
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.table, strings.Join(cols, ", "), placeholders(len(cols)))

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	insert, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	r := &ImportResult{}
	for _, rec := range records {
		args := make([]any, 0, len(cols))

		var date any
		if raw, ok := rec.RawDate(); ok {
			if t, err := sighting.ParseDateTime(raw); err == nil {
				date = t.Format("2006-01-02 15:04:05")
			}
		}
		if date == nil {
			r.Undated++
		}
		args = append(args, date)

		shape, _ := rec.RawShape()
		args = append(args, nullable(shape))
		for _, c := range importColumns {
			v, _ := rec.Text(c)
			args = append(args, nullable(v))
		}

		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("inserting sighting: %w", err)
		}
		r.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	total, err := db.count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sightings: %w", err)
	}
	r.TotalInDB = total
	return r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
