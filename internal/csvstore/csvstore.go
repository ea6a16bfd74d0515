// Package csvstore implements the file-backed record store. The file is read
// again on every call so edits to the dataset show up immediately.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TobiSchelling/ufosightings/internal/aggregate"
	"github.com/TobiSchelling/ufosightings/internal/filter"
	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

// Store reads sightings from a delimited text file with a header row.
type Store struct {
	path  string
	comma rune
}

// New creates a store for the file at path. A zero delimiter means comma.
func New(path string, delimiter rune) *Store {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Store{path: path, comma: delimiter}
}

// Path returns the dataset file path.
func (s *Store) Path() string {
	return s.path
}

// LoadAll reads every record. A missing or unreadable file is an error;
// malformed rows are skipped.
func (s *Store) LoadAll(ctx context.Context) ([]sighting.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f, s.comma)
}

// Parse reads delimited records from r. Fields are keyed by trimmed header
// names; a short row leaves its trailing fields absent. Malformed rows are
// skipped, but a failing reader stops the parse.
func Parse(ctx context.Context, r io.Reader, comma rune) ([]sighting.Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []sighting.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records := make([]sighting.Record, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %w", err)
		}

		rec := make(sighting.Record, len(headers))
		for i, h := range headers {
			if i < len(row) && h != "" {
				rec[h] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// FindByShape loads the file and keeps records with the given shape.
func (s *Store) FindByShape(ctx context.Context, shape string) ([]sighting.Record, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter.ByShape(records, shape), nil
}

// FindByYear loads the file and keeps records dated in year.
func (s *Store) FindByYear(ctx context.Context, year int) ([]sighting.Record, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter.ByYear(records, year), nil
}

// TopYears returns the n years with the most sightings.
func (s *Store) TopYears(ctx context.Context, n int) ([]aggregate.TopCount[int], error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.TopYears(records, n), nil
}

// TopShapes returns the n most reported shapes.
func (s *Store) TopShapes(ctx context.Context, n int) ([]aggregate.TopCount[string], error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.TopShapes(records, n), nil
}

// Close is a no-op; the file is only held open during a load.
func (s *Store) Close() error {
	return nil
}
