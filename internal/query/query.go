// Package query is the function-level interface the CLI and web layer use to
// read sightings. A Service delegates to one record store and reports every
// call as either a result or an error wrapping ErrBackend.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/jonboulle/clockwork"

	"github.com/TobiSchelling/ufosightings/internal/aggregate"
	"github.com/TobiSchelling/ufosightings/internal/filter"
	"github.com/TobiSchelling/ufosightings/internal/observability"
	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

var (
	// ErrBackend marks a failure of the record store.
	ErrBackend = errors.New("backend failure")
	// ErrInvalidInput marks a request the facade refuses before querying.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is a record store. The file-backed and database-backed stores both
// implement it with identical semantics.
type Store interface {
	LoadAll(ctx context.Context) ([]sighting.Record, error)
	FindByShape(ctx context.Context, shape string) ([]sighting.Record, error)
	FindByYear(ctx context.Context, year int) ([]sighting.Record, error)
	TopYears(ctx context.Context, n int) ([]aggregate.TopCount[int], error)
	TopShapes(ctx context.Context, n int) ([]aggregate.TopCount[string], error)
	Close() error
}

// Operation names used in logs and metrics.
const (
	OpByShape     = "by_shape"
	OpByYear      = "by_year"
	OpByPlaceYear = "by_place_year"
	OpTopYears    = "top_years"
	OpTopShapes   = "top_shapes"
	OpPeakYears   = "peak_years"
)

// PeakYears is the set of years tied for the most sightings.
type PeakYears struct {
	Years []int `json:"years"`
	Count int   `json:"count"`
}

// Service answers sighting queries against a single store. It holds no
// per-call state; each call is a full load-filter-return cycle.
type Service struct {
	store   Store
	log     log.Interface
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for backend failures.
func WithLogger(l log.Interface) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics records per-operation counters and durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock swaps the time source used for durations.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService wraps store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log.Log,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// SightingsByShape returns sightings with the given shape.
func (s *Service) SightingsByShape(ctx context.Context, shape string) ([]sighting.Record, error) {
	if strings.TrimSpace(shape) == "" {
		return nil, s.invalid(OpByShape, "shape must not be empty")
	}
	return runRecords(ctx, s, OpByShape, log.Fields{"shape": shape}, func() ([]sighting.Record, error) {
		return s.store.FindByShape(ctx, shape)
	})
}

// SightingsByYear returns sightings dated in year.
func (s *Service) SightingsByYear(ctx context.Context, year int) ([]sighting.Record, error) {
	if year <= 0 {
		return nil, s.invalid(OpByYear, fmt.Sprintf("year must be positive, got %d", year))
	}
	return runRecords(ctx, s, OpByYear, log.Fields{"year": year}, func() ([]sighting.Record, error) {
		return s.store.FindByYear(ctx, year)
	})
}

// SightingsByPlaceAndYear returns sightings at place ("City, State") during
// year.
func (s *Service) SightingsByPlaceAndYear(ctx context.Context, place string, year int) ([]sighting.Record, error) {
	if strings.TrimSpace(place) == "" {
		return nil, s.invalid(OpByPlaceYear, "place must not be empty")
	}
	if year <= 0 {
		return nil, s.invalid(OpByPlaceYear, fmt.Sprintf("year must be positive, got %d", year))
	}
	return runRecords(ctx, s, OpByPlaceYear, log.Fields{"place": place, "year": year}, func() ([]sighting.Record, error) {
		all, err := s.store.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		return filter.ByPlaceAndYear(all, place, year), nil
	})
}

// TopYears returns up to n years ranked by sighting count.
func (s *Service) TopYears(ctx context.Context, n int) ([]aggregate.TopCount[int], error) {
	return run(ctx, s, OpTopYears, log.Fields{"n": n}, func() ([]aggregate.TopCount[int], error) {
		return s.store.TopYears(ctx, n)
	}, func(v []aggregate.TopCount[int]) int { return len(v) })
}

// TopShapes returns up to n shapes ranked by sighting count.
func (s *Service) TopShapes(ctx context.Context, n int) ([]aggregate.TopCount[string], error) {
	return run(ctx, s, OpTopShapes, log.Fields{"n": n}, func() ([]aggregate.TopCount[string], error) {
		return s.store.TopShapes(ctx, n)
	}, func(v []aggregate.TopCount[string]) int { return len(v) })
}

// PeakYears returns every year tied for the most sightings.
func (s *Service) PeakYears(ctx context.Context) (*PeakYears, error) {
	return run(ctx, s, OpPeakYears, nil, func() (*PeakYears, error) {
		all, err := s.store.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		years, count := aggregate.YearsWithMaxCount(aggregate.CountByYear(all))
		return &PeakYears{Years: years, Count: count}, nil
	}, func(v *PeakYears) int { return len(v.Years) })
}

func runRecords(ctx context.Context, s *Service, op string, fields log.Fields, fn func() ([]sighting.Record, error)) ([]sighting.Record, error) {
	records, err := run(ctx, s, op, fields, fn, func(v []sighting.Record) int { return len(v) })
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []sighting.Record{}
	}
	return records, nil
}

// run executes one store call. A failure is logged here, once, and wrapped
// with ErrBackend; stores never log their own query errors.
func run[T any](ctx context.Context, s *Service, op string, fields log.Fields, fn func() (T, error), size func(T) int) (T, error) {
	start := s.clock.Now()
	v, err := fn()
	elapsed := s.clock.Since(start)

	if s.metrics != nil {
		s.metrics.QueryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	}

	if err != nil {
		var zero T
		s.record(op, observability.OutcomeError, 0)
		entry := s.log.WithFields(fields).WithField("operation", op).WithError(err)
		if ctx.Err() != nil {
			entry = entry.WithField("canceled", true)
		}
		entry.Error("sighting query failed")
		return zero, fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
	}

	n := size(v)
	outcome := observability.OutcomeSuccess
	if n == 0 {
		outcome = observability.OutcomeEmpty
	}
	s.record(op, outcome, n)
	s.log.WithFields(fields).WithField("operation", op).WithField("results", n).
		WithField("elapsed", elapsed.String()).Debug("sighting query")
	return v, nil
}

func (s *Service) invalid(op, reason string) error {
	s.record(op, observability.OutcomeInvalid, 0)
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidInput, reason)
}

func (s *Service) record(op, outcome string, n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.Queries.WithLabelValues(op, outcome).Inc()
	if n > 0 {
		s.metrics.RecordsReturned.WithLabelValues(op).Add(float64(n))
	}
}
