// Package filter selects sighting records in memory. Every filter preserves
// input order and skips records it cannot evaluate instead of failing.
package filter

import (
	"strings"

	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

// ByShape returns records whose shape equals shape, ignoring case and
// surrounding whitespace. Records without a shape never match.
func ByShape(records []sighting.Record, shape string) []sighting.Record {
	target := sighting.NormalizeShape(shape)
	out := make([]sighting.Record, 0)
	if target == "" {
		return out
	}
	for _, r := range records {
		if r.Shape() == target {
			out = append(out, r)
		}
	}
	return out
}

// ByYear returns records whose parsed date falls in year. Records with a
// missing or malformed date are skipped.
func ByYear(records []sighting.Record, year int) []sighting.Record {
	out := make([]sighting.Record, 0)
	for _, r := range records {
		y, err := r.Year()
		if err != nil {
			continue
		}
		if y == year {
			out = append(out, r)
		}
	}
	return out
}

// Place is a query target parsed from "City, State" or "City, Country".
type Place struct {
	City   string
	Region string
}

// ParsePlace splits place at its first comma. Both halves are trimmed and
// lower-cased; a place without a comma has an empty Region.
func ParsePlace(place string) Place {
	city, region, _ := strings.Cut(place, ",")
	return Place{
		City:   strings.ToLower(strings.TrimSpace(city)),
		Region: strings.ToLower(strings.TrimSpace(region)),
	}
}

// Matches reports whether r is located at p. The region, when set, may match
// either the record's state or its country.
func (p Place) Matches(r sighting.Record) bool {
	if p.City == "" {
		return false
	}
	city, region := r.Place()
	if city != p.City {
		return false
	}
	if p.Region == "" {
		return true
	}
	return region == p.Region || r.Country() == p.Region
}

// ByPlaceAndYear returns records at place during year.
func ByPlaceAndYear(records []sighting.Record, place string, year int) []sighting.Record {
	target := ParsePlace(place)
	out := make([]sighting.Record, 0)
	for _, r := range records {
		if !target.Matches(r) {
			continue
		}
		y, err := r.Year()
		if err != nil || y != year {
			continue
		}
		out = append(out, r)
	}
	return out
}
