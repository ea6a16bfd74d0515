package sighting

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Canonical field names for a sighting record.
const (
	FieldDateTime = "date_time"
	FieldCity     = "city"
	FieldState    = "state"
	FieldCountry  = "country"
	FieldShape    = "shape"
	FieldDuration = "duration"
	FieldComments = "comments"
)

// Aliases used by the published dataset and the legacy ufo table.
var (
	dateFields  = []string{FieldDateTime, "datetime", "ufo_date"}
	shapeFields = []string{FieldShape, "ufo_shape"}
)

// ErrNoDate is returned by Year when the record carries no date field.
var ErrNoDate = errors.New("record has no date")

// Record is one sighting keyed by field name. Values are strings when loaded
// from a file and driver types (string, int64, time.Time, nil) when loaded
// from a database. Records are never modified after loading.
type Record map[string]any

// Text returns the named field as trimmed text. The second result is false
// when the field is absent or NULL.
func (r Record) Text(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case []byte:
		return strings.TrimSpace(string(t)), true
	case time.Time:
		return t.Format("2006-01-02 15:04:05"), true
	default:
		return strings.TrimSpace(fmt.Sprint(t)), true
	}
}

func (r Record) first(names []string) (any, bool) {
	for _, name := range names {
		if v, ok := r[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Record) firstText(names []string) (string, bool) {
	for _, name := range names {
		if v, ok := r.Text(name); ok {
			return v, true
		}
	}
	return "", false
}

// RawShape returns the trimmed shape as written, from whichever shape alias
// is present.
func (r Record) RawShape() (string, bool) {
	return r.firstText(shapeFields)
}

// RawDate returns the date field as text, from whichever date alias is
// present.
func (r Record) RawDate() (string, bool) {
	return r.firstText(dateFields)
}

// Shape returns the normalized (lower-cased, trimmed) shape, or "" if none.
func (r Record) Shape() string {
	v, ok := r.first(shapeFields)
	if !ok {
		return ""
	}
	return NormalizeShape(fmt.Sprint(v))
}

// Year parses the record's date field. Failures are per-record and never
// fatal to a batch.
func (r Record) Year() (int, error) {
	v, ok := r.first(dateFields)
	if !ok {
		return 0, ErrNoDate
	}
	switch t := v.(type) {
	case time.Time:
		return t.Year(), nil
	case []byte:
		return ParseYear(string(t))
	case string:
		return ParseYear(t)
	default:
		return ParseYear(fmt.Sprint(t))
	}
}

// Place returns the record's normalized city and state. Country stands in for
// a missing state.
func (r Record) Place() (city, region string) {
	city, _ = r.Text(FieldCity)
	region, _ = r.Text(FieldState)
	if region == "" {
		region, _ = r.Text(FieldCountry)
	}
	return strings.ToLower(city), strings.ToLower(region)
}

// Country returns the normalized country, or "" if absent.
func (r Record) Country() string {
	c, _ := r.Text(FieldCountry)
	return strings.ToLower(c)
}

// Clean returns a copy with NULL values replaced by empty strings.
func (r Record) Clean() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if v == nil {
			out[k] = ""
			continue
		}
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the record as {key: value, ...} with sorted keys.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := r.Text(k)
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
	}
	b.WriteByte('}')
	return b.String()
}

// NormalizeShape lower-cases and trims a shape value.
func NormalizeShape(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseYear extracts the year from a date string. The dataset's native form
// is MM/DD/YYYY HH:MM with a four-digit year and a valid month and day; ISO
// dates as stored by the importer are accepted too.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNoDate
	}

	datePart := strings.Fields(s)[0]
	if strings.Count(datePart, "/") == 2 {
		t, err := time.Parse("1/2/2006", datePart)
		if err != nil {
			return 0, fmt.Errorf("invalid date %q", s)
		}
		return t.Year(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized date %q", s)
}

// ParseDateTime parses the dataset's MM/DD/YYYY HH:MM form (hour 24 is
// accepted and rolls to the next day) or any ISO layout ParseYear accepts.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrNoDate
	}
	if strings.Contains(s, "/") {
		rollover := false
		if i := strings.Index(s, " 24:"); i >= 0 {
			s = s[:i] + " 00:" + s[i+4:]
			rollover = true
		}
		for _, layout := range []string{"1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				if rollover {
					t = t.AddDate(0, 0, 1)
				}
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
