package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/ufosightings/internal/aggregate"
	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

func newMockDB(t *testing.T, opts Options) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	db, err := New(conn, opts)
	require.NoError(t, err)
	return db, mock
}

func TestMockFindByShapeBindsLowercasedValue(t *testing.T) {
	db, mock := newMockDB(t, Options{Table: "ufo", ShapeColumn: "ufo_shape", DateColumn: "ufo_date"})

	rows := sqlmock.NewRows([]string{"col1", "ufo_shape", "col3"}).
		AddRow("a", "circle", "b").
		AddRow("c", "circle", "d")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM ufo WHERE LOWER(TRIM(ufo_shape)) = ?")).
		WithArgs("circle").
		WillReturnRows(rows).
		RowsWillBeClosed()

	got, err := db.FindByShape(context.Background(), " Circle")
	require.NoError(t, err)
	assert.Equal(t, []sighting.Record{
		{"col1": "a", "ufo_shape": "circle", "col3": "b"},
		{"col1": "c", "ufo_shape": "circle", "col3": "d"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockFindByYearMySQL(t *testing.T) {
	db, mock := newMockDB(t, Options{Driver: DriverMySQL, Table: "ufo", DateColumn: "ufo_date"})

	rows := sqlmock.NewRows([]string{"col1", "ufo_date"}).
		AddRow("x", "2000-10-10").
		AddRow("z", "2000-11-11")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM ufo WHERE YEAR(ufo_date) = ?")).
		WithArgs(2000).
		WillReturnRows(rows).
		RowsWillBeClosed()

	got, err := db.FindByYear(context.Background(), 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2000-11-11", got[1]["ufo_date"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockNullAndBytesColumns(t *testing.T) {
	db, mock := newMockDB(t, Options{})

	rows := sqlmock.NewRows([]string{"id", "city", "comments"}).
		AddRow(1, []byte("city1"), "comment1").
		AddRow(2, "city2", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sightings")).
		WillReturnRows(rows).
		RowsWillBeClosed()

	got, err := db.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "city1", got[0]["city"])
	assert.Nil(t, got[1]["comments"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockEmptyResultClosesRows(t *testing.T) {
	db, mock := newMockDB(t, Options{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sightings")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city"})).
		RowsWillBeClosed()

	got, err := db.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []sighting.Record{}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockQueryError(t *testing.T) {
	db, mock := newMockDB(t, Options{})

	mock.ExpectQuery("SELECT \\* FROM sightings WHERE").
		WithArgs("disk").
		WillReturnError(errors.New("connection reset"))

	got, err := db.FindByShape(context.Background(), "disk")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockRowErrorClosesRows(t *testing.T) {
	db, mock := newMockDB(t, Options{})

	rows := sqlmock.NewRows([]string{"id", "city"}).
		AddRow(1, "a").
		AddRow(2, "b").
		RowError(1, errors.New("broken row"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sightings")).
		WillReturnRows(rows).
		RowsWillBeClosed()

	_, err := db.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockTopYearsQuery(t *testing.T) {
	db, mock := newMockDB(t, Options{Driver: DriverMySQL, Table: "ufo", DateColumn: "ufo_date"})

	rows := sqlmock.NewRows([]string{"sighting_year", "total"}).
		AddRow(1999, 50).
		AddRow(2001, 45).
		AddRow(1995, 40)
	mock.ExpectQuery(`SELECT YEAR\(ufo_date\) AS sighting_year, COUNT\(\*\) AS total\s+FROM ufo\s+WHERE ufo_date IS NOT NULL.*GROUP BY YEAR\(ufo_date\)\s+ORDER BY total DESC, sighting_year ASC\s+LIMIT \?`).
		WithArgs(3).
		WillReturnRows(rows).
		RowsWillBeClosed()

	got, err := db.TopYears(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []aggregate.TopCount[int]{
		{Key: 1999, Count: 50},
		{Key: 2001, Count: 45},
		{Key: 1995, Count: 40},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockTopShapesQuery(t *testing.T) {
	db, mock := newMockDB(t, Options{Table: "ufo", ShapeColumn: "ufo_shape"})

	rows := sqlmock.NewRows([]string{"shape_name", "total"}).
		AddRow("light", 100).
		AddRow("circle", 90).
		AddRow("triangle", 80)
	mock.ExpectQuery(`SELECT LOWER\(TRIM\(ufo_shape\)\) AS shape_name, COUNT\(\*\) AS total\s+FROM ufo\s+WHERE ufo_shape IS NOT NULL AND TRIM\(ufo_shape\) != ''.*LIMIT \?`).
		WithArgs(3).
		WillReturnRows(rows).
		RowsWillBeClosed()

	got, err := db.TopShapes(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []aggregate.TopCount[string]{
		{Key: "light", Count: 100},
		{Key: "circle", Count: 90},
		{Key: "triangle", Count: 80},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockTopShapesError(t *testing.T) {
	db, mock := newMockDB(t, Options{})

	mock.ExpectQuery("SELECT LOWER").WithArgs(5).WillReturnError(errors.New("syntax error"))

	got, err := db.TopShapes(context.Background(), 5)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
