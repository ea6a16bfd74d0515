package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Default identifiers for the sightings table.
const (
	DefaultTable       = "sightings"
	DefaultShapeColumn = "shape"
	DefaultDateColumn  = "date_time"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a database-backed record store.
type Options struct {
	Driver      string
	DSN         string
	Table       string
	ShapeColumn string
	DateColumn  string
}

// DB wraps a single-connection SQL handle over one sightings table. A DB has
// one owner; callers that need concurrent access open their own.
type DB struct {
	conn    *sql.DB
	dialect dialect
	table   string
	shape   string
	date    string
	dsn     string
}

// Open connects to the configured database and verifies the connection.
// The error is returned unchanged for the caller to treat as fatal; Open
// never retries.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if _, err := dialectFor(opts.Driver); err != nil {
		return nil, err
	}

	conn, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db, err := New(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// New wraps an existing handle. Identifiers are validated here because they
// are the only values ever spliced into query text.
func New(conn *sql.DB, opts Options) (*DB, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	db := &DB{
		conn:    conn,
		dialect: d,
		table:   orDefault(opts.Table, DefaultTable),
		shape:   orDefault(opts.ShapeColumn, DefaultShapeColumn),
		date:    orDefault(opts.DateColumn, DefaultDateColumn),
		dsn:     opts.DSN,
	}
	for _, ident := range []string{db.table, db.shape, db.date} {
		if !identRe.MatchString(ident) {
			return nil, fmt.Errorf("invalid identifier %q", ident)
		}
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the connection string the database was opened with.
func (db *DB) Path() string {
	return db.dsn
}

// Ping checks that the connection is still usable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// MySQLDSN builds a MySQL connection string. Dates are parsed into
// time.Time values.
func MySQLDSN(user, password, host string, port int, name string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	if port == 0 {
		port = 3306
	}
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = name
	cfg.ParseTime = true
	cfg.Timeout = 5 * time.Second
	return cfg.FormatDSN()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
