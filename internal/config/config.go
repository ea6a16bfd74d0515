package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/ufosightings/internal/database"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = database.DriverSQLite
	BackendMySQL  = database.DriverMySQL
)

type Config struct {
	Backend  string   `yaml:"backend"`
	File     File     `yaml:"file"`
	Database Database `yaml:"database"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type File struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

type Database struct {
	Path        string `yaml:"path"`
	Name        string `yaml:"name"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Table       string `yaml:"table"`
	ShapeColumn string `yaml:"shape_column"`
	DateColumn  string `yaml:"date_column"`
}

type Server struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for ufosightings.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "ufosightings")
}

// DataDir returns the XDG data directory for ufosightings.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "ufosightings")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/ufosightings/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'ufosightings init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(err)
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Backend: BackendFile,
		File: File{
			Path:      "ufo_sightings.csv",
			Delimiter: ",",
		},
		Database: Database{
			Host:        "localhost",
			PasswordEnv: "UFO_DB_PASSWORD",
			Table:       database.DefaultTable,
			ShapeColumn: database.DefaultShapeColumn,
			DateColumn:  database.DefaultDateColumn,
		},
		Server:  Server{Port: 8000, RequestTimeout: 10 * time.Second},
		Logging: Logging{Level: "INFO", Format: "cli"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at query time.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.File.Path == "" {
			return errors.New("file.path is required for the file backend")
		}
		if len([]rune(c.File.Delimiter)) > 1 {
			return fmt.Errorf("file.delimiter must be a single character, got %q", c.File.Delimiter)
		}
	case BackendSQLite, BackendMySQL:
		if c.Backend == BackendMySQL && c.Database.Name == "" {
			return errors.New("database.name is required for the mysql backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want file, sqlite or mysql)", c.Backend)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// DelimiterRune returns the file delimiter, defaulting to a comma.
func (c *Config) DelimiterRune() rune {
	if r := []rune(c.File.Delimiter); len(r) == 1 {
		return r[0]
	}
	return ','
}

// GetDatabasePath returns the SQLite file path from config or the XDG default.
func (c *Config) GetDatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(DataDir(), "ufosightings.db")
}

// Password reads the database password from the configured environment
// variable.
func (c *Config) Password() string {
	if c.Database.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.Database.PasswordEnv)
}

// DatabaseOptions returns connection options for the SQL backends.
func (c *Config) DatabaseOptions() database.Options {
	opts := database.Options{
		Driver:      c.Backend,
		Table:       c.Database.Table,
		ShapeColumn: c.Database.ShapeColumn,
		DateColumn:  c.Database.DateColumn,
	}
	switch c.Backend {
	case BackendMySQL:
		opts.DSN = database.MySQLDSN(c.Database.User, c.Password(), c.Database.Host, c.Database.Port, c.Database.Name)
	default:
		opts.Driver = database.DriverSQLite
		opts.DSN = c.GetDatabasePath()
	}
	return opts
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LogLevel returns the configured level in lower case.
func (c *Config) LogLevel() string {
	return strings.ToLower(c.Logging.Level)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
