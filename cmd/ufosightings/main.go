package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ufosightings/internal/config"
	"github.com/TobiSchelling/ufosightings/internal/csvstore"
	"github.com/TobiSchelling/ufosightings/internal/database"
	"github.com/TobiSchelling/ufosightings/internal/observability"
	"github.com/TobiSchelling/ufosightings/internal/query"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Backend failures were already logged by the query service.
		if !errors.Is(err, query.ErrBackend) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	verbose    bool
	configPath string
	envPath    string
	filePath   string

	cfg *config.Config
	log *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ufosightings",
		Short:         "Query the UFO sightings dataset",
		Long:          "ufosightings searches and ranks UFO sighting reports from a CSV dataset or a SQL table.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config file")
	root.PersistentFlags().StringVar(&a.envPath, "env-file", ".env", "Path to a .env file with secrets")
	root.PersistentFlags().StringVarP(&a.filePath, "file", "f", "", "Read sightings from this CSV file instead of the configured backend")

	root.AddCommand(
		newInitCmd(),
		newVersionCmd(),
		newStatusCmd(a),
		newSearchCmd(a),
		newShapeCmd(a),
		newYearCmd(a),
		newTopYearsCmd(a),
		newTopShapesCmd(a),
		newPeakYearsCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	// Skip config loading for init and version
	if cmd.Name() == "init" || cmd.Name() == "version" {
		return nil
	}

	if err := config.LoadEnvFile(a.envPath); err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.filePath != "" {
		cfg.Backend = config.BackendFile
		cfg.File.Path = a.filePath
	}

	level := cfg.LogLevel()
	if a.verbose {
		level = "debug"
	}
	logger, err := observability.NewLogger(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	a.cfg = cfg
	a.log = logger
	return nil
}

// loadConfig falls back to the built-in defaults when no config file exists,
// unless one was named explicitly.
func (a *app) loadConfig() (*config.Config, error) {
	path, err := config.ResolveConfigPath(a.configPath)
	if err != nil {
		if a.configPath != "" {
			return nil, err
		}
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openService opens the configured store. Failing to connect at startup is
// fatal.
func (a *app) openService(ctx context.Context, opts ...query.Option) *query.Service {
	store, err := a.openStore(ctx)
	if err != nil {
		a.log.WithError(err).WithField("backend", a.cfg.Backend).Fatal("cannot open sightings store")
	}
	opts = append([]query.Option{query.WithLogger(a.log)}, opts...)
	return query.NewService(store, opts...)
}

func (a *app) openStore(ctx context.Context) (query.Store, error) {
	if a.cfg.Backend == config.BackendFile {
		return csvstore.New(a.cfg.File.Path, a.cfg.DelimiterRune()), nil
	}
	return a.openDB(ctx)
}

func (a *app) openDB(ctx context.Context) (*database.DB, error) {
	opts := a.cfg.DatabaseOptions()
	if opts.Driver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return database.Open(ctx, opts)
}
