package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ufosightings/internal/config"
	"github.com/TobiSchelling/ufosightings/internal/csvstore"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ufosightings", version)
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration in ~/.config/ufosightings/",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			target := filepath.Join(config.ConfigDir(), "config.yaml")
			if _, err := os.Stat(target); err == nil {
				fmt.Fprintf(out, "Config already exists: %s\n", target)
				return nil
			}

			if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}

			if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(out, "Created config: %s\n", target)
			fmt.Fprintln(out, "Edit it to point at your dataset or database.")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured backend and dataset size",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.openService(cmd.Context())
			defer svc.Close()

			shapes, err := svc.TopShapes(cmd.Context(), 1)
			if err != nil {
				return err
			}
			peak, err := svc.PeakYears(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n", a.cfg.Backend)
			if a.cfg.Backend == config.BackendFile {
				fmt.Fprintf(out, "Dataset: %s\n", a.cfg.File.Path)
			} else {
				fmt.Fprintf(out, "Table: %s\n", a.cfg.Database.Table)
			}
			if len(shapes) > 0 {
				fmt.Fprintf(out, "Most common shape: %s (%d)\n", shapes[0].Key, shapes[0].Count)
			}
			if len(peak.Years) > 0 {
				fmt.Fprintf(out, "Peak year: %d (%d)\n", peak.Years[0], peak.Count)
			}
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Load a CSV dataset into the configured SQL table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Backend == config.BackendFile {
				return errors.New("import needs a database backend; set backend to sqlite or mysql in the config")
			}

			records, err := csvstore.New(args[0], a.cfg.DelimiterRune()).LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			db, err := a.openDB(cmd.Context())
			if err != nil {
				a.log.WithError(err).WithField("backend", a.cfg.Backend).Fatal("cannot open sightings store")
			}
			defer db.Close()

			res, err := db.Import(cmd.Context(), records)
			if err != nil {
				return err
			}

			a.log.WithField("rows", res.Inserted).WithField("table", a.cfg.Database.Table).Info("import complete")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d sightings into %s\n", res.Inserted, a.cfg.Database.Table)
			if res.Undated > 0 {
				fmt.Fprintf(out, "  %d without a readable date\n", res.Undated)
			}
			fmt.Fprintf(out, "  %d rows in table\n", res.TotalInDB)
			return nil
		},
	}
}
