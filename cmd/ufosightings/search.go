package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ufosightings/internal/query"
	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		place string
		shape string
		year  int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search sightings by place and year, or by shape",
		Example: `  ufosightings search --place "Edna, TX" --year 2000
  ufosightings search --shape circle`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if place != "" && year == 0 {
				return errors.New("when searching by place, you must also specify a year using --year")
			}

			svc := a.openService(cmd.Context())
			defer svc.Close()

			var (
				results  []sighting.Record
				criteria string
				err      error
			)
			if place != "" {
				criteria = fmt.Sprintf("place '%s' and year '%d'", place, year)
				results, err = svc.SightingsByPlaceAndYear(cmd.Context(), place, year)
			} else {
				criteria = fmt.Sprintf("shape '%s'", shape)
				results, err = svc.SightingsByShape(cmd.Context(), shape)
			}
			if err != nil {
				return err
			}
			return displaySightings(cmd.OutOrStdout(), results, criteria)
		},
	}

	cmd.Flags().StringVar(&place, "place", "", `Search by place (e.g. "City, State")`)
	cmd.Flags().StringVar(&shape, "shape", "", "Search by UFO shape")
	cmd.Flags().IntVar(&year, "year", 0, "Filter by year (required with --place)")
	cmd.MarkFlagsMutuallyExclusive("place", "shape")
	cmd.MarkFlagsOneRequired("place", "shape")
	return cmd
}

// displaySightings prints a headed result list for a search.
func displaySightings(w io.Writer, results []sighting.Record, criteria string) error {
	if len(results) == 0 {
		_, err := fmt.Fprintf(w, "No UFO sightings found for %s.\n", criteria)
		return err
	}
	if _, err := fmt.Fprintf(w, "UFO sightings found for %s:\n", criteria); err != nil {
		return err
	}
	return query.DisplayResults(w, results)
}

func newShapeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shape <shape>",
		Short: "List sightings with the given shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.openService(cmd.Context())
			defer svc.Close()

			results, err := svc.SightingsByShape(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return query.DisplayResults(cmd.OutOrStdout(), results)
		},
	}
}

func newYearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "year <year>",
		Short: "List sightings dated in the given year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year: %s", args[0])
			}

			svc := a.openService(cmd.Context())
			defer svc.Close()

			results, err := svc.SightingsByYear(cmd.Context(), year)
			if err != nil {
				return err
			}
			return query.DisplayResults(cmd.OutOrStdout(), results)
		},
	}
}
