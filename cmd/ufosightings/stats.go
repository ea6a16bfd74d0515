package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const defaultTopN = 10

func newTopYearsCmd(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top-years",
		Short: "Rank years by number of sightings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.openService(cmd.Context())
			defer svc.Close()

			years, err := svc.TopYears(cmd.Context(), n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(years) == 0 {
				fmt.Fprintln(out, "No dated sightings.")
				return nil
			}
			fmt.Fprintf(out, "Top %d years:\n", len(years))
			for i, y := range years {
				fmt.Fprintf(out, "  %2d. %d: %d\n", i+1, y.Key, y.Count)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", defaultTopN, "How many years to show")
	return cmd
}

func newTopShapesCmd(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top-shapes",
		Short: "Rank shapes by number of sightings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.openService(cmd.Context())
			defer svc.Close()

			shapes, err := svc.TopShapes(cmd.Context(), n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(shapes) == 0 {
				fmt.Fprintln(out, "No shaped sightings.")
				return nil
			}
			fmt.Fprintf(out, "Top %d shapes:\n", len(shapes))
			for i, s := range shapes {
				fmt.Fprintf(out, "  %2d. %s: %d\n", i+1, s.Key, s.Count)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", defaultTopN, "How many shapes to show")
	return cmd
}

func newPeakYearsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "peak-years",
		Short: "Show the year(s) with the most sightings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.openService(cmd.Context())
			defer svc.Close()

			peak, err := svc.PeakYears(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(peak.Years) == 0 {
				fmt.Fprintln(out, "No dated sightings.")
				return nil
			}
			years := make([]string, len(peak.Years))
			for i, y := range peak.Years {
				years[i] = fmt.Sprint(y)
			}
			fmt.Fprintf(out, "Peak year(s): %s with %d sightings\n", strings.Join(years, ", "), peak.Count)
			return nil
		},
	}
}
