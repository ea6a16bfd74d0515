package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ufosightings/internal/observability"
	"github.com/TobiSchelling/ufosightings/internal/query"
	"github.com/TobiSchelling/ufosightings/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = a.cfg.Server.Port
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewMetrics(reg)
			metrics.BackendInfo.WithLabelValues(a.cfg.Backend).Set(1)

			svc := a.openService(cmd.Context(), query.WithMetrics(metrics))
			defer svc.Close()

			srv, err := server.New(svc,
				server.WithLogger(a.log),
				server.WithGatherer(reg),
				server.WithRequestTimeout(a.cfg.Server.RequestTimeout),
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting server at http://localhost:%d\n", port)
			fmt.Fprintln(out, "Press Ctrl+C to stop")
			return srv.Serve(cmd.Context(), fmt.Sprintf("127.0.0.1:%d", port))
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run server on (default from config)")
	return cmd
}
