package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"buildwatch/internal/monitor"
	"buildwatch/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh pipelines on a schedule and serve the dashboard API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			ctx := cmd.Context()
			c, err := buildComponents(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			if err := monitor.RegisterMetrics(registry); err != nil {
				return err
			}
			if err := server.RegisterMetrics(registry); err != nil {
				return err
			}

			c.monitor.Start()
			defer c.monitor.Stop()

			srv := server.New(cfg.ListenAddr, c.monitor, registry)
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("Server shutdown failed")
				}
			}()

			log.Info().Str("addr", cfg.ListenAddr).Dur("interval", cfg.Interval()).Msg("buildwatch listening")
			if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address for the web server, overrides listen_addr")
	return cmd
}
