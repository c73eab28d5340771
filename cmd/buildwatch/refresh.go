package main

import (
	"github.com/spf13/cobra"
)

func newRefreshCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle over every pipeline and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			c, err := buildComponents(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			return c.monitor.RunOnce(cmd.Context())
		},
	}
}
