package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"buildwatch/internal/export"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <pipeline>",
		Short: "Write the stored builds of a pipeline as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			p, ok := cfg.Pipeline(args[0])
			if !ok {
				return fmt.Errorf("pipeline %s is not configured", args[0])
			}

			c, err := buildComponents(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			builds, err := c.store.Load(cmd.Context(), p.ID)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := export.WriteCSV(w, builds, nil); err != nil {
				return err
			}
			log.Info().Str("pipeline", p.ID).Int("builds", len(builds)).Msg("Exported builds")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
