package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			res, err := bootstrap.Run(cmd.Context(), bootstrap.Options{
				Config:     cfg.CoreConfig(),
				Database:   cfg.Database,
				LoggerInit: initLogger,
				Seeders:    []bootstrap.Seeder{seed.Demo{}},
			})
			if err != nil {
				return err
			}
			defer res.DB.Close()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "demo catalog ready")
			return err
		},
	}
}
