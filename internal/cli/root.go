// Package cli implements the shopbot command line.
package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/app"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

var initLogger = logger.InitLogger

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the shopbot root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shopbot",
		Short: "Telegram storefront bot",
		Long: `shopbot runs a Telegram storefront: a catalog of PCs, laptops and parts
browsed through inline keyboards with back navigation, bids and orders.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to config file (default $"+configEnvVar+" or "+defaultConfigPath+")")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// resolveConfigPath picks the flag, then the environment, then the default.
func (o *RootOptions) resolveConfigPath() string {
	if p := strings.TrimSpace(o.ConfigPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(configEnvVar)); p != "" {
		return p
	}
	return defaultConfigPath
}

func (o *RootOptions) load() (*app.Config, error) {
	cfg, err := app.Load(o.resolveConfigPath())
	if err != nil {
		return nil, err
	}
	if err := initLogger(cfg.CoreConfig()); err != nil {
		return nil, err
	}
	return cfg, nil
}
