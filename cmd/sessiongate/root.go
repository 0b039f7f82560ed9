package main

import (
	"github.com/spf13/cobra"

	"github.com/sessiongate/sessiongate/internal/config"
	"github.com/sessiongate/sessiongate/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the sessiongate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessiongate",
		Short: "sessiongate - email and password sign-up and login service",
		Long: `sessiongate registers users with a bcrypt-hashed password and issues
signed session tokens to users who log in with the right credentials.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/sessiongate/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig reads configuration for cmd, honoring --config and any
// config-backed flags registered on it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = xdg.ConfigFile()
	}
	//nolint:wrapcheck // config errors are already coded
	return config.Load(path, cmd.Flags())
}
