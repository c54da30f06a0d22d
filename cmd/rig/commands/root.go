// Package commands implements the CLI commands for the rig provisioning tool.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/themperek/rig/internal/app"
	"github.com/themperek/rig/internal/build"
	"github.com/themperek/rig/internal/core/domain"
	"github.com/themperek/rig/internal/core/ports"
)

// CLI represents the command line interface for rig.
type CLI struct {
	app     *app.App
	logger  ports.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app and logger.
func New(a *app.App, logger ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "rig",
		Short:         "An idempotent machine provisioning tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", domain.ManifestFileName, "Path to the provisioning manifest")
	rootCmd.PersistentFlags().String("state-file", "", "Path to the provisioning state file (default "+domain.DefaultStatePath()+")")
	rootCmd.PersistentFlags().Bool("json", false, "Emit structured JSON log output")

	c := &CLI{
		app:     a,
		logger:  logger,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			c.logger.SetJSON(true)
		}
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

func persistentPaths(cmd *cobra.Command) (configPath, statePath string) {
	configPath, _ = cmd.Flags().GetString("config")
	statePath, _ = cmd.Flags().GetString("state-file")
	return configPath, statePath
}
