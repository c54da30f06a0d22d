package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [steps...]",
		Short: "Print the execution order and recorded step statuses",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, statePath := persistentPaths(cmd)
			return c.app.Plan(cmd.Context(), configPath, statePath, args)
		},
	}
}
