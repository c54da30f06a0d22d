package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the persisted provisioning state",
		Long: "Remove the provisioning state file and its lock. The next run " +
			"starts from scratch; provisioned artifacts are untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, statePath := persistentPaths(cmd)
			return c.app.Clean(statePath)
		},
	}
}
