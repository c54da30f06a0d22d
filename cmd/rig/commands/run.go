package commands

import (
	"github.com/spf13/cobra"
	"github.com/themperek/rig/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [steps...]",
		Short: "Apply the provisioning manifest",
		Long: "Apply the provisioning manifest in dependency order. Without " +
			"arguments every step runs; with arguments, each named step plus " +
			"its transitive dependencies.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, statePath := persistentPaths(cmd)
			policy, _ := cmd.Flags().GetString("policy")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			return c.app.Run(cmd.Context(), app.RunOptions{
				ConfigPath: configPath,
				StatePath:  statePath,
				Targets:    args,
				Policy:     policy,
				DryRun:     dryRun,
				Timeout:    timeout,
			})
		},
	}
	cmd.Flags().String("policy", "stop", "Failure policy: stop (halt on first failure) or continue (block dependents only)")
	cmd.Flags().Bool("dry-run", false, "Report what would run without executing actions or writing state")
	cmd.Flags().Duration("timeout", 0, "Default per-step timeout for steps that declare none (0 means no limit)")
	return cmd
}
