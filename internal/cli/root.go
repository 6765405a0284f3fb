// Package cli implements the roost command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the roost CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "roost",
		Short:         "Conversation list management",
		Long:          "roost manages a local conversation list: filtering, pinning, and bulk actions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/roost/config.yaml)")
	cmd.PersistentFlags().String("filter", "", "list filter (all, unread, favorites, groups, archived)")
	cmd.PersistentFlags().String("category", "", "category to scope the filter to")
	cmd.PersistentFlags().Bool("json", false, "machine-readable JSON output")
	cmd.PersistentFlags().String("log-level", "", "override logging level (debug, info, warn, error)")

	cmd.AddCommand(
		newListCmd(),
		newCountCmd(),
		newAddCmd(),
		newPinCmd(),
		newUnpinCmd(),
		newPinsCmd(),
		newReorderCmd(),
		newContextCmd(),
		newUICmd(),
	)
	cmd.AddCommand(newBatchCmds()...)

	return cmd
}
