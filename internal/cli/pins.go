package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <guid>",
		Short: "Pin a conversation at the end of the pinned row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			position, err := app.repo.Pin(cmdContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("pin conversation: %v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pinned at position %d\n", position)
			return nil
		},
	}
}

func newUnpinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin <guid>",
		Short: "Remove a conversation from the pinned row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.repo.Unpin(cmdContext(cmd), args[0]); err != nil {
				return fmt.Errorf("unpin conversation: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unpinned")
			return nil
		},
	}
}

func newPinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pins",
		Short: "Show the pinned row in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			pinned, err := app.repo.ListPinned(cmdContext(cmd))
			if err != nil {
				return fmt.Errorf("list pins: %v", err)
			}

			if jsonOutput(cmd) {
				payload, err := json.MarshalIndent(pinned, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			}

			headers := []string{"POS", "GUID", "TITLE"}
			rows := make([][]string, 0, len(pinned))
			for _, conv := range pinned {
				rows = append(rows, []string{
					strconv.Itoa(conv.PinIndex),
					conv.GUID,
					conv.Title,
				})
			}
			return writeTable(cmd.OutOrStdout(), headers, rows)
		},
	}
}

func newReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <guid>...",
		Short: "Reorder the pinned row to match the given sequence",
		Long:  "Reorder the pinned row. Every currently pinned conversation must appear exactly once.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.repo.ReorderPins(cmdContext(cmd), args); err != nil {
				return fmt.Errorf("reorder pins: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reordered")
			return nil
		},
	}
}
