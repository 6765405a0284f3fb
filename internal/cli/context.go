package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roostchat/roost/internal/config"
	"github.com/roostchat/roost/internal/models"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or change the persisted filter scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := config.DefaultContextStore().Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.String())
			return nil
		},
	}
	cmd.AddCommand(newContextSetCmd(), newContextClearCmd())
	return cmd
}

func newContextSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Persist --filter and --category as the default scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			filterFlag, _ := cmd.Flags().GetString("filter")
			categoryFlag, _ := cmd.Flags().GetString("category")
			if filterFlag == "" && categoryFlag == "" {
				return fmt.Errorf("provide --filter and/or --category")
			}
			if filterFlag != "" {
				if _, err := models.ParseFilter(filterFlag); err != nil {
					return err
				}
			}

			store := config.DefaultContextStore()
			ctx, err := store.Load()
			if err != nil {
				return err
			}
			ctx.SetScope(filterFlag, categoryFlag)
			if err := store.Save(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.String())
			return nil
		},
	}
}

func newContextClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the persisted filter scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DefaultContextStore().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "context cleared")
			return nil
		},
	}
}
