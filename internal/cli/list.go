package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roostchat/roost/internal/models"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations in the current scope",
		RunE:  runList,
	}
	cmd.Flags().Int("limit", 50, "maximum conversations to show")
	cmd.Flags().Int("offset", 0, "offset into the matching set")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	fc, err := scope(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	ctx := cmdContext(cmd)
	conversations, err := app.repo.List(ctx, fc, limit, offset)
	if err != nil {
		return fmt.Errorf("list conversations: %v", err)
	}

	if jsonOutput(cmd) {
		payload, err := json.MarshalIndent(conversations, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	headers := []string{"GUID", "TITLE", "CATEGORY", "UNREAD", "GROUP", "LAST ACTIVITY"}
	rows := make([][]string, 0, len(conversations))
	for _, conv := range conversations {
		rows = append(rows, []string{
			conv.GUID,
			conv.Title,
			conv.Category,
			strconv.Itoa(conv.UnreadCount),
			formatYesNo(conv.IsGroup),
			conv.LastActivity.Format(time.RFC3339),
		})
	}
	return writeTable(cmd.OutOrStdout(), headers, rows)
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count conversations matching the current scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			fc, err := scope(cmd)
			if err != nil {
				return err
			}
			count, err := app.repo.CountMatching(cmdContext(cmd), fc)
			if err != nil {
				return fmt.Errorf("count conversations: %v", err)
			}

			if jsonOutput(cmd) {
				fmt.Fprintf(cmd.OutOrStdout(), "{\"filter\":%q,\"count\":%d}\n", fc.String(), count)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a conversation",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}
	cmd.Flags().Bool("group", false, "mark as a group conversation")
	cmd.Flags().Bool("favorite", false, "mark as favorite")
	cmd.Flags().Int("unread", 0, "initial unread count")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	isGroup, _ := cmd.Flags().GetBool("group")
	isFavorite, _ := cmd.Flags().GetBool("favorite")
	unread, _ := cmd.Flags().GetInt("unread")
	category, _ := cmd.Flags().GetString("category")

	conv := &models.Conversation{
		Title:       args[0],
		Category:    category,
		IsGroup:     isGroup,
		IsFavorite:  isFavorite,
		UnreadCount: unread,
	}
	if err := app.repo.Create(cmdContext(cmd), conv); err != nil {
		return fmt.Errorf("create conversation: %v", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), conv.GUID)
	return nil
}
