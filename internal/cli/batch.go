package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roostchat/roost/internal/models"
)

// batchSpec describes one bulk-action command and how it hits the store.
type batchSpec struct {
	use    string
	short  string
	action models.BatchAction
}

var batchSpecs = []batchSpec{
	{use: "mark-read", short: "Mark conversations as read", action: models.ActionMarkRead},
	{use: "mark-unread", short: "Mark conversations as unread", action: models.ActionMarkUnread},
	{use: "archive", short: "Archive conversations", action: models.ActionArchive},
	{use: "block", short: "Block conversations", action: models.ActionBlock},
	{use: "snooze", short: "Snooze conversations", action: models.ActionSnooze},
	{use: "delete", short: "Delete conversations", action: models.ActionDelete},
}

func newBatchCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(batchSpecs))
	for _, spec := range batchSpecs {
		spec := spec
		cmd := &cobra.Command{
			Use:   spec.use + " [guid]...",
			Short: spec.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBatch(cmd, spec.action, args)
			},
		}
		cmd.Flags().Bool("all", false, "apply to every conversation matching the current scope")
		if spec.action == models.ActionSnooze {
			cmd.Flags().Duration("for", 0, "snooze duration (default from config)")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runBatch(cmd *cobra.Command, action models.BatchAction, guids []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if all == (len(guids) > 0) {
		return fmt.Errorf("provide either conversation guids or --all")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmdContext(cmd)
	apply, err := batchApply(cmd, a, action)
	if err != nil {
		return err
	}

	var total int64
	if all {
		fc, err := scope(cmd)
		if err != nil {
			return err
		}
		total, err = applyToScope(ctx, a, fc, action, apply)
		if err != nil {
			return err
		}
	} else {
		total, err = apply(ctx, guids)
		if err != nil {
			return fmt.Errorf("%s: %v", action, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s applied to %d conversation(s)\n", action, total)
	return nil
}

// applyToScope pages through the matching set so a huge scope never loads
// into memory at once. When the action removes rows from the scope it is
// paging, every page is fetched at offset 0: the previous page's rows are
// gone from the matching set, and advancing the offset would skip a
// page-worth of still-matching rows on every fetch.
func applyToScope(ctx context.Context, a *app, fc models.FilterContext, action models.BatchAction, apply batchApplyFunc) (int64, error) {
	pageSize := a.cfg.List.BatchPageSize
	shrinks := scopeShrinks(action, fc)

	var total int64
	offset := 0
	for {
		page, err := a.repo.FetchMatchingIDs(ctx, fc, pageSize, offset)
		if err != nil {
			return total, fmt.Errorf("fetch page at offset %d: %v", offset, err)
		}
		if len(page) == 0 {
			return total, nil
		}
		n, err := apply(ctx, page)
		if err != nil {
			return total, fmt.Errorf("apply page at offset %d: %v", offset, err)
		}
		total += n
		// A page that did not change any rows stays in the matching set;
		// move past it so the loop cannot spin on the same page.
		if !shrinks || n == 0 {
			offset += pageSize
		}
	}
}

// scopeShrinks reports whether applying the action removes the affected rows
// from the matching set of the given scope. Archived and blocked rows are
// hidden from every filter except "archived", and marking read empties the
// "unread" filter.
func scopeShrinks(action models.BatchAction, fc models.FilterContext) bool {
	switch action {
	case models.ActionDelete:
		return true
	case models.ActionArchive, models.ActionBlock:
		return fc.Filter != models.FilterArchived
	case models.ActionMarkRead:
		return fc.Filter == models.FilterUnread
	}
	return false
}

type batchApplyFunc func(ctx context.Context, guids []string) (int64, error)

func batchApply(cmd *cobra.Command, a *app, action models.BatchAction) (batchApplyFunc, error) {
	switch action {
	case models.ActionMarkRead:
		return a.repo.MarkRead, nil
	case models.ActionMarkUnread:
		return a.repo.MarkUnread, nil
	case models.ActionArchive:
		return a.repo.Archive, nil
	case models.ActionBlock:
		return a.repo.Block, nil
	case models.ActionDelete:
		return a.repo.Delete, nil
	case models.ActionSnooze:
		duration, _ := cmd.Flags().GetDuration("for")
		if duration <= 0 {
			duration = a.cfg.List.SnoozeDuration
		}
		return func(ctx context.Context, guids []string) (int64, error) {
			return a.repo.Snooze(ctx, guids, time.Now().Add(duration))
		}, nil
	default:
		return nil, fmt.Errorf("unknown batch action: %q", action)
	}
}
