package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roostchat/roost/internal/tui"
)

func newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Launch the Roost TUI",
		Long:  "Launch the Roost terminal user interface.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	if !hasTTY() {
		return fmt.Errorf("the TUI requires an interactive terminal; use the CLI subcommands instead")
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	fc, err := scope(cmd)
	if err != nil {
		return err
	}

	return tui.Run(cmdContext(cmd), tui.Config{
		Repository: app.repo,
		Filter:     fc,
		PageSize:   app.cfg.List.PageSize,
		BatchPage:  app.cfg.List.BatchPageSize,
		Snooze:     app.cfg.List.SnoozeDuration,
		ItemWidth:  app.cfg.Pins.ItemWidth,
		Threshold:  app.cfg.Pins.UnpinThreshold,
		Theme:      app.cfg.TUI.Theme,
		Compact:    app.cfg.TUI.CompactMode,
	})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
