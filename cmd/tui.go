package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/ui"
)

// TUI launches the interactive terminal UI for browsing friends.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	me, err := r.actingUser(ctx, cmd)
	if err != nil {
		return err
	}

	// Logs would interfere with TUI rendering
	r.logger.SetOutput(io.Discard)

	model := ui.NewModel(ctx, ui.NewStoreBackend(r.users, r.friends, me.UserID))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
