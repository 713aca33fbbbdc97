package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"syncopate/internal/shared"
	"syncopate/internal/tasks"
	"syncopate/internal/ui"
)

// Tui launches the interactive terminal UI for playlist sync.
func (r *Runner) Tui(ctx context.Context, cmd *cli.Command) error {
	source, destination, err := r.direction(cmd.String("from"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	engine := tasks.NewSyncEngine(source, destination, fileLogger)
	model := ui.NewModel(ctx, source, destination.Name(), engine, r.syncMode(cmd.String("mode")))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
