package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/desertthunder/roastx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the terminal wizard on the CLI session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}
	records, err := r.recordLog()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Service: r.service(),
		Session: sess,
		Store:   store,
		Records: records,
		Logger:  fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
