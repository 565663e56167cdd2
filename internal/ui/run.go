package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// Run starts the TUI over ctl and blocks until the user quits.
//
// It returns [shared.ErrNotAuthenticated] when the program ended because the session was lost.
func Run(ctx context.Context, ctl *controller.Controller, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, ctl)
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if fm, ok := final.(*Model); ok && fm.Redirected() {
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, RedirectMessage)
	}
	return nil
}
