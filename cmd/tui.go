package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/shared"
	"github.com/desertthunder/flutenotes/internal/ui"
)

const (
	tuiLogPath          = "./tmp/flutenotes-tui.log"
	sessionPollInterval = 5 * time.Second
)

// TUI launches the interactive library and editor.
//
// The gateway is polled while the UI runs so that signing out from another terminal returns the user to sign in.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.services(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.gateway.Watch(watchCtx, sessionPollInterval); err != nil {
			r.logger.Warn("session watch stopped", "error", err)
		}
	}()

	nav := controller.NavigatorFunc(func(route string) {
		r.logger.Info("navigating", "route", route)
	})
	ctl := r.newController(nav, controller.Options{})
	defer ctl.Close()

	return ui.Run(ctx, ctl)
}
