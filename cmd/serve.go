package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flutenotes/internal/server"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// routes builds the auth landing page router.
func (r *Runner) routes(secureCookies bool) (*server.BasicRouter, error) {
	secret := r.config.Server.CookieSecret
	if len(secret) < 32 {
		return nil, fmt.Errorf("%w: server.cookie_secret must be at least 32 bytes", shared.ErrInvalidConfig)
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(server.NewAuthHandler(
		r.gateway,
		server.NewCookieStore(secret, secureCookies),
		r.config.Server.BaseURL,
		r.logger,
	))
	return router, nil
}

// Serve hosts the confirmation landing, check-email and auth-error pages until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	router, err := r.routes(cmd.Bool("secure-cookies"))
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	r.writePlain("→ Serving auth pages on %s (links point at %s)\n", addr, r.baseURL())
	r.writePlain("Press Ctrl+C to stop\n")
	return server.Serve(ctx, server.New(addr, router), r.logger)
}
