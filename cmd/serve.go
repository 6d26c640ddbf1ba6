package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/cache"
	"github.com/quirxsama/latte-sub000/internal/server"
	"github.com/quirxsama/latte-sub000/internal/services"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}
	if err := r.config.Validate(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	tokens, err := server.NewTokenIssuer(r.config.Auth)
	if err != nil {
		return err
	}

	store, err := cache.Open(ctx, r.config.Cache.RedisURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if r.config.Cache.RedisURL == "" {
		r.logger.Warn("compatibility cache disabled, set cache.redis_url to enable it")
	}

	var spotify services.Authenticator
	if auth, err := r.spotifyAuth(); err == nil {
		spotify = auth
	} else {
		r.logger.Warn("spotify login disabled", "error", err)
	}

	srv, err := server.New(r.config.Server, server.Deps{
		Users:    r.users,
		Friends:  r.friends,
		Tokens:   tokens,
		Spotify:  spotify,
		Sync:     r.statsEngine(),
		Cache:    store,
		CacheTTL: r.config.Cache.TTL(),
		Logger:   shared.WithLogger(r.logger, "component", "api"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting API", "addr", r.config.Server.Addr())
	return srv.Run(ctx)
}
