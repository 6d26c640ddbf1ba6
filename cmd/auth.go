package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/quirxsama/latte-sub000/internal/server"
	"github.com/quirxsama/latte-sub000/internal/services"
	"github.com/quirxsama/latte-sub000/internal/shared"
	"github.com/quirxsama/latte-sub000/internal/tasks"
)

const defaultLoginTimeout = 2 * time.Minute

// AuthLogin runs the Spotify authorization code flow through a local callback server,
// then syncs the listener's stats and prints their user code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.spotifyAuth()
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, auth, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	r.writePlain("\n")
	progress, stop := r.watchProgress(func(u tasks.ProgressUpdate) {
		switch u.Phase {
		case tasks.FetchProfile:
			r.writePlain("👤 %s\n", u.Message)
		case tasks.FetchTracks, tasks.FetchArtists:
			r.writePlain("📥 %s\n", u.Message)
		default:
			r.writePlain("   %s\n", u.Message)
		}
	})
	result, err := r.statsEngine().Run(ctx, progress, auth.Source(ctx, token))
	stop()
	if err != nil {
		return err
	}

	user := result.User
	r.writePlain("\n")
	r.writePlainHeader("Logged in as " + user.DisplayName)
	r.writePlain("User code: %s\n", user.UserID)
	r.writePlain("Synced:    %d tracks, %d artists, %d genres (%v)\n", result.Tracks, result.Artists, result.Genres, result.TimeRanges)
	r.writePlain("\nShare your code so friends can send you a request:\n  latte friends send %s --as <their-code>\n", user.UserID)

	if r.config.Auth.JWTSecret == "" {
		return nil
	}
	tokens, err := server.NewTokenIssuer(r.config.Auth)
	if err != nil {
		return err
	}
	bearer, expires, err := tokens.Issue(user)
	if err != nil {
		return err
	}
	r.writePlain("\nAPI token (expires %s):\n%s\n", expires.Format(time.RFC3339), bearer)
	return nil
}

// AuthToken issues an API bearer token for an existing user.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: user code", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.users.GetByUserID(ctx, code)
	if err != nil {
		return err
	}

	tokens, err := server.NewTokenIssuer(r.config.Auth)
	if err != nil {
		return fmt.Errorf("%w: auth.jwt_secret", err)
	}
	bearer, expires, err := tokens.Issue(user)
	if err != nil {
		return err
	}

	r.logger.Info("issued token", "user", user.UserID, "expires", expires)
	return r.writePlain("%s\n", bearer)
}

// doOAuth serves the callback on the host and path of the configured redirect URI,
// opens the consent page and waits for the browser to come back.
func (r *Runner) doOAuth(ctx context.Context, auth services.Authenticator, timeout time.Duration) (*oauth2.Token, error) {
	addr, path, err := callbackAddr(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return nil, err
	}

	state := shared.GenerateID()
	oauthHandler := server.NewOAuthHandler(auth, state, path)

	router := chi.NewRouter()
	for _, route := range oauthHandler.Routes() {
		router.Handle(route, oauthHandler)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the OAuth callback on %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", addr, "path", path)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := auth.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify login...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	r.writePlain("✓ Authorized\n")
	return result.Token, nil
}

// callbackAddr splits a redirect URI into a listen address and callback path.
func callbackAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}
