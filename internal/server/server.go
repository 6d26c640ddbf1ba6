package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quirxsama/latte-sub000/internal/cache"
	"github.com/quirxsama/latte-sub000/internal/repositories"
	"github.com/quirxsama/latte-sub000/internal/services"
	"github.com/quirxsama/latte-sub000/internal/shared"
	"github.com/quirxsama/latte-sub000/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the paths it serves.
type Handler interface {
	http.Handler
	Routes() []string // Routes returns the path patterns this handler serves
}

// Deps are the collaborators the API is built from.
type Deps struct {
	Users   *repositories.UserRepository
	Friends *repositories.FriendRepository
	Tokens  *TokenIssuer

	// Spotify and Sync back the login routes; when either is nil they answer 503.
	Spotify services.Authenticator
	Sync    *tasks.StatsEngine

	// Cache holds compatibility results for CacheTTL. Nil disables caching.
	Cache    cache.Store
	CacheTTL time.Duration

	Logger *log.Logger
}

// Server is the Latte JSON API.
type Server struct {
	cfg     shared.ServerConfig
	users   *repositories.UserRepository
	friends *repositories.FriendRepository
	tokens  *TokenIssuer
	spotify services.Authenticator
	sync    *tasks.StatsEngine
	cache   cache.Store
	ttl     time.Duration
	logger  *log.Logger
	router  chi.Router
}

// New builds a Server and its routes.
func New(cfg shared.ServerConfig, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Friends == nil {
		return nil, fmt.Errorf("%w: user and friend repositories", shared.ErrMissingArgument)
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("%w: token issuer", shared.ErrMissingArgument)
	}

	s := &Server{
		cfg:     cfg,
		users:   deps.Users,
		friends: deps.Friends,
		tokens:  deps.Tokens,
		spotify: deps.Spotify,
		sync:    deps.Sync,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		logger:  deps.Logger,
	}
	if s.cache == nil {
		s.cache = cache.NoopStore{}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, fmt.Errorf("%w: no route for %s", errRouteNotFound, r.URL.Path))
	})

	s.router.Get("/health", s.health)

	s.router.Route("/auth/spotify", func(r chi.Router) {
		r.Get("/login", s.login)
		r.Get("/callback", s.callback)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", s.me)
			r.Put("/me/music-stats", s.updateMusicStats)
			r.Put("/me/privacy", s.updatePrivacy)
			r.Get("/search", s.searchUsers)
			r.Get("/{userId}", s.userProfile)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", s.listFriends)
			r.Get("/compatibility", s.rankFriends)
			r.Get("/requests", s.pendingRequests)
			r.Get("/requests/sent", s.sentRequests)
			r.Post("/requests", s.sendRequest)
			r.Post("/requests/{id}/accept", s.acceptRequest)
			r.Post("/requests/{id}/decline", s.declineRequest)
			r.Get("/{userId}/status", s.friendStatus)
			r.Delete("/{userId}", s.removeFriend)
		})

		r.Get("/compare/{userId}", s.compare)
	})
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves the API on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s,
		ReadTimeout:  seconds(s.cfg.ReadTimeoutSeconds, 15),
		WriteTimeout: seconds(s.cfg.WriteTimeoutSeconds, 15),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
