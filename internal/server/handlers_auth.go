package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

const stateCookie = "oauth_state"

// loginResponse is returned by the OAuth callback.
type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// login redirects to the Spotify consent page with a fresh state stored in a cookie.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if s.spotify == nil || s.sync == nil {
		s.writeError(w, r, errSpotifyUnavailable)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, s.spotify.AuthURL(state), http.StatusTemporaryRedirect)
}

// callback exchanges the authorization code, syncs the listener's stats and issues a bearer token.
func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	if s.spotify == nil || s.sync == nil {
		s.writeError(w, r, errSpotifyUnavailable)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: missing state cookie", shared.ErrInvalidInput))
		return
	}
	query := r.URL.Query()
	if query.Get("state") != cookie.Value {
		s.writeError(w, r, fmt.Errorf("%w: state mismatch", shared.ErrInvalidInput))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if msg := query.Get("error"); msg != "" {
		s.writeError(w, r, fmt.Errorf("%w: spotify: %s", shared.ErrAuthFailed, msg))
		return
	}

	tok, err := s.spotify.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.sync.Run(r.Context(), nil, s.spotify.Source(r.Context(), tok))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	signed, expires, err := s.tokens.Issue(result.User)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("user logged in", "user", result.User.UserID, "tracks", result.Tracks, "artists", result.Artists)
	writeJSON(w, http.StatusOK, loginResponse{Token: signed, ExpiresAt: expires, User: result.User})
}
