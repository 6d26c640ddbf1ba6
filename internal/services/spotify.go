// Spotify Web API implementation of [StatsSource]
//
// Request and response types come from github.com/zmb3/spotify/v2, see
// https://developer.spotify.com/documentation/web-api/reference/get-users-top-artists-and-tracks
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

const defaultRedirectURI = "http://127.0.0.1:3000/auth/spotify/callback"

// Scopes requested at login. Top items need user-top-read, the profile needs the other two.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserTopRead,
}

// SpotifyAuth runs the authorization code flow and builds services for the resulting tokens.
type SpotifyAuth struct {
	auth    *spotifyauth.Authenticator
	limiter *rate.Limiter
	opts    []spotify.ClientOption
}

// NewSpotifyAuth creates an authenticator from the configured credentials.
//
// requestsPerSecond caps outbound API calls for every service built by [SpotifyAuth.Service];
// zero or less means unlimited. opts are passed to each [spotify.Client].
func NewSpotifyAuth(cfg shared.SpotifyConfig, requestsPerSecond float64, opts ...spotify.ClientOption) (*SpotifyAuth, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithScopes(Scopes...),
	)

	return &SpotifyAuth{auth: auth, limiter: NewLimiter(requestsPerSecond), opts: opts}, nil
}

// AuthURL returns the consent page URL carrying state.
func (a *SpotifyAuth) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange trades an authorization code for a token.
func (a *SpotifyAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrAuthFailed)
	}

	tok, err := a.auth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return tok, nil
}

// Service returns a [SpotifyService] authorized with tok.
func (a *SpotifyAuth) Service(ctx context.Context, tok *oauth2.Token) *SpotifyService {
	return NewSpotifyService(a.auth.Client(ctx, tok), a.limiter, a.opts...)
}

// Source implements [Authenticator].
func (a *SpotifyAuth) Source(ctx context.Context, tok *oauth2.Token) StatsSource {
	return a.Service(ctx, tok)
}

// NewLimiter returns a limiter allowing requestsPerSecond calls with a burst of one.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// throttledTransport waits on a shared limiter before every round trip.
type throttledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.base.RoundTrip(req)
}

// SpotifyService implements [StatsSource] on top of [spotify.Client].
type SpotifyService struct {
	client *spotify.Client
	now    func() time.Time
}

// NewSpotifyService wraps an authorized HTTP client. A nil limiter leaves requests unthrottled.
func NewSpotifyService(httpClient *http.Client, limiter *rate.Limiter, opts ...spotify.ClientOption) *SpotifyService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if limiter != nil {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		throttled := *httpClient
		throttled.Transport = &throttledTransport{base: base, limiter: limiter}
		httpClient = &throttled
	}

	return &SpotifyService{
		client: spotify.New(httpClient, opts...),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Profile retrieves the current listener's account.
func (s *SpotifyService) Profile(ctx context.Context) (*models.SpotifyProfile, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, wrapSpotifyError("fetch profile", err)
	}

	return &models.SpotifyProfile{
		SpotifyID:    user.ID,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		Country:      user.Country,
		Followers:    int(user.Followers.Count),
		ProfileImage: firstImage(user.Images),
	}, nil
}

// TopTracks retrieves the listener's most played tracks for timeRange.
//
// Spotify does not expose play counts, so PlayCount carries the track's popularity.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange string, limit int) ([]models.TopTrack, error) {
	if err := ValidateTimeRange(timeRange); err != nil {
		return nil, err
	}

	page, err := s.client.CurrentUsersTopTracks(ctx,
		spotify.Limit(clampLimit(limit)),
		spotify.Timerange(spotify.Range(timeRange)),
	)
	if err != nil {
		return nil, wrapSpotifyError("fetch top tracks", err)
	}

	now := s.now()
	tracks := make([]models.TopTrack, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, a.Name)
		}

		tracks = append(tracks, models.TopTrack{
			SpotifyID:   t.ID.String(),
			Name:        t.Name,
			Artists:     artists,
			Image:       firstImage(t.Album.Images),
			PlayCount:   int(t.Popularity),
			TimeRange:   timeRange,
			LastUpdated: now,
		})
	}
	return tracks, nil
}

// TopArtists retrieves the listener's most played artists for timeRange.
func (s *SpotifyService) TopArtists(ctx context.Context, timeRange string, limit int) ([]models.TopArtist, error) {
	if err := ValidateTimeRange(timeRange); err != nil {
		return nil, err
	}

	page, err := s.client.CurrentUsersTopArtists(ctx,
		spotify.Limit(clampLimit(limit)),
		spotify.Timerange(spotify.Range(timeRange)),
	)
	if err != nil {
		return nil, wrapSpotifyError("fetch top artists", err)
	}

	now := s.now()
	artists := make([]models.TopArtist, 0, len(page.Artists))
	for _, a := range page.Artists {
		genres := a.Genres
		if genres == nil {
			genres = []string{}
		}

		artists = append(artists, models.TopArtist{
			SpotifyID:   a.ID.String(),
			Name:        a.Name,
			Genres:      genres,
			Image:       firstImage(a.Images),
			PlayCount:   int(a.Popularity),
			TimeRange:   timeRange,
			LastUpdated: now,
		})
	}
	return artists, nil
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// wrapSpotifyError maps API failures to shared sentinels, keeping Spotify's message.
func wrapSpotifyError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, apiErr.Message)
	}
	return fmt.Errorf("%w: failed to %s: %v", shared.ErrAPIRequest, op, err)
}
