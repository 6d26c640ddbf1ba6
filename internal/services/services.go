package services

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/oauth2"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// StatsSource provides the listening data of one authenticated listener.
type StatsSource interface {
	// Profile returns the listener's account details.
	Profile(ctx context.Context) (*models.SpotifyProfile, error)

	// TopTracks returns up to limit of the listener's top tracks for timeRange.
	TopTracks(ctx context.Context, timeRange string, limit int) ([]models.TopTrack, error)

	// TopArtists returns up to limit of the listener's top artists for timeRange.
	TopArtists(ctx context.Context, timeRange string, limit int) ([]models.TopArtist, error)
}

// Authenticator runs the authorization code flow and binds the resulting token to a [StatsSource].
// Implemented by [SpotifyAuth].
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Source(ctx context.Context, tok *oauth2.Token) StatsSource
}

// TimeRanges lists the time ranges Spotify supports, shortest first.
var TimeRanges = []string{models.TimeRangeShort, models.TimeRangeMedium, models.TimeRangeLong}

// ValidateTimeRange returns [shared.ErrInvalidArgument] for anything but a Spotify time range.
func ValidateTimeRange(timeRange string) error {
	if !slices.Contains(TimeRanges, timeRange) {
		return fmt.Errorf("%w: unknown time range %q", shared.ErrInvalidArgument, timeRange)
	}
	return nil
}

// clampLimit keeps limit within Spotify's 1..50 page size.
func clampLimit(limit int) int {
	return min(max(limit, 1), 50)
}
