package tasks

import (
	"context"
	"fmt"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/services"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

const defaultSyncLimit = 50

// UserStore persists the synced listener. Implemented by repositories.UserRepository.
type UserStore interface {
	UpsertFromSpotify(ctx context.Context, p models.SpotifyProfile) (*models.User, error)
	UpdateMusicStats(ctx context.Context, id int64, stats models.MusicStats) (*models.User, error)
}

// RunRecorder records sync history. Implemented by repositories.SyncRunRepository.
type RunRecorder interface {
	Start(ctx context.Context, userID int64, timeRanges []string) (*models.SyncRun, error)
	Complete(ctx context.Context, id string, tracks, artists, genres int) error
	Fail(ctx context.Context, id string, cause error) error
}

// SyncResult contains the outcome of a stats sync.
type SyncResult struct {
	User       *models.User // Stored user with the new snapshot
	TimeRanges []string     // Time ranges fetched
	Tracks     int          // Distinct tracks stored
	Artists    int          // Distinct artists stored
	Genres     int          // Genres derived
	RunID      string       // Recorded sync run, empty without a recorder
}

// SyncEngine defines long-running operations on listening data.
type SyncEngine interface {
	// Run fetches the listener's profile and top items from source, then replaces their stored snapshot.
	Run(ctx context.Context, progress chan<- ProgressUpdate, source services.StatsSource) (*SyncResult, error)

	// ExportReports writes a compatibility report against each friend into a directory.
	ExportReports(ctx context.Context, progress chan<- ProgressUpdate, viewer *models.User, friends []*models.User, opts ReportOpts) (*ReportExportResult, error)
}

// StatsEngine implements [SyncEngine].
type StatsEngine struct {
	users      UserStore
	recorder   RunRecorder
	timeRanges []string
	limit      int
}

// NewStatsEngine creates a StatsEngine that fetches up to limit items for each time range.
//
// Empty timeRanges defaults to all three Spotify ranges.
func NewStatsEngine(users UserStore, timeRanges []string, limit int) *StatsEngine {
	if len(timeRanges) == 0 {
		timeRanges = services.TimeRanges
	}
	if limit <= 0 {
		limit = defaultSyncLimit
	}
	return &StatsEngine{users: users, timeRanges: timeRanges, limit: limit}
}

// WithRecorder enables sync history. Recorder failures are ignored so they never fail a sync.
func (e *StatsEngine) WithRecorder(r RunRecorder) *StatsEngine {
	e.recorder = r
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *StatsEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a full Spotify sync for the authenticated listener.
//
// Nothing is written to the stats column unless every time range was fetched.
func (e *StatsEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, source services.StatsSource) (*SyncResult, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: stats source", shared.ErrMissingArgument)
	}
	if e.users == nil {
		return nil, fmt.Errorf("%w: user store", shared.ErrMissingArgument)
	}
	for _, tr := range e.timeRanges {
		if err := services.ValidateTimeRange(tr); err != nil {
			return nil, err
		}
	}

	e.sendProgress(progress, fetchProfileUpdate())

	profile, err := source.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	user, err := e.users.UpsertFromSpotify(ctx, *profile)
	if err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	e.sendProgress(progress, foundProfileUpdate(user.DisplayName, user.UserID))

	var runID string
	if e.recorder != nil {
		if run, err := e.recorder.Start(ctx, user.ID, e.timeRanges); err == nil {
			runID = run.ID
		}
	}

	result, err := e.syncStats(ctx, progress, source, user)
	if runID != "" {
		if err != nil {
			_ = e.recorder.Fail(context.WithoutCancel(ctx), runID, err)
		} else {
			_ = e.recorder.Complete(ctx, runID, result.Tracks, result.Artists, result.Genres)
		}
	}
	if err != nil {
		return nil, err
	}

	result.RunID = runID
	e.sendProgress(progress, saveStatsUpdate(result.Tracks, result.Artists, result.Genres))
	return result, nil
}

// syncStats fetches every configured time range and replaces user's snapshot.
func (e *StatsEngine) syncStats(ctx context.Context, progress chan<- ProgressUpdate, source services.StatsSource, user *models.User) (*SyncResult, error) {
	var (
		tracks  []models.TopTrack
		artists []models.TopArtist
		total   = len(e.timeRanges)
	)
	for i, tr := range e.timeRanges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.sendProgress(progress, fetchTracksUpdate(i+1, total, tr))
		t, err := source.TopTracks(ctx, tr, e.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch top tracks (%s): %w", tr, err)
		}
		tracks = append(tracks, t...)

		e.sendProgress(progress, fetchArtistsUpdate(i+1, total, tr))
		a, err := source.TopArtists(ctx, tr, e.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch top artists (%s): %w", tr, err)
		}
		artists = append(artists, a...)
	}

	e.sendProgress(progress, deriveGenresUpdate(len(artists)))
	stats := BuildMusicStats(tracks, artists)

	saved, err := e.users.UpdateMusicStats(ctx, user.ID, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to save music stats: %w", err)
	}

	return &SyncResult{
		User:       saved,
		TimeRanges: e.timeRanges,
		Tracks:     len(stats.TopTracks),
		Artists:    len(stats.TopArtists),
		Genres:     len(stats.TopGenres),
	}, nil
}

// BuildMusicStats assembles a snapshot from fetched items.
//
// An item listed in several time ranges is kept once, at its first (shortest range) position.
func BuildMusicStats(tracks []models.TopTrack, artists []models.TopArtist) models.MusicStats {
	seenTracks := make(map[string]bool, len(tracks))
	uniqueTracks := make([]models.TopTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.SpotifyID == "" || seenTracks[t.SpotifyID] {
			continue
		}
		seenTracks[t.SpotifyID] = true
		uniqueTracks = append(uniqueTracks, t)
	}

	seenArtists := make(map[string]bool, len(artists))
	uniqueArtists := make([]models.TopArtist, 0, len(artists))
	for _, a := range artists {
		if a.SpotifyID == "" || seenArtists[a.SpotifyID] {
			continue
		}
		seenArtists[a.SpotifyID] = true
		uniqueArtists = append(uniqueArtists, a)
	}

	stats := models.MusicStats{
		TopTracks:  uniqueTracks,
		TopArtists: uniqueArtists,
		TopGenres:  models.DeriveTopGenres(uniqueArtists, models.MaxTopGenres),
	}
	return stats.Normalize()
}
