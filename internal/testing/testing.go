// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/quirxsama/latte-sub000/internal/models"
)

// MockStatsSource is a test double for services.StatsSource.
//
// Tracks and Artists are keyed by time range. Calls records each method call as "method:timeRange".
type MockStatsSource struct {
	User    *models.SpotifyProfile
	Tracks  map[string][]models.TopTrack
	Artists map[string][]models.TopArtist

	ProfileErr error
	TracksErr  error
	ArtistsErr error

	mu    sync.Mutex
	calls []string
}

func (m *MockStatsSource) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the recorded calls in order.
func (m *MockStatsSource) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockStatsSource) Profile(ctx context.Context) (*models.SpotifyProfile, error) {
	m.record("profile")
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if m.User == nil {
		return nil, errors.New("no profile configured")
	}
	p := *m.User
	return &p, nil
}

func (m *MockStatsSource) TopTracks(ctx context.Context, timeRange string, limit int) ([]models.TopTrack, error) {
	m.record("tracks:" + timeRange)
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	tracks := m.Tracks[timeRange]
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (m *MockStatsSource) TopArtists(ctx context.Context, timeRange string, limit int) ([]models.TopArtist, error) {
	m.record("artists:" + timeRange)
	if m.ArtistsErr != nil {
		return nil, m.ArtistsErr
	}
	artists := m.Artists[timeRange]
	if len(artists) > limit {
		artists = artists[:limit]
	}
	return artists, nil
}

// Stats builds a snapshot from artist ids, track ids and genre names.
//
// Each artist is tagged with every genre so derived genres match the given list.
func Stats(artists, tracks, genres []string) models.MusicStats {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := models.MusicStats{}
	for _, id := range artists {
		s.TopArtists = append(s.TopArtists, models.TopArtist{
			SpotifyID: id, Name: "Artist " + id, Genres: genres,
			TimeRange: models.TimeRangeMedium, LastUpdated: now,
		})
	}
	for _, id := range tracks {
		s.TopTracks = append(s.TopTracks, models.TopTrack{
			SpotifyID: id, Name: "Track " + id, Artists: []string{"Artist"},
			TimeRange: models.TimeRangeMedium, LastUpdated: now,
		})
	}
	for _, g := range genres {
		s.TopGenres = append(s.TopGenres, models.TopGenre{Name: g, Count: 1})
	}
	return s.Normalize()
}

// NewUser returns an in-memory user with default privacy settings.
func NewUser(id int64, name string, stats models.MusicStats) *models.User {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.User{
		ID:              id,
		UserID:          fmt.Sprintf("USER%04d", id),
		SpotifyID:       fmt.Sprintf("spotify-%d", id),
		DisplayName:     name,
		MusicStats:      stats,
		PrivacySettings: models.DefaultPrivacySettings(),
		StatsUpdatedAt:  &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
