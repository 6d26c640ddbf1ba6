package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Spotify time ranges for top items.
const (
	TimeRangeShort  = "short_term"
	TimeRangeMedium = "medium_term"
	TimeRangeLong   = "long_term"
)

// MaxTopGenres caps the derived genre list.
const MaxTopGenres = 20

// MusicStats is a user's listening snapshot. Lists are never nil once normalized.
type MusicStats struct {
	TopTracks  []TopTrack  `json:"topTracks"`
	TopArtists []TopArtist `json:"topArtists"`
	TopGenres  []TopGenre  `json:"topGenres"`
}

// TopTrack is one entry of a user's top tracks for a time range.
type TopTrack struct {
	SpotifyID   string    `json:"spotifyId"`
	Name        string    `json:"name"`
	Artists     []string  `json:"artists"`
	Image       string    `json:"image,omitempty"`
	PlayCount   int       `json:"playCount"`
	TimeRange   string    `json:"timeRange"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TopArtist is one entry of a user's top artists for a time range.
type TopArtist struct {
	SpotifyID   string    `json:"spotifyId"`
	Name        string    `json:"name"`
	Genres      []string  `json:"genres"`
	Image       string    `json:"image,omitempty"`
	PlayCount   int       `json:"playCount"`
	TimeRange   string    `json:"timeRange"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TopGenre is a genre with the number of top artists tagged with it.
type TopGenre struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Normalize replaces nil lists with empty ones and derives topGenres from the artists
// when it was not provided.
func (s MusicStats) Normalize() MusicStats {
	out := MusicStats{
		TopTracks:  s.TopTracks,
		TopArtists: s.TopArtists,
		TopGenres:  s.TopGenres,
	}
	if out.TopTracks == nil {
		out.TopTracks = []TopTrack{}
	}
	if out.TopArtists == nil {
		out.TopArtists = []TopArtist{}
	}
	if len(out.TopGenres) == 0 {
		out.TopGenres = DeriveTopGenres(out.TopArtists, MaxTopGenres)
	}
	for i := range out.TopTracks {
		if out.TopTracks[i].Artists == nil {
			out.TopTracks[i].Artists = []string{}
		}
	}
	for i := range out.TopArtists {
		if out.TopArtists[i].Genres == nil {
			out.TopArtists[i].Genres = []string{}
		}
	}
	return out
}

// IsEmpty reports whether the snapshot has no tracks, artists or genres.
func (s MusicStats) IsEmpty() bool {
	return len(s.TopTracks) == 0 && len(s.TopArtists) == 0 && len(s.TopGenres) == 0
}

// DeriveTopGenres counts genres across distinct artists and returns at most limit genres,
// most frequent first. Percentages are relative to all genre mentions.
func DeriveTopGenres(artists []TopArtist, limit int) []TopGenre {
	counts := make(map[string]int)
	seen := make(map[string]bool)
	total := 0

	for _, a := range artists {
		key := a.SpotifyID
		if key == "" {
			key = a.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, g := range a.Genres {
			g = strings.TrimSpace(strings.ToLower(g))
			if g == "" {
				continue
			}
			counts[g]++
			total++
		}
	}

	genres := make([]TopGenre, 0, len(counts))
	for name, count := range counts {
		genres = append(genres, TopGenre{
			Name:       name,
			Count:      count,
			Percentage: int(math.Round(float64(count) * 100 / float64(total))),
		})
	}

	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Count != genres[j].Count {
			return genres[i].Count > genres[j].Count
		}
		return genres[i].Name < genres[j].Name
	})

	if limit > 0 && len(genres) > limit {
		genres = genres[:limit]
	}
	return genres
}
