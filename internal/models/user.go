package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// User is a Latte account created on first Spotify login.
//
// ID is the internal key used for every relationship; UserID is the public short code.
type User struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"userId"`
	SpotifyID       string          `json:"spotifyId"`
	DisplayName     string          `json:"displayName"`
	Email           string          `json:"email,omitempty"`
	ProfileImage    string          `json:"profileImage"`
	Country         string          `json:"country"`
	Followers       int             `json:"followers"`
	MusicStats      MusicStats      `json:"musicStats"`
	PrivacySettings PrivacySettings `json:"privacySettings"`
	StatsUpdatedAt  *time.Time      `json:"statsUpdatedAt,omitempty"`
	LastLoginAt     *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Validate checks the fields the store requires.
func (u *User) Validate() error {
	if u.SpotifyID == "" {
		return fmt.Errorf("spotify id is required")
	}
	if u.UserID == "" {
		return fmt.Errorf("user code is required")
	}
	return nil
}

// Summary returns the public identity of u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		UserID:       u.UserID,
		DisplayName:  u.DisplayName,
		ProfileImage: u.ProfileImage,
		Country:      u.Country,
		Followers:    u.Followers,
	}
}

// StatsVersion identifies the current stats snapshot; it changes whenever stats are replaced.
func (u *User) StatsVersion() int64 {
	if u.StatsUpdatedAt == nil {
		return 0
	}
	return u.StatsUpdatedAt.UnixNano()
}

// PublicProfile returns the view of u shown to another user, honoring privacy settings.
// The owner always sees everything.
func (u *User) PublicProfile(owner bool, rel Relationship) PublicProfile {
	p := PublicProfile{UserSummary: u.Summary(), Relationship: rel}
	if owner || u.PrivacySettings.ShowTopTracks {
		p.TopTracks = u.MusicStats.TopTracks
	}
	if owner || u.PrivacySettings.ShowTopArtists {
		p.TopArtists = u.MusicStats.TopArtists
		p.TopGenres = u.MusicStats.TopGenres
	}
	return p
}

// SpotifyProfile is the subset of the Spotify account used to create or refresh a [User].
type SpotifyProfile struct {
	SpotifyID    string
	DisplayName  string
	Email        string
	ProfileImage string
	Country      string
	Followers    int
}

// PrivacySettings controls what other users may see or do.
type PrivacySettings struct {
	AllowComparison     bool `json:"allowComparison"`
	ShowProfile         bool `json:"showProfile"`
	ShowTopTracks       bool `json:"showTopTracks"`
	ShowTopArtists      bool `json:"showTopArtists"`
	AllowFriendRequests bool `json:"allowFriendRequests"`
}

// DefaultPrivacySettings returns the settings given to new users: everything allowed.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		AllowComparison:     true,
		ShowProfile:         true,
		ShowTopTracks:       true,
		ShowTopArtists:      true,
		AllowFriendRequests: true,
	}
}

// UnmarshalJSON decodes settings, keeping defaults for absent keys.
func (p *PrivacySettings) UnmarshalJSON(data []byte) error {
	type plain PrivacySettings
	settings := plain(DefaultPrivacySettings())
	if err := json.Unmarshal(data, &settings); err != nil {
		return err
	}
	*p = PrivacySettings(settings)
	return nil
}

// UserSummary is the public identity of a user.
type UserSummary struct {
	ID           int64  `json:"id"`
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	ProfileImage string `json:"profileImage"`
	Country      string `json:"country"`
	Followers    int    `json:"followers"`
}

// PublicProfile is a user as seen by someone else.
type PublicProfile struct {
	UserSummary
	Relationship Relationship `json:"relationship"`
	TopTracks    []TopTrack   `json:"topTracks,omitempty"`
	TopArtists   []TopArtist  `json:"topArtists,omitempty"`
	TopGenres    []TopGenre   `json:"topGenres,omitempty"`
}

// SearchResult is one row of a user search, annotated with the viewer's relationship.
type SearchResult struct {
	UserSummary
	Relationship Relationship `json:"relationship"`
}
