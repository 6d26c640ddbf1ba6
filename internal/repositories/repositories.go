package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quirxsama/latte-sub000/internal/models"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func utcNow() time.Time {
	return time.Now().UTC()
}

const userColumns = `u.id, u.user_id, u.spotify_id, u.display_name, u.email, u.profile_image, u.country,
	u.followers, u.music_stats, u.privacy_settings, u.stats_updated_at, u.last_login_at, u.created_at, u.updated_at`

// scanUser reads a row selected with userColumns.
func scanUser(row scanner) (*models.User, error) {
	var (
		u              models.User
		stats, privacy string
		statsUpdatedAt sql.NullTime
		lastLoginAt    sql.NullTime
	)

	err := row.Scan(&u.ID, &u.UserID, &u.SpotifyID, &u.DisplayName, &u.Email, &u.ProfileImage, &u.Country,
		&u.Followers, &stats, &privacy, &statsUpdatedAt, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stats), &u.MusicStats); err != nil {
		return nil, fmt.Errorf("failed to decode music stats for user %d: %w", u.ID, err)
	}
	u.MusicStats = u.MusicStats.Normalize()

	if err := json.Unmarshal([]byte(privacy), &u.PrivacySettings); err != nil {
		return nil, fmt.Errorf("failed to decode privacy settings for user %d: %w", u.ID, err)
	}

	if statsUpdatedAt.Valid {
		u.StatsUpdatedAt = &statsUpdatedAt.Time
	}
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}
	return &u, nil
}

const summaryColumns = `u.id, u.user_id, u.display_name, u.profile_image, u.country, u.followers`

func summaryDest(s *models.UserSummary) []any {
	return []any{&s.ID, &s.UserID, &s.DisplayName, &s.ProfileImage, &s.Country, &s.Followers}
}

// likePattern wraps q in wildcards, escaping LIKE metacharacters with a backslash.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultSearchLimit
	case limit > maxSearchLimit:
		return maxSearchLimit
	}
	return limit
}
