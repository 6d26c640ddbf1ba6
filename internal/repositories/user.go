package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// userCodeAttempts bounds retries when a freshly generated public code collides.
const userCodeAttempts = 5

// UserRepository persists [models.User] records.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: utcNow}
}

// UpsertFromSpotify creates the user on first login or refreshes the profile fields on later logins.
// Music stats and privacy settings are left untouched for existing users.
func (r *UserRepository) UpsertFromSpotify(ctx context.Context, p models.SpotifyProfile) (*models.User, error) {
	if p.SpotifyID == "" {
		return nil, fmt.Errorf("%w: spotify id is required", shared.ErrInvalidInput)
	}

	now := r.now()
	var id int64

	err := shared.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE spotify_id = ?", p.SpotifyID).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id, err = r.insert(ctx, tx, p, now)
			return err
		case err != nil:
			return fmt.Errorf("failed to query user: %w", err)
		}

		query := `
			UPDATE users
			SET display_name = ?, email = ?, profile_image = ?, country = ?, followers = ?,
				last_login_at = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query, p.DisplayName, p.Email, p.ProfileImage, p.Country, p.Followers, now, now, id)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, id)
}

// insert creates a user row with a fresh public code, default privacy settings and empty stats.
func (r *UserRepository) insert(ctx context.Context, q querier, p models.SpotifyProfile, now time.Time) (int64, error) {
	stats, err := json.Marshal(models.MusicStats{}.Normalize())
	if err != nil {
		return 0, fmt.Errorf("failed to encode music stats: %w", err)
	}
	privacy, err := json.Marshal(models.DefaultPrivacySettings())
	if err != nil {
		return 0, fmt.Errorf("failed to encode privacy settings: %w", err)
	}

	query := `
		INSERT INTO users (user_id, spotify_id, display_name, email, profile_image, country, followers,
			music_stats, privacy_settings, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for range userCodeAttempts {
		code := shared.GenerateUserCode()
		res, err := q.ExecContext(ctx, query, code, p.SpotifyID, p.DisplayName, p.Email, p.ProfileImage, p.Country,
			p.Followers, string(stats), string(privacy), now, now, now)
		if err != nil {
			if shared.IsUniqueViolation(err) && strings.Contains(err.Error(), "users.user_id") {
				continue
			}
			return 0, fmt.Errorf("failed to insert user: %w", err)
		}
		return res.LastInsertId()
	}

	return 0, fmt.Errorf("failed to insert user: could not allocate a unique user code")
}

// Get retrieves a user by internal id.
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "u.id = ?", id)
}

// GetByUserID retrieves a user by public code. Codes are matched case-insensitively.
func (r *UserRepository) GetByUserID(ctx context.Context, code string) (*models.User, error) {
	return r.getBy(ctx, "u.user_id = ?", strings.ToUpper(strings.TrimSpace(code)))
}

// GetBySpotifyID retrieves a user by Spotify account id.
func (r *UserRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*models.User, error) {
	return r.getBy(ctx, "u.spotify_id = ?", spotifyID)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users u WHERE " + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrUserNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// List returns users ordered by creation, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + userColumns + " FROM users u ORDER BY u.created_at DESC, u.id DESC LIMIT ? OFFSET ?"
	return r.queryUsers(ctx, query, limit, max(offset, 0))
}

// ListFriends returns the full records of userID's accepted friends, ordered by display name.
func (r *UserRepository) ListFriends(ctx context.Context, userID int64) ([]*models.User, error) {
	query := "SELECT " + userColumns + `
		FROM friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ? AND f.status = 'accepted'
		ORDER BY u.display_name COLLATE NOCASE, u.id
	`
	return r.queryUsers(ctx, query, userID)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateMusicStats replaces the user's stats snapshot and returns the updated user.
func (r *UserRepository) UpdateMusicStats(ctx context.Context, id int64, stats models.MusicStats) (*models.User, error) {
	data, err := json.Marshal(stats.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to encode music stats: %w", err)
	}

	now := r.now()
	query := `UPDATE users SET music_stats = ?, stats_updated_at = ?, updated_at = ? WHERE id = ?`
	if err := r.execOne(ctx, query, string(data), now, now, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// UpdatePrivacy replaces the user's privacy settings.
func (r *UserRepository) UpdatePrivacy(ctx context.Context, id int64, settings models.PrivacySettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode privacy settings: %w", err)
	}

	query := `UPDATE users SET privacy_settings = ?, updated_at = ? WHERE id = ?`
	return r.execOne(ctx, query, string(data), r.now(), id)
}

// Delete removes a user; friendships and requests are removed by cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, "DELETE FROM users WHERE id = ?", id)
}

// execOne runs a statement against exactly one user row, identified by the last argument.
func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %v", shared.ErrUserNotFound, args[len(args)-1])
	}
	return nil
}
