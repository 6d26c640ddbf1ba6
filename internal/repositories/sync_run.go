package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// SyncRunRepository records the history of Spotify stats syncs.
type SyncRunRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db, now: utcNow}
}

const syncRunColumns = `id, user_id, status, time_ranges, tracks, artists, genres, error_message, started_at, completed_at`

// Start inserts a running sync for userID.
func (r *SyncRunRepository) Start(ctx context.Context, userID int64, timeRanges []string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:         shared.GenerateID(),
		UserID:     userID,
		Status:     models.SyncRunning,
		TimeRanges: timeRanges,
		StartedAt:  r.now(),
	}
	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, user_id, status, time_ranges, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.UserID, run.Status, strings.Join(timeRanges, ","), run.StartedAt,
	)
	if shared.IsForeignKeyViolation(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert sync run: %w", err)
	}
	return run, nil
}

// Complete marks a running sync as completed with its item counts.
func (r *SyncRunRepository) Complete(ctx context.Context, id string, tracks, artists, genres int) error {
	return r.finish(ctx,
		`UPDATE sync_runs SET status = ?, tracks = ?, artists = ?, genres = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		models.SyncCompleted, tracks, artists, genres, r.now(), id, models.SyncRunning,
	)
}

// Fail marks a running sync as failed with cause's message.
func (r *SyncRunRepository) Fail(ctx context.Context, id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return r.finish(ctx,
		`UPDATE sync_runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ? AND status = ?`,
		models.SyncFailed, msg, r.now(), id, models.SyncRunning,
	)
}

func (r *SyncRunRepository) finish(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return shared.ErrSyncRunNotFound
	}
	return nil
}

// Get retrieves a sync run by id.
func (r *SyncRunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+syncRunColumns+` FROM sync_runs WHERE id = ?`, id)
	return scanSyncRunOne(row)
}

// Latest retrieves the most recent sync for userID.
func (r *SyncRunRepository) Latest(ctx context.Context, userID int64) (*models.SyncRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+syncRunColumns+` FROM sync_runs WHERE user_id = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		userID,
	)
	return scanSyncRunOne(row)
}

// List retrieves up to limit syncs for userID, newest first.
func (r *SyncRunRepository) List(ctx context.Context, userID int64, limit int) ([]*models.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+syncRunColumns+` FROM sync_runs WHERE user_id = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		userID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func scanSyncRunOne(row scanner) (*models.SyncRun, error) {
	run, err := scanSyncRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSyncRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return run, nil
}

func scanSyncRun(row scanner) (*models.SyncRun, error) {
	var (
		run         models.SyncRun
		ranges      string
		errorMsg    sql.NullString
		completedAt sql.NullTime
	)

	err := row.Scan(&run.ID, &run.UserID, &run.Status, &ranges, &run.Tracks, &run.Artists, &run.Genres,
		&errorMsg, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.TimeRanges = []string{}
	if ranges != "" {
		run.TimeRanges = strings.Split(ranges, ",")
	}
	if errorMsg.Valid {
		run.Error = errorMsg.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}
