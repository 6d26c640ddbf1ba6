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

// FriendRepository stores friend requests and friendships.
//
// A friendship is two directed rows in friends, written and removed together.
// There is at most one friend_requests row per ordered (sender, receiver) pair;
// a request in the opposite direction is a separate row.
type FriendRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewFriendRepository creates a new [FriendRepository] with the given database connection
func NewFriendRepository(db *sql.DB) *FriendRepository {
	return &FriendRepository{db: db, now: utcNow}
}

const requestColumns = `id, sender_id, receiver_id, status, sent_at, responded_at`

func scanRequest(row scanner) (*models.FriendRequest, error) {
	var (
		req         models.FriendRequest
		status      string
		respondedAt sql.NullTime
	)
	if err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &status, &req.SentAt, &respondedAt); err != nil {
		return nil, err
	}
	req.Status = models.FriendRequestStatus(status)
	if respondedAt.Valid {
		req.RespondedAt = &respondedAt.Time
	}
	return &req, nil
}

// SendFriendRequest records a pending request from senderID to receiverID.
//
// A second request for the same ordered pair fails with [shared.ErrFriendRequestExists],
// whatever the state of the first one.
func (r *FriendRepository) SendFriendRequest(ctx context.Context, senderID, receiverID int64) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, shared.ErrSelfFriendRequest
	}

	req := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
		SentAt:     r.now(),
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `INSERT INTO friend_requests (sender_id, receiver_id, status, sent_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, senderID, receiverID, string(req.Status), req.SentAt)
	switch {
	case shared.IsUniqueViolation(err):
		return nil, fmt.Errorf("%w: %d -> %d", shared.ErrFriendRequestExists, senderID, receiverID)
	case shared.IsForeignKeyViolation(err):
		return nil, fmt.Errorf("%w: %d -> %d", shared.ErrUserNotFound, senderID, receiverID)
	case err != nil:
		return nil, fmt.Errorf("failed to insert friend request: %w", err)
	}

	if req.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read friend request id: %w", err)
	}
	return req, nil
}

// AcceptFriendRequest marks a pending request addressed to actingUserID as accepted and
// creates both directed friendship rows, all in one transaction.
//
// Fails with [shared.ErrFriendRequestNotFound] when the request does not exist, is not
// addressed to actingUserID, or was already answered.
func (r *FriendRepository) AcceptFriendRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error) {
	now := r.now()
	var req *models.FriendRequest

	err := shared.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		req, err = r.respond(ctx, tx, requestID, actingUserID, models.FriendRequestAccepted, now)
		if err != nil {
			return err
		}

		query := `
			INSERT OR IGNORE INTO friends (user_id, friend_id, status, added_at)
			VALUES (?, ?, 'accepted', ?), (?, ?, 'accepted', ?)
		`
		if _, err := tx.ExecContext(ctx, query, req.SenderID, req.ReceiverID, now, req.ReceiverID, req.SenderID, now); err != nil {
			return fmt.Errorf("failed to insert friendship: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// DeclineFriendRequest marks a pending request addressed to actingUserID as rejected.
//
// The request row stays, so the same sender cannot ask again.
func (r *FriendRepository) DeclineFriendRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	err := shared.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		req, err = r.respond(ctx, tx, requestID, actingUserID, models.FriendRequestRejected, r.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// respond moves a pending request to status; only the receiver may respond.
func (r *FriendRepository) respond(ctx context.Context, tx *sql.Tx, requestID, actingUserID int64, status models.FriendRequestStatus, at time.Time) (*models.FriendRequest, error) {
	query := `
		UPDATE friend_requests
		SET status = ?, responded_at = ?
		WHERE id = ? AND receiver_id = ? AND status = 'pending'
	`
	result, err := tx.ExecContext(ctx, query, string(status), at, requestID, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update friend request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %d", shared.ErrFriendRequestNotFound, requestID)
	}

	req, err := scanRequest(tx.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM friend_requests WHERE id = ?", requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to reload friend request: %w", err)
	}
	return req, nil
}

// GetFriendRequest retrieves a request by id.
func (r *FriendRepository) GetFriendRequest(ctx context.Context, requestID int64) (*models.FriendRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM friend_requests WHERE id = ?", requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrFriendRequestNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query friend request: %w", err)
	}
	return req, nil
}

// RemoveFriend deletes the friendship between a and b in both directions, together with the
// accepted requests between them so either may send a new one. Removing a friendship that
// does not exist is not an error.
func (r *FriendRepository) RemoveFriend(ctx context.Context, a, b int64) error {
	return shared.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			DELETE FROM friends
			WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
		`
		if _, err := tx.ExecContext(ctx, query, a, b, b, a); err != nil {
			return fmt.Errorf("failed to delete friendship: %w", err)
		}

		query = `
			DELETE FROM friend_requests
			WHERE status = 'accepted'
				AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		`
		if _, err := tx.ExecContext(ctx, query, a, b, b, a); err != nil {
			return fmt.Errorf("failed to delete accepted requests: %w", err)
		}
		return nil
	})
}

// CheckFriendship reports whether a has b as an accepted friend.
func (r *FriendRepository) CheckFriendship(ctx context.Context, a, b int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friends WHERE user_id = ? AND friend_id = ? AND status = 'accepted')`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// GetFriendRequestStatus returns the status of the most recent request from senderID to
// receiverID. found is false when no request exists for that ordered pair.
func (r *FriendRepository) GetFriendRequestStatus(ctx context.Context, senderID, receiverID int64) (status models.FriendRequestStatus, found bool, err error) {
	query := `
		SELECT status FROM friend_requests
		WHERE sender_id = ? AND receiver_id = ?
		ORDER BY sent_at DESC, id DESC
		LIMIT 1
	`

	var s string
	err = r.db.QueryRowContext(ctx, query, senderID, receiverID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query friend request status: %w", err)
	}
	return models.FriendRequestStatus(s), true, nil
}

// Friends lists userID's accepted friends, ordered by display name.
func (r *FriendRepository) Friends(ctx context.Context, userID int64) ([]models.FriendSummary, error) {
	query := "SELECT " + summaryColumns + `, f.added_at
		FROM friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ? AND f.status = 'accepted'
		ORDER BY u.display_name COLLATE NOCASE, u.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	friends := []models.FriendSummary{}
	for rows.Next() {
		var f models.FriendSummary
		if err := rows.Scan(append(summaryDest(&f.UserSummary), &f.AddedAt)...); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return friends, nil
}

// PendingRequests lists requests waiting on receiverID, newest first.
func (r *FriendRepository) PendingRequests(ctx context.Context, receiverID int64) ([]models.PendingRequest, error) {
	query := "SELECT fr.id, fr.sent_at, " + summaryColumns + `
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.receiver_id = ? AND fr.status = 'pending'
		ORDER BY fr.sent_at DESC, fr.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	requests := []models.PendingRequest{}
	for rows.Next() {
		var p models.PendingRequest
		if err := rows.Scan(append([]any{&p.ID, &p.SentAt}, summaryDest(&p.Sender)...)...); err != nil {
			return nil, fmt.Errorf("failed to scan pending request: %w", err)
		}
		requests = append(requests, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending requests: %w", err)
	}
	return requests, nil
}

// SentRequests lists pending requests sent by senderID, newest first.
func (r *FriendRepository) SentRequests(ctx context.Context, senderID int64) ([]models.SentRequest, error) {
	query := "SELECT fr.id, fr.sent_at, " + summaryColumns + `
		FROM friend_requests fr
		JOIN users u ON u.id = fr.receiver_id
		WHERE fr.sender_id = ? AND fr.status = 'pending'
		ORDER BY fr.sent_at DESC, fr.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent requests: %w", err)
	}
	defer rows.Close()

	requests := []models.SentRequest{}
	for rows.Next() {
		var s models.SentRequest
		if err := rows.Scan(append([]any{&s.ID, &s.SentAt}, summaryDest(&s.Receiver)...)...); err != nil {
			return nil, fmt.Errorf("failed to scan sent request: %w", err)
		}
		requests = append(requests, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent requests: %w", err)
	}
	return requests, nil
}

// relationshipExpr classifies user u relative to the viewer bound to the three placeholders.
// friend wins over request_sent, which wins over request_received.
const relationshipExpr = `
	CASE
		WHEN EXISTS (SELECT 1 FROM friends f
			WHERE f.user_id = ? AND f.friend_id = u.id AND f.status = 'accepted') THEN 'friend'
		WHEN EXISTS (SELECT 1 FROM friend_requests rs
			WHERE rs.sender_id = ? AND rs.receiver_id = u.id AND rs.status = 'pending') THEN 'request_sent'
		WHEN EXISTS (SELECT 1 FROM friend_requests rr
			WHERE rr.sender_id = u.id AND rr.receiver_id = ? AND rr.status = 'pending') THEN 'request_received'
		ELSE 'none'
	END`

// Relationship returns how otherID relates to viewerID.
func (r *FriendRepository) Relationship(ctx context.Context, viewerID, otherID int64) (models.Relationship, error) {
	query := "SELECT " + relationshipExpr + " FROM users u WHERE u.id = ?"

	var rel string
	err := r.db.QueryRowContext(ctx, query, viewerID, viewerID, viewerID, otherID).Scan(&rel)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", shared.ErrUserNotFound, otherID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query relationship: %w", err)
	}
	return models.Relationship(rel), nil
}

// Search finds users other than viewerID whose display name contains query or whose public
// code equals it, skipping users who hide their profile. Each result carries its relationship to the viewer,
// computed in the same statement.
func (r *FriendRepository) Search(ctx context.Context, viewerID int64, query string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}

	stmt := "SELECT " + summaryColumns + ", " + relationshipExpr + `
		FROM users u
		WHERE u.id != ?
			AND (u.display_name LIKE ? ESCAPE '\' OR u.user_id = ?)
			AND COALESCE(json_extract(u.privacy_settings, '$.showProfile'), 1) = 1
		ORDER BY u.display_name COLLATE NOCASE, u.id
		LIMIT ?
	`
	code := strings.ToUpper(query)

	rows, err := r.db.QueryContext(ctx, stmt, viewerID, viewerID, viewerID, viewerID, likePattern(query), code, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var (
			res models.SearchResult
			rel string
		)
		if err := rows.Scan(append(summaryDest(&res.UserSummary), &rel)...); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		res.Relationship = models.Relationship(rel)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return results, nil
}
