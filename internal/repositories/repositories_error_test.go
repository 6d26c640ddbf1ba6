package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

var errDisk = errors.New("disk I/O error")

func setupMockFriends(t *testing.T) (*FriendRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewFriendRepository(db), mock
}

func requestRows(status string) *sqlmock.Rows {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "status", "sent_at", "responded_at"}).
		AddRow(1, 2, 3, status, now, now)
}

func TestFriendRepositoryStorageFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("Accept rolls back when friendship insert fails", func(t *testing.T) {
		repo, mock := setupMockFriends(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE friend_requests").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT .+ FROM friend_requests").WillReturnRows(requestRows("accepted"))
		mock.ExpectExec("INSERT OR IGNORE INTO friends").WillReturnError(errDisk)
		mock.ExpectRollback()

		_, err := repo.AcceptFriendRequest(ctx, 1, 3)
		if !errors.Is(err, errDisk) {
			t.Fatalf("expected storage error to propagate, got %v", err)
		}
		if errors.Is(err, shared.ErrFriendRequestNotFound) {
			t.Error("storage fault must not look like a missing request")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("Accept commits both writes together", func(t *testing.T) {
		repo, mock := setupMockFriends(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE friend_requests").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT .+ FROM friend_requests").WillReturnRows(requestRows("accepted"))
		mock.ExpectExec("INSERT OR IGNORE INTO friends").WithArgs(2, 3, sqlmock.AnyArg(), 3, 2, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 2))
		mock.ExpectCommit()

		req, err := repo.AcceptFriendRequest(ctx, 1, 3)
		if err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if req.Status != models.FriendRequestAccepted {
			t.Errorf("expected accepted, got %s", req.Status)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("Accept with no pending row", func(t *testing.T) {
		repo, mock := setupMockFriends(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE friend_requests").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		if _, err := repo.AcceptFriendRequest(ctx, 1, 3); !errors.Is(err, shared.ErrFriendRequestNotFound) {
			t.Fatalf("expected ErrFriendRequestNotFound, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("Begin failure", func(t *testing.T) {
		repo, mock := setupMockFriends(t)
		mock.ExpectBegin().WillReturnError(errDisk)

		if _, err := repo.DeclineFriendRequest(ctx, 1, 3); !errors.Is(err, errDisk) {
			t.Errorf("expected begin error to propagate, got %v", err)
		}
	})

	t.Run("Commit failure", func(t *testing.T) {
		repo, mock := setupMockFriends(t)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM friends").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM friend_requests").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(errDisk)

		if err := repo.RemoveFriend(ctx, 2, 3); !errors.Is(err, errDisk) {
			t.Errorf("expected commit error to propagate, got %v", err)
		}
	})

	t.Run("Remove rolls back when second delete fails", func(t *testing.T) {
		repo, mock := setupMockFriends(t)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM friends").WithArgs(2, 3, 3, 2).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM friend_requests").WillReturnError(errDisk)
		mock.ExpectRollback()

		if err := repo.RemoveFriend(ctx, 2, 3); !errors.Is(err, errDisk) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("Send propagates unknown errors", func(t *testing.T) {
		repo, mock := setupMockFriends(t)
		mock.ExpectExec("INSERT INTO friend_requests").WillReturnError(errDisk)

		_, err := repo.SendFriendRequest(ctx, 2, 3)
		if !errors.Is(err, errDisk) {
			t.Errorf("expected storage error, got %v", err)
		}
		if errors.Is(err, shared.ErrFriendRequestExists) {
			t.Error("storage fault must not look like a duplicate")
		}
	})

	t.Run("Reads propagate errors", func(t *testing.T) {
		repo, mock := setupMockFriends(t)
		mock.ExpectQuery("SELECT EXISTS").WillReturnError(errDisk)
		mock.ExpectQuery("SELECT status FROM friend_requests").WillReturnError(errDisk)
		mock.ExpectQuery("SELECT .+ FROM users u").WillReturnError(errDisk)

		if _, err := repo.CheckFriendship(ctx, 2, 3); !errors.Is(err, errDisk) {
			t.Errorf("CheckFriendship: expected storage error, got %v", err)
		}
		if _, _, err := repo.GetFriendRequestStatus(ctx, 2, 3); !errors.Is(err, errDisk) {
			t.Errorf("GetFriendRequestStatus: expected storage error, got %v", err)
		}
		if _, err := repo.Search(ctx, 2, "bo", 10); !errors.Is(err, errDisk) {
			t.Errorf("Search: expected storage error, got %v", err)
		}
	})
}

func TestUserRepositoryStorageFaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Upsert rolls back on lookup failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users").WillReturnError(errDisk)
		mock.ExpectRollback()

		if _, err := repo.UpsertFromSpotify(ctx, models.SpotifyProfile{SpotifyID: "s1"}); !errors.Is(err, errDisk) {
			t.Errorf("expected storage error, got %v", err)
		}
	})

	t.Run("Get propagates errors", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM users u WHERE u.id").WillReturnError(errDisk)

		_, err := repo.Get(ctx, 1)
		if !errors.Is(err, errDisk) || errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected storage error, got %v", err)
		}
	})

	t.Run("Corrupt stats are reported", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "user_id", "spotify_id", "display_name", "email", "profile_image", "country",
			"followers", "music_stats", "privacy_settings", "stats_updated_at", "last_login_at", "created_at", "updated_at"}).
			AddRow(1, "K7QX2MPA", "s1", "Ada", "", "", "", 0, "{not json", "{}", nil, nil, now, now)
		mock.ExpectQuery("SELECT .+ FROM users u WHERE u.id").WillReturnRows(rows)

		if _, err := repo.Get(ctx, 1); err == nil {
			t.Error("expected decode error")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
