package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// createUser inserts a user through the login path.
func createUser(t *testing.T, repo *UserRepository, name string) *models.User {
	t.Helper()

	user, err := repo.UpsertFromSpotify(context.Background(), models.SpotifyProfile{
		SpotifyID:   "spotify-" + name,
		DisplayName: name,
		Email:       name + "@example.com",
		Country:     "SE",
		Followers:   3,
	})
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("UpsertFromSpotify creates user", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "ada")

		if user.ID == 0 {
			t.Error("user ID should be set after creation")
		}
		if !shared.IsUserCode(user.UserID) {
			t.Errorf("expected a public user code, got %q", user.UserID)
		}
		if user.PrivacySettings != models.DefaultPrivacySettings() {
			t.Errorf("new user should get default privacy, got %+v", user.PrivacySettings)
		}
		if user.MusicStats.TopTracks == nil || user.MusicStats.TopArtists == nil || user.MusicStats.TopGenres == nil {
			t.Error("new user stats should have empty lists")
		}
		if user.LastLoginAt == nil {
			t.Error("last login should be set")
		}
		if user.StatsUpdatedAt != nil {
			t.Error("stats should not be stamped before the first push")
		}
	})

	t.Run("UpsertFromSpotify refreshes profile", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		first := createUser(t, repo, "ada")

		if err := repo.UpdatePrivacy(ctx, first.ID, models.PrivacySettings{ShowProfile: true}); err != nil {
			t.Fatalf("failed to update privacy: %v", err)
		}

		second, err := repo.UpsertFromSpotify(ctx, models.SpotifyProfile{SpotifyID: "spotify-ada", DisplayName: "Ada L.", Followers: 10})
		if err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		if second.ID != first.ID || second.UserID != first.UserID {
			t.Errorf("expected the same user, got %d/%s vs %d/%s", second.ID, second.UserID, first.ID, first.UserID)
		}
		if second.DisplayName != "Ada L." || second.Followers != 10 {
			t.Errorf("profile not refreshed: %+v", second)
		}
		if second.PrivacySettings.AllowComparison {
			t.Error("privacy settings should survive a login")
		}
	})

	t.Run("UpsertFromSpotify requires spotify id", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		_, err := repo.UpsertFromSpotify(ctx, models.SpotifyProfile{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get by keys", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "ada")

		byCode, err := repo.GetByUserID(ctx, " "+strings.ToLower(user.UserID)+" ")
		if err != nil {
			t.Fatalf("failed to get by code: %v", err)
		}
		bySpotify, err := repo.GetBySpotifyID(ctx, "spotify-ada")
		if err != nil {
			t.Fatalf("failed to get by spotify id: %v", err)
		}
		if byCode.ID != user.ID || bySpotify.ID != user.ID {
			t.Error("lookups should return the same user")
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		for name, lookup := range map[string]func() error{
			"id":      func() error { _, err := repo.Get(ctx, 99); return err },
			"code":    func() error { _, err := repo.GetByUserID(ctx, "ZZZZZZZZ"); return err },
			"spotify": func() error { _, err := repo.GetBySpotifyID(ctx, "nobody"); return err },
		} {
			t.Run(name, func(t *testing.T) {
				if err := lookup(); !errors.Is(err, shared.ErrUserNotFound) {
					t.Errorf("expected ErrUserNotFound, got %v", err)
				}
			})
		}
	})

	t.Run("UpdateMusicStats", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "ada")

		stats := models.MusicStats{
			TopTracks: []models.TopTrack{{SpotifyID: "t1", Name: "Song", TimeRange: models.TimeRangeShort}},
			TopArtists: []models.TopArtist{
				{SpotifyID: "a1", Name: "Band", Genres: []string{"rock", "indie"}},
				{SpotifyID: "a2", Name: "Singer", Genres: []string{"indie"}},
			},
		}

		updated, err := repo.UpdateMusicStats(ctx, user.ID, stats)
		if err != nil {
			t.Fatalf("failed to update stats: %v", err)
		}

		if len(updated.MusicStats.TopTracks) != 1 || updated.MusicStats.TopTracks[0].Artists == nil {
			t.Errorf("unexpected tracks %+v", updated.MusicStats.TopTracks)
		}
		if len(updated.MusicStats.TopGenres) != 2 || updated.MusicStats.TopGenres[0].Name != "indie" {
			t.Errorf("expected derived genres led by indie, got %+v", updated.MusicStats.TopGenres)
		}
		if updated.StatsUpdatedAt == nil {
			t.Fatal("stats timestamp should be set")
		}
		if updated.StatsVersion() == 0 {
			t.Error("stats version should change after a push")
		}
	})

	t.Run("UpdateMusicStats with nil lists", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "ada")

		updated, err := repo.UpdateMusicStats(ctx, user.ID, models.MusicStats{})
		if err != nil {
			t.Fatalf("failed to update stats: %v", err)
		}
		if updated.MusicStats.TopTracks == nil || updated.MusicStats.TopGenres == nil {
			t.Error("nil lists should read back as empty lists")
		}
	})

	t.Run("Update missing user", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if _, err := repo.UpdateMusicStats(ctx, 42, models.MusicStats{}); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound from stats update, got %v", err)
		}
		if err := repo.UpdatePrivacy(ctx, 42, models.PrivacySettings{}); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound from privacy update, got %v", err)
		}
		if err := repo.Delete(ctx, 42); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound from delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, name := range []string{"ada", "bo", "cy"} {
			repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
			createUser(t, repo, name)
		}

		users, err := repo.List(ctx, 2, 0)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 || users[0].DisplayName != "cy" {
			t.Errorf("expected newest first with limit 2, got %d users", len(users))
		}

		rest, err := repo.List(ctx, 2, 2)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(rest) != 1 || rest[0].DisplayName != "ada" {
			t.Errorf("expected ada on the second page, got %+v", rest)
		}
	})

	t.Run("Delete cascades", func(t *testing.T) {
		db := setupTestDB(t)
		users := NewUserRepository(db)
		friends := NewFriendRepository(db)

		ada := createUser(t, users, "ada")
		bo := createUser(t, users, "bo")
		befriend(t, friends, ada.ID, bo.ID)

		if err := users.Delete(ctx, bo.ID); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		list, err := friends.Friends(ctx, ada.ID)
		if err != nil {
			t.Fatalf("failed to list friends: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected friendship to be removed with the user, got %d friends", len(list))
		}
	})

	t.Run("ListFriends", func(t *testing.T) {
		db := setupTestDB(t)
		users := NewUserRepository(db)
		friends := NewFriendRepository(db)

		ada := createUser(t, users, "ada")
		zed := createUser(t, users, "zed")
		bo := createUser(t, users, "bo")
		createUser(t, users, "stranger")
		befriend(t, friends, ada.ID, zed.ID)
		befriend(t, friends, bo.ID, ada.ID)

		list, err := users.ListFriends(ctx, ada.ID)
		if err != nil {
			t.Fatalf("failed to list friend users: %v", err)
		}
		if len(list) != 2 || list[0].DisplayName != "bo" || list[1].DisplayName != "zed" {
			t.Errorf("expected [bo zed], got %d users", len(list))
		}
	})
}

// befriend sends and accepts a request from a to b.
func befriend(t *testing.T, repo *FriendRepository, a, b int64) {
	t.Helper()

	req, err := repo.SendFriendRequest(context.Background(), a, b)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	if _, err := repo.AcceptFriendRequest(context.Background(), req.ID, b); err != nil {
		t.Fatalf("failed to accept request: %v", err)
	}
}
