package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/repositories"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

func setupSeeder(t *testing.T) (*Seeder, *repositories.UserRepository, *repositories.FriendRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	users := repositories.NewUserRepository(db)
	friends := repositories.NewFriendRepository(db)
	return NewSeeder(users, friends, nil), users, friends
}

func TestSeederRun(t *testing.T) {
	ctx := context.Background()
	s, users, friends := setupSeeder(t)

	res, err := s.Run(ctx, Options{Users: 6, Friends: 2, Pending: 1, Artists: 20, Seed: 42})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Users) != 6 {
		t.Fatalf("expected 6 users, got %d", len(res.Users))
	}
	if res.Friendships != 12 {
		t.Errorf("expected 12 friendships, got %d", res.Friendships)
	}
	if res.Requests != 6 {
		t.Errorf("expected 6 pending requests, got %d", res.Requests)
	}

	for _, u := range res.Users {
		if u.MusicStats.IsEmpty() || len(u.MusicStats.TopGenres) == 0 {
			t.Errorf("expected %s to have stats, got %+v", u.DisplayName, u.MusicStats)
		}
		if !shared.IsUserCode(u.UserID) {
			t.Errorf("expected a public code, got %q", u.UserID)
		}
	}

	first := res.Users[0]
	list, err := users.ListFriends(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 {
		t.Errorf("expected 4 friends for the first listener, got %d", len(list))
	}
	pending, err := friends.PendingRequests(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending request, got %d", len(pending))
	}

	ranked := compatibility.Rank(first.MusicStats, compatibility.Comparable(list))
	if len(ranked) != 4 || ranked[0].Result.Compatibility == 0 {
		t.Errorf("expected overlapping neighbours, got %+v", ranked)
	}
}

func TestSeederRunValidation(t *testing.T) {
	s, _, _ := setupSeeder(t)
	if _, err := s.Run(context.Background(), Options{}); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSeederSingleListener(t *testing.T) {
	s, _, _ := setupSeeder(t)
	res, err := s.Run(context.Background(), Options{Users: 1, Friends: 3, Pending: 2, Seed: 7})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Friendships != 0 || res.Requests != 0 {
		t.Errorf("expected a lone listener, got %+v", res)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("quiet  harbor"); got != "Quiet Harbor" {
		t.Errorf("titleCase() = %q", got)
	}
}
