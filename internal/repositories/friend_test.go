package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

type friendFixture struct {
	users   *UserRepository
	friends *FriendRepository
	ada     *models.User
	bo      *models.User
	cy      *models.User
}

func setupFriends(t *testing.T) friendFixture {
	t.Helper()

	db := setupTestDB(t)
	f := friendFixture{users: NewUserRepository(db), friends: NewFriendRepository(db)}
	f.ada = createUser(t, f.users, "ada")
	f.bo = createUser(t, f.users, "bo")
	f.cy = createUser(t, f.users, "cy")
	return f
}

func countRows(t *testing.T, f friendFixture, query string, args ...any) int {
	t.Helper()

	var n int
	if err := f.friends.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

func TestFriendRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("SendFriendRequest", func(t *testing.T) {
		f := setupFriends(t)

		req, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)
		if err != nil {
			t.Fatalf("failed to send request: %v", err)
		}

		if req.ID == 0 || req.Status != models.FriendRequestPending || req.RespondedAt != nil {
			t.Errorf("unexpected request %+v", req)
		}

		stored, err := f.friends.GetFriendRequest(ctx, req.ID)
		if err != nil {
			t.Fatalf("failed to load request: %v", err)
		}
		if stored.SenderID != f.ada.ID || stored.ReceiverID != f.bo.ID {
			t.Errorf("stored request has wrong parties: %+v", stored)
		}
	})

	t.Run("SendFriendRequest duplicate", func(t *testing.T) {
		f := setupFriends(t)

		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to send request: %v", err)
		}

		_, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)
		if !errors.Is(err, shared.ErrFriendRequestExists) {
			t.Fatalf("expected ErrFriendRequestExists, got %v", err)
		}
		if shared.ErrorCode(err) != "FRIEND_REQUEST_EXISTS" {
			t.Errorf("unexpected error code %s", shared.ErrorCode(err))
		}

		if n := countRows(t, f, "SELECT COUNT(*) FROM friend_requests WHERE sender_id = ? AND receiver_id = ?", f.ada.ID, f.bo.ID); n != 1 {
			t.Errorf("expected exactly one row, got %d", n)
		}
	})

	t.Run("SendFriendRequest duplicate after rejection", func(t *testing.T) {
		f := setupFriends(t)

		req, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)
		if err != nil {
			t.Fatalf("failed to send request: %v", err)
		}
		if _, err := f.friends.DeclineFriendRequest(ctx, req.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to decline: %v", err)
		}

		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID); !errors.Is(err, shared.ErrFriendRequestExists) {
			t.Errorf("expected ErrFriendRequestExists, got %v", err)
		}
	})

	t.Run("SendFriendRequest reverse direction is a separate row", func(t *testing.T) {
		f := setupFriends(t)

		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to send request: %v", err)
		}
		if _, err := f.friends.SendFriendRequest(ctx, f.bo.ID, f.ada.ID); err != nil {
			t.Fatalf("reverse request should be allowed: %v", err)
		}
	})

	t.Run("SendFriendRequest invalid parties", func(t *testing.T) {
		f := setupFriends(t)

		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.ada.ID); !errors.Is(err, shared.ErrSelfFriendRequest) {
			t.Errorf("expected ErrSelfFriendRequest, got %v", err)
		}
		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, 999); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("AcceptFriendRequest", func(t *testing.T) {
		f := setupFriends(t)

		req, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)
		if err != nil {
			t.Fatalf("failed to send request: %v", err)
		}

		accepted, err := f.friends.AcceptFriendRequest(ctx, req.ID, f.bo.ID)
		if err != nil {
			t.Fatalf("failed to accept: %v", err)
		}
		if accepted.Status != models.FriendRequestAccepted || accepted.RespondedAt == nil {
			t.Errorf("expected accepted request with response time, got %+v", accepted)
		}

		for _, pair := range [][2]int64{{f.ada.ID, f.bo.ID}, {f.bo.ID, f.ada.ID}} {
			ok, err := f.friends.CheckFriendship(ctx, pair[0], pair[1])
			if err != nil {
				t.Fatalf("failed to check friendship: %v", err)
			}
			if !ok {
				t.Errorf("expected %d -> %d to be friends", pair[0], pair[1])
			}
		}

		status, found, err := f.friends.GetFriendRequestStatus(ctx, f.ada.ID, f.bo.ID)
		if err != nil || !found || status != models.FriendRequestAccepted {
			t.Errorf("expected accepted status, got %q found=%v err=%v", status, found, err)
		}
	})

	t.Run("AcceptFriendRequest twice", func(t *testing.T) {
		f := setupFriends(t)

		req, _ := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)
		if _, err := f.friends.AcceptFriendRequest(ctx, req.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to accept: %v", err)
		}

		_, err := f.friends.AcceptFriendRequest(ctx, req.ID, f.bo.ID)
		if !errors.Is(err, shared.ErrFriendRequestNotFound) {
			t.Fatalf("expected ErrFriendRequestNotFound, got %v", err)
		}

		if n := countRows(t, f, "SELECT COUNT(*) FROM friends"); n != 2 {
			t.Errorf("expected exactly 2 friend rows, got %d", n)
		}
	})

	t.Run("AcceptFriendRequest by non-receiver", func(t *testing.T) {
		f := setupFriends(t)

		req, _ := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)

		for name, actor := range map[string]int64{"sender": f.ada.ID, "third party": f.cy.ID} {
			t.Run(name, func(t *testing.T) {
				if _, err := f.friends.AcceptFriendRequest(ctx, req.ID, actor); !errors.Is(err, shared.ErrFriendRequestNotFound) {
					t.Errorf("expected ErrFriendRequestNotFound, got %v", err)
				}
			})
		}

		status, _, _ := f.friends.GetFriendRequestStatus(ctx, f.ada.ID, f.bo.ID)
		if status != models.FriendRequestPending {
			t.Errorf("request should still be pending, got %s", status)
		}
		if n := countRows(t, f, "SELECT COUNT(*) FROM friends"); n != 0 {
			t.Errorf("no friend rows expected, got %d", n)
		}
	})

	t.Run("AcceptFriendRequest unknown id", func(t *testing.T) {
		f := setupFriends(t)

		if _, err := f.friends.AcceptFriendRequest(ctx, 12345, f.bo.ID); !errors.Is(err, shared.ErrFriendRequestNotFound) {
			t.Errorf("expected ErrFriendRequestNotFound, got %v", err)
		}
	})

	t.Run("Accept both directions keeps two rows", func(t *testing.T) {
		f := setupFriends(t)

		ab, _ := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)
		ba, _ := f.friends.SendFriendRequest(ctx, f.bo.ID, f.ada.ID)

		if _, err := f.friends.AcceptFriendRequest(ctx, ab.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to accept first: %v", err)
		}
		if _, err := f.friends.AcceptFriendRequest(ctx, ba.ID, f.ada.ID); err != nil {
			t.Fatalf("failed to accept reverse: %v", err)
		}

		if n := countRows(t, f, "SELECT COUNT(*) FROM friends"); n != 2 {
			t.Errorf("expected exactly 2 friend rows, got %d", n)
		}
	})

	t.Run("Concurrent accepts", func(t *testing.T) {
		f := setupFriends(t)
		req, _ := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			success  int
			notFound int
		)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.friends.AcceptFriendRequest(ctx, req.ID, f.bo.ID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					success++
				case errors.Is(err, shared.ErrFriendRequestNotFound):
					notFound++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if success != 1 || notFound != 4 {
			t.Errorf("expected 1 success and 4 not-found, got %d and %d", success, notFound)
		}
		if n := countRows(t, f, "SELECT COUNT(*) FROM friends"); n != 2 {
			t.Errorf("expected exactly 2 friend rows, got %d", n)
		}
	})

	t.Run("DeclineFriendRequest", func(t *testing.T) {
		f := setupFriends(t)

		req, _ := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID)

		declined, err := f.friends.DeclineFriendRequest(ctx, req.ID, f.bo.ID)
		if err != nil {
			t.Fatalf("failed to decline: %v", err)
		}
		if declined.Status != models.FriendRequestRejected || declined.RespondedAt == nil {
			t.Errorf("expected rejected request with response time, got %+v", declined)
		}

		if _, err := f.friends.AcceptFriendRequest(ctx, req.ID, f.bo.ID); !errors.Is(err, shared.ErrFriendRequestNotFound) {
			t.Errorf("rejected request must not be accepted, got %v", err)
		}
		if _, err := f.friends.DeclineFriendRequest(ctx, req.ID, f.bo.ID); !errors.Is(err, shared.ErrFriendRequestNotFound) {
			t.Errorf("rejected request must not be declined again, got %v", err)
		}

		ok, _ := f.friends.CheckFriendship(ctx, f.ada.ID, f.bo.ID)
		if ok {
			t.Error("declined request must not create a friendship")
		}
	})

	t.Run("RemoveFriend", func(t *testing.T) {
		f := setupFriends(t)
		befriend(t, f.friends, f.ada.ID, f.bo.ID)

		if err := f.friends.RemoveFriend(ctx, f.bo.ID, f.ada.ID); err != nil {
			t.Fatalf("failed to remove friend: %v", err)
		}

		for _, pair := range [][2]int64{{f.ada.ID, f.bo.ID}, {f.bo.ID, f.ada.ID}} {
			if ok, _ := f.friends.CheckFriendship(ctx, pair[0], pair[1]); ok {
				t.Errorf("expected %d -> %d to be removed", pair[0], pair[1])
			}
		}

		if err := f.friends.RemoveFriend(ctx, f.ada.ID, f.bo.ID); err != nil {
			t.Errorf("removing again should be a no-op, got %v", err)
		}

		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID); err != nil {
			t.Errorf("a removed pair should be able to send a new request: %v", err)
		}
	})

	t.Run("RemoveFriend leaves other friendships", func(t *testing.T) {
		f := setupFriends(t)
		befriend(t, f.friends, f.ada.ID, f.bo.ID)
		befriend(t, f.friends, f.ada.ID, f.cy.ID)

		if err := f.friends.RemoveFriend(ctx, f.ada.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to remove friend: %v", err)
		}

		if ok, _ := f.friends.CheckFriendship(ctx, f.cy.ID, f.ada.ID); !ok {
			t.Error("unrelated friendship should remain")
		}
	})

	t.Run("GetFriendRequestStatus", func(t *testing.T) {
		f := setupFriends(t)

		_, found, err := f.friends.GetFriendRequestStatus(ctx, f.ada.ID, f.bo.ID)
		if err != nil || found {
			t.Errorf("expected not found, got found=%v err=%v", found, err)
		}

		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.bo.ID); err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		status, found, err := f.friends.GetFriendRequestStatus(ctx, f.ada.ID, f.bo.ID)
		if err != nil || !found || status != models.FriendRequestPending {
			t.Errorf("expected pending, got %q found=%v err=%v", status, found, err)
		}

		if _, found, _ := f.friends.GetFriendRequestStatus(ctx, f.bo.ID, f.ada.ID); found {
			t.Error("status is per ordered pair")
		}
	})

	t.Run("Lists", func(t *testing.T) {
		f := setupFriends(t)
		dan := createUser(t, f.users, "dan")

		base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
		f.friends.now = func() time.Time { return base }
		if _, err := f.friends.SendFriendRequest(ctx, f.bo.ID, f.ada.ID); err != nil {
			t.Fatal(err)
		}
		f.friends.now = func() time.Time { return base.Add(time.Minute) }
		if _, err := f.friends.SendFriendRequest(ctx, f.cy.ID, f.ada.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, dan.ID); err != nil {
			t.Fatal(err)
		}

		pending, err := f.friends.PendingRequests(ctx, f.ada.ID)
		if err != nil {
			t.Fatalf("failed to list pending: %v", err)
		}
		if len(pending) != 2 || pending[0].Sender.DisplayName != "cy" || pending[1].Sender.DisplayName != "bo" {
			t.Fatalf("expected [cy bo] newest first, got %+v", pending)
		}
		if !pending[1].SentAt.Equal(base) {
			t.Errorf("expected sentAt %v, got %v", base, pending[1].SentAt)
		}

		sent, err := f.friends.SentRequests(ctx, f.ada.ID)
		if err != nil {
			t.Fatalf("failed to list sent: %v", err)
		}
		if len(sent) != 1 || sent[0].Receiver.UserID != dan.UserID {
			t.Errorf("expected one sent request to dan, got %+v", sent)
		}

		if _, err := f.friends.AcceptFriendRequest(ctx, pending[0].ID, f.ada.ID); err != nil {
			t.Fatalf("failed to accept: %v", err)
		}

		friends, err := f.friends.Friends(ctx, f.ada.ID)
		if err != nil {
			t.Fatalf("failed to list friends: %v", err)
		}
		if len(friends) != 1 || friends[0].UserID != f.cy.UserID || friends[0].AddedAt.IsZero() {
			t.Errorf("expected cy as only friend, got %+v", friends)
		}

		pending, _ = f.friends.PendingRequests(ctx, f.ada.ID)
		if len(pending) != 1 {
			t.Errorf("accepted request should leave the pending list, got %d", len(pending))
		}
	})

	t.Run("Relationship", func(t *testing.T) {
		f := setupFriends(t)
		dan := createUser(t, f.users, "dan")

		befriend(t, f.friends, f.ada.ID, f.bo.ID)
		if _, err := f.friends.SendFriendRequest(ctx, f.ada.ID, f.cy.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.friends.SendFriendRequest(ctx, dan.ID, f.ada.ID); err != nil {
			t.Fatal(err)
		}

		tc := []struct {
			name  string
			other int64
			want  models.Relationship
		}{
			{"friend", f.bo.ID, models.RelationshipFriend},
			{"sent", f.cy.ID, models.RelationshipRequestSent},
			{"received", dan.ID, models.RelationshipRequestReceived},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := f.friends.Relationship(ctx, f.ada.ID, tt.other)
				if err != nil {
					t.Fatalf("failed to get relationship: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %s, want %s", got, tt.want)
				}
			})
		}

		stranger := createUser(t, f.users, "eve")
		if got, _ := f.friends.Relationship(ctx, f.ada.ID, stranger.ID); got != models.RelationshipNone {
			t.Errorf("expected none, got %s", got)
		}

		if _, err := f.friends.Relationship(ctx, f.ada.ID, 999); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}
