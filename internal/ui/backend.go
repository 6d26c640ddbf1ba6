package ui

import (
	"context"
	"fmt"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/repositories"
)

// Snapshot is everything the TUI shows for one viewer.
type Snapshot struct {
	Viewer  *models.User
	Friends []*models.User
	Pending []models.PendingRequest
}

// Backend loads and changes the viewer's social graph. Implemented by [StoreBackend].
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Accept(ctx context.Context, requestID int64) error
	Decline(ctx context.Context, requestID int64) error
	Remove(ctx context.Context, friendID int64) error
}

// StoreBackend reads the viewer's data straight from the repositories.
type StoreBackend struct {
	users   *repositories.UserRepository
	friends *repositories.FriendRepository
	code    string
	viewer  int64
}

// NewStoreBackend creates a backend acting as the user with public code.
func NewStoreBackend(users *repositories.UserRepository, friends *repositories.FriendRepository, code string) *StoreBackend {
	return &StoreBackend{users: users, friends: friends, code: code}
}

// Load re-reads the viewer, their friends and their pending requests.
func (b *StoreBackend) Load(ctx context.Context) (*Snapshot, error) {
	viewer, err := b.users.GetByUserID(ctx, b.code)
	if err != nil {
		return nil, err
	}
	b.viewer = viewer.ID

	friends, err := b.users.ListFriends(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}

	pending, err := b.friends.PendingRequests(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load friend requests: %w", err)
	}

	return &Snapshot{Viewer: viewer, Friends: friends, Pending: pending}, nil
}

func (b *StoreBackend) Accept(ctx context.Context, requestID int64) error {
	_, err := b.friends.AcceptFriendRequest(ctx, requestID, b.viewer)
	return err
}

func (b *StoreBackend) Decline(ctx context.Context, requestID int64) error {
	_, err := b.friends.DeclineFriendRequest(ctx, requestID, b.viewer)
	return err
}

func (b *StoreBackend) Remove(ctx context.Context, friendID int64) error {
	return b.friends.RemoveFriend(ctx, b.viewer, friendID)
}
