package models

import (
	"fmt"
	"time"
)

// FriendRequestStatus is the lifecycle state of a [FriendRequest].
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendStatus is the state of one directed [Friend] row.
type FriendStatus string

const (
	FriendAccepted FriendStatus = "accepted"
	FriendBlocked  FriendStatus = "blocked"
)

// FriendRequest is a directed request from SenderID to ReceiverID.
// Only pending requests transition, and only once.
type FriendRequest struct {
	ID          int64               `json:"id"`
	SenderID    int64               `json:"senderId"`
	ReceiverID  int64               `json:"receiverId"`
	Status      FriendRequestStatus `json:"status"`
	SentAt      time.Time           `json:"sentAt"`
	RespondedAt *time.Time          `json:"respondedAt,omitempty"`
}

// Validate checks the request invariants that do not need the database.
func (r *FriendRequest) Validate() error {
	if r.SenderID == 0 || r.ReceiverID == 0 {
		return fmt.Errorf("sender and receiver are required")
	}
	if r.SenderID == r.ReceiverID {
		return fmt.Errorf("sender and receiver must differ")
	}
	switch r.Status {
	case FriendRequestPending, FriendRequestAccepted, FriendRequestRejected:
	default:
		return fmt.Errorf("unknown friend request status %q", r.Status)
	}
	return nil
}

// Friend is one direction of a friendship.
type Friend struct {
	ID       int64        `json:"id"`
	UserID   int64        `json:"userId"`
	FriendID int64        `json:"friendId"`
	Status   FriendStatus `json:"status"`
	AddedAt  time.Time    `json:"addedAt"`
}

// FriendSummary is a friend as listed for a user.
type FriendSummary struct {
	UserSummary
	AddedAt time.Time `json:"addedAt"`
}

// PendingRequest is a request waiting on the viewer, with the sender's public identity.
type PendingRequest struct {
	ID     int64       `json:"id"`
	Sender UserSummary `json:"sender"`
	SentAt time.Time   `json:"sentAt"`
}

// SentRequest is a pending request the viewer sent.
type SentRequest struct {
	ID       int64       `json:"id"`
	Receiver UserSummary `json:"receiver"`
	SentAt   time.Time   `json:"sentAt"`
}
