package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// FriendsList lists the acting user's friends.
func (r *Runner) FriendsList(ctx context.Context, cmd *cli.Command) error {
	me, err := r.actingUser(ctx, cmd)
	if err != nil {
		return err
	}

	friends, err := r.friends.Friends(ctx, me.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(friends, cmd.Bool("pretty"))
	}

	if len(friends) == 0 {
		return r.writePlain("%s has no friends yet\n", me.DisplayName)
	}
	r.writePlain("%s has %d friends:\n\n", me.DisplayName, len(friends))
	for _, f := range friends {
		r.writePlain("%s  %-24s since %s\n", f.UserID, f.DisplayName, f.AddedAt.Format("2006-01-02"))
	}
	return nil
}

// FriendsRequests lists requests waiting on the acting user, or those they sent with --sent.
func (r *Runner) FriendsRequests(ctx context.Context, cmd *cli.Command) error {
	me, err := r.actingUser(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("sent") {
		sent, err := r.friends.SentRequests(ctx, me.ID)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(sent, cmd.Bool("pretty"))
		}
		r.writePlain("%d pending requests sent:\n\n", len(sent))
		for _, req := range sent {
			r.writePlain("#%-5d → %s  %-24s %s\n", req.ID, req.Receiver.UserID, req.Receiver.DisplayName, req.SentAt.Format("2006-01-02"))
		}
		return nil
	}

	pending, err := r.friends.PendingRequests(ctx, me.ID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(pending, cmd.Bool("pretty"))
	}
	r.writePlain("%d pending requests:\n\n", len(pending))
	for _, req := range pending {
		r.writePlain("#%-5d ← %s  %-24s %s\n", req.ID, req.Sender.UserID, req.Sender.DisplayName, req.SentAt.Format("2006-01-02"))
	}
	if len(pending) > 0 {
		r.writePlainln("Accept with: latte friends accept <id>")
	}
	return nil
}

// FriendsSend asks another user for friendship.
func (r *Runner) FriendsSend(ctx context.Context, cmd *cli.Command) error {
	me, other, err := r.pair(ctx, cmd)
	if err != nil {
		return err
	}

	if !other.PrivacySettings.AllowFriendRequests {
		return fmt.Errorf("%w: %s", shared.ErrFriendRequestsDisabled, other.UserID)
	}
	friends, err := r.friends.CheckFriendship(ctx, me.ID, other.ID)
	if err != nil {
		return err
	}
	if friends {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyFriends, other.UserID)
	}

	req, err := r.friends.SendFriendRequest(ctx, me.ID, other.ID)
	if err != nil {
		return err
	}

	r.logger.Info("friend request sent", "id", req.ID, "from", me.UserID, "to", other.UserID)
	return r.writePlain("✓ Request #%d sent to %s\n", req.ID, other.DisplayName)
}

// FriendsAccept accepts a request addressed to the acting user.
func (r *Runner) FriendsAccept(ctx context.Context, cmd *cli.Command) error {
	return r.respond(ctx, cmd, models.FriendRequestAccepted)
}

// FriendsDecline declines a request addressed to the acting user.
func (r *Runner) FriendsDecline(ctx context.Context, cmd *cli.Command) error {
	return r.respond(ctx, cmd, models.FriendRequestRejected)
}

func (r *Runner) respond(ctx context.Context, cmd *cli.Command, status models.FriendRequestStatus) error {
	id := cmd.Int64Arg("id")
	if id <= 0 {
		return fmt.Errorf("%w: request id must be a positive number", shared.ErrInvalidArgument)
	}
	me, err := r.actingUser(ctx, cmd)
	if err != nil {
		return err
	}

	var req *models.FriendRequest
	if status == models.FriendRequestAccepted {
		req, err = r.friends.AcceptFriendRequest(ctx, id, me.ID)
	} else {
		req, err = r.friends.DeclineFriendRequest(ctx, id, me.ID)
	}
	if err != nil {
		return err
	}

	sender, err := r.users.Get(ctx, req.SenderID)
	if err != nil {
		return err
	}
	if status == models.FriendRequestAccepted {
		return r.writePlain("✓ You and %s are now friends\n", sender.DisplayName)
	}
	return r.writePlain("✓ Declined request from %s\n", sender.DisplayName)
}

// FriendsRemove ends a friendship.
func (r *Runner) FriendsRemove(ctx context.Context, cmd *cli.Command) error {
	me, other, err := r.pair(ctx, cmd)
	if err != nil {
		return err
	}

	if err := r.friends.RemoveFriend(ctx, me.ID, other.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from your friends\n", other.DisplayName)
}

// FriendsStatus shows how the acting user relates to another user.
func (r *Runner) FriendsStatus(ctx context.Context, cmd *cli.Command) error {
	me, other, err := r.pair(ctx, cmd)
	if err != nil {
		return err
	}

	rel, err := r.friends.Relationship(ctx, me.ID, other.ID)
	if err != nil {
		return err
	}
	status, found, err := r.friends.GetFriendRequestStatus(ctx, me.ID, other.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := struct {
			IsFriend      bool                        `json:"isFriend"`
			Relationship  models.Relationship         `json:"relationship"`
			RequestStatus *models.FriendRequestStatus `json:"requestStatus"`
		}{IsFriend: rel == models.RelationshipFriend, Relationship: rel}
		if found {
			out.RequestStatus = &status
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlain("%s → %s: %s\n", me.DisplayName, other.DisplayName, rel)
	if found {
		r.writePlain("Your last request: %s\n", status)
	}
	return nil
}

// pair resolves the acting user and the user named by the code argument.
func (r *Runner) pair(ctx context.Context, cmd *cli.Command) (me, other *models.User, err error) {
	code := cmd.StringArg("code")
	if code == "" {
		return nil, nil, fmt.Errorf("%w: user code", shared.ErrMissingArgument)
	}
	if me, err = r.actingUser(ctx, cmd); err != nil {
		return nil, nil, err
	}
	if other, err = r.users.GetByUserID(ctx, code); err != nil {
		return nil, nil, err
	}
	if me.ID == other.ID {
		return nil, nil, shared.ErrSelfFriendRequest
	}
	return me, other, nil
}
