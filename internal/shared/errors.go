package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Domain errors
	ErrUserNotFound           = fmt.Errorf("user not found")
	ErrFriendRequestExists    = fmt.Errorf("friend request already exists")
	ErrFriendRequestNotFound  = fmt.Errorf("friend request not found or already processed")
	ErrSelfFriendRequest      = fmt.Errorf("cannot send a friend request to yourself")
	ErrAlreadyFriends         = fmt.Errorf("users are already friends")
	ErrNotFriends             = fmt.Errorf("users are not friends")
	ErrFriendRequestsDisabled = fmt.Errorf("user does not accept friend requests")
	ErrComparisonDisabled     = fmt.Errorf("user does not allow comparison")
	ErrProfileHidden          = fmt.Errorf("profile is private")
	ErrSyncRunNotFound        = fmt.Errorf("sync run not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// codes maps errors that cross the API boundary to stable identifiers.
var codes = []struct {
	err  error
	code string
}{
	{ErrUserNotFound, "USER_NOT_FOUND"},
	{ErrFriendRequestExists, "FRIEND_REQUEST_EXISTS"},
	{ErrFriendRequestNotFound, "FRIEND_REQUEST_NOT_FOUND"},
	{ErrSelfFriendRequest, "SELF_FRIEND_REQUEST"},
	{ErrAlreadyFriends, "ALREADY_FRIENDS"},
	{ErrNotFriends, "NOT_FRIENDS"},
	{ErrFriendRequestsDisabled, "FRIEND_REQUESTS_DISABLED"},
	{ErrComparisonDisabled, "COMPARISON_DISABLED"},
	{ErrProfileHidden, "PROFILE_HIDDEN"},
	{ErrSyncRunNotFound, "SYNC_RUN_NOT_FOUND"},
	{ErrNotAuthenticated, "UNAUTHORIZED"},
	{ErrTokenExpired, "TOKEN_EXPIRED"},
	{ErrAuthFailed, "AUTH_FAILED"},
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrMissingArgument, "INVALID_INPUT"},
	{ErrInvalidArgument, "INVALID_INPUT"},
}

// ErrorCode returns the stable code for err, or "INTERNAL" when err is not a domain error.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}
