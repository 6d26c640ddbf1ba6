package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// sendRequestBody is the payload of POST /api/friends/requests. ReceiverID is a public code.
type sendRequestBody struct {
	ReceiverID string `json:"receiverId"`
}

// friendStatusResponse describes the caller's relationship to another user.
type friendStatusResponse struct {
	IsFriend      bool                        `json:"isFriend"`
	Relationship  models.Relationship         `json:"relationship"`
	RequestStatus *models.FriendRequestStatus `json:"requestStatus"`
}

func (s *Server) listFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := s.friends.Friends(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// rankFriends lists the caller's friends who allow comparison, best match first.
func (s *Server) rankFriends(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	friends, err := s.users.ListFriends(r.Context(), me.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, compatibility.Rank(me.MusicStats, compatibility.Comparable(friends)))
}

func (s *Server) pendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.friends.PendingRequests(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) sentRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.friends.SentRequests(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// sendRequest asks another user for friendship. The receiver must accept requests and
// must not already be a friend.
func (s *Server) sendRequest(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	var body sendRequestBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.ReceiverID) == "" {
		s.writeError(w, r, fmt.Errorf("%w: receiverId", shared.ErrMissingArgument))
		return
	}

	receiver, err := s.users.GetByUserID(r.Context(), body.ReceiverID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if receiver.ID == me.ID {
		s.writeError(w, r, shared.ErrSelfFriendRequest)
		return
	}
	if !receiver.PrivacySettings.AllowFriendRequests {
		s.writeError(w, r, fmt.Errorf("%w: %s", shared.ErrFriendRequestsDisabled, receiver.UserID))
		return
	}

	friends, err := s.friends.CheckFriendship(r.Context(), me.ID, receiver.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if friends {
		s.writeError(w, r, fmt.Errorf("%w: %s", shared.ErrAlreadyFriends, receiver.UserID))
		return
	}

	req, err := s.friends.SendFriendRequest(r.Context(), me.ID, receiver.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) acceptRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := s.friends.AcceptFriendRequest(r.Context(), id, currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) declineRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := s.friends.DeclineFriendRequest(r.Context(), id, currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) friendStatus(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	other, err := s.users.GetByUserID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	isFriend, err := s.friends.CheckFriendship(r.Context(), me.ID, other.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rel, err := s.friends.Relationship(r.Context(), me.ID, other.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status, found, err := s.friends.GetFriendRequestStatus(r.Context(), me.ID, other.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := friendStatusResponse{IsFriend: isFriend, Relationship: rel}
	if found {
		resp.RequestStatus = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) removeFriend(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	other, err := s.users.GetByUserID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.friends.RemoveFriend(r.Context(), me.ID, other.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
