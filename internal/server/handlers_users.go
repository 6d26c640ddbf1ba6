package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// updateMusicStats replaces the caller's snapshot with one computed by the client.
func (s *Server) updateMusicStats(w http.ResponseWriter, r *http.Request) {
	var stats models.MusicStats
	if err := decodeJSON(r, &stats); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.UpdateMusicStats(r.Context(), currentUser(r).ID, stats)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.MusicStats)
}

// updatePrivacy replaces the caller's privacy settings. Omitted keys reset to their defaults.
func (s *Server) updatePrivacy(w http.ResponseWriter, r *http.Request) {
	var settings models.PrivacySettings
	if err := decodeJSON(r, &settings); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.UpdatePrivacy(r.Context(), currentUser(r).ID, settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a number", shared.ErrInvalidInput))
			return
		}
		limit = n
	}

	results, err := s.friends.Search(r.Context(), currentUser(r).ID, r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// userProfile shows another user as the caller may see them.
// Non-friends are refused when the profile is hidden.
func (s *Server) userProfile(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	target, err := s.users.GetByUserID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if target.ID == me.ID {
		writeJSON(w, http.StatusOK, target.PublicProfile(true, models.RelationshipNone))
		return
	}

	rel, err := s.friends.Relationship(r.Context(), me.ID, target.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rel != models.RelationshipFriend && !target.PrivacySettings.ShowProfile {
		s.writeError(w, r, fmt.Errorf("%w: %s", shared.ErrProfileHidden, target.UserID))
		return
	}
	writeJSON(w, http.StatusOK, target.PublicProfile(false, rel))
}
