package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quirxsama/latte-sub000/internal/cache"
	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// compare scores the caller against a friend who allows comparison.
//
// The pair is always compared lowest id first so both friends read the same cache entry;
// shared content therefore follows that user's ordering.
func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	other, err := s.users.GetByUserID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if other.ID == me.ID {
		s.writeError(w, r, fmt.Errorf("%w: cannot compare with yourself", shared.ErrInvalidInput))
		return
	}

	isFriend, err := s.friends.CheckFriendship(r.Context(), me.ID, other.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !isFriend {
		s.writeError(w, r, fmt.Errorf("%w: %s", shared.ErrNotFriends, other.UserID))
		return
	}
	if !other.PrivacySettings.AllowComparison {
		s.writeError(w, r, fmt.Errorf("%w: %s", shared.ErrComparisonDisabled, other.UserID))
		return
	}

	a, b := me, other
	if b.ID < a.ID {
		a, b = b, a
	}

	var result compatibility.Result
	hit, err := cache.Aside(r.Context(), s.cache, cache.CompatibilityKey(a, b), &result, s.ttl,
		func() error {
			result = compatibility.Compare(a.MusicStats, b.MusicStats)
			return nil
		},
		func(err error) { s.logger.Warn("compatibility cache unavailable", "err", err) },
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Cache", cacheStatus(hit))
	writeJSON(w, http.StatusOK, result)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
