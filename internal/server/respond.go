package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quirxsama/latte-sub000/internal/shared"
)

const maxBodyBytes = 1 << 20

var (
	errRouteNotFound      = errors.New("not found")
	errSpotifyUnavailable = errors.New("spotify login is not configured")
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrUserNotFound),
		errors.Is(err, shared.ErrFriendRequestNotFound),
		errors.Is(err, shared.ErrSyncRunNotFound),
		errors.Is(err, errRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrFriendRequestExists),
		errors.Is(err, shared.ErrAlreadyFriends):
		return http.StatusConflict
	case errors.Is(err, shared.ErrSelfFriendRequest),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFriends),
		errors.Is(err, shared.ErrFriendRequestsDisabled),
		errors.Is(err, shared.ErrComparisonDisabled),
		errors.Is(err, shared.ErrProfileHidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	case errors.Is(err, errSpotifyUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as an error body. Internal failures are logged and their detail withheld.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Code: shared.ErrorCode(err)}

	switch {
	case errors.Is(err, errRouteNotFound):
		body.Code = "NOT_FOUND"
	case errors.Is(err, errSpotifyUnavailable):
		body.Code = "UNAVAILABLE"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		if status == http.StatusInternalServerError {
			body.Error = "internal server error"
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// idParam parses a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidInput, name, raw)
	}
	return id, nil
}
