// Package services talks to Spotify on behalf of a logged-in listener.
//
// [SpotifyAuth] wraps the zmb3 spotifyauth authenticator: it builds the consent URL, exchanges the
// callback code for a token and hands out a [SpotifyService] bound to that token.
//
// [SpotifyService] implements [StatsSource]: the listener's profile and their top tracks and
// artists per time range, converted to the models package types. All outbound requests go through
// a shared [rate.Limiter] so a sync of several time ranges stays under Spotify's request budget.
//
// Errors:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrTokenExpired] : Spotify answered 401
//   - [shared.ErrAPIRequest] : any other Spotify failure
//   - [shared.ErrInvalidArgument] : unknown time range
package services
