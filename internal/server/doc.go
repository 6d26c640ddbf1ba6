// Package server exposes Latte as a JSON HTTP API and handles the CLI's OAuth callback.
//
// # API
//
// [Server] routes requests with chi. Every route under /api requires a bearer token issued by
// [TokenIssuer]; the token subject is the caller's public user code. Failures are written as
//
//	{"error": "message", "code": "FRIEND_REQUEST_EXISTS"}
//
// with the status derived from the domain error:
//   - 404 : unknown user or friend request
//   - 409 : duplicate request, already friends
//   - 400 : self request, malformed input
//   - 403 : privacy or friendship gate
//   - 401 : missing, invalid or expired token
//   - 502 : Spotify failure during login
//
// Comparisons are served through the compatibility cache when one is configured.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback for `latte auth login`.
// A temporary server on the redirect URI's host handles one callback, validates state, exchanges the
// code and delivers the token on a channel. Later callbacks are refused.
package server
