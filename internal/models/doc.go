// Package models defines the domain entities of the Latte service.
//
// Persistent entities:
//   - [User] : a Spotify listener with a public code, a [MusicStats] snapshot and [PrivacySettings]
//   - [FriendRequest] : a directed request between two users, at most one per ordered pair
//   - [Friend] : one direction of an accepted friendship; a friendship is always two rows
//
// Read models returned by the store and the HTTP API:
//   - [UserSummary], [PublicProfile], [SearchResult], [FriendSummary], [PendingRequest], [SentRequest]
//
// JSON field names are camelCase because the same shapes are served to the web client.
package models
