// Package repositories provides the SQLite persistence layer for users and friendships.
//
// [UserRepository] owns the users table: login upserts, stats and privacy updates.
// [FriendRepository] owns friend_requests and friends: sending and answering requests,
// removing friendships, relationship lookups and the annotated user [FriendRepository.Search].
//
// Every repository takes the *sql.DB it works on; nothing here holds a global handle.
// Operations that touch more than one row or table run in a transaction owned by the
// repository, so callers never see a partially applied change. Storage faults are wrapped
// with context and returned; domain failures wrap the sentinel errors in the shared package.
package repositories
