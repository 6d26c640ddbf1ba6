// Package tasks runs the long operations behind the CLI and HTTP layers with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Run] : Spotify stats sync
//     - Fetches the listener's profile and upserts their user row
//     - Fetches top tracks and artists for each configured time range
//     - Deduplicates items, derives top genres and replaces the stored snapshot
//
//  2. [SyncEngine.ExportReports] : Compatibility reports for every friend
//     - Compares the viewer with each friend in a bounded worker pool
//     - Writes one report file per friend in the requested format
//     - Writes a JSON manifest ordered by compatibility
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [StatsEngine] implements [SyncEngine] with dependencies on:
//   - [services.StatsSource] : Spotify client for the listener being synced
//   - [UserStore] : Persistence layer (repositories.UserRepository)
package tasks
