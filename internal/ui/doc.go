// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI lets a listener browse their friends ranked by music compatibility:
//  1. [FriendListView] : Friends who allow comparison, best match first
//  2. [DetailView] : Shared artists, tracks and genres with one friend
//  3. [RequestListView] : Accept or decline incoming friend requests
//  4. [ConfirmRemoveView] : Confirm removing a friend
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Data is read and changed through a [Backend]; [StoreBackend] talks to the repositories directly.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, a/d, x, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
