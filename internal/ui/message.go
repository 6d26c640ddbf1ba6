package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgActionDone
)

// Action names a change the user made from the TUI.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionRemove  Action = "remove"
)

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(snapshot *Snapshot, err error) Msg {
	return Msg{
		kind: MsgLoaded,
		data: struct {
			snapshot *Snapshot
			err      error
		}{snapshot, err},
	}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action Action, subject string, err error) Msg {
	return Msg{
		kind: MsgActionDone,
		data: struct {
			action  Action
			subject string
			err     error
		}{action, subject, err},
	}
}
