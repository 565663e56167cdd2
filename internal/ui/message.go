package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flutenotes/internal/controller"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgStateChanged MsgKind = iota
	MsgOpDone
)

// op names a controller operation that runs off the event loop.
type op int

const (
	opStart op = iota
	opRetry
	opSave
	opBack
	opDelete
	opSignOut
)

func (o op) String() string {
	switch o {
	case opStart:
		return "start"
	case opRetry:
		return "retry"
	case opSave:
		return "save"
	case opBack:
		return "back"
	case opDelete:
		return "delete"
	case opSignOut:
		return "sign out"
	default:
		return "unknown"
	}
}

type opResult struct {
	op  op
	err error
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(state controller.State) Msg {
	return Msg{kind: MsgStateChanged, data: state}
}

// opDoneMsg is the constructor for [MsgOpDone]
func opDoneMsg(o op, err error) Msg {
	return Msg{kind: MsgOpDone, data: opResult{op: o, err: err}}
}
