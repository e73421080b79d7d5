package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/wizard"
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
	MsgUserLoaded MsgKind = iota
	MsgPartnerChecked
	MsgRecordStarted
	MsgSlideLoaded
	MsgHistoryLoaded
)

type userLoaded struct {
	username      string
	authenticated bool
	err           error
}

type partnerChecked struct {
	partner string
	exists  bool
	err     error
}

type recordStarted struct {
	id  string
	err error
}

type historyLoaded struct {
	entries []models.HistoryEntry
	err     error
}

// userLoadedMsg is the constructor for [MsgUserLoaded]
func userLoadedMsg(username string, authenticated bool, err error) Msg {
	return Msg{kind: MsgUserLoaded, data: userLoaded{username, authenticated, err}}
}

// partnerCheckedMsg is the constructor for [MsgPartnerChecked]
func partnerCheckedMsg(partner string, exists bool, err error) Msg {
	return Msg{kind: MsgPartnerChecked, data: partnerChecked{partner, exists, err}}
}

// recordStartedMsg is the constructor for [MsgRecordStarted]
func recordStartedMsg(id string, err error) Msg {
	return Msg{kind: MsgRecordStarted, data: recordStarted{id, err}}
}

// slideLoadedMsg is the constructor for [MsgSlideLoaded]
func slideLoadedMsg(view wizard.View) Msg {
	return Msg{kind: MsgSlideLoaded, data: view}
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(entries []models.HistoryEntry, err error) Msg {
	return Msg{kind: MsgHistoryLoaded, data: historyLoaded{entries, err}}
}
