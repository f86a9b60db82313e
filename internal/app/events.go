package app

import (
	"time"

	"github.com/steel-chat/steel/internal/updater"
	"github.com/steel-chat/steel/pkg/chat"
	"github.com/steel-chat/steel/pkg/settings"
)

// Event is an inbound event handled by the engine loop. Events come from
// the chat backend, the UI shell, plugins and internal timers.
type Event interface{ appEvent() }

// ConnectionChanged reports a backend connection state change.
type ConnectionChanged struct {
	Status chat.ConnectionStatus
}

// ChatMessageReceived carries a message addressed to a chat.
type ChatMessageReceived struct {
	Target  string
	Message chat.Message
}

// ServerMessageReceived carries a broadcast from the server itself.
type ServerMessageReceived struct {
	Content string
}

// ChannelJoined reports a completed channel join.
type ChannelJoined struct {
	Channel string
}

// ChatOpened asks the engine to open a chat tab.
type ChatOpened struct {
	Target string
}

// ChatClosed asks the engine to close a chat and release its resources.
type ChatClosed struct {
	Target string
}

// ChatCleared asks the engine to drop a chat's backlog but keep it open.
type ChatCleared struct {
	Target string
}

// ChatSwitched reports the active chat changing, for unread marker upkeep.
type ChatSwitched struct {
	From string
	To   string
}

// OutgoingMessage is a message the user sends.
type OutgoingMessage struct {
	Target string
	Text   string
	Action bool
}

// SettingsUpdated replaces the active settings.
type SettingsUpdated struct {
	Settings settings.Settings
}

// DateChanged is emitted by the date announcer when the local date flips.
type DateChanged struct {
	Date    time.Time
	Message string
}

// ModeratorAdded marks a user as a moderator for display purposes.
type ModeratorAdded struct {
	Username string
}

// UpdateStateChanged mirrors the update checker state into the event flow.
type UpdateStateChanged struct {
	Snapshot updater.Snapshot
}

func (ConnectionChanged) appEvent()     {}
func (ChatMessageReceived) appEvent()   {}
func (ServerMessageReceived) appEvent() {}
func (ChannelJoined) appEvent()         {}
func (ChatOpened) appEvent()            {}
func (ChatClosed) appEvent()            {}
func (ChatCleared) appEvent()           {}
func (ChatSwitched) appEvent()          {}
func (OutgoingMessage) appEvent()       {}
func (SettingsUpdated) appEvent()       {}
func (DateChanged) appEvent()           {}
func (ModeratorAdded) appEvent()        {}
func (UpdateStateChanged) appEvent()    {}

// UIEvent is an outbound event for a UI shell.
type UIEvent interface{ uiEvent() }

// UIConnectionChanged mirrors the backend connection state.
type UIConnectionChanged struct {
	Status chat.ConnectionStatus
}

// UINewMessage delivers a processed message with highlight and link
// metadata attached.
type UINewMessage struct {
	Target  string
	Message chat.Message
}

// UIServerMessage delivers a server broadcast.
type UIServerMessage struct {
	Content string
}

// UIChatState reports a chat's join state change.
type UIChatState struct {
	Target string
	State  chat.ChatState
}

// UIChatClosed confirms a chat was closed.
type UIChatClosed struct {
	Target string
}

// UIChatCleared confirms a chat's backlog was dropped.
type UIChatCleared struct {
	Target string
}

// UISettingsChanged announces new active settings.
type UISettingsChanged struct {
	Settings settings.Settings
}

// UIModeratorAdded marks a username as a moderator.
type UIModeratorAdded struct {
	Username string
}

// UIUpdateState mirrors the update checker state.
type UIUpdateState struct {
	Snapshot updater.Snapshot
}

func (UIConnectionChanged) uiEvent() {}
func (UINewMessage) uiEvent()        {}
func (UIServerMessage) uiEvent()     {}
func (UIChatState) uiEvent()         {}
func (UIChatClosed) uiEvent()        {}
func (UIChatCleared) uiEvent()       {}
func (UISettingsChanged) uiEvent()   {}
func (UIModeratorAdded) uiEvent()    {}
func (UIUpdateState) uiEvent()       {}
