// Package tracker follows what the user has and hasn't read: unread tab
// markers, last-read positions, and an ordered record of highlights that
// survives chat clearing.
package tracker

import (
	"github.com/steel-chat/steel/pkg/chat"
)

// UnreadType ranks how loudly a tab demands attention.
type UnreadType int

const (
	UnreadRegular UnreadType = iota
	UnreadHighlight
)

// HighlightEntry is a copy of a highlighted message with its chat of origin.
type HighlightEntry struct {
	ChatName string
	Message  chat.Message
}

// ReadTracker tracks unread tabs, unread markers and highlights for all open
// chats. It is not safe for concurrent use; the engine owns it.
type ReadTracker struct {
	unreadTabs   map[string]UnreadType
	lastRead     map[string]int
	highlights   []HighlightEntry
	keywords     []string
	username     string
}

// New creates an empty tracker.
func New() *ReadTracker {
	return &ReadTracker{
		unreadTabs: make(map[string]UnreadType),
		lastRead:   make(map[string]int),
	}
}

// SetKeywords replaces the highlight keyword list, dropping empty entries.
func (r *ReadTracker) SetKeywords(words []string) {
	r.keywords = r.keywords[:0]
	for _, w := range words {
		if w != "" {
			r.keywords = append(r.keywords, w)
		}
	}
}

// Keywords returns the active highlight keywords.
func (r *ReadTracker) Keywords() []string {
	return r.keywords
}

// SetUsername sets the user's own name, which always counts as a highlight.
func (r *ReadTracker) SetUsername(username string) {
	r.username = username
}

// Username returns the stored own username.
func (r *ReadTracker) Username() string {
	return r.username
}

// SetLastRead places the unread marker of a chat.
func (r *ReadTracker) SetLastRead(chatName string, position int) {
	r.lastRead[chatName] = position
}

// LastRead returns the unread marker position of a chat.
func (r *ReadTracker) LastRead(chatName string) (int, bool) {
	pos, ok := r.lastRead[chatName]
	return pos, ok
}

// RemoveLastRead drops the unread marker of a chat.
func (r *ReadTracker) RemoveLastRead(chatName string) {
	delete(r.lastRead, chatName)
}

// SwitchChat maintains unread markers when the active chat changes: the old
// chat's marker moves to its end, and a marker sitting at the end of the new
// chat is dropped since it would not mark anything.
func (r *ReadTracker) SwitchChat(oldChat string, oldCount int, newChat string, newCount int) {
	if oldChat != "" {
		r.SetLastRead(oldChat, oldCount)
	}
	if pos, ok := r.LastRead(newChat); ok && pos == newCount {
		r.RemoveLastRead(newChat)
	}
}

// AddHighlight records a copy of a highlighted message.
func (r *ReadTracker) AddHighlight(normalizedChatName string, msg chat.Message) {
	r.highlights = append(r.highlights, HighlightEntry{ChatName: normalizedChatName, Message: msg})
}

// Highlights returns all recorded highlights in arrival order.
func (r *ReadTracker) Highlights() []HighlightEntry {
	return r.highlights
}

// UnreadType returns the unread state of a tab, if any.
func (r *ReadTracker) UnreadType(tabName string) (UnreadType, bool) {
	t, ok := r.unreadTabs[tabName]
	return t, ok
}

// Drop forgets everything about a closed chat.
func (r *ReadTracker) Drop(name string) {
	r.MarkAsRead(name)
	r.RemoveLastRead(name)
}

// MarkAsRead clears the unread state of a tab.
func (r *ReadTracker) MarkAsRead(name string) {
	delete(r.unreadTabs, name)
}

// MarkAsUnread flags a tab as unread unless it already carries a louder
// state.
func (r *ReadTracker) MarkAsUnread(name string) {
	if _, ok := r.unreadTabs[name]; !ok {
		r.unreadTabs[name] = UnreadRegular
	}
}

// MarkAsHighlighted flags a tab as containing an unread highlight.
func (r *ReadTracker) MarkAsHighlighted(name string) {
	r.unreadTabs[name] = UnreadHighlight
}
