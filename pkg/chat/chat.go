// Package chat holds the client-agnostic chat data model: messages, chats,
// connection state, highlight detection and link extraction.
package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Reference time layouts used across the application.
const (
	TimeFormat           = "15:04:05"
	DateFormat           = "2006-01-02"
	DateTimeFormat       = "2006-01-02 15:04:05"
	DateTimeFormatWithTZ = "2006-01-02 15:04:05 (UTC -07:00)"
)

// MessageType distinguishes regular text, /me actions and system notices.
type MessageType int

const (
	MessageText MessageType = iota
	MessageAction
	MessageSystem
)

// String returns a human-readable representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageAction:
		return "action"
	case MessageSystem:
		return "system"
	default:
		return "unknown"
	}
}

// User is a chat participant known to the backend.
type User struct {
	ID   int
	Name string
}

// Message is a single chat line with display metadata attached as it flows
// through the engine.
type Message struct {
	Time     time.Time
	Type     MessageType
	Username string
	Text     string

	// Display metadata filled in by the engine; nil Chunks means the text
	// has not been scanned for links yet.
	Chunks    []MessageChunk
	ID        *int
	Highlight bool
}

// NewMessage creates a message of the given type stamped with the current
// local time.
func NewMessage(username, text string, typ MessageType) Message {
	return Message{
		Time:     time.Now(),
		Type:     typ,
		Username: username,
		Text:     text,
	}
}

// NewText creates a regular chat message.
func NewText(username, text string) Message {
	return NewMessage(username, text, MessageText)
}

// NewAction creates a /me action message.
func NewAction(username, text string) Message {
	return NewMessage(username, text, MessageAction)
}

// NewSystem creates a system notice with no author.
func NewSystem(text string) Message {
	return NewMessage("", text, MessageSystem)
}

// WithTime returns a copy of the message with its timestamp replaced.
func (m Message) WithTime(t time.Time) Message {
	m.Time = t
	return m
}

// String renders the message the way it appears in exported logs.
func (m Message) String() string {
	ts := m.Time.Format(DateTimeFormatWithTZ)
	switch m.Type {
	case MessageAction:
		return fmt.Sprintf("%s * %s %s", ts, m.Username, m.Text)
	case MessageSystem:
		return fmt.Sprintf("%s %s", ts, m.Text)
	default:
		return fmt.Sprintf("%s <%s> %s", ts, m.Username, m.Text)
	}
}

// FormattedTime returns the message time as HH:MM:SS.
func (m Message) FormattedTime() string {
	return m.Time.Format(TimeFormat)
}

// FormattedDateLocal returns the full local timestamp.
func (m Message) FormattedDateLocal() string {
	return m.Time.Format(DateTimeFormat)
}

// FormattedDateUTC returns the full timestamp converted to UTC.
func (m Message) FormattedDateUTC() string {
	return m.Time.UTC().Format(DateTimeFormat)
}

// highlightSeparator joins normalized words so that keyword matches only
// trigger on word boundaries. '$' is itself a separator rune, so the marker
// never survives normalization as literal text.
const highlightSeparator = "$$"

func isHighlightSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '[', ']', '#':
		return false
	}
	// ASCII punctuation.
	return r >= '!' && r <= '~' &&
		!(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z')
}

func normalizeForHighlights(text string) string {
	var b strings.Builder
	b.WriteString(highlightSeparator)
	for _, r := range strings.ToLower(text) {
		if isHighlightSeparator(r) {
			b.WriteString(highlightSeparator)
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteString(highlightSeparator)
	return b.String()
}

// DetectHighlights marks the message as a highlight if it mentions one of the
// keywords (expected lowercase) or the user's own name. Multi-word keywords
// match only when the words are adjacent.
func (m *Message) DetectHighlights(keywords []string, username string) {
	normalized := normalizeForHighlights(m.Text)

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		wrapped := highlightSeparator +
			strings.ReplaceAll(keyword, " ", highlightSeparator) +
			highlightSeparator
		if strings.Contains(normalized, wrapped) {
			m.Highlight = true
			break
		}
	}

	if !m.Highlight && username != "" {
		wrapped := highlightSeparator + strings.ToLower(username) + highlightSeparator
		m.Highlight = strings.Contains(normalized, wrapped)
	}
}

// ChatType tells channels apart from private conversations.
type ChatType int

const (
	ChatChannel ChatType = iota
	ChatPerson
)

func (t ChatType) String() string {
	if t == ChatChannel {
		return "channel"
	}
	return "person"
}

// IsChannel reports whether the chat name denotes a channel.
func IsChannel(name string) bool {
	return strings.HasPrefix(name, "#")
}

// TypeOf returns the chat type derived from the chat name.
func TypeOf(name string) ChatType {
	if IsChannel(name) {
		return ChatChannel
	}
	return ChatPerson
}

// NormalizeUsername converts a username to its canonical lookup form.
func NormalizeUsername(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// ChatState is the join state of a single chat.
type ChatState int

const (
	StateLeft ChatState = iota
	StateJoinInProgress
	StateJoined
)

func (s ChatState) String() string {
	switch s {
	case StateJoinInProgress:
		return "joining"
	case StateJoined:
		return "joined"
	default:
		return "left"
	}
}

// Chat is a single conversation and its backlog.
type Chat struct {
	Name     string
	Messages []Message
	State    ChatState
}

// NewChat creates an empty chat in the left state.
func NewChat(name string) *Chat {
	return &Chat{Name: name}
}

// Push appends a message to the backlog.
func (c *Chat) Push(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// Type returns the chat type derived from its name.
func (c *Chat) Type() ChatType {
	return TypeOf(c.Name)
}

// SetState updates the join state, optionally recording the reason as a
// system message.
func (c *Chat) SetState(state ChatState, reason string) {
	c.State = state
	if reason != "" {
		c.Push(NewSystem(reason))
	}
}

// ConnectionStatus describes the backend connection.
type ConnectionStatus struct {
	Kind   ConnectionKind
	ByUser bool      // set for user-initiated disconnects
	When   time.Time // reconnection time for scheduled connects
}

// ConnectionKind enumerates backend connection states.
type ConnectionKind int

const (
	ConnectionDisconnected ConnectionKind = iota
	ConnectionInProgress
	ConnectionConnected
	ConnectionScheduled
)

// Disconnected returns a disconnected status.
func Disconnected(byUser bool) ConnectionStatus {
	return ConnectionStatus{Kind: ConnectionDisconnected, ByUser: byUser}
}

// Connected returns a connected status.
func Connected() ConnectionStatus {
	return ConnectionStatus{Kind: ConnectionConnected}
}

// InProgress returns a connecting status.
func InProgress() ConnectionStatus {
	return ConnectionStatus{Kind: ConnectionInProgress}
}

// Scheduled returns a status for a reconnect planned at the given time.
func Scheduled(when time.Time) ConnectionStatus {
	return ConnectionStatus{Kind: ConnectionScheduled, When: when}
}

func (s ConnectionStatus) String() string {
	switch s.Kind {
	case ConnectionConnected:
		return "connected"
	case ConnectionInProgress:
		return "connecting"
	case ConnectionScheduled:
		return fmt.Sprintf("connecting in %ds", int(time.Until(s.When).Seconds()))
	default:
		return "disconnected"
	}
}

// ParseSemver extracts a (major, minor, patch) triple from a version string,
// tolerating a leading "v" and missing components.
func ParseSemver(version string) (int, int, int) {
	version = strings.TrimPrefix(version, "v")
	parts := [3]int{}
	i := 0
	for _, p := range strings.Split(version, ".") {
		if i == len(parts) {
			break
		}
		if n, err := strconv.Atoi(p); err == nil {
			parts[i] = n
			i++
		}
	}
	return parts[0], parts[1], parts[2]
}
