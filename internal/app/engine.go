// Package app hosts the chat engine: a single goroutine that owns all chat
// state and consumes events from the backend, the UI shell and plugins.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/internal/cache"
	"github.com/steel-chat/steel/internal/filter"
	"github.com/steel-chat/steel/internal/journal"
	"github.com/steel-chat/steel/internal/tracker"
	"github.com/steel-chat/steel/pkg/chat"
	"github.com/steel-chat/steel/pkg/settings"
)

const (
	eventBufferSize = 256
	uiBufferSize    = 256
)

// Backend is a chat transport. Implementations deliver inbound traffic by
// posting events to the engine.
type Backend interface {
	// Connect establishes the connection. It returns once the connection
	// attempt is resolved.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down.
	Disconnect() error

	// Join requests membership of a channel.
	Join(channel string) error

	// Leave departs a channel.
	Leave(channel string) error

	// Send transmits a message or an action to a chat.
	Send(target, text string, action bool) error
}

// reconnectDue fires when a scheduled reconnect delay elapses.
type reconnectDue struct{}

func (reconnectDue) appEvent() {}

// Engine processes chat events. All chat state is owned by the Run loop;
// accessors take the state lock so a UI shell can read concurrently.
type Engine struct {
	logger  zerolog.Logger
	backend Backend
	journal *journal.Writer
	cache   *cache.Cache
	filters *filter.Collection

	mu         sync.RWMutex
	settings   settings.Settings
	chats      map[string]*chat.Chat
	order      []string
	moderators map[string]struct{}
	activeChat string
	connection chat.ConnectionStatus
	tracker    *tracker.ReadTracker

	reconnect      *backoff
	reconnectTimer *time.Timer

	events chan Event
	ui     chan UIEvent
}

// NewEngine creates an engine around a backend. The journal writer starts
// immediately; the event loop starts with Run.
func NewEngine(s settings.Settings, backend Backend, logger zerolog.Logger) *Engine {
	trk := tracker.New()
	trk.SetKeywords(s.Notifications.Highlights.Words)
	trk.SetUsername(s.Chat.IRC.Username)

	return &Engine{
		logger:     logger,
		backend:    backend,
		journal:    journal.NewWriter(s.Logging.Chat, logger),
		cache:      cache.New(),
		filters:    &filter.Collection{},
		settings:   s,
		chats:      make(map[string]*chat.Chat),
		moderators: make(map[string]struct{}),
		connection: chat.Disconnected(false),
		tracker:    trk,
		reconnect:  newBackoff(DefaultBackoffInitial, DefaultBackoffMax),
		events:     make(chan Event, eventBufferSize),
		ui:         make(chan UIEvent, uiBufferSize),
	}
}

// Post queues an event for the engine loop.
func (e *Engine) Post(ev Event) {
	e.events <- ev
}

// Events returns the outbound UI event stream.
func (e *Engine) Events() <-chan UIEvent {
	return e.ui
}

// Cache returns the user and channel cache.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Filters returns the message filter collection.
func (e *Engine) Filters() *filter.Collection {
	return e.filters
}

// Run consumes events until the context is canceled, then shuts the journal
// down. It must be called exactly once.
func (e *Engine) Run(ctx context.Context) {
	defer e.journal.Shutdown()

	for {
		select {
		case <-ctx.Done():
			e.stopReconnectTimer()
			return
		case ev := <-e.events:
			e.handle(ctx, ev)
		}
	}
}

func (e *Engine) handle(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case ConnectionChanged:
		e.handleConnection(ev.Status)
	case reconnectDue:
		e.attemptReconnect(ctx)
	case ChatMessageReceived:
		e.handleMessage(ev.Target, ev.Message)
	case ServerMessageReceived:
		e.emit(UIServerMessage{Content: ev.Content})
	case ChannelJoined:
		e.handleChannelJoined(ev.Channel)
	case ChatOpened:
		e.handleChatOpened(ev.Target)
	case ChatClosed:
		e.handleChatClosed(ev.Target)
	case ChatCleared:
		e.handleChatCleared(ev.Target)
	case ChatSwitched:
		e.handleChatSwitched(ev.From, ev.To)
	case OutgoingMessage:
		e.handleOutgoing(ev)
	case SettingsUpdated:
		e.handleSettings(ev.Settings)
	case DateChanged:
		e.handleDateChanged(ev)
	case ModeratorAdded:
		e.handleModeratorAdded(ev.Username)
	case UpdateStateChanged:
		e.emit(UIUpdateState{Snapshot: ev.Snapshot})
	default:
		e.logger.Warn().Type("event", ev).Msg("unhandled event")
	}
}

// emit forwards a UI event without blocking the loop. A full UI channel
// drops the event.
func (e *Engine) emit(ev UIEvent) {
	select {
	case e.ui <- ev:
	default:
		e.logger.Warn().Type("event", ev).Msg("ui event dropped, channel full")
	}
}

func (e *Engine) handleConnection(status chat.ConnectionStatus) {
	e.mu.Lock()
	e.connection = status
	reconnectEnabled := e.settings.Chat.Reconnect
	autojoin := e.settings.Chat.AutoJoin
	e.mu.Unlock()

	switch status.Kind {
	case chat.ConnectionConnected:
		e.stopReconnectTimer()
		e.reconnect.Reset()
		e.emit(UIConnectionChanged{Status: status})
		for _, name := range autojoin {
			e.handleChatOpened(name)
		}
	case chat.ConnectionDisconnected:
		e.emit(UIConnectionChanged{Status: status})
		if !status.ByUser && reconnectEnabled && e.backend != nil {
			e.scheduleReconnect()
		}
	default:
		e.emit(UIConnectionChanged{Status: status})
	}
}

func (e *Engine) scheduleReconnect() {
	e.stopReconnectTimer()
	delay := e.reconnect.Next()
	when := time.Now().Add(delay)

	e.logger.Info().Dur("delay", delay).Msg("reconnect scheduled")
	e.emit(UIConnectionChanged{Status: chat.Scheduled(when)})

	e.mu.Lock()
	e.connection = chat.Scheduled(when)
	e.reconnectTimer = time.AfterFunc(delay, func() {
		e.Post(reconnectDue{})
	})
	e.mu.Unlock()
}

func (e *Engine) stopReconnectTimer() {
	e.mu.Lock()
	if e.reconnectTimer != nil {
		e.reconnectTimer.Stop()
		e.reconnectTimer = nil
	}
	e.mu.Unlock()
}

func (e *Engine) attemptReconnect(ctx context.Context) {
	e.emit(UIConnectionChanged{Status: chat.InProgress()})
	if err := e.backend.Connect(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("reconnect failed")
		e.scheduleReconnect()
	}
}

// openChatLocked creates a chat if it does not exist yet. Callers hold the
// state lock.
func (e *Engine) openChatLocked(name string) (*chat.Chat, bool) {
	norm := chat.NormalizeUsername(name)
	if c, ok := e.chats[norm]; ok {
		return c, false
	}
	c := chat.NewChat(name)
	e.chats[norm] = c
	e.order = append(e.order, norm)
	return c, true
}

func (e *Engine) handleMessage(target string, msg chat.Message) {
	norm := chat.NormalizeUsername(target)

	e.mu.Lock()
	c, _ := e.openChatLocked(target)

	own := e.tracker.Username() != "" &&
		chat.NormalizeUsername(msg.Username) == chat.NormalizeUsername(e.tracker.Username())
	if msg.Type != chat.MessageSystem && !own {
		msg.DetectHighlights(e.tracker.Keywords(), e.tracker.Username())
	}
	msg.ParseForLinks()

	c.Push(msg)

	if norm != e.activeChat {
		switch {
		case msg.Highlight:
			e.tracker.MarkAsHighlighted(norm)
			e.tracker.AddHighlight(norm, msg)
		case msg.Type != chat.MessageSystem:
			e.tracker.MarkAsUnread(norm)
		}
	} else if msg.Highlight {
		e.tracker.AddHighlight(norm, msg)
	}
	e.mu.Unlock()

	e.journal.Log(norm, msg)
	e.emit(UINewMessage{Target: norm, Message: msg})
}

func (e *Engine) handleChannelJoined(channel string) {
	norm := chat.NormalizeUsername(channel)

	e.mu.Lock()
	c, _ := e.openChatLocked(channel)
	c.SetState(chat.StateJoined, "joined "+channel)
	e.mu.Unlock()

	e.journal.Log(norm, chat.NewSystem("joined "+channel))
	e.emit(UIChatState{Target: norm, State: chat.StateJoined})
}

func (e *Engine) handleChatOpened(target string) {
	norm := chat.NormalizeUsername(target)

	e.mu.Lock()
	c, created := e.openChatLocked(target)
	isChannel := c.Type() == chat.ChatChannel
	joined := c.State == chat.StateJoined
	if created {
		if isChannel {
			c.SetState(chat.StateJoinInProgress, "")
		} else {
			c.SetState(chat.StateJoined, "")
		}
	}
	state := c.State
	e.mu.Unlock()

	if created && isChannel && !joined && e.backend != nil {
		if err := e.backend.Join(target); err != nil {
			e.logger.Error().Err(err).Str("channel", target).Msg("join failed")
		}
	}
	e.emit(UIChatState{Target: norm, State: state})
}

func (e *Engine) handleChatClosed(target string) {
	norm := chat.NormalizeUsername(target)

	e.mu.Lock()
	c, ok := e.chats[norm]
	if !ok {
		e.mu.Unlock()
		return
	}
	leave := c.Type() == chat.ChatChannel && c.State == chat.StateJoined
	delete(e.chats, norm)
	for i, n := range e.order {
		if n == norm {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.tracker.Drop(norm)
	if e.activeChat == norm {
		e.activeChat = ""
	}
	e.mu.Unlock()

	if leave && e.backend != nil {
		if err := e.backend.Leave(c.Name); err != nil {
			e.logger.Error().Err(err).Str("channel", c.Name).Msg("leave failed")
		}
	}
	e.journal.CloseLog(norm)
	e.emit(UIChatClosed{Target: norm})
}

func (e *Engine) handleChatCleared(target string) {
	norm := chat.NormalizeUsername(target)

	e.mu.Lock()
	if c, ok := e.chats[norm]; ok {
		c.Messages = nil
		e.tracker.RemoveLastRead(norm)
	}
	e.mu.Unlock()

	e.emit(UIChatCleared{Target: norm})
}

func (e *Engine) handleChatSwitched(from, to string) {
	oldNorm := chat.NormalizeUsername(from)
	newNorm := chat.NormalizeUsername(to)

	e.mu.Lock()
	oldCount := 0
	if c, ok := e.chats[oldNorm]; ok {
		oldCount = len(c.Messages)
	}
	newCount := 0
	if c, ok := e.chats[newNorm]; ok {
		newCount = len(c.Messages)
	}
	if from == "" {
		oldNorm = ""
	}
	e.tracker.SwitchChat(oldNorm, oldCount, newNorm, newCount)
	e.tracker.MarkAsRead(newNorm)
	e.activeChat = newNorm
	e.mu.Unlock()
}

func (e *Engine) handleOutgoing(ev OutgoingMessage) {
	e.mu.RLock()
	username := e.settings.Chat.IRC.Username
	e.mu.RUnlock()

	var msg chat.Message
	if ev.Action {
		msg = chat.NewAction(username, ev.Text)
	} else {
		msg = chat.NewText(username, ev.Text)
	}
	msg.ParseForLinks()

	norm := chat.NormalizeUsername(ev.Target)

	e.mu.Lock()
	c, _ := e.openChatLocked(ev.Target)
	c.Push(msg)
	e.mu.Unlock()

	if e.backend != nil {
		if err := e.backend.Send(ev.Target, ev.Text, ev.Action); err != nil {
			e.logger.Error().Err(err).Str("target", ev.Target).Msg("send failed")
		}
	}
	e.journal.Log(norm, msg)
	e.emit(UINewMessage{Target: norm, Message: msg})
}

func (e *Engine) handleSettings(s settings.Settings) {
	e.mu.Lock()
	e.settings = s
	e.tracker.SetKeywords(s.Notifications.Highlights.Words)
	e.tracker.SetUsername(s.Chat.IRC.Username)
	e.mu.Unlock()

	e.journal.SetEnabled(s.Logging.Chat.Enabled)
	e.journal.SetDirectory(s.Logging.Chat.Directory)
	e.journal.SetFormats(s.Logging.Chat.Format)
	e.journal.SetLogSystemMessages(s.Logging.Chat.LogSystemEvents)

	e.emit(UISettingsChanged{Settings: s})
}

func (e *Engine) handleDateChanged(ev DateChanged) {
	msg := chat.NewSystem(ev.Message).WithTime(ev.Date)

	e.mu.Lock()
	targets := make([]string, len(e.order))
	copy(targets, e.order)
	for _, norm := range targets {
		e.chats[norm].Push(msg)
	}
	e.mu.Unlock()

	for _, norm := range targets {
		e.journal.Log(norm, msg)
		e.emit(UINewMessage{Target: norm, Message: msg})
	}
}

func (e *Engine) handleModeratorAdded(username string) {
	norm := chat.NormalizeUsername(username)

	e.mu.Lock()
	e.moderators[norm] = struct{}{}
	e.mu.Unlock()

	e.emit(UIModeratorAdded{Username: norm})
}

// Settings returns the active settings.
func (e *Engine) Settings() settings.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// Connection returns the last known connection status.
func (e *Engine) Connection() chat.ConnectionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connection
}

// OpenChats returns the normalized names of open chats in opening order.
func (e *Engine) OpenChats() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// ChatMessages returns a copy of a chat's backlog.
func (e *Engine) ChatMessages(name string) ([]chat.Message, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.chats[chat.NormalizeUsername(name)]
	if !ok {
		return nil, false
	}
	out := make([]chat.Message, len(c.Messages))
	copy(out, c.Messages)
	return out, true
}

// FilteredMessages returns the backlog entries matching the active filters.
func (e *Engine) FilteredMessages(name string) ([]chat.Message, bool) {
	msgs, ok := e.ChatMessages(name)
	if !ok {
		return nil, false
	}
	out := msgs[:0]
	for _, m := range msgs {
		if e.filters.Matches(m) {
			out = append(out, m)
		}
	}
	return out, true
}

// ChatState returns a chat's join state.
func (e *Engine) ChatState(name string) (chat.ChatState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.chats[chat.NormalizeUsername(name)]
	if !ok {
		return chat.StateLeft, false
	}
	return c.State, true
}

// UnreadType returns a chat's unread marker state.
func (e *Engine) UnreadType(name string) (tracker.UnreadType, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.UnreadType(chat.NormalizeUsername(name))
}

// Highlights returns the recorded highlight messages.
func (e *Engine) Highlights() []tracker.HighlightEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.Highlights()
}

// IsModerator reports whether a user was announced as a moderator.
func (e *Engine) IsModerator(username string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.moderators[chat.NormalizeUsername(username)]
	return ok
}
