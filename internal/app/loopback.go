package app

import (
	"context"
	"sync"

	"github.com/steel-chat/steel/pkg/chat"
)

// Loopback is a backend that echoes traffic back to the engine. It stands
// in for a real transport in tests and headless runs: joins succeed
// immediately and sent messages are delivered back as received ones.
type Loopback struct {
	mu     sync.Mutex
	poster interface{ Post(Event) }
	echo   bool
}

// NewLoopback creates a disconnected loopback backend.
func NewLoopback() *Loopback {
	return &Loopback{echo: true}
}

// Attach wires the backend to an engine. Must be called before Connect.
func (l *Loopback) Attach(poster interface{ Post(Event) }) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.poster = poster
}

// SetEcho controls whether Send deliveries are echoed back.
func (l *Loopback) SetEcho(echo bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = echo
}

func (l *Loopback) post(ev Event) {
	l.mu.Lock()
	poster := l.poster
	l.mu.Unlock()
	if poster != nil {
		poster.Post(ev)
	}
}

// Connect reports an immediate successful connection.
func (l *Loopback) Connect(ctx context.Context) error {
	l.post(ConnectionChanged{Status: chat.Connected()})
	return nil
}

// Disconnect reports a user-initiated disconnect.
func (l *Loopback) Disconnect() error {
	l.post(ConnectionChanged{Status: chat.Disconnected(true)})
	return nil
}

// Join reports an immediate successful channel join.
func (l *Loopback) Join(channel string) error {
	l.post(ChannelJoined{Channel: channel})
	return nil
}

// Leave is a no-op.
func (l *Loopback) Leave(channel string) error {
	return nil
}

// Send optionally echoes the message back as received traffic.
func (l *Loopback) Send(target, text string, action bool) error {
	l.mu.Lock()
	echo := l.echo
	l.mu.Unlock()
	if !echo {
		return nil
	}

	msg := chat.NewText("echo", text)
	if action {
		msg = chat.NewAction("echo", text)
	}
	l.post(ChatMessageReceived{Target: target, Message: msg})
	return nil
}
