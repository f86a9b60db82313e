package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/internal/tracker"
	"github.com/steel-chat/steel/pkg/chat"
	"github.com/steel-chat/steel/pkg/settings"
)

func testSettings(t *testing.T) settings.Settings {
	t.Helper()
	s := settings.Default()
	s.Chat.IRC.Username = "pearl"
	s.Logging.Chat.Enabled = false
	s.Logging.Chat.Directory = t.TempDir()
	return s
}

func startEngine(t *testing.T, s settings.Settings) (*Engine, *Loopback, func()) {
	t.Helper()
	lb := NewLoopback()
	e := NewEngine(s, lb, zerolog.Nop())
	lb.Attach(e)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	return e, lb, func() {
		cancel()
		<-done
	}
}

func nextEvent(t *testing.T, e *Engine) UIEvent {
	t.Helper()
	select {
	case ev := <-e.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ui event")
		return nil
	}
}

func TestEngineDeliversMessages(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("BanchoBot", "round started")})

	ev, ok := nextEvent(t, e).(UINewMessage)
	if !ok {
		t.Fatalf("got %T, want UINewMessage", ev)
	}
	if ev.Target != "#osu" || ev.Message.Text != "round started" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.Message.Chunks == nil {
		t.Error("message should have been scanned for links")
	}

	msgs, ok := e.ChatMessages("#osu")
	if !ok || len(msgs) != 1 {
		t.Fatalf("ChatMessages = %v, %v; want one message", msgs, ok)
	}
}

func TestEngineHighlightsAndUnread(t *testing.T) {
	s := testSettings(t)
	s.Notifications.Highlights.Words = []string{"tourney"}
	e, _, stop := startEngine(t, s)
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("someone", "tourney is on")})
	ev := nextEvent(t, e).(UINewMessage)
	if !ev.Message.Highlight {
		t.Fatal("keyword should trigger a highlight")
	}

	if typ, ok := e.UnreadType("#osu"); !ok || typ != tracker.UnreadHighlight {
		t.Errorf("UnreadType = %v, %v; want highlight", typ, ok)
	}
	if got := e.Highlights(); len(got) != 1 {
		t.Errorf("Highlights = %d entries, want 1", len(got))
	}

	// Mentioning the user's own name also highlights.
	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("someone", "pearl: hi")})
	ev = nextEvent(t, e).(UINewMessage)
	if !ev.Message.Highlight {
		t.Error("username mention should trigger a highlight")
	}
}

func TestEngineOwnMessagesNotHighlighted(t *testing.T) {
	s := testSettings(t)
	s.Notifications.Highlights.Words = []string{"pearl"}
	e, _, stop := startEngine(t, s)
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("pearl", "pearl checking in")})
	ev := nextEvent(t, e).(UINewMessage)
	if ev.Message.Highlight {
		t.Error("own messages should not highlight")
	}
}

func TestEngineChannelJoinFlow(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatOpened{Target: "#osu"})

	ev := nextEvent(t, e).(UIChatState)
	if ev.State != chat.StateJoinInProgress {
		t.Fatalf("state = %v, want join in progress", ev.State)
	}

	// The loopback backend confirms the join immediately.
	ev = nextEvent(t, e).(UIChatState)
	if ev.State != chat.StateJoined {
		t.Fatalf("state = %v, want joined", ev.State)
	}

	msgs, _ := e.ChatMessages("#osu")
	if len(msgs) != 1 || msgs[0].Type != chat.MessageSystem {
		t.Errorf("expected a join system message, got %v", msgs)
	}
}

func TestEnginePrivateChatOpensJoined(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatOpened{Target: "Mismagius"})

	ev := nextEvent(t, e).(UIChatState)
	if ev.Target != "mismagius" || ev.State != chat.StateJoined {
		t.Errorf("got %+v, want joined mismagius", ev)
	}
}

func TestEngineOutgoingEcho(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(OutgoingMessage{Target: "#osu", Text: "hello"})

	own := nextEvent(t, e).(UINewMessage)
	if own.Message.Username != "pearl" {
		t.Errorf("own message username = %q, want pearl", own.Message.Username)
	}

	echo := nextEvent(t, e).(UINewMessage)
	if echo.Message.Username != "echo" || echo.Message.Text != "hello" {
		t.Errorf("unexpected echo: %+v", echo.Message)
	}
}

func TestEngineCloseChatDropsState(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatMessageReceived{Target: "Mismagius", Message: chat.NewText("Mismagius", "hi")})
	nextEvent(t, e)

	if typ, ok := e.UnreadType("mismagius"); !ok || typ != tracker.UnreadRegular {
		t.Fatalf("UnreadType = %v, %v; want unread", typ, ok)
	}

	e.Post(ChatClosed{Target: "Mismagius"})
	ev := nextEvent(t, e).(UIChatClosed)
	if ev.Target != "mismagius" {
		t.Errorf("closed target = %q", ev.Target)
	}
	if _, ok := e.ChatMessages("mismagius"); ok {
		t.Error("chat should be gone")
	}
	if _, ok := e.UnreadType("mismagius"); ok {
		t.Error("unread state should be dropped")
	}
}

func TestEngineClearChatKeepsIt(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("a", "b")})
	nextEvent(t, e)

	e.Post(ChatCleared{Target: "#osu"})
	nextEvent(t, e)

	msgs, ok := e.ChatMessages("#osu")
	if !ok {
		t.Fatal("chat should remain open")
	}
	if len(msgs) != 0 {
		t.Errorf("backlog should be empty, got %d", len(msgs))
	}
}

func TestEngineSwitchMarksRead(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("a", "b")})
	nextEvent(t, e)

	e.Post(ChatSwitched{From: "", To: "#osu"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, unread := e.UnreadType("#osu"); !unread {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("chat never marked read")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Messages in the active chat do not mark it unread.
	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("a", "c")})
	nextEvent(t, e)
	if _, unread := e.UnreadType("#osu"); unread {
		t.Error("active chat should stay read")
	}
}

func TestEngineDateChangedAnnouncesEverywhere(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("a", "b")})
	nextEvent(t, e)
	e.Post(ChatMessageReceived{Target: "#taiko", Message: chat.NewText("a", "b")})
	nextEvent(t, e)

	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	e.Post(DateChanged{Date: when, Message: "A new day is born (2024-05-01)"})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		ev := nextEvent(t, e).(UINewMessage)
		if ev.Message.Type != chat.MessageSystem {
			t.Errorf("got %v, want system message", ev.Message.Type)
		}
		seen[ev.Target] = true
	}
	if !seen["#osu"] || !seen["#taiko"] {
		t.Errorf("announcement targets = %v", seen)
	}
}

func TestEngineSettingsUpdate(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	s := testSettings(t)
	s.Notifications.Highlights.Words = []string{"newword"}
	e.Post(SettingsUpdated{Settings: s})
	nextEvent(t, e)

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("someone", "newword here")})
	ev := nextEvent(t, e).(UINewMessage)
	if !ev.Message.Highlight {
		t.Error("updated keywords should apply")
	}
}

func TestEngineModerators(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ModeratorAdded{Username: "Green Bird"})
	nextEvent(t, e)

	if !e.IsModerator("green_bird") {
		t.Error("moderator lookup should use normalized names")
	}
}

func TestEngineJournalsMessages(t *testing.T) {
	s := testSettings(t)
	s.Logging.Chat.Enabled = true
	dir := s.Logging.Chat.Directory

	e, _, stop := startEngine(t, s)
	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("BanchoBot", "hello")})
	nextEvent(t, e)
	stop()

	b, err := os.ReadFile(filepath.Join(dir, "#osu.log"))
	if err != nil {
		t.Fatalf("journal file: %v", err)
	}
	if !strings.Contains(string(b), "<BanchoBot> hello") {
		t.Errorf("journal content = %q", b)
	}
}

func TestEngineFilteredMessages(t *testing.T) {
	e, _, stop := startEngine(t, testSettings(t))
	defer stop()

	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("alice", "one")})
	nextEvent(t, e)
	e.Post(ChatMessageReceived{Target: "#osu", Message: chat.NewText("bob", "two")})
	nextEvent(t, e)

	e.Filters().Active = true
	e.Filters().Username.Set("ali")

	msgs, ok := e.FilteredMessages("#osu")
	if !ok || len(msgs) != 1 || msgs[0].Username != "alice" {
		t.Errorf("FilteredMessages = %v, %v", msgs, ok)
	}
}

func TestEngineReconnectScheduling(t *testing.T) {
	s := testSettings(t)
	s.Chat.Reconnect = true
	e, _, stop := startEngine(t, s)
	defer stop()

	e.Post(ConnectionChanged{Status: chat.Disconnected(false)})

	ev := nextEvent(t, e).(UIConnectionChanged)
	if ev.Status.Kind != chat.ConnectionDisconnected {
		t.Fatalf("first status = %v", ev.Status)
	}
	ev = nextEvent(t, e).(UIConnectionChanged)
	if ev.Status.Kind != chat.ConnectionScheduled {
		t.Fatalf("second status = %v, want scheduled", ev.Status)
	}

	// User-initiated disconnects do not reconnect.
	e.Post(ConnectionChanged{Status: chat.Disconnected(true)})
	ev = nextEvent(t, e).(UIConnectionChanged)
	if ev.Status.Kind != chat.ConnectionDisconnected {
		t.Fatalf("status = %v", ev.Status)
	}
	select {
	case extra := <-e.Events():
		t.Errorf("unexpected event after user disconnect: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngineAutojoinOnConnect(t *testing.T) {
	s := testSettings(t)
	s.Chat.AutoJoin = []string{"#osu"}
	e, _, stop := startEngine(t, s)
	defer stop()

	e.Post(ConnectionChanged{Status: chat.Connected()})

	if _, ok := nextEvent(t, e).(UIConnectionChanged); !ok {
		t.Fatal("want connection event first")
	}
	ev := nextEvent(t, e).(UIChatState)
	if ev.Target != "#osu" {
		t.Errorf("autojoin target = %q", ev.Target)
	}
}
