package chat

import (
	"strings"
	"testing"
	"time"
)

func TestDetectHighlights(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		username string
		want     bool
	}{
		{
			name:     "plain keyword",
			text:     "the quick brown fox",
			keywords: []string{"quick"},
			want:     true,
		},
		{
			name:     "keyword is case-insensitive",
			text:     "The QUICK brown fox",
			keywords: []string{"quick"},
			want:     true,
		},
		{
			name:     "substring does not count",
			text:     "quicksand everywhere",
			keywords: []string{"quick"},
			want:     false,
		},
		{
			name:     "punctuation separates words",
			text:     "done. quick, next",
			keywords: []string{"quick"},
			want:     true,
		},
		{
			name:     "multi-word keyword needs adjacency",
			text:     "brown quick fox",
			keywords: []string{"quick fox"},
			want:     true,
		},
		{
			name:     "multi-word keyword with words apart",
			text:     "quick brown fox",
			keywords: []string{"quick fox"},
			want:     false,
		},
		{
			name:     "own username",
			text:     "hey Mocha, got a second?",
			username: "mocha",
			want:     true,
		},
		{
			name:     "empty keywords are skipped",
			text:     "anything at all",
			keywords: []string{""},
			want:     false,
		},
		{
			name:     "channel marker kept as part of word",
			text:     "join #mapping now",
			keywords: []string{"mapping"},
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewText("someone", tt.text)
			m.DetectHighlights(tt.keywords, tt.username)
			if m.Highlight != tt.want {
				t.Errorf("Highlight = %v, want %v", m.Highlight, tt.want)
			}
		})
	}
}

func TestMessageString(t *testing.T) {
	ts := time.Date(2024, 3, 9, 18, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "text",
			msg:  NewText("pearl", "hello").WithTime(ts),
			want: "<pearl> hello",
		},
		{
			name: "action",
			msg:  NewAction("pearl", "waves").WithTime(ts),
			want: "* pearl waves",
		},
		{
			name: "system",
			msg:  NewSystem("connection lost").WithTime(ts),
			want: "connection lost",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.msg.String()
			if !strings.HasPrefix(got, "2024-03-09 18:04:05 (UTC ") {
				t.Fatalf("timestamp prefix missing: %q", got)
			}
			if !strings.HasSuffix(got, tt.want) {
				t.Errorf("String() = %q, want suffix %q", got, tt.want)
			}
		})
	}
}

func TestChatTypes(t *testing.T) {
	if TypeOf("#osu") != ChatChannel {
		t.Error("#osu should be a channel")
	}
	if TypeOf("BanchoBot") != ChatPerson {
		t.Error("BanchoBot should be a person")
	}
	if IsChannel("nobody") {
		t.Error("nobody is not a channel")
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("Best Friend"); got != "best_friend" {
		t.Errorf("NormalizeUsername = %q, want best_friend", got)
	}
}

func TestChatSetState(t *testing.T) {
	c := NewChat("#osu")
	c.SetState(StateJoined, "joined #osu")
	if c.State != StateJoined {
		t.Errorf("State = %v, want %v", c.State, StateJoined)
	}
	if len(c.Messages) != 1 || c.Messages[0].Type != MessageSystem {
		t.Fatalf("expected a single system message, got %v", c.Messages)
	}

	c.SetState(StateLeft, "")
	if len(c.Messages) != 1 {
		t.Errorf("no system message expected without a reason, got %d", len(c.Messages))
	}
}

func TestParseSemver(t *testing.T) {
	tests := []struct {
		in      string
		a, b, c int
	}{
		{"1.2.3", 1, 2, 3},
		{"v0.11.0", 0, 11, 0},
		{"2.5", 2, 5, 0},
		{"garbage", 0, 0, 0},
	}
	for _, tt := range tests {
		a, b, c := ParseSemver(tt.in)
		if a != tt.a || b != tt.b || c != tt.c {
			t.Errorf("ParseSemver(%q) = %d.%d.%d, want %d.%d.%d", tt.in, a, b, c, tt.a, tt.b, tt.c)
		}
	}
}

func TestConnectionStatusString(t *testing.T) {
	if got := Connected().String(); got != "connected" {
		t.Errorf("Connected = %q", got)
	}
	if got := Disconnected(true).String(); got != "disconnected" {
		t.Errorf("Disconnected = %q", got)
	}
	if got := InProgress().String(); got != "connecting" {
		t.Errorf("InProgress = %q", got)
	}
	if got := Scheduled(time.Now().Add(5 * time.Second)).String(); !strings.HasPrefix(got, "connecting in ") {
		t.Errorf("Scheduled = %q", got)
	}
}
