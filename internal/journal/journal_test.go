package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/pkg/chat"
	"github.com/steel-chat/steel/pkg/settings"
)

var testTime = time.Date(2024, 3, 9, 18, 4, 5, 0, time.Local)

func TestFormatMessage(t *testing.T) {
	msg := chat.NewText("pearl", "hello world").WithTime(testTime)

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "default user format",
			template: "{date} <{username}> {text}",
			want:     "2024-03-09 18:04:05 <pearl> hello world",
		},
		{
			name:     "inline date layout",
			template: "[{date:15:04}] {text}",
			want:     "[18:04] hello world",
		},
		{
			name:     "unknown placeholder",
			template: "{nope} {text}",
			want:     "{unknown} hello world",
		},
		{
			name:     "stray closing brace",
			template: "a} {text}",
			want:     "a} hello world",
		},
		{
			name:     "no placeholders",
			template: "static line",
			want:     "static line",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMessage(tt.template, settings.DefaultJournalFormats().Date, msg)
			if got != tt.want {
				t.Errorf("FormatMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplateSelection(t *testing.T) {
	formats := settings.DefaultJournalFormats()

	tests := []struct {
		typ  chat.MessageType
		want string
	}{
		{chat.MessageText, formats.UserMessage},
		{chat.MessageAction, formats.UserAction},
		{chat.MessageSystem, formats.SystemMessage},
	}
	for _, tt := range tests {
		if got := templateFor(formats, tt.typ); got != tt.want {
			t.Errorf("templateFor(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func newTestWriter(t *testing.T, dir string) *Writer {
	t.Helper()
	cfg := settings.JournalLogging{
		Enabled:         true,
		Directory:       dir,
		Format:          settings.DefaultJournalFormats(),
		LogSystemEvents: true,
	}
	return NewWriter(cfg, zerolog.Nop())
}

func TestWriterAppendsMessages(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, dir)

	w.Log("#OSU", chat.NewText("pearl", "one").WithTime(testTime))
	w.Log("#OSU", chat.NewAction("pearl", "waves").WithTime(testTime))
	w.Shutdown()

	b, err := os.ReadFile(filepath.Join(dir, "#osu.log"))
	if err != nil {
		t.Fatalf("journal file not written: %v", err)
	}
	content := string(b)
	if !strings.HasPrefix(content, "\n") {
		t.Error("expected a session separator at the start")
	}
	if !strings.Contains(content, "2024-03-09 18:04:05 <pearl> one\n") {
		t.Errorf("message line missing:\n%s", content)
	}
	if !strings.Contains(content, "2024-03-09 18:04:05 * pearl waves\n") {
		t.Errorf("action line missing:\n%s", content)
	}
}

func TestWriterSkipsSystemMessagesWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, dir)
	w.SetLogSystemMessages(false)

	w.Log("#osu", chat.NewSystem("joined").WithTime(testTime))
	w.Shutdown()

	if _, err := os.Stat(filepath.Join(dir, "#osu.log")); !os.IsNotExist(err) {
		t.Error("no journal file should exist for skipped system messages")
	}
}

func TestWriterDisabledDropsEverything(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, dir)
	w.SetEnabled(false)

	w.Log("#osu", chat.NewText("pearl", "ignored").WithTime(testTime))
	w.Shutdown()

	if _, err := os.Stat(filepath.Join(dir, "#osu.log")); !os.IsNotExist(err) {
		t.Error("no journal file should exist while journaling is off")
	}
}

func TestWriterChangeDirectory(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	w := newTestWriter(t, first)

	w.Log("banchobot", chat.NewText("BanchoBot", "before").WithTime(testTime))
	w.SetDirectory(second)
	w.Log("banchobot", chat.NewText("BanchoBot", "after").WithTime(testTime))
	w.Shutdown()

	if b, err := os.ReadFile(filepath.Join(first, "banchobot.log")); err != nil || !strings.Contains(string(b), "before") {
		t.Errorf("first directory log incomplete: %v %q", err, b)
	}
	if b, err := os.ReadFile(filepath.Join(second, "banchobot.log")); err != nil || !strings.Contains(string(b), "after") {
		t.Errorf("second directory log incomplete: %v %q", err, b)
	}
}

func TestWriterCloseLogReopens(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, dir)

	w.Log("#osu", chat.NewText("a", "first").WithTime(testTime))
	w.CloseLog("#osu")
	w.Log("#osu", chat.NewText("a", "second").WithTime(testTime))
	w.Shutdown()

	b, err := os.ReadFile(filepath.Join(dir, "#osu.log"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(b)
	if !strings.Contains(content, "first") || !strings.Contains(content, "second") {
		t.Errorf("both sessions should be present:\n%s", content)
	}
	// Reopening writes a fresh session separator.
	if got := strings.Count(content, "\n\n"); got < 1 {
		t.Errorf("expected a separator between sessions, got %d", got)
	}
}
