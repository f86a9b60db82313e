package tracker

import (
	"testing"

	"github.com/steel-chat/steel/pkg/chat"
)

func TestUnreadStates(t *testing.T) {
	r := New()

	r.MarkAsUnread("#osu")
	if typ, ok := r.UnreadType("#osu"); !ok || typ != UnreadRegular {
		t.Errorf("UnreadType = %v, %v; want regular", typ, ok)
	}

	// A highlight outranks a regular unread mark.
	r.MarkAsHighlighted("#osu")
	if typ, _ := r.UnreadType("#osu"); typ != UnreadHighlight {
		t.Errorf("UnreadType = %v, want highlight", typ)
	}

	// A plain unread mark never downgrades a highlight.
	r.MarkAsUnread("#osu")
	if typ, _ := r.UnreadType("#osu"); typ != UnreadHighlight {
		t.Errorf("UnreadType = %v, want highlight kept", typ)
	}

	r.MarkAsRead("#osu")
	if _, ok := r.UnreadType("#osu"); ok {
		t.Error("tab should be read")
	}
}

func TestSwitchChatMovesMarkers(t *testing.T) {
	r := New()

	r.SwitchChat("#osu", 10, "#mapping", 0)
	if pos, ok := r.LastRead("#osu"); !ok || pos != 10 {
		t.Errorf("LastRead(#osu) = %d, %v; want 10", pos, ok)
	}

	// A marker at the very end of the newly opened chat is dropped.
	r.SetLastRead("#taiko", 4)
	r.SwitchChat("", 0, "#taiko", 4)
	if _, ok := r.LastRead("#taiko"); ok {
		t.Error("marker at the end should be removed")
	}

	// A marker in the middle stays.
	r.SetLastRead("#ctb", 2)
	r.SwitchChat("", 0, "#ctb", 5)
	if pos, ok := r.LastRead("#ctb"); !ok || pos != 2 {
		t.Errorf("LastRead(#ctb) = %d, %v; want 2", pos, ok)
	}
}

func TestHighlightsSurviveDrop(t *testing.T) {
	r := New()
	msg := chat.NewText("pearl", "ping")
	r.AddHighlight("#osu", msg)
	r.MarkAsHighlighted("#osu")

	r.Drop("#osu")

	if _, ok := r.UnreadType("#osu"); ok {
		t.Error("unread state should be dropped")
	}
	if hl := r.Highlights(); len(hl) != 1 || hl[0].ChatName != "#osu" {
		t.Errorf("highlight record should survive, got %v", hl)
	}
}

func TestSetKeywordsFiltersEmpty(t *testing.T) {
	r := New()
	r.SetKeywords([]string{"one", "", "two"})
	if got := r.Keywords(); len(got) != 2 {
		t.Errorf("Keywords = %v, want 2 entries", got)
	}
}
