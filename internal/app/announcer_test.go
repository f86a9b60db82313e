package app

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingPoster struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPoster) Post(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPoster) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event{}, p.events...)
}

func TestDateAnnouncer(t *testing.T) {
	day1 := time.Date(2024, 4, 30, 23, 59, 59, 0, time.Local)
	day2 := time.Date(2024, 5, 1, 0, 0, 1, 0, time.Local)

	poster := &recordingPoster{}
	a := NewDateAnnouncer(poster)
	a.interval = time.Millisecond

	var mu sync.Mutex
	current := day1
	a.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	// Same day: nothing happens.
	time.Sleep(20 * time.Millisecond)
	if got := poster.Events(); len(got) != 0 {
		t.Fatalf("no events expected before the date flips, got %v", got)
	}

	mu.Lock()
	current = day2
	mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for len(poster.Events()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("announcer never fired")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	events := poster.Events()
	dc, ok := events[0].(DateChanged)
	if !ok {
		t.Fatalf("got %T, want DateChanged", events[0])
	}
	wantDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	if !dc.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", dc.Date, wantDate)
	}
	if dc.Message != "A new day is born (2024-05-01)" {
		t.Errorf("Message = %q", dc.Message)
	}
	if len(events) != 1 {
		t.Errorf("announcer fired %d times, want once", len(events))
	}
}
