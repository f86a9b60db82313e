package app

import (
	"context"
	"fmt"
	"time"

	"github.com/steel-chat/steel/pkg/chat"
)

// datePollInterval is how often the announcer looks at the clock. Polling
// rather than a long timer survives suspend/resume.
const datePollInterval = time.Second

// DateAnnouncer posts a DateChanged event when the local date flips, so
// every open chat gets a day separator line.
type DateAnnouncer struct {
	poster   interface{ Post(Event) }
	now      func() time.Time
	interval time.Duration
}

// NewDateAnnouncer creates an announcer posting to the given engine.
func NewDateAnnouncer(poster interface{ Post(Event) }) *DateAnnouncer {
	return &DateAnnouncer{poster: poster, now: time.Now, interval: datePollInterval}
}

// Run polls the clock until the context is canceled.
func (a *DateAnnouncer) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	then := a.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := a.now()
			if sameDate(then, now) {
				continue
			}
			then = now
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			a.poster.Post(DateChanged{
				Date:    midnight,
				Message: fmt.Sprintf("A new day is born (%s)", midnight.Format(chat.DateFormat)),
			})
		}
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
