package updater

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the coarse state of the update checker.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseMetadataReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseMetadataReady:
		return "metadata-ready"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is a copy of the checker state, safe to hand across goroutines.
type Snapshot struct {
	When            time.Time // time of the last state change
	Phase           Phase
	Release         *Release // newest platform-relevant release, PhaseMetadataReady only
	Asset           *Asset   // the release's asset for the running platform
	UpdateAvailable bool
	Err             string // PhaseError only
}

// autoCheckInterval is how often the checker polls when autoupdates are on.
const autoCheckInterval = time.Hour

// Checker polls the release metadata URL and keeps a snapshot of the result.
type Checker struct {
	version string
	client  *http.Client
	logger  zerolog.Logger
	goos    string
	goarch  string

	mu       sync.Mutex
	url      string
	auto     bool
	snapshot Snapshot

	checks   chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewChecker creates a checker comparing against the given running version.
// The checker is idle until Start.
func NewChecker(version, url string, client *http.Client, logger zerolog.Logger) *Checker {
	if url == "" {
		url = DefaultMetadataURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Checker{
		version: version,
		client:  client,
		logger:  logger,
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
		url:     url,
		checks:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Start launches the checker worker. It runs until Stop or context
// cancellation.
func (c *Checker) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Stop shuts the worker down and waits for it. Safe to call more than once
// and after the context was already canceled.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// CheckNow requests an immediate metadata fetch.
func (c *Checker) CheckNow() {
	select {
	case c.checks <- struct{}{}:
	default:
		// A check is already queued.
	}
}

// SetAutoCheck enables or disables periodic checks; enabling also triggers
// an immediate one.
func (c *Checker) SetAutoCheck(enabled bool) {
	c.mu.Lock()
	c.auto = enabled
	c.mu.Unlock()
	if enabled {
		c.CheckNow()
	}
}

// SetURL switches the metadata source and resets the state.
func (c *Checker) SetURL(url string) {
	c.mu.Lock()
	c.url = url
	c.snapshot = Snapshot{When: time.Now()}
	c.mu.Unlock()
}

// State returns a copy of the current checker state.
func (c *Checker) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *Checker) run(ctx context.Context) {
	ticker := time.NewTicker(autoCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			auto := c.auto
			c.mu.Unlock()
			if auto {
				c.check()
			}
		case <-c.checks:
			c.check()
		}
	}
}

func (c *Checker) check() {
	c.mu.Lock()
	url := c.url
	c.snapshot = Snapshot{When: time.Now(), Phase: PhaseFetching}
	c.mu.Unlock()

	releases, err := fetchReleases(c.client, url)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Msg("update check failed")
		c.snapshot = Snapshot{When: now, Phase: PhaseError, Err: err.Error()}
		return
	}

	// GitHub orders the listing by publish date; a backported hotfix can
	// land on top of the latest version. Order by version instead and take
	// the newest release that actually ships a build for this platform.
	sort.Slice(releases, func(i, j int) bool {
		ia, ib, ic := releases[i].Semver()
		ja, jb, jc := releases[j].Semver()
		if ia != ja {
			return ia > ja
		}
		if ib != jb {
			return ib > jb
		}
		return ic > jc
	})

	for i := range releases {
		asset := releases[i].PlatformAsset(c.goos, c.goarch)
		if asset == nil {
			continue
		}
		newest := releases[i]
		c.snapshot = Snapshot{
			When:            now,
			Phase:           PhaseMetadataReady,
			Release:         &newest,
			Asset:           asset,
			UpdateAvailable: newest.NewerThan(c.version),
		}
		c.logger.Info().
			Str("tag", newest.TagName).
			Bool("update_available", c.snapshot.UpdateAvailable).
			Msg("release metadata fetched")
		return
	}

	c.snapshot = Snapshot{When: now, Phase: PhaseError, Err: "no suitable release found for this platform"}
}
