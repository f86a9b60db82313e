// Package settingswatcher provides settings file monitoring for steel.
// When enabled, it watches the settings file for changes and posts the
// reloaded settings into the client's event flow.
package settingswatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/internal/app"
	"github.com/steel-chat/steel/pkg/settings"
	"github.com/steel-chat/steel/pkg/steel"
)

// Plugin implements settings file watching. It monitors the settings file
// the client was created with and posts a settings update when the file
// changes on disk.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	debounceDelay time.Duration

	// Runtime state
	settingsPath string
	poster       steel.Poster
	logger       zerolog.Logger
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	debounce     *time.Timer
}

// Config holds configuration options for the settings watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before
	// reloading, so editors that write in several steps trigger one reload.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new settings watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "settingswatcher"
}

// Initialize sets up the plugin and starts the file watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg steel.PluginConfig) error {
	p.mu.Lock()
	p.settingsPath = cfg.SettingsPath
	p.poster = cfg.Poster
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.settingsPath == "" {
		p.logger.Warn().Msg("settings watcher disabled: no settings path")
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info().Str("path", p.settingsPath).Msg("settings watcher initialized")

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the file watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches the settings file's directory. Watching the directory
// rather than the file survives rename-based saves.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	dir := filepath.Dir(p.settingsPath)
	base := filepath.Base(p.settingsPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error().Err(err).Msg("settings watcher: failed to create watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		p.logger.Error().Err(err).Str("dir", dir).Msg("settings watcher: failed to watch directory")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(p.debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error().Err(err).Msg("settings watcher: watcher error")
		}
	}
}

func (p *Plugin) debounceReload(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(delay, p.reload)
}

func (p *Plugin) reload() {
	p.mu.RLock()
	path := p.settingsPath
	poster := p.poster
	p.mu.RUnlock()

	s, err := settings.Load(path)
	if err != nil {
		p.logger.Error().Err(err).Msg("settings watcher: reload failed")
		return
	}

	p.logger.Info().Str("path", path).Msg("settings watcher: settings reloaded")
	poster.Post(app.SettingsUpdated{Settings: s})
}

// Ensure Plugin implements steel.Plugin.
var _ steel.Plugin = (*Plugin)(nil)
