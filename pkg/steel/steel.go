// Package steel provides an embeddable chat client core: connection
// management, chat state, highlight tracking, journaling and update checks,
// with a UI-agnostic event stream on top.
package steel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/internal/app"
	"github.com/steel-chat/steel/internal/updater"
	"github.com/steel-chat/steel/pkg/settings"
)

// DefaultVersion is used when the embedding application does not supply one.
const DefaultVersion = "0.0.0"

// updatePollInterval is how often checker state is mirrored into the event
// stream.
const updatePollInterval = 500 * time.Millisecond

// Config holds the configuration for a Client.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// SettingsPath is the settings file location. A missing file is not an
	// error; defaults apply and the file is created on save.
	SettingsPath string

	// Version is the running application version, used for update checks.
	Version string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		SettingsPath: settings.DefaultFileName,
		Version:      DefaultVersion,
	}
}

// SetDefaults fills in zero-valued fields.
func (c *Config) SetDefaults() {
	if c.SettingsPath == "" {
		c.SettingsPath = settings.DefaultFileName
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		return fmt.Errorf("%w: settings path is empty", app.ErrInvalidConfig)
	}
	return nil
}

// State is the lifecycle state of a Client.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return convertStateBack(s).String()
}

// Client is the chat client core. Use New() to create an instance, then
// Start() to run it.
type Client struct {
	config    Config
	opts      options
	settings  settings.Settings
	logger    zerolog.Logger
	lifecycle *app.Lifecycle
	engine    *app.Engine
	backend   app.Backend
	checker   *updater.Checker

	plugins []Plugin

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Client with the given configuration.
// The instance is created in StateStopped; call Start() to run it.
// Returns an error if configuration is invalid or the settings file is
// malformed.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var s settings.Settings
	if o.settings != nil {
		s = *o.settings
	} else {
		var err error
		if s, err = settings.Load(cfg.SettingsPath); err != nil {
			return nil, err
		}
	}

	logger := o.logger.Level(s.Logging.Application.Level.Zerolog())

	backend := o.backend
	if backend == nil {
		backend = app.NewLoopback()
	}

	engine := app.NewEngine(s, backend, logger)
	if lb, ok := backend.(*app.Loopback); ok {
		lb.Attach(engine)
	}

	metadataURL := s.Application.AutoUpdate.URL
	if metadataURL == "" {
		metadataURL = updater.DefaultMetadataURL
	}
	checker := updater.NewChecker(cfg.Version, metadataURL, o.httpClient, logger)
	checker.SetAutoCheck(s.Application.AutoUpdate.Enabled)

	return &Client{
		config:    cfg,
		opts:      o,
		settings:  s,
		logger:    logger,
		lifecycle: app.NewLifecycle(logger),
		engine:    engine,
		backend:   backend,
		checker:   checker,
		plugins:   o.plugins,
	}, nil
}

// Start runs the client in the background and returns once startup is
// resolved. Returns an error if already running or if a plugin fails to
// initialize. The provided context bounds the client's lifetime.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return app.ErrAlreadyRunning
	}

	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.ctx = runCtx
	c.cancel = cancel
	c.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		SettingsPath: c.config.SettingsPath,
		Settings:     c.settings,
		Logger:       c.logger,
		Poster:       c.engine,
	}
	for _, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error().Err(err).Str("plugin", p.Name()).Msg("plugin initialization failed")
			cancel()
			_ = c.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		c.logger.Info().Str("plugin", p.Name()).Msg("plugin initialized")
	}

	c.lifecycle.AddWorker()
	go func() {
		defer c.lifecycle.WorkerDone()
		c.engine.Run(runCtx)
	}()

	announcer := app.NewDateAnnouncer(c.engine)
	c.lifecycle.AddWorker()
	go func() {
		defer c.lifecycle.WorkerDone()
		announcer.Run(runCtx)
	}()

	c.checker.Start(runCtx)
	c.lifecycle.AddWorker()
	go func() {
		defer c.lifecycle.WorkerDone()
		c.mirrorUpdateState(runCtx)
	}()

	if c.settings.Chat.AutoConnect {
		c.lifecycle.AddWorker()
		go func() {
			defer c.lifecycle.WorkerDone()
			if err := c.backend.Connect(runCtx); err != nil {
				c.logger.Error().Err(err).Msg("initial connect failed")
			}
		}()
	}

	return c.lifecycle.TransitionTo(app.StateRunning, "client started")
}

// mirrorUpdateState forwards checker snapshots into the event stream.
func (c *Client) mirrorUpdateState(ctx context.Context) {
	ticker := time.NewTicker(updatePollInterval)
	defer ticker.Stop()

	var last updater.Snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := c.checker.State()
			if snap.Phase == last.Phase && snap.When.Equal(last.When) {
				continue
			}
			last = snap
			c.engine.Post(app.UpdateStateChanged{Snapshot: snap})
		}
	}
}

// Stop gracefully shuts the client down: the backend disconnects, journals
// flush, and plugins shut down in reverse order. Returns ErrShutdownTimeout
// if workers do not finish in time.
func (c *Client) Stop() error {
	c.mu.Lock()

	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return app.ErrNotRunning
	}

	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}

	if err := c.backend.Disconnect(); err != nil {
		c.logger.Warn().Err(err).Msg("disconnect failed")
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	err := c.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	c.checker.Stop()

	shutdownCtx := context.Background()
	for i := len(c.plugins) - 1; i >= 0; i-- {
		p := c.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			c.logger.Error().Err(shutdownErr).Str("plugin", p.Name()).Msg("plugin shutdown failed")
		} else {
			c.logger.Info().Str("plugin", p.Name()).Msg("plugin shutdown complete")
		}
	}

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// Events returns the outbound UI event stream.
func (c *Client) Events() <-chan app.UIEvent {
	return c.engine.Events()
}

// Post queues an event for the engine.
func (c *Client) Post(ev app.Event) {
	c.engine.Post(ev)
}

// Engine exposes the chat state accessors.
func (c *Client) Engine() *app.Engine {
	return c.engine
}

// Settings returns the settings the client was created with. Live updates
// flow through the engine; see Engine().Settings().
func (c *Client) Settings() settings.Settings {
	return c.settings
}

// Connect asks the backend to establish a connection.
func (c *Client) Connect(ctx context.Context) error {
	return c.backend.Connect(ctx)
}

// SendMessage sends a regular message to a chat.
func (c *Client) SendMessage(target, text string) {
	c.engine.Post(app.OutgoingMessage{Target: target, Text: text})
}

// SendAction sends a /me action to a chat.
func (c *Client) SendAction(target, text string) {
	c.engine.Post(app.OutgoingMessage{Target: target, Text: text, Action: true})
}

// OpenChat opens a chat tab, joining the channel if needed.
func (c *Client) OpenChat(target string) {
	c.engine.Post(app.ChatOpened{Target: target})
}

// CloseChat closes a chat tab, leaving the channel if joined.
func (c *Client) CloseChat(target string) {
	c.engine.Post(app.ChatClosed{Target: target})
}

// SwitchChat reports the active chat changing, for unread marker upkeep.
func (c *Client) SwitchChat(from, to string) {
	c.engine.Post(app.ChatSwitched{From: from, To: to})
}

// CheckForUpdates triggers an immediate update check.
func (c *Client) CheckForUpdates() {
	c.checker.CheckNow()
}

// UpdateState returns the last update checker snapshot.
func (c *Client) UpdateState() updater.Snapshot {
	return c.checker.State()
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

func convertStateBack(s State) app.State {
	switch s {
	case StateStarting:
		return app.StateStarting
	case StateRunning:
		return app.StateRunning
	case StateStopping:
		return app.StateStopping
	case StateCrashed:
		return app.StateCrashed
	default:
		return app.StateStopped
	}
}
