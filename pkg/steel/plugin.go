package steel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/internal/app"
	"github.com/steel-chat/steel/pkg/settings"
)

// Poster accepts events for the engine loop.
type Poster interface {
	Post(app.Event)
}

// Plugin extends a running client. Plugins are initialized when the client
// starts and shut down when it stops.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. The context is canceled when the client
	// stops; long-running work should watch it.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and releases its resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to each plugin on initialization.
type PluginConfig struct {
	// SettingsPath is the settings file the client was created with.
	SettingsPath string

	// Settings is a snapshot of the settings at startup.
	Settings settings.Settings

	// Logger is the client's logger.
	Logger zerolog.Logger

	// Poster posts events into the engine.
	Poster Poster
}
