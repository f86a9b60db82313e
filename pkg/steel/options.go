package steel

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/internal/app"
	"github.com/steel-chat/steel/pkg/settings"
)

// defaultHTTPTimeout bounds update metadata requests.
const defaultHTTPTimeout = 30 * time.Second

// Option configures optional behavior of a Client.
type Option func(*options)

// options holds the optional configuration for a Client instance.
type options struct {
	httpClient *http.Client
	logger     zerolog.Logger
	backend    app.Backend
	settings   *settings.Settings
	plugins    []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     zerolog.Nop(),
	}
}

// WithHTTPClient sets a custom HTTP client for update metadata requests.
// If not provided, a default client with a 30 second timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, logging is discarded.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackend sets the chat transport. If not provided, a loopback backend
// is used: joins succeed immediately and sent messages echo back.
func WithBackend(backend app.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithSettings supplies settings directly instead of loading them from
// Config.SettingsPath. Useful when the caller has already merged overrides
// on top of the file.
func WithSettings(s settings.Settings) Option {
	return func(o *options) {
		o.settings = &s
	}
}

// WithPlugin registers a plugin to be initialized when the client starts.
// Plugins are initialized in registration order and shut down in reverse
// order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
