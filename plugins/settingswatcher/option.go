package settingswatcher

import "github.com/steel-chat/steel/pkg/steel"

// WithSettingsWatcher returns a steel Option that enables settings file
// watching. When enabled, the plugin monitors the settings file for changes
// and applies them to the running client.
//
// Usage:
//
//	client, err := steel.New(cfg,
//	    settingswatcher.WithSettingsWatcher(settingswatcher.Config{
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithSettingsWatcher(cfg Config) steel.Option {
	plugin := New(cfg)
	return steel.WithPlugin(plugin)
}

// WithDefaultSettingsWatcher returns a steel Option that enables settings
// watching with default settings (debounce 100ms).
//
// Usage:
//
//	client, err := steel.New(cfg, settingswatcher.WithDefaultSettingsWatcher())
func WithDefaultSettingsWatcher() steel.Option {
	return WithSettingsWatcher(DefaultConfig())
}
