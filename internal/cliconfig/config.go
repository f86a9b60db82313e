// Package cliconfig merges command line flags, environment variables and
// the settings file for the steel CLI. Precedence is flags over environment
// over file.
package cliconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/steel-chat/steel/pkg/settings"
)

// Config holds the CLI-level overrides for steel. Empty fields leave the
// settings file values untouched.
type Config struct {
	SettingsPath string

	Username string
	Password string
	AutoJoin []string

	JournalDir string
	LogLevel   string

	AutoConnect bool
	NoEcho      bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		SettingsPath: settings.DefaultFileName,
		Password:     os.Getenv("STEEL_PASSWORD"),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		return fmt.Errorf("settings path is required")
	}
	if c.LogLevel != "" {
		switch settings.Level(c.LogLevel) {
		case settings.LevelOff, settings.LevelError, settings.LevelWarn,
			settings.LevelInfo, settings.LevelDebug, settings.LevelTrace:
		default:
			return fmt.Errorf("unknown log level %q", c.LogLevel)
		}
	}
	return nil
}

// Apply pushes the overrides into loaded settings. Boolean flags are only
// applied when explicitly set (changed map), since false is a valid value.
func (c *Config) Apply(s *settings.Settings, changed map[string]bool) {
	if c.Username != "" {
		s.Chat.IRC.Username = c.Username
	}
	if c.Password != "" {
		s.Chat.IRC.Password = c.Password
	}
	if len(c.AutoJoin) > 0 {
		s.Chat.AutoJoin = c.AutoJoin
	}
	if c.JournalDir != "" {
		s.Logging.Chat.Directory = c.JournalDir
	}
	if c.LogLevel != "" {
		s.Logging.Application.Level = settings.Level(c.LogLevel)
	}
	if changed["autoconnect"] {
		s.Chat.AutoConnect = c.AutoConnect
	}
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStringSlice splits a comma-separated value and sets it if not empty
// and flag not changed.
func (s *configSetter) setStringSlice(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
