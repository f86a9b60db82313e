package cliconfig

import "os"

// ApplyEnvConfig applies STEEL_* environment variables to the Config.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("settings", os.Getenv("STEEL_SETTINGS"), &cfg.SettingsPath)
	s.setString("username", os.Getenv("STEEL_USERNAME"), &cfg.Username)
	s.setString("password", os.Getenv("STEEL_PASSWORD"), &cfg.Password)
	s.setString("journal-dir", os.Getenv("STEEL_JOURNAL_DIR"), &cfg.JournalDir)
	s.setString("log-level", os.Getenv("STEEL_LOG_LEVEL"), &cfg.LogLevel)
	s.setStringSlice("autojoin", os.Getenv("STEEL_AUTOJOIN"), &cfg.AutoJoin)

	// Booleans applied from the environment count as explicitly set, so
	// Apply() forwards them into the settings.
	if v := os.Getenv("STEEL_AUTOCONNECT"); v != "" && !changed["autoconnect"] {
		s.setBoolFromString("autoconnect", v, &cfg.AutoConnect)
		changed["autoconnect"] = true
	}
	if v := os.Getenv("STEEL_NO_ECHO"); v != "" && !changed["no-echo"] {
		s.setBoolFromString("no-echo", v, &cfg.NoEcho)
		changed["no-echo"] = true
	}
}
