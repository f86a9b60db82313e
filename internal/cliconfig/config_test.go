package cliconfig

import (
	"reflect"
	"testing"

	"github.com/steel-chat/steel/pkg/settings"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SettingsPath != settings.DefaultFileName {
		t.Errorf("SettingsPath = %q, want %q", cfg.SettingsPath, settings.DefaultFileName)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"empty settings path", Config{}, true},
		{"known log level", Config{SettingsPath: "s.yaml", LogLevel: "debug"}, false},
		{"unknown log level", Config{SettingsPath: "s.yaml", LogLevel: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyOverridesSettings(t *testing.T) {
	s := settings.Default()
	cfg := Config{
		Username:   "pearl",
		Password:   "hunter2",
		AutoJoin:   []string{"#osu", "#taiko"},
		JournalDir: "/tmp/logs",
		LogLevel:   "debug",
	}

	cfg.Apply(&s, map[string]bool{})

	if s.Chat.IRC.Username != "pearl" || s.Chat.IRC.Password != "hunter2" {
		t.Errorf("credentials not applied: %+v", s.Chat.IRC)
	}
	if !reflect.DeepEqual(s.Chat.AutoJoin, []string{"#osu", "#taiko"}) {
		t.Errorf("AutoJoin = %v", s.Chat.AutoJoin)
	}
	if s.Logging.Chat.Directory != "/tmp/logs" {
		t.Errorf("journal directory = %q", s.Logging.Chat.Directory)
	}
	if s.Logging.Application.Level != settings.LevelDebug {
		t.Errorf("log level = %q", s.Logging.Application.Level)
	}
}

func TestApplyEmptyLeavesSettings(t *testing.T) {
	s := settings.Default()
	s.Chat.IRC.Username = "keep"
	want := s

	empty := Config{}
	empty.Apply(&s, map[string]bool{})

	if !reflect.DeepEqual(s, want) {
		t.Errorf("empty overrides changed settings: %+v", s)
	}
}

func TestApplyBoolOnlyWhenChanged(t *testing.T) {
	s := settings.Default()
	s.Chat.AutoConnect = true

	cfg := Config{AutoConnect: false}
	cfg.Apply(&s, map[string]bool{})
	if !s.Chat.AutoConnect {
		t.Error("unset bool flag should not override")
	}

	cfg.Apply(&s, map[string]bool{"autoconnect": true})
	if s.Chat.AutoConnect {
		t.Error("changed bool flag should override")
	}
}
