// Package settings defines the application settings tree and its YAML
// persistence. A missing settings file is not an error: defaults apply.
package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the settings file looked up in the working directory.
const DefaultFileName = "settings.yaml"

// DefaultJournalDirectory is where chat logs are written unless overridden.
const DefaultJournalDirectory = "./chat-logs"

// Settings is the root of the settings tree, mirroring the sections of the
// settings file.
type Settings struct {
	Application   Application   `yaml:"application"`
	Chat          Chat          `yaml:"chat"`
	Notifications Notifications `yaml:"notifications"`
	UI            UI            `yaml:"ui"`
	Logging       Logging       `yaml:"logging"`
}

// Application covers update checks and window behaviour.
type Application struct {
	AutoUpdate AutoUpdate     `yaml:"autoupdate"`
	Window     WindowGeometry `yaml:"window"`
}

// AutoUpdate configures the release update checker.
type AutoUpdate struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// WindowGeometry is the last known window placement. It is persisted here so
// a desktop shell can restore it; the core only round-trips it.
type WindowGeometry struct {
	X         int  `yaml:"x"`
	Y         int  `yaml:"y"`
	Width     int  `yaml:"width"`
	Height    int  `yaml:"height"`
	Maximized bool `yaml:"maximized"`
}

// Backend selects the chat transport.
type Backend string

const (
	BackendIRC Backend = "irc"
	BackendAPI Backend = "api"
)

// Chat covers connection and conversation behaviour.
type Chat struct {
	Backend     Backend       `yaml:"backend"`
	AutoConnect bool          `yaml:"autoconnect"`
	Reconnect   bool          `yaml:"reconnect"`
	AutoJoin    []string      `yaml:"autojoin"`
	IRC         IRCSettings   `yaml:"irc"`
	API         APISettings   `yaml:"api"`
	Behaviour   ChatBehaviour `yaml:"behaviour"`
}

// IRCSettings are the IRC backend credentials.
type IRCSettings struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APISettings are the HTTP backend settings. Empty for now, kept so the
// section survives round-trips.
type APISettings struct{}

// ChatBehaviour toggles handling of game protocol links.
type ChatBehaviour struct {
	HandleGameChatLinks    bool `yaml:"handle_osu_chat_links"`
	HandleGameBeatmapLinks bool `yaml:"handle_osu_beatmap_links"`
}

// Notifications covers highlight words and alerting.
type Notifications struct {
	Highlights             Highlights         `yaml:"highlights"`
	TaskbarFlashEvents     TaskbarFlashEvents `yaml:"taskbar_flash_events"`
	SoundOnlyWhenUnfocused bool               `yaml:"sound_only_when_unfocused"`
	EnableFlashTimeout     bool               `yaml:"enable_flash_timeout"`
	FlashTimeoutSeconds    int                `yaml:"flash_timeout_seconds"`
	Style                  NotificationStyle  `yaml:"notification_style"`
}

// Highlights holds the keyword list and the sound played on a match.
type Highlights struct {
	Words []string `yaml:"words"`
	Sound Sound    `yaml:"sound,omitempty"`
}

// Sound names a built-in notification sound; empty means silent.
type Sound string

const (
	SoundNone       Sound = ""
	SoundBell       Sound = "bell"
	SoundDoubleBell Sound = "double-bell"
	SoundPartyHorn  Sound = "party-horn"
	SoundPing       Sound = "ping"
	SoundTick       Sound = "tick"
	SoundTwoTone    Sound = "two-tone"
)

// TaskbarFlashEvents selects which events flash the taskbar entry.
type TaskbarFlashEvents struct {
	Highlights      bool `yaml:"highlights"`
	PrivateMessages bool `yaml:"private_messages"`
}

// NotificationStyle selects how intrusive notifications are.
type NotificationStyle string

const (
	StyleWindowAndTaskbar NotificationStyle = "window_and_taskbar"
	StyleTaskbarOnly      NotificationStyle = "taskbar_only"
)

// ThemeMode selects the colour theme.
type ThemeMode string

const (
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"
)

// UI holds the theme and per-theme colour sets.
type UI struct {
	Theme        ThemeMode   `yaml:"theme"`
	LightColours ChatColours `yaml:"light_colours"`
	DarkColours  ChatColours `yaml:"dark_colours"`
}

// Colours returns the colour set of the active theme.
func (u *UI) Colours() *ChatColours {
	if u.Theme == ThemeLight {
		return &u.LightColours
	}
	return &u.DarkColours
}

// ChatColours maps chat roles to colours, with per-user overrides.
type ChatColours struct {
	Own          Colour            `yaml:"own"`
	Highlight    Colour            `yaml:"highlight"`
	ReadTabs     Colour            `yaml:"read_tabs"`
	UnreadTabs   Colour            `yaml:"unread_tabs"`
	DefaultUsers Colour            `yaml:"default_users"`
	Moderators   Colour            `yaml:"moderators"`
	CustomUsers  map[string]Colour `yaml:"custom_users"`
}

// UsernameColour returns the override for a user, or the default colour.
func (c *ChatColours) UsernameColour(username string) Colour {
	if col, ok := c.CustomUsers[username]; ok {
		return col
	}
	return c.DefaultUsers
}

// Logging configures application logging and the chat journal.
type Logging struct {
	Application AppLogging     `yaml:"application"`
	Chat        JournalLogging `yaml:"chat"`
}

// AppLogging holds the application log level.
type AppLogging struct {
	Level Level `yaml:"level"`
}

// Level is a log level as spelled in the settings file.
type Level string

const (
	LevelOff   Level = "off"
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
	LevelTrace Level = "trace"
)

// Zerolog converts the level to its zerolog equivalent; unknown spellings
// fall back to warn.
func (l Level) Zerolog() zerolog.Level {
	switch l {
	case LevelOff:
		return zerolog.Disabled
	case LevelError:
		return zerolog.ErrorLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelTrace:
		return zerolog.TraceLevel
	default:
		return zerolog.WarnLevel
	}
}

// JournalLogging configures the per-chat journal files.
type JournalLogging struct {
	Enabled         bool           `yaml:"enabled"`
	Directory       string         `yaml:"directory"`
	Format          JournalFormats `yaml:"format"`
	LogSystemEvents bool           `yaml:"log_system_events"`
}

// JournalFormats holds the line templates of the journal. Placeholders:
// {date:<layout>}, {username}, {text}.
type JournalFormats struct {
	Date          string `yaml:"date"`
	UserMessage   string `yaml:"user_message"`
	UserAction    string `yaml:"user_action"`
	SystemMessage string `yaml:"system_message"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		Application: Application{
			Window: WindowGeometry{X: 600, Y: 400, Width: 800, Height: 600},
		},
		Chat: Chat{
			Backend:   BackendIRC,
			Reconnect: true,
			Behaviour: ChatBehaviour{
				HandleGameChatLinks:    true,
				HandleGameBeatmapLinks: true,
			},
		},
		Notifications: Notifications{
			TaskbarFlashEvents:  TaskbarFlashEvents{Highlights: true, PrivateMessages: true},
			FlashTimeoutSeconds: 10,
			Style:               StyleWindowAndTaskbar,
		},
		UI: UI{
			Theme:        ThemeDark,
			LightColours: LightColours(),
			DarkColours:  DarkColours(),
		},
		Logging: Logging{
			Application: AppLogging{Level: LevelWarn},
			Chat: JournalLogging{
				Enabled:         true,
				Directory:       DefaultJournalDirectory,
				Format:          DefaultJournalFormats(),
				LogSystemEvents: true,
			},
		},
	}
}

// DefaultJournalFormats returns the stock journal line templates.
func DefaultJournalFormats() JournalFormats {
	return JournalFormats{
		Date:          "2006-01-02 15:04:05",
		UserMessage:   "{date} <{username}> {text}",
		UserAction:    "{date} * {username} {text}",
		SystemMessage: "{date} * {text}",
	}
}

// DarkColours returns the dark theme colour set.
func DarkColours() ChatColours {
	return ChatColours{
		Own:          RGB(250, 214, 60),
		Highlight:    RGB(250, 214, 60),
		ReadTabs:     RGB(120, 120, 120),
		UnreadTabs:   RGB(255, 255, 255),
		DefaultUsers: RGB(180, 180, 180),
		Moderators:   DefaultModeratorColour(),
	}
}

// LightColours returns the light theme colour set.
func LightColours() ChatColours {
	return ChatColours{
		Own:          RGB(0, 132, 200),
		Highlight:    RGB(200, 77, 77),
		ReadTabs:     RGB(120, 120, 120),
		UnreadTabs:   RGB(0, 0, 0),
		DefaultUsers: RGB(60, 60, 60),
		Moderators:   DefaultModeratorColour(),
	}
}

// Load reads settings from path. A missing file yields defaults; a present
// but malformed one is an error.
func Load(path string) (Settings, error) {
	s := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes the settings to path as YAML.
func (s Settings) Save(path string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
