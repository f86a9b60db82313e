package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/steel-chat/steel/internal/app"
	"github.com/steel-chat/steel/internal/cliconfig"
	"github.com/steel-chat/steel/internal/stubcrate"
	"github.com/steel-chat/steel/pkg/settings"
	"github.com/steel-chat/steel/pkg/steel"
	"github.com/steel-chat/steel/plugins/settingswatcher"
)

const helpDescription = `
steel is a chat client core for the osu! community.

Highlights:
  - Keeps per-chat backlogs with highlight words, unread markers and link detection.
  - Journals conversations to plain text files with configurable line templates.
  - Watches the settings file and applies changes without a restart.
  - Checks GitHub releases for newer versions.

Configuration lives in settings.yaml; flags and STEEL_* environment
variables override it for a single run.
`

var exampleUsage = strings.TrimSpace(`
  steel --username <name> --autojoin '#osu'
  steel --settings ~/.config/steel/settings.yaml --log-level debug
  steel stub-crate --root . --name glass
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "steel",
		Short:   "Chat client core for the osu! community",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Build set of changed flags, then apply environment (STEEL_*).
			// Precedence is flags over environment over settings file.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			cliconfig.ApplyEnvConfig(&cfg, changed)

			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := settings.Load(cfg.SettingsPath)
			if err != nil {
				return err
			}
			cfg.Apply(&s, changed)

			log = log.Level(s.Logging.Application.Level.Zerolog())

			backend := app.NewLoopback()
			backend.SetEcho(!cfg.NoEcho)

			client, err := steel.New(
				steel.Config{SettingsPath: cfg.SettingsPath, Version: getVersion()},
				steel.WithLogger(log),
				steel.WithSettings(s),
				steel.WithBackend(backend),
				settingswatcher.WithDefaultSettingsWatcher(),
			)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("start client: %w", err)
			}

			// Mirror the event stream onto stdout.
			go printEvents(client)

			if !s.Chat.AutoConnect {
				if err := client.Connect(ctx); err != nil {
					log.Error().Err(err).Msg("connect failed")
				}
			}

			// Watch for a crash so the process exits instead of hanging.
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := client.Status()
						if status == steel.StateStopped || status == steel.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if client.Status() == steel.StateCrashed {
					log.Error().Msg("client crashed")
				}
			}

			if err := client.Stop(); err != nil && !errors.Is(err, app.ErrNotRunning) {
				return fmt.Errorf("stop client: %w", err)
			}
			return nil
		},
	}

	root.Flags().StringVar(&cfg.SettingsPath, "settings", cfg.SettingsPath, "path to the settings file")
	root.Flags().StringVar(&cfg.Username, "username", cfg.Username, "chat username (overrides settings)")
	root.Flags().StringVar(&cfg.Password, "password", cfg.Password, "chat password (overrides settings)")
	root.Flags().StringSliceVar(&cfg.AutoJoin, "autojoin", cfg.AutoJoin, "channels to join on connect")
	root.Flags().StringVar(&cfg.JournalDir, "journal-dir", cfg.JournalDir, "chat journal directory (overrides settings)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "application log level: off, error, warn, info, debug, trace")
	root.Flags().BoolVar(&cfg.AutoConnect, "autoconnect", cfg.AutoConnect, "connect immediately on startup")
	root.Flags().BoolVar(&cfg.NoEcho, "no-echo", cfg.NoEcho, "do not echo sent messages back (loopback backend)")

	root.AddCommand(stubCrateCommand(log))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("steel")
		os.Exit(1)
	}
}

// printEvents renders the event stream as plain lines on stdout.
func printEvents(client *steel.Client) {
	for ev := range client.Events() {
		switch ev := ev.(type) {
		case app.UINewMessage:
			fmt.Printf("[%s] %s\n", ev.Target, ev.Message.String())
		case app.UIServerMessage:
			fmt.Printf("[server] %s\n", ev.Content)
		case app.UIConnectionChanged:
			fmt.Printf("* %s\n", ev.Status)
		case app.UIChatState:
			fmt.Printf("* %s is now %s\n", ev.Target, ev.State)
		case app.UIUpdateState:
			if ev.Snapshot.UpdateAvailable && ev.Snapshot.Release != nil {
				if a := ev.Snapshot.Asset; a != nil {
					fmt.Printf("* update available: %s (%s, %d bytes)\n", ev.Snapshot.Release.TagName, a.Name, a.Size)
				} else {
					fmt.Printf("* update available: %s\n", ev.Snapshot.Release.TagName)
				}
			}
		}
	}
}

// stubCrateCommand generates a placeholder Rust crate so the desktop shell's
// workspace resolves its private dependency during open builds.
func stubCrateCommand(log zerolog.Logger) *cobra.Command {
	var (
		rootDir string
		name    string
		version string
	)

	cmd := &cobra.Command{
		Use:   "stub-crate",
		Short: "Generate a placeholder crate for the private dependency",
		Long: strings.TrimSpace(`
Generates an empty Rust crate under <root>/crates/<name> with a minimal
Cargo.toml and an empty src/lib.rs. Refuses to touch an existing manifest,
so a checkout with the real crate stays intact.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := stubcrate.Generate(rootDir, name, version); err != nil {
				return err
			}
			log.Info().Str("manifest", stubcrate.ManifestPath(rootDir, name)).Msg("stub crate generated")
			return nil
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", ".", "workspace root containing the crates directory")
	cmd.Flags().StringVar(&name, "name", stubcrate.DefaultName, "crate name")
	cmd.Flags().StringVar(&version, "crate-version", stubcrate.DefaultVersion, "crate version")

	return cmd
}
