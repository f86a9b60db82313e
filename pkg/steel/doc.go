// Package steel provides an embeddable chat client core for the osu!
// community chat. It manages the connection, per-chat backlogs, highlight
// and unread tracking, chat journals and release update checks, and exposes
// everything to a UI shell through an event stream.
//
// # Basic Usage
//
// To embed the core in your application:
//
//	cfg := steel.DefaultConfig()
//	cfg.SettingsPath = "/path/to/settings.yaml"
//
//	client, err := steel.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	for ev := range client.Events() {
//	    // render ev
//	}
//
//	if err := client.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Runtime behaviour lives in the settings file; see the settings package.
// [Config] only locates that file and names the running version. A missing
// settings file is not an error: defaults apply.
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external
// dependencies:
//
//	client, err := steel.New(cfg,
//	    steel.WithHTTPClient(mockClient),
//	    steel.WithLogger(logger),
//	    steel.WithBackend(backend),
//	)
//
// Without [WithBackend] a loopback transport is used: joins succeed
// immediately and sent messages echo back, which is enough for headless
// runs and tests.
//
// # Lifecycle States
//
// A Client can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Client.Status]
// to query the current state.
//
// # Plugins
//
// Optional plugins extend a running client:
//
//	import "github.com/steel-chat/steel/plugins/settingswatcher"
//
//	client, err := steel.New(cfg,
//	    settingswatcher.WithSettingsWatcher(settingswatcher.DefaultConfig()),
//	)
package steel
