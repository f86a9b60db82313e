package steel_test

import (
	"context"
	"fmt"

	"github.com/steel-chat/steel/pkg/settings"
	"github.com/steel-chat/steel/pkg/steel"
)

// ExampleNew demonstrates how to embed the chat core in an application.
func ExampleNew() {
	s := settings.Default()
	s.Chat.IRC.Username = "pearl"
	s.Logging.Chat.Enabled = false

	client, err := steel.New(steel.DefaultConfig(), steel.WithSettings(s))
	if err != nil {
		fmt.Printf("failed to create client: %v\n", err)
		return
	}

	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	fmt.Printf("running: %v\n", client.Status() == steel.StateRunning)

	// Stop gracefully (flushes chat journals)
	_ = client.Stop()

	// Output: running: true
}

// ExampleClient_SendMessage shows the event stream a UI shell consumes.
func ExampleClient_SendMessage() {
	s := settings.Default()
	s.Chat.IRC.Username = "pearl"
	s.Logging.Chat.Enabled = false

	client, err := steel.New(steel.DefaultConfig(), steel.WithSettings(s))
	if err != nil {
		fmt.Printf("failed to create client: %v\n", err)
		return
	}
	if err := client.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	defer client.Stop()

	client.OpenChat("#osu")
	client.SendMessage("#osu", "hello")

	// Events arrive on client.Events() as the engine processes them.
	ev := <-client.Events()
	fmt.Printf("got an event: %v\n", ev != nil)

	// Output: got an event: true
}
