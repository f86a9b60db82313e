package app

import "errors"

// Errors returned by the public API. They can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running client.
	ErrAlreadyRunning = errors.New("steel: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped client.
	ErrNotRunning = errors.New("steel: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("steel: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("steel: invalid configuration")

	// ErrChatNotOpen is returned when an operation targets a chat that is
	// not open.
	ErrChatNotOpen = errors.New("steel: chat not open")
)
