// Package journal appends chat messages to per-conversation log files. A
// single writer goroutine owns all file handles; callers talk to it through
// commands, so logging never blocks on disk from the engine loop.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/steel-chat/steel/pkg/chat"
	"github.com/steel-chat/steel/pkg/settings"
)

const commandBuffer = 256

type command interface{ journalCommand() }

type logMessage struct {
	chatName string
	message  chat.Message
}

type closeLog struct{ chatName string }

type changeFormats struct{ formats settings.JournalFormats }

type changeDirectory struct{ directory string }

func (logMessage) journalCommand()      {}
func (closeLog) journalCommand()        {}
func (changeFormats) journalCommand()   {}
func (changeDirectory) journalCommand() {}

// Writer is the journal front-end handed to the engine.
type Writer struct {
	commands chan command
	wg       sync.WaitGroup

	mu                sync.RWMutex
	enabled           bool
	logSystemMessages bool

	closeOnce sync.Once
}

// NewWriter starts the journal backend and returns its front-end.
func NewWriter(cfg settings.JournalLogging, logger zerolog.Logger) *Writer {
	w := &Writer{
		commands:          make(chan command, commandBuffer),
		enabled:           cfg.Enabled,
		logSystemMessages: cfg.LogSystemEvents,
	}
	b := &backend{
		directory: cfg.Directory,
		formats:   cfg.Format,
		files:     make(map[string]*os.File),
		logger:    logger,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		b.run(w.commands)
	}()
	return w
}

// SetEnabled turns journaling on or off. Disabling keeps open file handles;
// they are reused if journaling comes back.
func (w *Writer) SetEnabled(enabled bool) {
	w.mu.Lock()
	w.enabled = enabled
	w.mu.Unlock()
}

// SetLogSystemMessages toggles journaling of system messages.
func (w *Writer) SetLogSystemMessages(log bool) {
	w.mu.Lock()
	w.logSystemMessages = log
	w.mu.Unlock()
}

// Log appends a message to the chat's journal file.
func (w *Writer) Log(chatName string, message chat.Message) {
	w.mu.RLock()
	skip := !w.enabled || (message.Type == chat.MessageSystem && !w.logSystemMessages)
	w.mu.RUnlock()
	if skip {
		return
	}
	w.commands <- logMessage{chatName: chatName, message: message}
}

// CloseLog releases the file handle of a chat that was closed.
func (w *Writer) CloseLog(chatName string) {
	w.commands <- closeLog{chatName: chatName}
}

// SetFormats replaces the journal line templates.
func (w *Writer) SetFormats(formats settings.JournalFormats) {
	w.commands <- changeFormats{formats: formats}
}

// SetDirectory points the journal at a new directory. Open handles are
// dropped and files are reopened lazily under the new root.
func (w *Writer) SetDirectory(directory string) {
	w.commands <- changeDirectory{directory: directory}
}

// Shutdown flushes pending commands and stops the writer. Safe to call more
// than once.
func (w *Writer) Shutdown() {
	w.closeOnce.Do(func() { close(w.commands) })
	w.wg.Wait()
}

type backend struct {
	directory string
	formats   settings.JournalFormats
	files     map[string]*os.File
	logger    zerolog.Logger
}

func (b *backend) run(commands <-chan command) {
	defer b.closeAll()
	for cmd := range commands {
		switch c := cmd.(type) {
		case logMessage:
			if err := b.log(c.chatName, c.message); err != nil {
				b.logger.Error().Err(err).Str("chat", c.chatName).Msg("journal write failed")
			}
		case closeLog:
			b.close(c.chatName)
		case changeFormats:
			b.formats = c.formats
		case changeDirectory:
			b.logger.Info().
				Str("from", b.directory).
				Str("to", c.directory).
				Msg("journal directory changed")
			b.directory = c.directory
			b.closeAll()
		}
	}
}

func (b *backend) chatPath(chatName string) string {
	return filepath.Join(b.directory, strings.ToLower(chatName)+".log")
}

func (b *backend) log(chatName string, message chat.Message) error {
	if len(b.files) == 0 {
		if err := os.MkdirAll(b.directory, 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}

	path := b.chatPath(chatName)
	f, ok := b.files[path]
	if !ok {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		b.files[path] = f
		// Separate sessions with a blank line.
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("start journal session: %w", err)
		}
	}

	line := FormatMessage(templateFor(b.formats, message.Type), b.formats.Date, message)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("append journal line: %w", err)
	}
	return nil
}

func (b *backend) close(chatName string) {
	path := b.chatPath(chatName)
	if f, ok := b.files[path]; ok {
		_ = f.Close()
		delete(b.files, path)
	}
}

func (b *backend) closeAll() {
	for path, f := range b.files {
		_ = f.Close()
		delete(b.files, path)
	}
}
