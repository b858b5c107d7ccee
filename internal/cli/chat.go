// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The "huddle chat" plain line-mode client.
//
// Command: chat
// Short:   Chat without the full-screen TUI
//
// Examples:
//   huddle chat                  Prompt for a name, then chat
//   huddle chat --name ana       Join as "ana" as soon as the socket opens
//   echo hi | huddle chat --name bot
//
// Interactive Commands (during chat):
//   /users, /who        List who is online
//   /export [FORMAT]    Save the transcript (html, json, md)
//   /help               Show available commands
//   /quit, /q           Leave
//   //text              Send "/text" as a message
//   Ctrl+D              Leave

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/export"
	"github.com/jeranaias/huddle/internal/logging"
	"github.com/jeranaias/huddle/internal/protocol"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/storage"
	"github.com/jeranaias/huddle/internal/transport"
	"github.com/jeranaias/huddle/internal/util"
)

const plainHelpText = `Commands:
  /users, /who        List who is online
  /export [FORMAT]    Save the transcript (html, json, md)
  /help               Show this help
  /quit, /q           Leave (Ctrl+D works too)
  //text              Send a message starting with "/"`

const (
	namePrompt    = "name> "
	messagePrompt = "> "
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of input per call. io.EOF ends the session.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// linerReader is the interactive reader.
// USABILITY: arrow-key history that persists across runs.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// scannerReader reads piped input. Prompts are not printed.
type scannerReader struct {
	scanner *bufio.Scanner
}

// NewScannerReader reads lines from r without prompting, for piped input.
func NewScannerReader(r io.Reader) LineReader {
	return &scannerReader{scanner: bufio.NewScanner(r)}
}

func (r *scannerReader) ReadLine(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scannerReader) Close() error { return nil }

// =============================================================================
// PLAIN CHAT LOOP
// =============================================================================

// DefaultDrainTimeout bounds how long plain mode waits, after input ends, for
// the server to echo messages it has sent.
const DefaultDrainTimeout = 5 * time.Second

// PlainChatOptions configures a PlainChat.
type PlainChatOptions struct {
	// AutoJoin, if set, is joined as soon as the socket connects.
	AutoJoin         string
	MaxNameLength    int
	MaxMessageLength int
	// ExportDir receives /export transcripts. Default ".".
	ExportDir string
	// DrainTimeout is the wait for unconfirmed sends after input ends.
	// Default DefaultDrainTimeout.
	DrainTimeout time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

// PlainChat drives a session from a line reader and an event channel. Events
// and input lines are handled on one goroutine, so the session is never
// touched concurrently.
//
// Input is gated: no line is read until the first connection attempt has
// settled, and none while a join is awaiting the server's answer. A line
// read early would otherwise be taken as a name or hit a closed socket.
type PlainChat struct {
	sess   *session.Session
	events <-chan protocol.Event
	reader LineReader
	out    io.Writer
	opts   PlainChatOptions
	log    zerolog.Logger

	// joined mirrors sess.Joined for the input goroutine's prompt.
	joined atomic.Bool

	// Owned by the Run goroutine.
	settled     bool // first Connect or ConnectError seen
	joinPending bool // join sent, no answer yet
	unconfirmed int  // own messages sent but not yet echoed
}

// NewPlainChat creates a plain chat loop writing to out.
func NewPlainChat(sess *session.Session, events <-chan protocol.Event, reader LineReader, out io.Writer, opts PlainChatOptions) *PlainChat {
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = util.DefaultMaxNameLength
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = util.DefaultMaxMessageLength
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PlainChat{
		sess:   sess,
		events: events,
		reader: reader,
		out:    out,
		opts:   opts,
		log:    opts.Logger.With().Str(logging.FieldComponent, "plain").Logger(),
	}
}

// Run loops until the input ends, /quit, the event channel closes, the
// transport gives up, or ctx is cancelled. After the input ends it keeps
// handling events until every message it sent has come back from the
// server, or DrainTimeout passes.
func (c *PlainChat) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	next := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)

	// The reader only prompts when asked, so the prompt reflects the join
	// state and nothing is read before the session can use it.
	go func() {
		for {
			select {
			case <-next:
			case <-done:
				return
			}
			line, err := c.reader.ReadLine(c.prompt())
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()

	var (
		requested bool
		inputDone bool
		drain     <-chan time.Time
	)
	request := func() {
		if !requested && !inputDone && c.acceptingInput() {
			requested = true
			next <- struct{}{}
		}
	}

	for {
		request()

		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-c.events:
			if !ok {
				c.println(RenderNotice(session.Notice{Kind: session.NoticeInfo, Text: "Connection closed"}))
				return nil
			}
			c.handleEvent(ev)
			if final, reason := finalEvent(ev); final {
				c.println(RenderNotice(session.Notice{Kind: session.NoticeError, Text: "Giving up on the connection"}))
				return fmt.Errorf("%w: %v", transport.ErrGaveUp, reason)
			}
			if inputDone && c.unconfirmed == 0 {
				return nil
			}

		case line := <-lines:
			requested = false
			if c.handleLine(line) {
				return nil
			}

		case err := <-readErr:
			if !errors.Is(err, io.EOF) {
				c.log.Error().Err(err).Msg("input failed")
				return fmt.Errorf("read input: %w", err)
			}
			if c.unconfirmed == 0 {
				return nil
			}
			inputDone = true
			drain = time.After(c.opts.DrainTimeout)

		case <-drain:
			c.log.Warn().Int("unconfirmed", c.unconfirmed).Msg("input ended before the server confirmed every message")
			c.println(RenderNotice(session.Notice{
				Kind: session.NoticeWarning,
				Text: fmt.Sprintf("%d message(s) not confirmed by the server", c.unconfirmed),
			}))
			return nil
		}
	}
}

// acceptingInput reports whether the next line can be acted on.
func (c *PlainChat) acceptingInput() bool {
	return c.settled && !c.joinPending
}

// finalEvent reports whether ev ends the connection for good.
func finalEvent(ev protocol.Event) (bool, error) {
	switch e := ev.(type) {
	case protocol.Disconnect:
		return e.Final, e.Reason
	case protocol.ConnectError:
		return e.Final, e.Reason
	}
	return false, nil
}

func (c *PlainChat) prompt() string {
	if c.joined.Load() {
		return messagePrompt
	}
	return namePrompt
}

func (c *PlainChat) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *PlainChat) currentID() string {
	if u, ok := c.sess.CurrentUser(); ok {
		return u.ID
	}
	return ""
}

// handleEvent applies one event and prints what it produced.
func (c *PlainChat) handleEvent(ev protocol.Event) {
	notices := c.sess.Apply(ev)
	c.joined.Store(c.sess.Joined())
	now := c.opts.Now()

	switch e := ev.(type) {
	case protocol.MessageReceived:
		if c.unconfirmed > 0 && e.UserID == c.currentID() {
			c.unconfirmed--
		}
		// The message line replaces the preview notice.
		c.println(FormatMessageLine(e.Message, c.currentID(), now))
		return

	case protocol.JoinConfirmed:
		c.joinPending = false

	case protocol.ServerError:
		// A rejected join is answered with an error; let the user retry.
		c.joinPending = false

	case protocol.Disconnect:
		c.joinPending = false
		c.settled = true

	case protocol.ConnectError:
		c.settled = true

	case protocol.HistorySnapshot:
		if len(e.Messages) > 0 {
			c.println(DimStyle.Render(fmt.Sprintf("-- %d earlier messages --", len(e.Messages))))
		}
		for _, msg := range e.Messages {
			c.println(FormatMessageLine(msg, c.currentID(), now))
		}
		return

	case protocol.RosterSnapshot:
		c.printRoster()
		return

	case protocol.Connect:
		c.printNotices(notices)
		c.settled = true
		if !c.joinPending && c.opts.AutoJoin != "" && !c.sess.Joined() {
			c.join(c.opts.AutoJoin)
		}
		return
	}

	c.printNotices(notices)
}

func (c *PlainChat) printNotices(notices []session.Notice) {
	for _, n := range notices {
		c.println(RenderNotice(n))
	}
}

func (c *PlainChat) printRoster() {
	users := c.sess.Roster()
	c.println(SectionStyle.Render(fmt.Sprintf("Online (%d)", len(users))))
	if len(users) == 0 {
		c.println(DimStyle.Render("  No one here yet"))
		return
	}
	currentID := c.currentID()
	for _, u := range users {
		name := u.Name
		if u.ID == currentID {
			name += " (you)"
		}
		c.println("  " + name)
	}
}

// handleLine acts on one input line and reports whether to quit.
func (c *PlainChat) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	line, isCommand := util.SplitCommand(line)
	if isCommand {
		return c.handleCommand(line)
	}
	if !c.sess.Joined() {
		c.join(line)
		return false
	}

	if err := util.ValidateMessage(line, c.opts.MaxMessageLength); err != nil {
		c.printErr(err)
		return false
	}
	if err := c.sess.SendMessage(line); err != nil {
		c.printErr(err)
		return false
	}
	c.unconfirmed++
	return false
}

func (c *PlainChat) join(name string) {
	name = util.NormalizeName(name)
	if err := util.ValidateName(name, c.opts.MaxNameLength); err != nil {
		c.printErr(err)
		return
	}
	if err := c.sess.JoinChat(name); err != nil {
		c.printErr(err)
		return
	}
	c.joinPending = true
	c.println(DimStyle.Render("Joining as " + name + "..."))
}

func (c *PlainChat) printErr(err error) {
	if errors.Is(err, transport.ErrNotConnected) {
		c.println(RenderNotice(session.Notice{Kind: session.NoticeWarning, Text: "Not connected to server"}))
		return
	}
	c.println(RenderNotice(session.NoticeFor(err)))
}

func (c *PlainChat) handleCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(strings.TrimPrefix(parts[0], "/")) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.println(plainHelpText)
	case "users", "who":
		if err := c.sess.RefreshUsers(); err != nil {
			c.printErr(err)
		}
	case "export":
		format := "html"
		if len(parts) > 1 {
			format = parts[1]
		}
		c.export(format)
	default:
		c.println(RenderNotice(session.Notice{
			Kind: session.NoticeWarning,
			Text: "Unknown command " + parts[0] + ", type /help for the list",
		}))
	}
	return false
}

func (c *PlainChat) export(format string) {
	opts := export.DefaultOptions()
	opts.OutputDir = c.opts.ExportDir

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		c.printErr(err)
		return
	}

	t := export.NewTranscript(c.sess.Room(), export.SourceLive, c.sess.Messages())
	if u, ok := c.sess.CurrentUser(); ok {
		t.ViewerID, t.ViewerName = u.ID, u.Name
	}
	path, err := export.ExportToFile(t, exporter, opts)
	if err != nil {
		c.printErr(fmt.Errorf("export failed: %w", err))
		return
	}
	c.println(RenderNotice(session.Notice{Kind: session.NoticeSuccess, Text: "Exported to " + path}))
}

// =============================================================================
// COMMAND ENTRY POINT
// =============================================================================

// OpenArchive opens the message archive when it is enabled. It returns nil
// without error when archiving is off.
func OpenArchive(cfg *config.Config, logger zerolog.Logger) (*storage.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	path := config.ExpandPath(cfg.Archive.Path)
	archive, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Info().Str(logging.FieldPath, path).Msg("archive opened")
	return archive, nil
}

// NewSession builds the session shared by the TUI and plain mode.
func NewSession(cfg *config.Config, sender session.Sender, archive *storage.Archive, logger zerolog.Logger) *session.Session {
	opts := session.Options{
		Room:          cfg.Server.Room,
		PreviewLength: cfg.UI.NoticePreviewLength,
		Logger:        logger,
	}
	if archive != nil {
		opts.Recorder = archive
	}
	return session.New(sender, opts)
}

// HandleChat runs plain line mode against the configured server.
func HandleChat(ctx context.Context, args *Args, env *Env) error {
	cfg := env.Config

	archive, err := OpenArchive(cfg, env.Logger)
	if err != nil {
		return NewCommandError("chat", "open archive", "archive unavailable", err)
	}
	if archive != nil {
		defer archive.Close()
	}

	conn := transport.New(transport.OptionsFromConfig(cfg.Server), env.Logger)
	defer conn.Close()

	sess := NewSession(cfg, conn, archive, env.Logger)

	var reader LineReader
	if IsTTY() {
		reader = newLinerReader()
	} else {
		reader = NewScannerReader(env.Stdin)
	}
	defer reader.Close()

	fmt.Fprintln(env.Stdout, TitleStyle.Render("huddle #"+sess.Room()))
	fmt.Fprintln(env.Stdout, DimStyle.Render("Connecting to "+conn.URL()+" ... type /help for commands"))

	if err := conn.Open(ctx); err != nil {
		return NewCommandError("chat", "connect", conn.URL(), err)
	}

	chat := NewPlainChat(sess, conn.Events(), reader, env.Stdout, PlainChatOptions{
		AutoJoin:         args.Rest.Flag("name"),
		MaxNameLength:    cfg.Limits.MaxNameLength,
		MaxMessageLength: cfg.Limits.MaxMessageLength,
		Logger:           env.Logger,
		Now:              env.Now,
	})
	return chat.Run(ctx)
}

var _ session.Recorder = (*storage.Archive)(nil)
