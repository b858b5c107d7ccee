// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/huddle/internal/api"
	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/export"
	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/protocol"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/storage"
	"github.com/jeranaias/huddle/internal/transport"
)

// =============================================================================
// HELPERS
// =============================================================================

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

var fixedNow = time.Date(2025, 3, 1, 11, 15, 30, 0, time.Local)

func testEnv(t *testing.T, cfg *config.Config) (*Env, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	var out bytes.Buffer
	return &Env{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Stdin:      strings.NewReader(""),
		Stdout:     &out,
		Stderr:     io.Discard,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return fixedNow },
	}, &out
}

func mustParse(t *testing.T, argv ...string) *Args {
	t.Helper()
	args, err := Parse(argv)
	require.NoError(t, err)
	return args
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser_Formats(t *testing.T) {
	p := NewArgParser([]string{"history", "--limit", "20", "--out=chat.md", "-r", "lobby", "--remote", "extra"}, "remote")

	assert.Equal(t, "history", p.Subcommand())
	assert.Equal(t, "20", p.Flag("limit"))
	assert.Equal(t, "chat.md", p.Flag("--out"))
	assert.Equal(t, "lobby", p.Flag("r"))
	assert.True(t, p.BoolFlag("remote"))
	assert.Equal(t, []string{"history", "extra"}, p.PositionalFrom(0))
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "", p.Positional(5))
}

func TestArgParser_BoolFlagDoesNotConsumeValue(t *testing.T) {
	p := NewArgParser([]string{"--verbose", "chat"}, "verbose")
	assert.True(t, p.BoolFlag("verbose"))
	assert.Equal(t, "chat", p.Subcommand())

	p = NewArgParser([]string{"--verbose=false", "chat"}, "verbose")
	assert.False(t, p.BoolFlag("verbose"))
	assert.True(t, p.HasFlag("verbose"))
}

func TestArgParser_Ints(t *testing.T) {
	p := NewArgParser([]string{"--limit", "abc"})
	_, err := p.FlagIntOrDefault("limit", 5)
	assert.Error(t, err)

	n, err := NewArgParser(nil).FlagIntOrDefault("limit", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestArgParser_DoubleDash(t *testing.T) {
	p := NewArgParser([]string{"config", "set", "--", "server.room", "--weird"})
	assert.Equal(t, []string{"config", "set", "server.room", "--weird"}, p.PositionalFrom(0))
}

func TestArgParser_WithoutSubcommand(t *testing.T) {
	p := NewArgParser([]string{"--room", "chat", "chat", "--name", "ana"})
	assert.Equal(t, "chat", p.Subcommand())
	assert.Equal(t, []string{"--room", "chat", "--name", "ana"}, p.WithoutSubcommand())
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", "on"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.True(t, b, s)
	}
	b, err := ParseBoolString("off")
	require.NoError(t, err)
	assert.False(t, b)

	_, err = ParseBoolString("maybe")
	assert.Error(t, err)
}

// =============================================================================
// PARSE / CONFIG
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdTUI},
		{[]string{"chat"}, CmdChat},
		{[]string{"s"}, CmdStatus},
		{[]string{"history", "--remote"}, CmdHistory},
		{[]string{"config", "get", "server.room"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"chat", "--help"}, CmdHelp},
	}
	for _, tt := range tests {
		args := mustParse(t, tt.argv...)
		assert.Equal(t, tt.want, args.Command, "%v", tt.argv)
	}
}

func TestParse_GlobalFlags(t *testing.T) {
	args := mustParse(t, "--verbose", "--url", "wss://chat.example.com/ws", "chat", "--name", "ana", "--room", "lobby")

	assert.Equal(t, CmdChat, args.Command)
	assert.True(t, args.Verbose)
	assert.Equal(t, "wss://chat.example.com/ws", args.URL)
	assert.Equal(t, "lobby", args.Room)
	assert.Equal(t, "ana", args.Rest.Flag("name"))
	assert.Equal(t, "", args.Rest.Subcommand())
}

func TestParse_SubcommandAfterCommand(t *testing.T) {
	args := mustParse(t, "config", "set", "ui.show_roster", "false")
	assert.Equal(t, "set", args.Rest.Subcommand())
	assert.Equal(t, "ui.show_roster", args.Rest.Positional(1))
	assert.Equal(t, "false", args.Rest.Positional(2))
}

func TestParse_UnknownCommand(t *testing.T) {
	_, err := Parse([]string{"dance"})
	require.Error(t, err)

	var usage *UsageError
	assert.True(t, errors.As(err, &usage))
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("HUDDLE_HOME", t.TempDir())
	t.Setenv("HUDDLE_ROOM", "")
	t.Setenv("HUDDLE_SOCKET_URL", "")

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nroom = \"lobby\"\n"), 0600))

	args := mustParse(t, "--config", path, "--url", "wss://chat.example.com/ws")
	cfg, gotPath, err := LoadConfig(args, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, path, gotPath)
	assert.Equal(t, "lobby", cfg.Server.Room)
	assert.Equal(t, "wss://chat.example.com/ws", cfg.Server.SocketURL)
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HUDDLE_HOME", home)
	t.Setenv("HUDDLE_ROOM", "")

	cfg, path, err := LoadConfig(mustParse(t, "--room", "random"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), path)
	assert.Equal(t, "random", cfg.Server.Room)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	t.Setenv("HUDDLE_HOME", t.TempDir())

	_, _, err := LoadConfig(mustParse(t, "--url", "http://not-a-socket"), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.socket_url")
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitGeneralError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitNetworkError, ExitCode(NewCommandError("status", "check", "down", api.ErrUnreachable)))
	assert.Equal(t, ExitTimeoutError, ExitCode(NewCommandError("status", "check", "slow", api.ErrTimeout)))
	assert.Equal(t, ExitNotFoundError, ExitCode(api.ErrNotFound))
}

func TestCommandError_Message(t *testing.T) {
	err := NewCommandError("history", "read archive", "/tmp/a.db", errors.New("locked"))
	assert.Equal(t, "history read archive failed: /tmp/a.db: locked", err.Error())
	assert.Equal(t, "config init failed: exists", NewCommandError("config", "init", "exists", nil).Error())
}

func TestHandleVersionAndHelp(t *testing.T) {
	env, out := testEnv(t, nil)
	require.NoError(t, Run(context.Background(), mustParse(t, "version"), env))
	assert.Contains(t, out.String(), "huddle "+Version)

	out.Reset()
	require.NoError(t, Run(context.Background(), mustParse(t, "help"), env))
	assert.Contains(t, out.String(), "huddle history [flags]")
}

// =============================================================================
// FORMATTING
// =============================================================================

func TestFormatMessageLine(t *testing.T) {
	at := model.NewTimestamp(time.Date(2025, 3, 1, 9, 5, 0, 0, time.Local))

	msg := model.Message{ID: "m1", UserID: "u1", UserName: "ana", Content: "hello", Type: model.MessageTypeText, Timestamp: at}
	assert.Equal(t, "[09:05] ana: hello", plain(FormatMessageLine(msg, "", fixedNow)))
	assert.Equal(t, "[09:05] You: hello", plain(FormatMessageLine(msg, "u1", fixedNow)))

	msg.Content = "one\ntwo"
	assert.Equal(t, "[09:05] ana: one\n    two", plain(FormatMessageLine(msg, "", fixedNow)))

	sys := model.Message{Content: "ana joined", Type: model.MessageTypeSystem}
	assert.Equal(t, "-- ana joined --", plain(FormatMessageLine(sys, "", fixedNow)))

	untimed := model.Message{UserID: "u2", UserName: "ben", Content: "hi"}
	assert.Equal(t, "ben: hi", plain(FormatMessageLine(untimed, "", fixedNow)))
}

// =============================================================================
// STATUS
// =============================================================================

func TestHandleStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.HealthStatus{Status: "healthy", Service: "chat", Version: "1.2"})
	})
	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []model.User{
			{ID: "u2", Name: "ben", JoinedAt: model.NewTimestamp(fixedNow.Add(-5 * time.Minute))},
			{ID: "u1", Name: "ana"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.Server.APIURL = srv.URL + "/api"
	env, out := testEnv(t, cfg)

	require.NoError(t, HandleStatus(context.Background(), env))

	text := plain(out.String())
	assert.Contains(t, text, "[OK] chat healthy (v1.2)")
	assert.Contains(t, text, "Online (2)")
	assert.Contains(t, text, "ben joined 5 min ago")
	assert.Less(t, strings.Index(text, "  ana"), strings.Index(text, "  ben"))
}

func TestHandleStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.Default()
	cfg.Server.APIURL = url + "/api"
	env, out := testEnv(t, cfg)

	err := HandleStatus(context.Background(), env)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, ExitCode(err))
	assert.Contains(t, plain(out.String()), "[X] unreachable")
}

// =============================================================================
// HISTORY
// =============================================================================

func historyMessages() []model.Message {
	return []model.Message{
		{ID: "m1", UserID: "u1", UserName: "ana", Content: "first", Type: model.MessageTypeText, RoomID: "general",
			Timestamp: model.NewTimestamp(fixedNow.Add(-2 * time.Minute))},
		{ID: "m2", UserID: "u2", UserName: "ben", Content: "second", Type: model.MessageTypeText, RoomID: "general",
			Timestamp: model.NewTimestamp(fixedNow.Add(-time.Minute))},
	}
}

func TestHandleHistory_Remote(t *testing.T) {
	var gotLimit string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/room/lobby", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(w, historyMessages())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.Server.APIURL = srv.URL + "/api"
	cfg.Server.Room = "lobby"
	env, out := testEnv(t, cfg)

	require.NoError(t, HandleHistory(context.Background(), mustParse(t, "history", "--remote", "--limit", "500"), env))

	assert.Equal(t, "100", gotLimit)
	text := plain(out.String())
	assert.Contains(t, text, "ana: first")
	assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
}

func TestHandleHistory_Archive(t *testing.T) {
	cfg := config.Default()
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive.db")

	archive, err := storage.Open(cfg.Archive.Path)
	require.NoError(t, err)
	require.NoError(t, archive.SaveAll(historyMessages()))
	require.NoError(t, archive.Close())

	env, out := testEnv(t, cfg)
	require.NoError(t, HandleHistory(context.Background(), mustParse(t, "history", "--limit", "1"), env))

	text := plain(out.String())
	assert.Contains(t, text, "ben: second")
	assert.NotContains(t, text, "first")
}

func TestHandleHistory_NoArchive(t *testing.T) {
	cfg := config.Default()
	cfg.Archive.Path = filepath.Join(t.TempDir(), "missing.db")
	env, _ := testEnv(t, cfg)

	err := HandleHistory(context.Background(), mustParse(t, "history"), env)
	assert.ErrorIs(t, err, ErrNoArchive)
}

func TestHandleHistory_Export(t *testing.T) {
	cfg := config.Default()
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive.db")
	archive, err := storage.Open(cfg.Archive.Path)
	require.NoError(t, err)
	require.NoError(t, archive.SaveAll(historyMessages()))
	require.NoError(t, archive.Close())

	target := filepath.Join(t.TempDir(), "chat.md")
	env, out := testEnv(t, cfg)
	require.NoError(t, HandleHistory(context.Background(), mustParse(t, "history", "--export", "md", "--out", target), env))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source: archive")
	assert.Contains(t, string(data), "second")
	assert.Contains(t, plain(out.String()), "Exported 2 messages to "+target)
}

func TestHandleHistory_OutWithoutExport(t *testing.T) {
	env, _ := testEnv(t, nil)
	err := HandleHistory(context.Background(), mustParse(t, "history", "--out", "x.md"), env)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleHistory(context.Background(), mustParse(t, "history", "--open"), env)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func stubOpener(t *testing.T, fn func(string) error) {
	t.Helper()
	prev := export.Opener
	export.Opener = fn
	t.Cleanup(func() { export.Opener = prev })
}

func archivedConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive.db")
	archive, err := storage.Open(cfg.Archive.Path)
	require.NoError(t, err)
	require.NoError(t, archive.SaveAll(historyMessages()))
	require.NoError(t, archive.Close())
	return cfg
}

func TestHandleHistory_ExportOpen(t *testing.T) {
	var opened string
	stubOpener(t, func(path string) error {
		opened = path
		return nil
	})

	target := filepath.Join(t.TempDir(), "chat.html")
	env, _ := testEnv(t, archivedConfig(t))
	require.NoError(t, HandleHistory(context.Background(), mustParse(t, "history", "--export", "html", "--out", target, "--open"), env))
	assert.Equal(t, target, opened)
}

func TestHandleHistory_ExportOpenFailureWarns(t *testing.T) {
	stubOpener(t, func(string) error { return errors.New("no desktop") })

	target := filepath.Join(t.TempDir(), "chat.html")
	env, out := testEnv(t, archivedConfig(t))
	require.NoError(t, HandleHistory(context.Background(), mustParse(t, "history", "--export", "html", "--out", target, "--open"), env))

	text := plain(out.String())
	assert.Contains(t, text, "Exported 2 messages")
	assert.Contains(t, text, "[!] Could not open transcript: no desktop")
	assert.FileExists(t, target)
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func TestHandleConfig_InitGetSet(t *testing.T) {
	env, out := testEnv(t, nil)

	require.NoError(t, HandleConfig(mustParse(t, "config", "path"), env))
	assert.Equal(t, env.ConfigPath+"\n", out.String())

	require.NoError(t, HandleConfig(mustParse(t, "config", "init"), env))
	assert.FileExists(t, env.ConfigPath)
	assert.Error(t, HandleConfig(mustParse(t, "config", "init"), env))
	require.NoError(t, HandleConfig(mustParse(t, "config", "init", "--force"), env))

	require.NoError(t, HandleConfig(mustParse(t, "config", "set", "ui.show_roster", "false"), env))
	require.NoError(t, HandleConfig(mustParse(t, "config", "set", "server.room", "lobby"), env))

	saved := config.Default()
	require.NoError(t, config.LoadTOML(saved, env.ConfigPath))
	assert.False(t, saved.UI.ShowRoster)
	assert.Equal(t, "lobby", saved.Server.Room)

	out.Reset()
	require.NoError(t, HandleConfig(mustParse(t, "config", "get", "server.room"), env))
	assert.Equal(t, "general\n", out.String(), "get reads the effective config")
}

func TestHandleConfig_Errors(t *testing.T) {
	env, _ := testEnv(t, nil)

	err := HandleConfig(mustParse(t, "config", "set", "server.nope", "x"), env)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleConfig(mustParse(t, "config", "set", "server.room"), env)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleConfig(mustParse(t, "config", "set", "server.socket_url", "http://bad"), env)
	assert.Equal(t, ExitConfigError, ExitCode(err))
	assert.NoFileExists(t, env.ConfigPath)

	err = HandleConfig(mustParse(t, "config", "frobnicate"), env)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestHandleConfig_Show(t *testing.T) {
	env, out := testEnv(t, nil)

	require.NoError(t, HandleConfig(mustParse(t, "config"), env))
	assert.Contains(t, out.String(), `socket_url = "ws://localhost:8000/ws"`)

	out.Reset()
	require.NoError(t, HandleConfig(mustParse(t, "config", "show", "--json"), env))
	assert.Contains(t, out.String(), `"socket_url": "ws://localhost:8000/ws"`)
}

// =============================================================================
// PLAIN CHAT
// =============================================================================

type fakeSender struct {
	joins    []string
	messages []string
	rosters  int
	err      error
}

func (f *fakeSender) SendJoin(name string) error {
	if f.err != nil {
		return f.err
	}
	f.joins = append(f.joins, name)
	return nil
}

func (f *fakeSender) SendMessage(content, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeSender) RequestRoster() error {
	if f.err != nil {
		return f.err
	}
	f.rosters++
	return nil
}

// blockingReader never yields a line until closed.
type blockingReader struct {
	release chan struct{}
}

func newBlockingReader() *blockingReader {
	return &blockingReader{release: make(chan struct{})}
}

func (r *blockingReader) ReadLine(string) (string, error) {
	<-r.release
	return "", io.EOF
}

func (r *blockingReader) Close() error {
	close(r.release)
	return nil
}

func newPlainChat(t *testing.T, opts PlainChatOptions) (*PlainChat, *fakeSender, *bytes.Buffer) {
	t.Helper()
	sender := &fakeSender{}
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	var out bytes.Buffer
	opts.Now = func() time.Time { return fixedNow }
	return NewPlainChat(sess, nil, NewScannerReader(strings.NewReader("")), &out, opts), sender, &out
}

var ana = model.User{ID: "u1", Name: "ana"}

func TestPlainChat_AutoJoinOnConnect(t *testing.T) {
	c, sender, out := newPlainChat(t, PlainChatOptions{AutoJoin: "ana"})

	c.handleEvent(protocol.Connect{})
	assert.Equal(t, []string{"ana"}, sender.joins)
	assert.Contains(t, plain(out.String()), "[OK] Connected to server")
	assert.Equal(t, namePrompt, c.prompt())

	c.handleEvent(protocol.JoinConfirmed{User: ana})
	assert.Equal(t, messagePrompt, c.prompt())
	assert.Contains(t, plain(out.String()), "Welcome to the chat, ana!")

	// A reconnect does not re-join.
	c.handleEvent(protocol.Connect{})
	assert.Len(t, sender.joins, 1)
}

func TestPlainChat_FirstLineIsName(t *testing.T) {
	c, sender, out := newPlainChat(t, PlainChatOptions{})

	assert.False(t, c.handleLine("x"))
	assert.Empty(t, sender.joins)
	assert.Contains(t, plain(out.String()), "[!] name must be at least 2 characters")

	c.handleLine("  ana  ")
	assert.Equal(t, []string{"ana"}, sender.joins)
	assert.Empty(t, sender.messages)
}

func TestPlainChat_SendAndReceive(t *testing.T) {
	c, sender, out := newPlainChat(t, PlainChatOptions{MaxMessageLength: 10})
	c.handleEvent(protocol.JoinConfirmed{User: ana})

	c.handleLine("hello")
	assert.Equal(t, []string{"hello"}, sender.messages)

	c.handleLine("this is far too long")
	assert.Len(t, sender.messages, 1)
	assert.Contains(t, plain(out.String()), "message cannot be longer than 10 characters")

	out.Reset()
	c.handleEvent(protocol.MessageReceived{Message: model.Message{ID: "m1", UserID: "u1", UserName: "ana", Content: "hello"}})
	c.handleEvent(protocol.MessageReceived{Message: model.Message{ID: "m2", UserID: "u2", UserName: "ben", Content: "hey"}})
	text := plain(out.String())
	assert.Contains(t, text, "You: hello")
	assert.Contains(t, text, "ben: hey")
	assert.NotContains(t, text, "[i]", "message lines replace preview notices")
}

func TestPlainChat_HistoryAndRoster(t *testing.T) {
	c, sender, out := newPlainChat(t, PlainChatOptions{})
	c.handleEvent(protocol.JoinConfirmed{User: ana})

	c.handleEvent(protocol.HistorySnapshot{Messages: historyMessages()})
	assert.Contains(t, plain(out.String()), "-- 2 earlier messages --")

	c.handleLine("/who")
	assert.Equal(t, 1, sender.rosters)

	out.Reset()
	c.handleEvent(protocol.RosterSnapshot{Users: []model.User{{ID: "u2", Name: "ben"}, ana}})
	text := plain(out.String())
	assert.Contains(t, text, "Online (2)")
	assert.Less(t, strings.Index(text, "ana (you)"), strings.Index(text, "ben"))
}

func TestPlainChat_NotConnected(t *testing.T) {
	c, sender, out := newPlainChat(t, PlainChatOptions{})
	sender.err = transport.ErrNotConnected

	c.handleLine("ana")
	assert.Contains(t, plain(out.String()), "[!] Not connected to server")
}

func TestPlainChat_Commands(t *testing.T) {
	c, _, out := newPlainChat(t, PlainChatOptions{})

	assert.False(t, c.handleLine("/help"))
	assert.Contains(t, out.String(), "/export [FORMAT]")

	assert.False(t, c.handleLine("/dance"))
	assert.Contains(t, plain(out.String()), "Unknown command /dance, type /help for the list")

	assert.True(t, c.handleLine("/quit"))
	assert.True(t, c.handleLine("/Q"))
}

func TestPlainChat_Export(t *testing.T) {
	dir := t.TempDir()
	c, _, out := newPlainChat(t, PlainChatOptions{ExportDir: dir})
	c.handleEvent(protocol.JoinConfirmed{User: ana})
	c.handleEvent(protocol.MessageReceived{Message: model.Message{ID: "m1", UserID: "u1", UserName: "ana", Content: "hello"}})

	c.handleLine("/export json")

	matches, err := filepath.Glob(filepath.Join(dir, "huddle_general_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, plain(out.String()), "Exported to "+matches[0])
}

func TestPlainChat_RunEndsWhenEventsClose(t *testing.T) {
	sender := &fakeSender{}
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	events := make(chan protocol.Event, 4)
	events <- protocol.Connect{}
	events <- protocol.MessageReceived{Message: model.Message{ID: "m1", UserID: "u2", UserName: "ben", Content: "hey"}}
	close(events)

	reader := newBlockingReader()
	defer reader.Close()

	var out bytes.Buffer
	c := NewPlainChat(sess, events, reader, &out, PlainChatOptions{AutoJoin: "ana"})
	require.NoError(t, c.Run(context.Background()))

	text := plain(out.String())
	assert.Contains(t, text, "ben: hey")
	assert.Contains(t, text, "Connection closed")
	assert.Equal(t, []string{"ana"}, sender.joins)
}

// loopbackSender answers like a server would, on the chat's own event channel.
type loopbackSender struct {
	events   chan protocol.Event
	sent     chan string
	echo     bool
	joins    []string
	messages []string
}

func newLoopbackSender(echo bool) *loopbackSender {
	return &loopbackSender{
		events: make(chan protocol.Event, 32),
		sent:   make(chan string, 32),
		echo:   echo,
	}
}

func (l *loopbackSender) SendJoin(name string) error {
	l.joins = append(l.joins, name)
	l.events <- protocol.JoinConfirmed{User: model.User{ID: "b1", Name: name}}
	return nil
}

func (l *loopbackSender) SendMessage(content, _ string) error {
	l.messages = append(l.messages, content)
	l.sent <- content
	if l.echo {
		l.events <- protocol.MessageReceived{Message: model.Message{
			ID: "m" + content, UserID: "b1", UserName: l.joins[0], Content: content,
		}}
	}
	return nil
}

func (l *loopbackSender) RequestRoster() error {
	l.events <- protocol.RosterSnapshot{}
	return nil
}

// syncBuffer is a bytes.Buffer safe to read while Run writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// promptRecorder serves fixed lines and remembers the prompt of each read.
type promptRecorder struct {
	lines   []string
	prompts []string
}

func (r *promptRecorder) ReadLine(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *promptRecorder) Close() error { return nil }

func TestPlainChat_RunReadsPipedInput(t *testing.T) {
	sender := newLoopbackSender(true)
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	sender.events <- protocol.Connect{}

	var out bytes.Buffer
	reader := NewScannerReader(strings.NewReader("ana\n\n/quit\nnever sent\n"))
	c := NewPlainChat(sess, sender.events, reader, &out, PlainChatOptions{})

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"ana"}, sender.joins)
	assert.Empty(t, sender.messages)
}

func TestPlainChat_RunHoldsInputUntilJoined(t *testing.T) {
	sender := newLoopbackSender(true)
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	reader := &promptRecorder{lines: []string{"hi", "/users"}}

	var out syncBuffer
	c := NewPlainChat(sess, sender.events, reader, &out, PlainChatOptions{AutoJoin: "bot"})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	// Nothing is read while the socket is still connecting.
	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("run ended before connecting: %v", err)
	default:
	}

	sender.events <- protocol.Connect{}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}

	assert.Equal(t, []string{"bot"}, sender.joins)
	assert.Equal(t, []string{"hi"}, sender.messages)
	assert.Equal(t, []string{messagePrompt, messagePrompt, messagePrompt}, reader.prompts,
		"every line is read after the join is confirmed")
	assert.Contains(t, plain(out.String()), "You: hi")
}

func TestPlainChat_RunDrainsUnconfirmedSends(t *testing.T) {
	sender := newLoopbackSender(false)
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	sender.events <- protocol.Connect{}
	reader := &promptRecorder{lines: []string{"one", "two"}}

	var out bytes.Buffer
	c := NewPlainChat(sess, sender.events, reader, &out, PlainChatOptions{
		AutoJoin:     "bot",
		DrainTimeout: 50 * time.Millisecond,
	})

	start := time.Now()
	require.NoError(t, c.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, []string{"one", "two"}, sender.messages)
	assert.Contains(t, plain(out.String()), "[!] 2 message(s) not confirmed by the server")
}

func TestPlainChat_RunEndsOnceEchoArrivesAfterInput(t *testing.T) {
	sender := newLoopbackSender(false)
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	sender.events <- protocol.Connect{}
	reader := &promptRecorder{lines: []string{"late"}}

	var out syncBuffer
	c := NewPlainChat(sess, sender.events, reader, &out, PlainChatOptions{
		AutoJoin:     "bot",
		DrainTimeout: 10 * time.Second,
	})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case content := <-sender.sent:
		assert.Equal(t, "late", content)
	case <-time.After(5 * time.Second):
		t.Fatal("nothing was sent")
	}
	time.Sleep(50 * time.Millisecond)
	sender.events <- protocol.MessageReceived{Message: model.Message{ID: "m1", UserID: "b1", UserName: "bot", Content: "late"}}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run kept draining after the echo")
	}
	assert.Contains(t, plain(out.String()), "You: late")
	assert.NotContains(t, plain(out.String()), "not confirmed")
}

func TestPlainChat_RunReadsWhileRetrying(t *testing.T) {
	sender := newLoopbackSender(true)
	sess := session.New(sender, session.Options{Logger: zerolog.Nop()})
	sender.events <- protocol.ConnectError{Reason: errors.New("connection refused")}
	reader := &promptRecorder{lines: []string{"/help", "/quit"}}

	var out bytes.Buffer
	c := NewPlainChat(sess, sender.events, reader, &out, PlainChatOptions{AutoJoin: "bot"})

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "/export [FORMAT]")
	assert.Empty(t, sender.joins)
}

func TestPlainChat_RunGivesUpWithTransport(t *testing.T) {
	sess := session.New(&fakeSender{}, session.Options{Logger: zerolog.Nop()})
	events := make(chan protocol.Event, 1)
	events <- protocol.ConnectError{Reason: errors.New("connection refused"), Final: true}
	reader := newBlockingReader()
	defer reader.Close()

	var out bytes.Buffer
	c := NewPlainChat(sess, events, reader, &out, PlainChatOptions{AutoJoin: "bot"})

	err := c.Run(context.Background())
	require.ErrorIs(t, err, transport.ErrGaveUp)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, ExitNetworkError, ExitCode(err))
	assert.Contains(t, plain(out.String()), "Giving up on the connection")
}

func TestPlainChat_RejectedJoinReleasesInput(t *testing.T) {
	c, sender, _ := newPlainChat(t, PlainChatOptions{})
	c.handleEvent(protocol.Connect{})
	c.handleLine("ana")
	assert.Equal(t, []string{"ana"}, sender.joins)
	assert.False(t, c.acceptingInput())

	c.handleEvent(protocol.ServerError{Message: "name taken"})
	assert.True(t, c.acceptingInput())
}

func TestPlainChat_DoubleSlashSendsLiteral(t *testing.T) {
	c, sender, _ := newPlainChat(t, PlainChatOptions{})
	c.handleEvent(protocol.JoinConfirmed{User: ana})

	assert.False(t, c.handleLine("//quit is not a command here"))
	assert.Equal(t, []string{"/quit is not a command here"}, sender.messages)
}

func TestPlainChat_RunStopsOnCancel(t *testing.T) {
	sess := session.New(&fakeSender{}, session.Options{Logger: zerolog.Nop()})
	reader := newBlockingReader()
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewPlainChat(sess, nil, reader, io.Discard, PlainChatOptions{})
	assert.NoError(t, c.Run(ctx))
}
