// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and dispatch for huddle.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/huddle/internal/config"
)

// Version information, overridden at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdStatus
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"chat":    CmdChat,
	"status":  CmdStatus,
	"s":       CmdStatus,
	"history": CmdHistory,
	"log":     CmdHistory,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// boolFlagNames never consume the following argument.
var boolFlagNames = []string{"verbose", "v", "help", "h", "version", "remote", "force", "json", "open"}

// Args holds the parsed command line.
type Args struct {
	Command Command

	// Global flags
	URL        string
	APIURL     string
	Room       string
	ConfigPath string
	Verbose    bool

	// Rest holds everything after the command name: its subcommand,
	// positionals and command-specific flags.
	Rest *ArgParser
}

const usageText = `huddle - terminal client for real-time group chat

Usage:
  huddle                          Start the chat TUI (default)
  huddle chat [--name NAME]       Plain line-mode chat
  huddle status                   Server health and who is online
  huddle history [flags]          Show recent messages
  huddle config [subcommand]      Show or change configuration
  huddle version                  Show version information
  huddle help                     Show this help

History flags:
  --room ROOM       Room to read (default: configured room)
  --limit N         Number of messages, 1-100 (default: 50)
  --remote          Read from the server instead of the local archive
  --export FORMAT   Write a transcript instead (html, json, md)
  --out PATH        Transcript path (default: generated in the cwd)
  --open            Open the transcript once written

Config subcommands:
  show              Print the effective configuration
  path              Print the config file path
  init              Write a default config file
  get KEY           Print one value (e.g. server.room)
  set KEY VALUE     Change one value and save

Global flags:
  --url URL         WebSocket endpoint (server.socket_url)
  --api URL         REST endpoint (server.api_url)
  --room ROOM       Room for outgoing messages (server.room)
  --config PATH     Config file to load
  -v, --verbose     Log to stderr at debug level

Environment:
  HUDDLE_HOME, HUDDLE_SOCKET_URL, HUDDLE_API_URL, HUDDLE_ROOM,
  HUDDLE_LOG_LEVEL, HUDDLE_ARCHIVE, NO_COLOR
`

// Parse parses os.Args[1:]. Global flags may appear anywhere.
func Parse(argv []string) (*Args, error) {
	p := NewArgParser(argv, boolFlagNames...)

	args := &Args{
		URL:        p.Flag("url"),
		APIURL:     p.Flag("api"),
		Room:       p.Flag("room"),
		ConfigPath: p.Flag("config"),
		Verbose:    p.BoolFlag("verbose") || p.BoolFlag("v"),
	}

	name := strings.ToLower(p.Subcommand())
	switch {
	case p.BoolFlag("help") || p.BoolFlag("h"):
		args.Command = CmdHelp
	case p.BoolFlag("version"):
		args.Command = CmdVersion
	case name == "":
		args.Command = CmdTUI
	default:
		cmd, ok := commandNames[name]
		if !ok {
			return nil, usageErrorf("huddle help", "unknown command %q", p.Subcommand())
		}
		args.Command = cmd
	}

	args.Rest = NewArgParser(p.WithoutSubcommand(), boolFlagNames...)
	return args, nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// LoadConfig loads the configuration named by --config, or the default
// search path, and applies the global flag overrides on top. The returned
// path is the file the configuration came from (or would be written to).
func LoadConfig(args *Args, stderr io.Writer) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)

	if args.ConfigPath != "" {
		path = config.ExpandPath(args.ConfigPath)
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
	} else {
		path, err = config.ActivePath()
		if err != nil {
			return nil, "", err
		}
		cfg, err = config.Load()
		if cfg == nil {
			return nil, path, err
		}
		if err != nil {
			fmt.Fprintf(stderr, "%s %v (using defaults)\n", WarningStyle.Render("[!]"), err)
		}
	}

	if args.URL != "" {
		cfg.Server.SocketURL = args.URL
	}
	if args.APIURL != "" {
		cfg.Server.APIURL = args.APIURL
	}
	if args.Room != "" {
		cfg.Server.Room = args.Room
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid flags: %w", err)
	}

	return cfg, path, nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Env is what every command runs against.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     zerolog.Logger
	Now        func() time.Time
}

// NewEnv returns an Env bound to the process's standard streams.
func NewEnv(cfg *config.Config, path string, logger zerolog.Logger) *Env {
	return &Env{
		Config:     cfg,
		ConfigPath: path,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     logger,
		Now:        time.Now,
	}
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Run executes every command except CmdTUI, which main owns.
func Run(ctx context.Context, args *Args, env *Env) error {
	switch args.Command {
	case CmdChat:
		return HandleChat(ctx, args, env)
	case CmdStatus:
		return HandleStatus(ctx, env)
	case CmdHistory:
		return HandleHistory(ctx, args, env)
	case CmdConfig:
		return HandleConfig(args, env)
	case CmdVersion:
		return HandleVersion(env)
	case CmdHelp:
		fmt.Fprint(env.Stdout, usageText)
		return nil
	}
	return usageErrorf("huddle help", "command not available here")
}

// Usage returns the top-level help text.
func Usage() string {
	return usageText
}

// HandleVersion prints build information.
func HandleVersion(env *Env) error {
	fmt.Fprintf(env.Stdout, "huddle %s\n", Version)
	fmt.Fprintf(env.Stdout, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(env.Stdout, "  built:   %s\n", BuildDate)
	fmt.Fprintf(env.Stdout, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
