// huddle - a terminal client for real-time group chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/huddle/internal/cli"
	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/logging"
	"github.com/jeranaias/huddle/internal/transport"
	"github.com/jeranaias/huddle/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitCode(err)
	}

	// help and version need no configuration.
	if args.Command == cli.CmdHelp || args.Command == cli.CmdVersion {
		env := cli.NewEnv(nil, "", zerolog.Nop())
		if err := cli.Run(context.Background(), args, env); err != nil {
			cli.DisplayError(os.Stderr, err)
			return cli.ExitCode(err)
		}
		return cli.ExitSuccess
	}

	cfg, path, err := cli.LoadConfig(args, os.Stderr)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitCode(err)
	}

	if err := initLogging(cfg, args.Verbose); err != nil {
		// Not fatal: the client works without a log file.
		fmt.Fprintf(os.Stderr, "Warning: %v (logging disabled)\n", err)
	}
	defer logging.Close()
	logger := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args.Command == cli.CmdTUI {
		if cli.CanRunTUI() {
			if err := runTUI(ctx, cfg, path, logger); err != nil {
				cli.DisplayError(os.Stderr, err)
				return cli.ExitCode(err)
			}
			return cli.ExitSuccess
		}
		// USABILITY: piped or redirected sessions fall back to plain mode.
		args.Command = cli.CmdChat
	}

	env := cli.NewEnv(cfg, path, logger)
	if err := cli.Run(ctx, args, env); err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

// initLogging sends logs to the configured file, or to stderr at debug level
// when verbose is set.
func initLogging(cfg *config.Config, verbose bool) error {
	lc := logging.Config{
		Level:       cfg.Log.Level,
		Path:        config.ExpandPath(cfg.Log.Path),
		ServiceName: "huddle",
	}
	if verbose {
		lc.Level = "debug"
		lc.Path = ""
		lc.Writer = os.Stderr
		lc.Pretty = true
	}
	return logging.Init(lc)
}

// runTUI starts the Bubble Tea interface.
func runTUI(ctx context.Context, cfg *config.Config, configPath string, logger zerolog.Logger) error {
	archive, err := cli.OpenArchive(cfg, logger)
	if err != nil {
		return cli.NewCommandError("tui", "open archive", "archive unavailable", err)
	}
	if archive != nil {
		defer archive.Close()
	}

	conn := transport.New(transport.OptionsFromConfig(cfg.Server), logger)
	defer conn.Close()

	sess := cli.NewSession(cfg, conn, archive, logger)
	if err := conn.Open(ctx); err != nil {
		return cli.NewCommandError("tui", "connect", conn.URL(), err)
	}

	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = "."
	}

	m := chat.New(chat.Options{
		Session:   sess,
		Events:    conn.Events(),
		Conn:      conn,
		Config:    cfg,
		ExportDir: exportDir,
		Logger:    logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// CONFIG: ui settings follow the config file while the TUI runs.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if watcher, err := config.NewWatcher(configPath, config.DefaultWatchDebounce); err != nil {
		logger.Debug().Err(err).Str(logging.FieldPath, configPath).Msg("config watch unavailable")
	} else {
		go watcher.Run(watchCtx,
			func(c *config.Config) { p.Send(chat.ConfigReloadedMsg{Config: c}) },
			func(err error) { p.Send(chat.ConfigErrorMsg{Err: err}) },
		)
	}

	// Interrupts outside raw mode (e.g. SIGTERM) end the program cleanly.
	go func() {
		<-watchCtx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running huddle: %w", err)
	}
	return nil
}
