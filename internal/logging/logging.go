// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the zerolog logger used across huddle.
//
// The TUI owns stdout, so the default sink is a log file. Plain mode may log
// to stderr instead when --verbose is given.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level string
	// Path is the log file. Empty means Writer (or io.Discard).
	Path string
	// Writer is used when Path is empty.
	Writer io.Writer
	// Pretty renders human-readable console lines instead of JSON.
	Pretty      bool
	ServiceName string
}

var (
	globalMu sync.RWMutex
	global   = zerolog.Nop()
	closer   io.Closer
)

// New creates a configured zerolog.Logger. The returned closer releases the
// log file and is nil when no file was opened.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	var w io.Writer = io.Discard
	var c io.Closer

	switch {
	case cfg.Path != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, c = f, f
	case cfg.Writer != nil:
		w = cfg.Writer
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: cfg.Path != ""}
	}

	logger := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	if cfg.ServiceName != "" {
		logger = logger.With().Str(FieldService, cfg.ServiceName).Logger()
	}

	return logger, c, nil
}

// Init replaces the global logger and bridges the stdlib log package into it.
// Calling Init again closes the previous log file.
func Init(cfg Config) error {
	logger, c, err := New(cfg)
	if err != nil {
		return err
	}

	globalMu.Lock()
	prev := closer
	global, closer = logger, c
	globalMu.Unlock()

	if prev != nil {
		prev.Close()
	}

	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.With().Str("source", "stdlog").Logger())
	return nil
}

// Close releases the global log file, if any, and resets the global logger.
func Close() error {
	globalMu.Lock()
	c := closer
	global, closer = zerolog.Nop(), nil
	globalMu.Unlock()

	stdlog.SetOutput(os.Stderr)
	if c != nil {
		return c.Close()
	}
	return nil
}

// L returns the global logger. It discards everything until Init is called.
func L() zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
