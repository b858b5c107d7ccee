// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNew_WriterWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger, c, err := New(Config{Level: "debug", Writer: &buf, ServiceName: "huddle"})
	require.NoError(t, err)
	assert.Nil(t, c)

	logger.Debug().Str(FieldClientID, "abc").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "huddle", line[FieldService])
	assert.Equal(t, "abc", line[FieldClientID])
	assert.Equal(t, "hello", line["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Config{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "huddle.log")
	logger, c, err := New(Config{Path: path})
	require.NoError(t, err)
	require.NotNil(t, c)

	logger.Info().Msg("to file")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestInit_BridgesStdlib(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huddle.log")
	require.NoError(t, Init(Config{Path: path, ServiceName: "huddle"}))

	stdlog.Printf("from stdlib %d", 42)
	l := L()
	l.Info().Msg("from global")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"source":"stdlog"`)
	assert.Contains(t, lines[0], "from stdlib 42")
	assert.Contains(t, lines[1], "from global")
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)

	l := Ctx(ctx)
	l.Info().Msg("ctx")
	assert.Contains(t, buf.String(), "ctx")

	// No logger stored: falls back to the global one without panicking.
	fallback := Ctx(context.Background())
	fallback.Info().Msg("ignored")
}
