// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Source values describe where a transcript's messages came from.
const (
	SourceLive    = "live"
	SourceArchive = "archive"
	SourceServer  = "server"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// Transcript is a room's message log prepared for export.
type Transcript struct {
	Room   string `json:"room"`
	Source string `json:"source"`
	// ViewerID marks the exporting user's own messages. May be empty.
	ViewerID   string          `json:"viewer_id,omitempty"`
	ViewerName string          `json:"viewer_name,omitempty"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []model.Message `json:"messages"`
}

// NewTranscript builds a transcript stamped with the current time.
func NewTranscript(room, source string, msgs []model.Message) *Transcript {
	if room == "" {
		room = model.DefaultRoom
	}
	return &Transcript{
		Room:       room,
		Source:     source,
		ExportedAt: time.Now(),
		Messages:   append([]model.Message(nil), msgs...),
	}
}

// Title returns the display title.
func (t *Transcript) Title() string {
	return "#" + t.Room
}

func (t *Transcript) validate() error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Formats lists the accepted format names.
var Formats = []string{"html", "json", "md"}

// ForFormat returns the exporter for a format name. "markdown" is accepted
// as an alias of "md".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "html", "":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	}
	return nil, fmt.Errorf("unknown export format %q (use %s)", format, strings.Join(Formats, ", "))
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where generated file names are placed. Default: "."
	OutputDir string

	// OutputPath, if set, is the exact file to write and overrides OutputDir.
	OutputPath string

	// IncludeMetadata includes the metadata header.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark"). Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a transcript with exporter and returns the written
// path.
// RELIABILITY: Atomic write with fsync prevents partial files
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		dir := opts.OutputDir
		if dir == "" {
			dir = "."
		}
		filename := fmt.Sprintf("huddle_%s_%s%s",
			sanitizeFilename(t.Room),
			t.ExportedAt.Format("20060102_150405"),
			exporter.FileExtension(),
		)
		outputPath = filepath.Join(dir, filename)
	}

	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "chat"
	}
	return string(result)
}

// Opener launches a written transcript. It is a variable so callers can
// be tested without a desktop.
var Opener = OpenFile

// OpenFile opens path in the default application for the OS. It returns
// once the launcher has started.
func OpenFile(path string) error {
	cmd, err := openCommand(runtime.GOOS, path)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// The launcher exits on its own; reap it so it never lingers.
	go cmd.Wait()
	return nil
}

// openCommand builds the launcher command for goos.
func openCommand(goos, path string) (*exec.Cmd, error) {
	switch goos {
	case "windows":
		return exec.Command("cmd", "/c", "start", `""`, path), nil
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	}
	return nil, fmt.Errorf("opening files is not supported on %s", goos)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format("15:04:05")
}

// senderLabel names the author of a message, with system messages labelled
// as such.
func senderLabel(msg model.Message) string {
	if msg.IsSystem() {
		return "System"
	}
	if msg.UserName == "" {
		return "Unknown"
	}
	return msg.UserName
}
