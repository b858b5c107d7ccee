// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - The "huddle history" command.
//
// Command: history
// Short:   Show recent messages from the local archive or the server
// Aliases: log
//
// Examples:
//   huddle history                          Last 50 archived messages
//   huddle history --limit 10 --remote      Last 10 from the server
//   huddle history --export md --out chat.md
//
// Flags:
//   --room ROOM       Room to read (default: server.room)
//   --limit N         Number of messages, clamped to 1-100
//   --remote          Read GET /messages/room/{room} instead of the archive
//   --export FORMAT   Write an html, json or md transcript
//   --out PATH        Transcript path
//   --open            Open the transcript after writing it

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/huddle/internal/api"
	"github.com/jeranaias/huddle/internal/config"
	"github.com/jeranaias/huddle/internal/export"
	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/storage"
)

// ErrNoArchive is returned when history is read locally but nothing was ever
// archived.
var ErrNoArchive = errors.New("no local archive (set archive.enabled = true or use --remote)")

// historyOptions is the parsed form of the history flags.
type historyOptions struct {
	room   string
	limit  int
	remote bool
	format string
	out    string
	open   bool
}

func parseHistoryOptions(args *Args, cfg *config.Config) (historyOptions, error) {
	limit, err := args.Rest.FlagIntOrDefault("limit", api.DefaultLimit)
	if err != nil {
		return historyOptions{}, usageErrorf("huddle history --limit 20", "%v", err)
	}

	opts := historyOptions{
		room:   cfg.Server.Room,
		limit:  api.ClampLimit(limit),
		remote: args.Rest.BoolFlag("remote"),
		format: args.Rest.Flag("export"),
		out:    args.Rest.Flag("out"),
		open:   args.Rest.BoolFlag("open"),
	}
	if opts.out != "" && opts.format == "" {
		return historyOptions{}, usageErrorf("huddle history --export md --out chat.md", "--out requires --export")
	}
	if opts.open && opts.format == "" {
		return historyOptions{}, usageErrorf("huddle history --export html --open", "--open requires --export")
	}
	return opts, nil
}

// HandleHistory prints or exports recent messages.
func HandleHistory(ctx context.Context, args *Args, env *Env) error {
	opts, err := parseHistoryOptions(args, env.Config)
	if err != nil {
		return err
	}

	var (
		msgs   []model.Message
		source string
	)
	if opts.remote {
		msgs, err = remoteHistory(ctx, env, opts)
		source = export.SourceServer
	} else {
		msgs, err = archiveHistory(ctx, env, opts)
		source = export.SourceArchive
	}
	if err != nil {
		return err
	}

	if opts.format != "" {
		return exportHistory(env, opts, source, msgs)
	}

	if len(msgs) == 0 {
		fmt.Fprintln(env.Stdout, DimStyle.Render("No messages yet."))
		return nil
	}
	now := env.now()
	for _, msg := range msgs {
		fmt.Fprintln(env.Stdout, FormatMessageLine(msg, "", now))
	}
	return nil
}

func remoteHistory(ctx context.Context, env *Env, opts historyOptions) ([]model.Message, error) {
	client, err := newAPIClient(env)
	if err != nil {
		return nil, NewCommandError("history", "connect", "bad API URL", err)
	}
	msgs, err := client.RoomMessages(ctx, opts.room, opts.limit)
	if err != nil {
		return nil, NewCommandError("history", "fetch", "server request failed", err)
	}
	return msgs, nil
}

func archiveHistory(ctx context.Context, env *Env, opts historyOptions) ([]model.Message, error) {
	path := config.ExpandPath(env.Config.Archive.Path)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoArchive
		}
		return nil, NewCommandError("history", "open archive", path, err)
	}

	archive, err := storage.Open(path)
	if err != nil {
		return nil, NewCommandError("history", "open archive", path, err)
	}
	defer archive.Close()

	msgs, err := archive.Recent(ctx, opts.room, opts.limit)
	if err != nil {
		return nil, NewCommandError("history", "read archive", path, err)
	}
	return msgs, nil
}

func exportHistory(env *Env, opts historyOptions, source string, msgs []model.Message) error {
	exportOpts := export.DefaultOptions()
	exportOpts.OutputPath = opts.out

	exporter, err := export.ForFormat(opts.format, exportOpts)
	if err != nil {
		return usageErrorf("huddle history --export html", "%v", err)
	}

	t := export.NewTranscript(opts.room, source, msgs)
	path, err := export.ExportToFile(t, exporter, exportOpts)
	if err != nil {
		return NewCommandError("history", "export", opts.format, err)
	}

	fmt.Fprintf(env.Stdout, "%s Exported %d messages to %s\n", RenderStatus(true), len(msgs), path)

	if opts.open {
		// The transcript is written; a failed launch is only a warning.
		if err := export.Opener(path); err != nil {
			fmt.Fprintln(env.Stdout, RenderNotice(session.Notice{
				Kind: session.NoticeWarning,
				Text: "Could not open transcript: " + err.Error(),
			}))
		}
	}
	return nil
}
