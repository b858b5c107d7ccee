// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - The "huddle status" command.
//
// Command: status
// Short:   Show server health and who is online
// Aliases: s
//
// Examples:
//   huddle status
//   huddle status --api http://chat.example.com/api

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/huddle/internal/api"
	"github.com/jeranaias/huddle/internal/session"
	"github.com/jeranaias/huddle/internal/util"
)

// statusTimeout bounds the whole status command.
const statusTimeout = 15 * time.Second

// newAPIClient builds the REST client for the configured server.
func newAPIClient(env *Env) (*api.Client, error) {
	cfg := api.DefaultConfig()
	cfg.BaseURL = env.Config.Server.APIURL
	return api.NewClientWithConfig(cfg)
}

// HandleStatus prints server health and the online roster.
func HandleStatus(ctx context.Context, env *Env) error {
	client, err := newAPIClient(env)
	if err != nil {
		return NewCommandError("status", "connect", "bad API URL", err)
	}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out := env.Stdout
	fmt.Fprintln(out, TitleStyle.Render("huddle status"))
	fmt.Fprintf(out, "%s%s\n", RenderLabel("Socket"), ValueStyle.Render(env.Config.Server.SocketURL))
	fmt.Fprintf(out, "%s%s\n", RenderLabel("API"), ValueStyle.Render(client.BaseURL()))
	fmt.Fprintf(out, "%s%s\n", RenderLabel("Room"), ValueStyle.Render(env.Config.Server.Room))

	health, err := client.Health(ctx)
	if err != nil {
		fmt.Fprintf(out, "%s%s %s\n", RenderLabel("Server"), RenderStatus(false), "unreachable")
		return NewCommandError("status", "check health", "server did not answer", err)
	}

	state := health.Status
	if health.Service != "" {
		state = health.Service + " " + state
	}
	if health.Version != "" {
		state += " (v" + health.Version + ")"
	}
	fmt.Fprintf(out, "%s%s %s\n", RenderLabel("Server"), RenderStatus(health.Healthy()), state)

	users, err := client.ListUsers(ctx)
	if err != nil {
		return NewCommandError("status", "list users", "could not read the roster", err)
	}
	session.SortRoster(users, "")

	fmt.Fprintln(out, SectionStyle.Render(fmt.Sprintf("Online (%d)", len(users))))
	if len(users) == 0 {
		fmt.Fprintln(out, DimStyle.Render("  No one here yet"))
		return nil
	}

	now := env.now()
	for _, u := range users {
		line := "  " + u.Name
		if !u.JoinedAt.IsZero() {
			line += " " + DimStyle.Render("joined "+relativeOrNow(u.JoinedAt.Time, now))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func relativeOrNow(t, now time.Time) string {
	rel := util.RelativeTime(t, now)
	if rel == "now" {
		return "just now"
	}
	return rel
}
