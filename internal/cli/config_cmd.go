// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "huddle config" command.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init [--force]      Write a default configuration file
//   get <key>           Print one value
//   set <key> <value>   Change one value and save
//
// Examples:
//   huddle config show --json
//   huddle config get server.room
//   huddle config set server.socket_url wss://chat.example.com/ws
//   huddle config set ui.show_roster false

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/huddle/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args *Args, env *Env) error {
	sub := strings.ToLower(args.Rest.Subcommand())
	switch sub {
	case "", "show":
		return configShow(env, args.Rest.BoolFlag("json"))
	case "path":
		fmt.Fprintln(env.Stdout, env.ConfigPath)
		return nil
	case "init":
		return configInit(env, args.Rest.BoolFlag("force"))
	case "get":
		key := args.Rest.Positional(1)
		if key == "" {
			return usageErrorf("huddle config get server.room", "missing key")
		}
		return configGet(env, key)
	case "set":
		key, value := args.Rest.Positional(1), args.Rest.Positional(2)
		if key == "" || args.Rest.PositionalCount() < 3 {
			return usageErrorf("huddle config set server.room lobby", "set needs a key and a value")
		}
		return configSet(env, key, value)
	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Fprintln(env.Stdout, key)
		}
		return nil
	}
	return usageErrorf("huddle config [show|path|init|get|set]", "unknown config subcommand %q", sub)
}

func configShow(env *Env, asJSON bool) error {
	if asJSON {
		fmt.Fprintln(env.Stdout, env.Config.String())
		return nil
	}

	fmt.Fprintln(env.Stdout, DimStyle.Render("# "+env.ConfigPath))
	if err := toml.NewEncoder(env.Stdout).Encode(env.Config); err != nil {
		return NewCommandError("config", "show", "encode failed", err)
	}
	return nil
}

func configInit(env *Env, force bool) error {
	path := env.ConfigPath
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewCommandError("config", "init", "could not create config directory", err)
	}
	if err := save(config.Default(), path); err != nil {
		return NewCommandError("config", "init", path, err)
	}
	fmt.Fprintf(env.Stdout, "%s Wrote %s\n", RenderStatus(true), path)
	return nil
}

func configGet(env *Env, key string) error {
	value, err := env.Config.Get(key)
	if err != nil {
		return usageErrorf("huddle config keys", "%v", err)
	}
	fmt.Fprintln(env.Stdout, value)
	return nil
}

// configSet edits the file on disk, not the effective config, so env and
// flag overrides are never persisted.
func configSet(env *Env, key, value string) error {
	path := env.ConfigPath

	cfg, err := loadFile(path)
	if err != nil {
		return NewCommandError("config", "set", "could not read "+path, err)
	}
	if err := cfg.Set(key, value); err != nil {
		return usageErrorf("huddle config keys", "%v", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewCommandError("config", "set", "could not create config directory", err)
	}
	if err := save(cfg, path); err != nil {
		return NewCommandError("config", "set", path, err)
	}

	fmt.Fprintf(env.Stdout, "%s %s = %s\n", RenderStatus(true), key, value)
	return nil
}

// loadFile reads path over the defaults without env overrides. A missing
// file yields the defaults.
func loadFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		return cfg, config.LoadJSON(cfg, path)
	}
	return cfg, config.LoadTOML(cfg, path)
}

func save(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
