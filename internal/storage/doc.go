// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the optional local message archive for huddle.
//
// When enabled, every message the session receives is written to a SQLite
// file. The archive is a side sink: the in-memory chat state never reads from
// it. The history command reads it back.
//
// # Key Types
//
//   - Archive: SQLite-backed message store keyed by message id
//
// # Usage
//
//	archive, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//
//	err = archive.Save(msg)
//	recent, err := archive.Recent(ctx, "general", 50)
package storage
