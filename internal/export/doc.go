// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Key Types
//
//   - Transcript: A room's messages plus export metadata
//   - Exporter: Format interface (HTML, JSON, Markdown)
//   - Options: Output location and content switches
//
// # Supported Formats
//
//   - HTML: Self-contained page; message text escaped and URLs linkified
//   - JSON: Machine-readable transcript
//   - Markdown: Human-readable with YAML frontmatter
//
// # Usage
//
//	exporter, err := export.ForFormat("html", opts)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(transcript, exporter, opts)
package export
