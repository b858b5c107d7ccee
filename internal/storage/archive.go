// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/huddle/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("archive closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	user_id      TEXT NOT NULL,
	user_name    TEXT NOT NULL,
	content      TEXT NOT NULL,
	message_type TEXT NOT NULL,
	ts           INTEGER NOT NULL,
	room_id      TEXT NOT NULL,
	received_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room_id, ts);
`

const insertSQL = `INSERT OR IGNORE INTO messages
	(id, user_id, user_name, content, message_type, ts, room_id, received_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive is a SQLite message store. Writes are idempotent per message id.
type Archive struct {
	db   *sql.DB
	path string
}

// Open opens or creates the archive at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Archive{db: db, path: path}, nil
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// Save stores one message. A message whose id is already stored is ignored.
// Messages without an id get a random one.
func (a *Archive) Save(msg model.Message) error {
	if a.db == nil {
		return ErrClosed
	}
	if _, err := a.db.Exec(insertSQL, row(msg)...); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// SaveAll stores messages in one transaction.
func (a *Archive) SaveAll(msgs []model.Message) error {
	if a.db == nil {
		return ErrClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		if _, err := stmt.Exec(row(msg)...); err != nil {
			return fmt.Errorf("failed to save message %s: %w", msg.ID, err)
		}
	}
	return tx.Commit()
}

func row(msg model.Message) []any {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	var ts int64
	if !msg.Timestamp.IsZero() {
		ts = msg.Timestamp.UnixNano()
	}
	room := msg.RoomID
	if room == "" {
		room = model.DefaultRoom
	}
	return []any{id, msg.UserID, msg.UserName, msg.Content, string(msg.Type), ts, room, time.Now().UnixNano()}
}

// Recent returns the latest limit messages of room (all rooms when room is
// empty), oldest first.
func (a *Archive) Recent(ctx context.Context, room string, limit int) ([]model.Message, error) {
	if a.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, user_name, content, message_type, ts, room_id
		FROM messages`
	args := []any{}
	if room != "" {
		query += ` WHERE room_id = ?`
		args = append(args, room)
	}
	query += ` ORDER BY ts DESC, seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var (
			msg   model.Message
			mtype string
			ts    int64
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.UserName, &msg.Content, &mtype, &ts, &msg.RoomID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Type = model.MessageType(mtype)
		if ts != 0 {
			msg.Timestamp = model.NewTimestamp(time.Unix(0, ts))
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of archived messages.
func (a *Archive) Count(ctx context.Context) (int, error) {
	if a.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// Close closes the database. Further calls return ErrClosed.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
