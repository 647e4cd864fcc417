// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrStoreClosed = errors.New("history store closed")
	ErrInvalidPath = errors.New("invalid history path")
)

// schema is the journal layout. Rows are only ever inserted (or all
// removed by Clear); id order is submission order.
const schema = `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    command TEXT NOT NULL,
    created_at INTEGER NOT NULL -- Unix nanoseconds
);
`

// filePerm is the mode of the database and its side files. Commands may
// carry secrets.
const filePerm = 0o600

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite journal of submitted commands. It lets history survive
// across console sessions; the in-memory Buffer stays the source of truth
// while the console is running.
type Store struct {
	db         *sql.DB
	maxEntries int

	mu     sync.Mutex
	closed bool
}

// Open opens (creating if needed) the history database at path.
// maxEntries caps the journal size; 0 keeps everything.
func Open(path string, maxEntries int) (*Store, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	// Create the file ourselves so it never exists with the driver's
	// default mode. SQLite gives the -wal and -shm files the same mode.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create history database: %w", err)
	}
	f.Close()
	if err := restrictPermissions(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := restrictPermissions(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			db.Close()
			return nil, err
		}
	}

	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Append journals one submitted command.
func (s *Store) Append(ctx context.Context, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO history (command, created_at) VALUES (?, ?)",
		command, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	if s.maxEntries > 0 {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)",
			s.maxEntries); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit of the newest commands, oldest first.
// limit <= 0 returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	query := "SELECT command FROM (SELECT id, command FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC"
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, cmd)
	}
	return out, rows.Err()
}

// Clear deletes every journaled command.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close releases the database. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// restrictPermissions tightens path to filePerm if it is looser.
func restrictPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != filePerm {
		if err := os.Chmod(path, filePerm); err != nil {
			return fmt.Errorf("failed to restrict history file permissions (was %o): %w", mode, err)
		}
	}
	return nil
}
