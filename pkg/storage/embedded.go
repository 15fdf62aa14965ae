// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by every operation on a closed backend.
var ErrClosed = errors.New("index backend is closed")

// EmbeddedBackend implements Backend on a local SQLite file that emulates
// the SystemIndex catalog. It also serves as the index.Dialer, the
// propstore.Opener and the propstore.Catalog of that catalog.
type EmbeddedBackend struct {
	db     *sql.DB
	config EmbeddedConfig
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	// Property definitions by lower-cased canonical name, loaded by
	// EnsureSchema.
	props map[string]propertyDef
}

// EmbeddedConfig configures the embedded backend.
type EmbeddedConfig struct {
	// Path is the SQLite file holding the index.
	// Defaults to ~/.scopeq/index.db
	Path string

	// Hosts lists the UNC host names this index answers for, so that
	// "host.SystemIndex" resolves locally. Empty accepts any host.
	Hosts []string

	// Logger is optional; nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultPath returns the default index location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".scopeq", "index.db"), nil
}

// NewEmbeddedBackend opens (creating if needed) the index file and ensures
// its schema.
func NewEmbeddedBackend(config EmbeddedConfig) (*EmbeddedBackend, error) {
	if config.Path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		config.Path = p
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := registerFunctions(); err != nil {
		return nil, err
	}

	dsn := config.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	b := &EmbeddedBackend{db: db, config: config, logger: config.Logger}
	if err := b.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	b.logger.Debug("storage.index.open", "path", config.Path, "properties", len(b.props))
	return b, nil
}

// Query executes a read-only statement.
func (b *EmbeddedBackend) Query(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	result := &QueryResult{Headers: headers}
	for rows.Next() {
		row := make([]any, len(headers))
		ptrs := make([]any, len(headers))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return result, nil
}

// Execute runs a mutation.
func (b *EmbeddedBackend) Execute(ctx context.Context, stmt string, args ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	if _, err := b.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// DB returns the underlying database for advanced operations.
// Use with caution - prefer the Backend interface methods.
func (b *EmbeddedBackend) DB() *sql.DB {
	return b.db
}

// Path returns the index file location.
func (b *EmbeddedBackend) Path() string { return b.config.Path }

// EnsureSchema creates the index tables if they don't exist, registers the
// built-in properties and adds an item column for every property that lacks
// one. It is idempotent.
func (b *EmbeddedBackend) EnsureSchema(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tables := []string{
		`CREATE TABLE IF NOT EXISTS properties (
			canonical_name TEXT PRIMARY KEY COLLATE NOCASE,
			fmtid          TEXT NOT NULL COLLATE NOCASE,
			pid            INTEGER NOT NULL,
			display_name   TEXT NOT NULL DEFAULT '',
			vt             INTEGER NOT NULL,
			UNIQUE (fmtid, pid)
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			"` + ColumnPath + `" TEXT PRIMARY KEY COLLATE NOCASE,
			` + searchTextColumn + ` TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS file_properties (
			path  TEXT NOT NULL COLLATE NOCASE,
			fmtid TEXT NOT NULL COLLATE NOCASE,
			pid   INTEGER NOT NULL,
			vt    INTEGER NOT NULL,
			value,
			PRIMARY KEY (path, fmtid, pid)
		)`,
	}
	for _, table := range tables {
		if _, err := b.db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	for _, p := range builtinProperties {
		_, err := b.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO properties (canonical_name, fmtid, pid, display_name, vt) VALUES (?, ?, ?, ?, ?)`,
			p.Name, p.Key.FormatID.String(), p.Key.PID, p.Display, int(p.Type))
		if err != nil {
			return fmt.Errorf("register property %s: %w", p.Name, err)
		}
	}

	props, err := b.loadProperties(ctx)
	if err != nil {
		return err
	}
	existing, err := b.itemColumns(ctx)
	if err != nil {
		return err
	}
	for key, p := range props {
		if existing[key] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE items ADD COLUMN %s %s`, quoteIdent(p.Name), columnAffinity(p.Type))
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", p.Name, err)
		}
	}
	b.props = props
	return nil
}

func (b *EmbeddedBackend) itemColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('items')`)
	if err != nil {
		return nil, fmt.Errorf("inspect items: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect items: %w", err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}

// quoteIdent quotes an SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
