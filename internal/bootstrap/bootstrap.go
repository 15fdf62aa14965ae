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

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/kraklabs/scopeq/pkg/storage"
)

// ErrIndexNotFound is returned when a read-only open finds no index file.
// It wraps fs.ErrNotExist.
var ErrIndexNotFound = fmt.Errorf("index not found: %w", fs.ErrNotExist)

// IndexConfig holds the settings for opening an index.
type IndexConfig struct {
	// Path is the SQLite file. Defaults to ~/.scopeq/index.db.
	Path string

	// Hosts lists the UNC host names the index answers for.
	Hosts []string

	// Create allows opening a path that does not exist yet.
	Create bool
}

// IndexInfo summarises an index.
type IndexInfo struct {
	Path       string `json:"path"`
	Items      int    `json:"items"`
	Properties int    `json:"properties"`
}

// ResolvePath returns path, or the default index location when it is empty.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return storage.DefaultPath()
}

// OpenIndex opens the index described by config.
func OpenIndex(config IndexConfig, logger *slog.Logger) (*storage.EmbeddedBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path, err := ResolvePath(config.Path)
	if err != nil {
		return nil, err
	}

	if !config.Create {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run 'scopeq index <dir>' first)", ErrIndexNotFound, path)
		}
	}

	logger.Debug("bootstrap.index.open", "path", path, "create", config.Create)

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		Path:   path,
		Hosts:  config.Hosts,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return backend, nil
}

// Stat counts the items and registered properties of an open index.
func Stat(ctx context.Context, backend storage.Backend) (*IndexInfo, error) {
	result, err := backend.Query(ctx,
		`SELECT (SELECT COUNT(*) FROM items) AS items, (SELECT COUNT(*) FROM properties) AS properties`)
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}
	return &IndexInfo{
		Path:       backend.Path(),
		Items:      countColumn(result, "items"),
		Properties: countColumn(result, "properties"),
	}, nil
}

// countColumn reads an integer from the single row of result.
func countColumn(result *storage.QueryResult, name string) int {
	i := result.Column(name)
	if i < 0 || len(result.Rows) != 1 {
		return 0
	}
	n, _ := result.Rows[0][i].(int64)
	return int(n)
}
