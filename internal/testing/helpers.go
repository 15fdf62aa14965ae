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

package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kraklabs/scopeq/pkg/storage"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// SetupTestIndex creates an empty index in t.TempDir() and closes it when
// the test finishes.
func SetupTestIndex(t *testing.T) *storage.EmbeddedBackend {
	t.Helper()

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		Path: filepath.Join(t.TempDir(), "index.db"),
	})
	if err != nil {
		t.Fatalf("failed to create test index: %v", err)
	}
	t.Cleanup(func() {
		_ = backend.Close()
	})
	return backend
}

// Text returns a wide-string value.
func Text(s string) variant.Value {
	return variant.String{T: variant.TagLPWStr, V: s}
}

// InsertTestItem upserts one item with the given properties.
func InsertTestItem(t *testing.T, backend *storage.EmbeddedBackend, path string, props map[string]variant.Value) {
	t.Helper()
	if err := backend.UpsertItem(context.Background(), storage.Item{Path: path, Properties: props}); err != nil {
		t.Fatalf("failed to insert item %s: %v", path, err)
	}
}

// InsertTestDocument upserts a text document with contents, keywords and a
// fixed modification time.
func InsertTestDocument(t *testing.T, backend *storage.EmbeddedBackend, path, contents string, keywords ...string) {
	t.Helper()
	props := map[string]variant.Value{
		"System.Search.Contents": Text(contents),
		"System.Size":            variant.Uint{T: variant.TagUI8, V: uint64(len(contents))},
		"System.DateModified":    variant.FileTime{V: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	if len(keywords) > 0 {
		props["System.Keywords"] = variant.Strings{V: keywords}
	}
	InsertTestItem(t, backend, path, props)
}

// WriteTestFile creates a file under dir, with parent directories, and
// returns its path.
func WriteTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// QueryItems returns the path and name of every indexed item, ordered by
// path.
func QueryItems(t *testing.T, backend *storage.EmbeddedBackend) *storage.QueryResult {
	t.Helper()
	result, err := backend.Query(context.Background(),
		`SELECT [System.ItemPathDisplay], [System.ItemName] FROM items ORDER BY [System.ItemPathDisplay]`)
	if err != nil {
		t.Fatalf("failed to query items: %v", err)
	}
	return result
}
