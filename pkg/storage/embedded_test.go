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
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/variant"
)

// setupTestStorage creates an EmbeddedBackend on a temp file.
// The backend is closed when the test ends.
func setupTestStorage(t *testing.T) *EmbeddedBackend {
	t.Helper()
	backend, err := NewEmbeddedBackend(EmbeddedConfig{
		Path: filepath.Join(t.TempDir(), "index.db"),
	})
	if err != nil {
		t.Fatalf("setupTestStorage failed: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func text(s string) variant.Value { return variant.String{T: variant.TagLPWStr, V: s} }

// seedItem upserts one item with the given properties.
func seedItem(t *testing.T, b *EmbeddedBackend, path string, props map[string]variant.Value) {
	t.Helper()
	require.NoError(t, b.UpsertItem(context.Background(), Item{Path: path, Properties: props}))
}

func TestNewEmbeddedBackend_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")
	backend, err := NewEmbeddedBackend(EmbeddedConfig{Path: path})
	if err != nil {
		t.Fatalf("NewEmbeddedBackend failed: %v", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if backend.db == nil {
		t.Fatal("expected non-nil db")
	}
	if backend.Path() != path {
		t.Errorf("Path() = %q, want %q", backend.Path(), path)
	}
	if len(backend.props) < len(builtinProperties) {
		t.Errorf("expected at least %d properties, got %d", len(builtinProperties), len(backend.props))
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".scopeq", "index.db"), p)
}

func TestEmbeddedBackend_Query_Success(t *testing.T) {
	backend := setupTestStorage(t)

	result, err := backend.Query(context.Background(), "SELECT 1 AS x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, result.Headers)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0][0])
}

func TestEmbeddedBackend_Query_ContextCanceled(t *testing.T) {
	backend := setupTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Query(ctx, "SELECT 1")
	if err == nil {
		t.Fatal("expected error with canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context canceled, got: %v", err)
	}
}

func TestEmbeddedBackend_Close_PreventsOperations(t *testing.T) {
	backend := setupTestStorage(t)
	require.NoError(t, backend.Close())
	require.NoError(t, backend.Close(), "second Close is a no-op")

	ctx := context.Background()
	_, err := backend.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, backend.Execute(ctx, "DELETE FROM items"), ErrClosed)
	assert.ErrorIs(t, backend.UpsertItem(ctx, Item{Path: "/x"}), ErrClosed)
	_, err = backend.Connect(ctx, "Provider=Search.CollatorDSO;")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEmbeddedBackend_EnsureSchema_Idempotent(t *testing.T) {
	backend := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, backend.EnsureSchema(ctx))
	require.NoError(t, backend.EnsureSchema(ctx))

	cols, err := backend.itemColumns(ctx)
	require.NoError(t, err)
	for _, p := range builtinProperties {
		assert.True(t, cols[strings.ToLower(p.Name)], "items column for %s", p.Name)
	}
	assert.True(t, cols[searchTextColumn])
}

func TestEmbeddedBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	first, err := NewEmbeddedBackend(EmbeddedConfig{Path: path})
	require.NoError(t, err)
	seedItem(t, first, "/docs/a.txt", map[string]variant.Value{"System.Title": text("Kept")})
	require.NoError(t, first.Close())

	second, err := NewEmbeddedBackend(EmbeddedConfig{Path: path})
	require.NoError(t, err)
	defer second.Close()

	res, err := second.Query(ctx, `SELECT [System.Title] FROM items`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Kept", res.Rows[0][0])
}

func TestUpsertItem_DerivesAndMerges(t *testing.T) {
	backend := setupTestStorage(t)
	ctx := context.Background()

	seedItem(t, backend, `C:\Docs\Report.PDF`, map[string]variant.Value{
		"System.Title":    text("Quarterly"),
		"System.Keywords": variant.Strings{V: []string{"finance", "q3"}},
	})
	seedItem(t, backend, `C:\Docs\Report.PDF`, map[string]variant.Value{
		"System.Size": variant.Uint{T: variant.TagUI8, V: 2048},
	})

	res, err := backend.Query(ctx, `SELECT [System.ItemName], [System.FileExtension], [System.ItemUrl],
		[System.Title], [System.Size], [System.Keywords], search_text FROM items`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, "Report.PDF", row[0])
	assert.Equal(t, ".pdf", row[1])
	assert.Equal(t, "file:C:/Docs/Report.PDF", row[2])
	assert.Equal(t, "Quarterly", row[3], "later upserts keep earlier columns")
	assert.Equal(t, int64(2048), row[4])
	assert.Equal(t, `["finance","q3"]`, row[5])
	assert.Contains(t, row[6], "Quarterly")
	assert.Contains(t, row[6], "finance q3")
}

func TestUpsertItem_UnknownProperty(t *testing.T) {
	backend := setupTestStorage(t)
	err := backend.UpsertItem(context.Background(), Item{
		Path:       "/docs/a.txt",
		Properties: map[string]variant.Value{"System.Nope": text("x")},
	})
	assert.ErrorContains(t, err, "unknown property System.Nope")
}

func TestDeleteItem(t *testing.T) {
	backend := setupTestStorage(t)
	ctx := context.Background()
	seedItem(t, backend, "/docs/a.txt", nil)

	found, err := backend.DeleteItem(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = backend.DeleteItem(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestEmbeddedBackend_ConcurrentReads tests that concurrent reads don't block each other.
func TestEmbeddedBackend_ConcurrentReads(t *testing.T) {
	backend := setupTestStorage(t)
	seedItem(t, backend, "/docs/a.txt", nil)

	ctx := context.Background()
	numReaders := 10

	var wg sync.WaitGroup
	wg.Add(numReaders)

	start := time.Now()

	for range numReaders {
		go func() {
			defer wg.Done()
			_, err := backend.Query(ctx, "SELECT count(*) FROM items")
			if err != nil {
				t.Errorf("concurrent Query failed: %v", err)
			}
		}()
	}

	wg.Wait()
	duration := time.Since(start)

	if duration > 5*time.Second {
		t.Errorf("concurrent reads took too long: %v", duration)
	}
}
