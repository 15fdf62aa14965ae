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
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/storage"
	"github.com/kraklabs/scopeq/pkg/variant"
)

func TestOpenIndex_MissingWithoutCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	_, err := OpenIndex(IndexConfig{Path: path}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.NoFileExists(t, path)
}

func TestOpenIndex_CreateThenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	backend, err := OpenIndex(IndexConfig{Path: path, Create: true}, nil)
	require.NoError(t, err)
	require.NoError(t, backend.UpsertItem(context.Background(), storage.Item{
		Path: `C:\Docs\a.txt`,
		Properties: map[string]variant.Value{
			"System.Search.Contents": variant.String{T: variant.TagLPWStr, V: "hello"},
		},
	}))
	require.NoError(t, backend.Close())

	backend, err = OpenIndex(IndexConfig{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	info, err := Stat(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, 1, info.Items)
	assert.Equal(t, len(backend.Properties()), info.Properties)
}

// fakeBackend answers every query with a canned result.
type fakeBackend struct {
	result *storage.QueryResult
	err    error
}

func (f *fakeBackend) Query(context.Context, string, ...any) (*storage.QueryResult, error) {
	return f.result, f.err
}
func (f *fakeBackend) Execute(context.Context, string, ...any) error { return nil }
func (f *fakeBackend) Path() string                                  { return "/srv/index.db" }
func (f *fakeBackend) Close() error                                  { return nil }

func TestStat_Backend(t *testing.T) {
	t.Run("counts by column name", func(t *testing.T) {
		info, err := Stat(context.Background(), &fakeBackend{result: &storage.QueryResult{
			Headers: []string{"properties", "items"},
			Rows:    [][]any{{int64(40), int64(7)}},
		}})
		require.NoError(t, err)
		assert.Equal(t, &IndexInfo{Path: "/srv/index.db", Items: 7, Properties: 40}, info)
	})

	t.Run("empty result", func(t *testing.T) {
		info, err := Stat(context.Background(), &fakeBackend{result: &storage.QueryResult{}})
		require.NoError(t, err)
		assert.Equal(t, &IndexInfo{Path: "/srv/index.db"}, info)
	})

	t.Run("query failure", func(t *testing.T) {
		_, err := Stat(context.Background(), &fakeBackend{err: storage.ErrClosed})
		assert.ErrorIs(t, err, storage.ErrClosed)
	})
}

func TestResolvePath(t *testing.T) {
	got, err := ResolvePath("/tmp/x.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", got)

	t.Setenv("HOME", "/home/tester")
	got, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".scopeq", "index.db"), got)
}
