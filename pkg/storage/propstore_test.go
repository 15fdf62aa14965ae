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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/variant"
)

var (
	keyTitle = propstore.MustKey(fmtidSummary, 2)
	keySize  = propstore.MustKey(fmtidStorage, 12)
	keyName  = propstore.MustKey("{6B8DA074-3B5C-43BC-886F-0A2CDCE00B6F}", 100)
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenStore_FileSystem(t *testing.T) {
	backend := setupTestStorage(t)
	path := writeFile(t, "memo.txt", "hello")
	ctx := context.Background()

	store, err := propstore.Open(ctx, backend, path, propstore.ModeStrict, nil)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Positive(t, n)

	size, err := store.Get(keySize)
	require.NoError(t, err)
	assert.Equal(t, variant.Uint{T: variant.TagUI8, V: 5}, size)

	name, err := store.Get(keyName)
	require.NoError(t, err)
	assert.Equal(t, "memo.txt", name.String())

	title, err := store.Get(keyTitle)
	require.NoError(t, err)
	assert.Equal(t, variant.Empty{}, title, "missing properties come back empty")

	_, err = store.KeyAt(n)
	assert.ErrorIs(t, err, propstore.ErrOutOfRange)
}

func TestOpenStore_MissingFile(t *testing.T) {
	backend := setupTestStorage(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gone.txt")
	seedItem(t, backend, path, map[string]variant.Value{"System.Title": text("Indexed only")})

	_, err := propstore.Open(ctx, backend, path, propstore.ModeStrict, nil)
	assert.ErrorIs(t, err, propstore.ErrPropertyAccess)

	store, err := propstore.Open(ctx, backend, path, propstore.ModeBestEffort, nil)
	require.NoError(t, err)
	defer store.Close()

	title, err := store.Get(keyTitle)
	require.NoError(t, err)
	assert.Equal(t, "Indexed only", title.String())
}

func TestOpenStore_ReadWriteCommit(t *testing.T) {
	backend := setupTestStorage(t)
	path := writeFile(t, "plan.txt", "q3 plan")
	ctx := context.Background()

	store, err := propstore.Open(ctx, backend, path, propstore.ModeReadWrite, nil)
	require.NoError(t, err)
	require.NoError(t, store.SetString(keyTitle, "Roadmap"))
	require.NoError(t, store.Commit())
	store.Close()

	reopened, err := propstore.Open(ctx, backend, path, propstore.ModeStrict, nil)
	require.NoError(t, err)
	defer reopened.Close()
	title, err := reopened.Get(keyTitle)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", title.String())

	// The write reaches the index, so searches see it.
	s := search.NewSearcher(backend, nil, search.Options{})
	results, err := s.PerformQuery(ctx, filepath.Dir(path),
		`SELECT System.ItemPathDisplay FROM SystemIndex WHERE CONTAINS(System.Title, 'roadmap')`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].FilePath)
}

func TestOpenStore_TemporaryDoesNotPersist(t *testing.T) {
	backend := setupTestStorage(t)
	path := writeFile(t, "scratch.txt", "x")
	ctx := context.Background()

	store, err := propstore.Open(ctx, backend, path, propstore.ModeTemporary, nil)
	require.NoError(t, err)
	require.NoError(t, store.SetString(keyTitle, "Ephemeral"))
	require.NoError(t, store.Commit())

	title, err := store.Get(keyTitle)
	require.NoError(t, err)
	assert.Equal(t, "Ephemeral", title.String(), "visible in the open store")
	store.Close()

	reopened, err := propstore.Open(ctx, backend, path, propstore.ModeStrict, nil)
	require.NoError(t, err)
	defer reopened.Close()
	title, err = reopened.Get(keyTitle)
	require.NoError(t, err)
	assert.Equal(t, variant.Empty{}, title)
}

func TestOpenStore_ReadOnly(t *testing.T) {
	backend := setupTestStorage(t)
	path := writeFile(t, "ro.txt", "x")

	store, err := propstore.Open(context.Background(), backend, path, propstore.ModeStrict, nil)
	require.NoError(t, err)
	defer store.Close()

	assert.ErrorIs(t, store.SetString(keyTitle, "nope"), propstore.ErrReadOnly)

	// The native handle refuses writes on its own too.
	native, err := backend.OpenStore(context.Background(), path, propstore.GPSDefault)
	require.NoError(t, err)
	assert.ErrorIs(t, native.SetValue(keyTitle, variant.Raw{}), errNotWritable)
	require.NoError(t, native.Release())
	assert.ErrorIs(t, native.Release(), errStoreReleased)
}

func TestCatalog(t *testing.T) {
	backend := setupTestStorage(t)
	ctx := context.Background()

	d, err := backend.Describe(ctx, keyTitle)
	require.NoError(t, err)
	assert.Equal(t, "System.Title", d.CanonicalName)
	assert.Equal(t, "Title", d.DisplayName)
	assert.Equal(t, variant.TagLPWStr, d.Type)

	d, err = backend.DescribeByName(ctx, "system.keywords")
	require.NoError(t, err)
	assert.Equal(t, "System.Keywords", d.CanonicalName)
	assert.Equal(t, variant.TagVectorLPWStr, d.Type)

	_, err = backend.DescribeByName(ctx, "System.Nope")
	assert.ErrorIs(t, err, propstore.ErrUnknownProperty)

	key, err := propstore.KeyByName(ctx, backend, "System.Size")
	require.NoError(t, err)
	assert.Equal(t, keySize, key)
}

func TestRegisterProperty(t *testing.T) {
	backend := setupTestStorage(t)
	ctx := context.Background()
	custom := propstore.Description{
		Key:           propstore.MustKey("{0DA41CFA-D224-4A18-AE2F-596158DB4B3A}", 2),
		CanonicalName: "Contoso.Project",
		DisplayName:   "Project",
		Type:          variant.TagLPWStr,
	}
	require.NoError(t, backend.RegisterProperty(ctx, custom))

	seedItem(t, backend, "/docs/a.txt", map[string]variant.Value{"Contoso.Project": text("Apollo")})
	res, err := backend.Query(ctx, `SELECT [Contoso.Project] FROM items`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Apollo", res.Rows[0][0])

	names := map[string]bool{}
	for _, p := range backend.Properties() {
		names[p.CanonicalName] = true
	}
	assert.True(t, names["Contoso.Project"])

	assert.Error(t, backend.RegisterProperty(ctx, custom), "duplicate registration")
}
