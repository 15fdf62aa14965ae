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
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/aqs"
	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/variant"
)

func seedDocs(t *testing.T, b *EmbeddedBackend) {
	t.Helper()
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seedItem(t, b, `C:\Docs\report.txt`, map[string]variant.Value{
		"System.Search.Contents": text("the annual report"),
		"System.Size":            variant.Uint{T: variant.TagUI8, V: 120},
		"System.DateModified":    variant.FileTime{V: modified},
	})
	seedItem(t, b, `C:\Docs\sub\notes.txt`, map[string]variant.Value{
		"System.Search.Contents": text("report draft"),
		"System.Keywords":        variant.Strings{V: []string{"beta", "alpha"}},
		"System.Size":            variant.Uint{T: variant.TagUI8, V: 5000},
	})
	seedItem(t, b, `C:\Docs\photo.jpg`, map[string]variant.Value{
		"System.Keywords": variant.Strings{V: []string{"alpha", "holiday"}},
	})
	seedItem(t, b, `C:\Other\report.txt`, map[string]variant.Value{
		"System.Search.Contents": text("another report"),
		"System.Keywords":        variant.Strings{V: []string{"elsewhere"}},
	})
}

func TestConnect_RejectsProvider(t *testing.T) {
	backend := setupTestStorage(t)
	_, err := backend.Connect(context.Background(), "Provider=SQLOLEDB;")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestSearcher_PerformQuery(t *testing.T) {
	backend := setupTestStorage(t)
	seedDocs(t, backend)

	s := search.NewSearcher(backend, nil, search.Options{})
	results, err := s.PerformQuery(context.Background(), `C:\Docs`,
		`SELECT System.ItemPathDisplay, System.Search.Contents FROM SystemIndex WHERE CONTAINS(*, '"report"')`)
	require.NoError(t, err)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.FilePath)
	}
	assert.ElementsMatch(t, []string{`C:\Docs\report.txt`, `C:\Docs\sub\notes.txt`}, paths)
}

func TestSearcher_PerformSearch(t *testing.T) {
	backend := setupTestStorage(t)
	seedDocs(t, backend)

	gen := index.QueryGeneratorFunc(func(_ context.Context, q string) (string, error) {
		return `SELECT System.ItemPathDisplay FROM SystemIndex WHERE CONTAINS(*, '"` + q + `"')`, nil
	})
	var progress []string
	s := search.NewSearcher(backend, gen, search.Options{
		Progress: search.ProgressFunc(func(msg string) { progress = append(progress, msg) }),
	})

	results, err := s.PerformSearch(context.Background(), `C:\Docs\sub`, "draft")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, `C:\Docs\sub\notes.txt`, results[0].FilePath)
	assert.Contains(t, progress, "1 rows.")
}

func TestSearcher_KeywordSyntax(t *testing.T) {
	backend := setupTestStorage(t)
	seedDocs(t, backend)

	s := search.NewSearcher(backend, aqs.Generator{Catalog: backend}, search.Options{})
	results, err := s.PerformSearch(context.Background(), `C:\Docs`, "repo size:>100 -draft")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, `C:\Docs\report.txt`, results[0].FilePath)
	assert.Equal(t, variant.Uint{T: variant.TagUI8, V: 120}, results[0].Values["System.Size"])

	results, err = s.PerformSearch(context.Background(), `C:\`, "tags:alpha ext:jpg")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, `C:\Docs\photo.jpg`, results[0].FilePath)
}

func TestSession_TypedCells(t *testing.T) {
	backend := setupTestStorage(t)
	seedDocs(t, backend)
	ctx := context.Background()

	sess, err := search.Open(ctx, backend, `C:\Docs`, search.Options{})
	require.NoError(t, err)
	defer sess.Close()

	cur, err := sess.Query(ctx, `SELECT System.ItemName, System.Size, System.DateModified, System.Keywords FROM SystemIndex WHERE System.Size > 100 ORDER BY System.Size`)
	require.NoError(t, err)
	defer cur.Close()

	assert.Equal(t, []string{"System.ItemName", "System.Size", "System.DateModified", "System.Keywords"}, cur.Columns())

	row, err := cur.Next()
	require.NoError(t, err)
	assert.Equal(t, variant.String{T: variant.TagLPWStr, V: "report.txt"}, row[0])
	assert.Equal(t, variant.Uint{T: variant.TagUI8, V: 120}, row[1])
	assert.Equal(t, variant.FileTime{V: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, row[2])
	assert.Equal(t, variant.Empty{}, row[3])

	row, err = cur.Next()
	require.NoError(t, err)
	assert.Equal(t, variant.Strings{V: []string{"beta", "alpha"}}, row[3])

	_, err = cur.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, cur.Stats().Rows)
}

func TestSession_AllKeywords(t *testing.T) {
	backend := setupTestStorage(t)
	seedDocs(t, backend)

	s := search.NewSearcher(backend, nil, search.Options{})
	keywords, err := s.AllKeywords(context.Background(), `C:\Docs`)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "holiday"}, keywords)
}

func TestSession_DirectoryOnly(t *testing.T) {
	backend := setupTestStorage(t)
	seedDocs(t, backend)

	s := search.NewSearcher(backend, nil, search.Options{})
	results, err := s.PerformQuery(context.Background(), `C:\`,
		`SELECT System.ItemPathDisplay FROM SystemIndex WHERE DIRECTORY='file:C:/Docs'`)
	require.NoError(t, err)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.FilePath)
	}
	assert.ElementsMatch(t, []string{`C:\Docs\report.txt`, `C:\Docs\photo.jpg`}, paths)
}

func TestSession_QueryError(t *testing.T) {
	backend := setupTestStorage(t)

	s := search.NewSearcher(backend, nil, search.Options{})
	_, err := s.PerformQuery(context.Background(), `C:\Docs`,
		`SELECT System.NoSuchColumn FROM SystemIndex`)
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrQueryExecution)
}
