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

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scopetest "github.com/kraklabs/scopeq/internal/testing"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *bytes.Buffer, string) {
	t.Helper()
	isolate(t)
	lib := t.TempDir()
	backend := scopetest.SetupTestIndex(t)
	scopetest.WriteTestFile(t, lib, "report.txt", "annual report")
	scopetest.InsertTestDocument(t, backend, filepath.Join(lib, "report.txt"), "annual report", "finance")
	scopetest.InsertTestDocument(t, backend, filepath.Join(lib, "notes.txt"), "meeting notes", "minutes")

	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, stderr: &stderr, cfg: DefaultConfig(), logger: newLogger(&stderr, false)}
	return &shell{c: c, backend: backend, root: lib, format: "paths"}, &stdout, &stderr, lib
}

func TestShell_KeywordSearch(t *testing.T) {
	sh, stdout, stderr, lib := newTestShell(t)

	quit, err := sh.dispatch(context.Background(), "report")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, filepath.Join(lib, "report.txt")+"\n", stdout.String())
	assert.Contains(t, stderr.String(), "1 rows.")
}

func TestShell_SQL(t *testing.T) {
	sh, stdout, _, _ := newTestShell(t)
	_, err := sh.dispatch(context.Background(), ".format csv")
	require.NoError(t, err)

	_, err = sh.dispatch(context.Background(), "select System.ItemName from SystemIndex where System.ItemName = 'notes.txt'")
	require.NoError(t, err)
	assert.Equal(t, "System.ItemName\nnotes.txt\n", strings.ReplaceAll(stdout.String(), "\r\n", "\n"))
}

func TestShell_Commands(t *testing.T) {
	sh, stdout, _, lib := newTestShell(t)
	ctx := context.Background()

	_, err := sh.dispatch(ctx, ".keywords")
	require.NoError(t, err)
	assert.Equal(t, "finance\nminutes\n", stdout.String())

	stdout.Reset()
	_, err = sh.dispatch(ctx, ".lib")
	require.NoError(t, err)
	assert.Equal(t, lib+"\n", stdout.String())

	_, err = sh.dispatch(ctx, ".lib "+filepath.Join(lib, "missing"))
	assert.Error(t, err)

	_, err = sh.dispatch(ctx, ".format xml")
	assert.Error(t, err)
	assert.Equal(t, "paths", sh.format)

	stdout.Reset()
	_, err = sh.dispatch(ctx, ".props "+filepath.Join(lib, "report.txt"))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "System.Keywords")

	_, err = sh.dispatch(ctx, ".bogus")
	assert.Error(t, err)

	quit, err := sh.dispatch(ctx, ".quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestShell_Complete(t *testing.T) {
	sh, _, _, _ := newTestShell(t)

	assert.Equal(t, []string{".keywords"}, sh.complete(".k"))
	assert.Contains(t, sh.complete("select System.Item"), "select System.ItemName")
	assert.Nil(t, sh.complete("select "))
}
