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

package scope

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPath(t *testing.T) {
	tests := []struct {
		name   string
		root   string
		url    string
		abs    string
		prefix string
	}{
		{"drive root", `C:\`, "C:/", `C:\`, ""},
		{"drive folder", `C:\Docs`, "C:/Docs", `C:\Docs`, ""},
		{"trailing separator", `C:\Docs\`, "C:/Docs", `C:\Docs`, ""},
		{"dot segments", `C:\Docs\.\old\..\new`, "C:/Docs/new", `C:\Docs\new`, ""},
		{"forward slashes", "D:/Projects/q1", "D:/Projects/q1", `D:\Projects\q1`, ""},
		{"unc", `\\host\share\sub`, "//host/share/sub", `\\host\share\sub`, "host."},
		{"unc share only", `\\files01\public`, "//files01/public", `\\files01\public`, "files01."},
		{"unc forward", "//nas/media/", "//nas/media", `\\nas\media`, "nas."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPath(tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.url, p.URL)
			assert.Equal(t, tt.abs, p.Abs)
			assert.Equal(t, tt.prefix, p.HostPrefix)
			assert.Equal(t, tt.prefix != "", p.IsUNC())
		})
	}
}

func TestNewPath_Relative(t *testing.T) {
	p, err := NewPath("testdata")
	require.NoError(t, err)

	want, err := filepath.Abs("testdata")
	require.NoError(t, err)
	assert.Equal(t, want, p.Abs)
	assert.Equal(t, strings.ReplaceAll(want, `\`, "/"), p.URL)
	assert.Empty(t, p.HostPrefix)
}

func TestNewPath_Malformed(t *testing.T) {
	for _, root := range []string{``, `   `, `\\host`, `\\\share`, `\\host\`, `//`} {
		t.Run(root, func(t *testing.T) {
			_, err := NewPath(root)
			assert.True(t, errors.Is(err, ErrInvalidPath), "got %v", err)
		})
	}
}

func TestPath_Table(t *testing.T) {
	p, err := NewPath(`\\host\share\sub`)
	require.NoError(t, err)
	assert.Equal(t, "host.SystemIndex", p.Table())
	assert.Equal(t, "host", p.Host())
	assert.Equal(t, "SCOPE='file://host/share/sub'", p.ScopeClause())
}

func TestPath_ScopeClauseQuotes(t *testing.T) {
	p, err := NewPath(`C:\Bob's Files`)
	require.NoError(t, err)
	assert.Equal(t, "SCOPE='file:C:/Bob''s Files'", p.ScopeClause())
}

func TestRewrite_ClauseForm(t *testing.T) {
	p, err := NewPath(`C:\Docs`)
	require.NoError(t, err)

	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			"plain",
			"SELECT System.ItemPathDisplay FROM SystemIndex WHERE CONTAINS('report')",
			"SELECT System.ItemPathDisplay FROM SystemIndex WHERE SCOPE='file:C:/Docs' AND CONTAINS('report')",
		},
		{
			"lower case and quoted",
			`select a from "systemindex" where b = 1`,
			"select a FROM SystemIndex WHERE SCOPE='file:C:/Docs' AND b = 1",
		},
		{
			"extra whitespace",
			"SELECT a\nFROM \t SystemIndex\n  WHERE\n b = 1 ORDER BY a",
			"SELECT a FROM SystemIndex WHERE SCOPE='file:C:/Docs' AND b = 1 ORDER BY a",
		},
		{
			"only first occurrence",
			"SELECT a FROM SystemIndex WHERE x IN (SELECT a FROM SystemIndex WHERE y)",
			"SELECT a FROM SystemIndex WHERE SCOPE='file:C:/Docs' AND x IN (SELECT a FROM SystemIndex WHERE y)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rewrite(tt.sql, p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, strings.Count(got, "SCOPE='file:C:/Docs' AND"))
		})
	}
}

func TestRewrite_BareForm(t *testing.T) {
	p, err := NewPath(`\\host\share\sub`)
	require.NoError(t, err)

	got, err := Rewrite("SELECT System.Keywords FROM SystemIndex", p)
	require.NoError(t, err)
	assert.Equal(t, "SELECT System.Keywords FROM host.SystemIndex WHERE SCOPE='file://host/share/sub'", got)

	got, err = Rewrite("SELECT a FROM \"SYSTEMINDEX\"  \n", p)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM host.SystemIndex WHERE SCOPE='file://host/share/sub'", got)
}

func TestRewrite_ClauseFormWins(t *testing.T) {
	p, err := NewPath(`C:\Docs`)
	require.NoError(t, err)

	got, err := Rewrite("SELECT a FROM SystemIndex WHERE b FROM SystemIndex", p)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM SystemIndex WHERE SCOPE='file:C:/Docs' AND b FROM SystemIndex", got)
}

func TestRewrite_Mismatch(t *testing.T) {
	p, err := NewPath(`C:\Docs`)
	require.NoError(t, err)

	for _, sql := range []string{
		"",
		"SELECT a FROM OtherIndex WHERE b",
		"SELECT a FROM SystemIndex ORDER BY a",
		"SELECT a FROM SystemIndexes",
		"FROM SystemIndex",
	} {
		t.Run(sql, func(t *testing.T) {
			got, err := Rewrite(sql, p)
			assert.True(t, errors.Is(err, ErrQuerySyntaxMismatch))
			assert.Empty(t, got)
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		scope, item string
		want        bool
	}{
		{"file:C:/Docs", `C:\Docs\report.docx`, true},
		{"file:C:/Docs", `c:\docs\Sub\a.txt`, true},
		{"file:C:/Docs", `C:\Docs`, true},
		{"file:C:/Docs", `C:\Docsets\a.txt`, false},
		{"file:C:/Docs", `D:\Docs\a.txt`, false},
		{"file:C:/", `C:\a.txt`, true},
		{"file://host/share", `\\host\share\x\y`, true},
		{"file://host/share", `\\other\share\x`, false},
		{"file:", `C:\a.txt`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Contains(tt.scope, tt.item), "%s in %s", tt.item, tt.scope)
	}
}
