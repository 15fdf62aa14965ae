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
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_Match(t *testing.T) {
	const doc = "Quarterly Report for the finance team, draft-2"

	tests := []struct {
		cond string
		want bool
	}{
		{`report`, true},
		{`"REPORT"`, true},
		{`reports`, false},
		{`"rep*"`, true},
		{`rep*`, true},
		{`"quarterly report"`, true},
		{`"report quarterly"`, false},
		{`"finance tea*"`, true},
		{`report AND finance`, true},
		{`report finance`, true},
		{`report AND budget`, false},
		{`budget OR finance`, true},
		{`report AND NOT budget`, true},
		{`NOT report`, false},
		{`(budget OR draft) AND team`, true},
		{`draft 2`, true},
	}

	words := tokenize(doc)
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			c, err := parseCondition(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.match(words))
		})
	}
}

func TestParseCondition_Errors(t *testing.T) {
	for _, cond := range []string{``, `   `, `report AND`, `(report`, `report)`, `NOT`, `"*"`} {
		t.Run(cond, func(t *testing.T) {
			_, err := parseCondition(cond)
			assert.ErrorIs(t, err, ErrFullTextSyntax)
		})
	}
}

func TestContainsMatch(t *testing.T) {
	got, err := containsMatch(nil, []driver.Value{"Annual report", `"report"`})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = containsMatch(nil, []driver.Value{nil, `"report"`, int64(1033)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = containsMatch(nil, []driver.Value{"x"})
	assert.ErrorIs(t, err, ErrFullTextSyntax)
}

func TestFreetextMatch(t *testing.T) {
	got, err := freetextMatch(nil, []driver.Value{[]byte("tax return 2024"), "annual tax"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = freetextMatch(nil, []driver.Value{"tax return", "budget"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestScopeAndDirectoryMatch(t *testing.T) {
	tests := []struct {
		item      string
		dir       string
		scope     bool
		directory bool
	}{
		{`C:\Docs\a.txt`, "file:C:/Docs", true, true},
		{`C:\Docs\sub\b.txt`, "file:C:/Docs", true, false},
		{`C:\Docs2\c.txt`, "file:C:/Docs", false, false},
		{`c:\docs\A.TXT`, "file:C:/Docs/", true, true},
		{`C:\x.txt`, "file:C:/", true, true},
		{`\\nas\share\d.txt`, "file://nas/share", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			got, err := scopeMatch(nil, []driver.Value{tt.item, tt.dir})
			require.NoError(t, err)
			assert.Equal(t, boolResult(tt.scope), got, "scope")

			got, err = directoryMatch(nil, []driver.Value{tt.item, tt.dir})
			require.NoError(t, err)
			assert.Equal(t, boolResult(tt.directory), got, "directory")
		})
	}
}
