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

package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/variant"
)

type sliceSource struct {
	columns []string
	rows    []search.Row
	pos     int
	err     error
}

func (s *sliceSource) Columns() []string { return s.columns }

func (s *sliceSource) Next() (search.Row, error) {
	if s.pos >= len(s.rows) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	s.pos++
	return s.rows[s.pos-1], nil
}

func str(s string) variant.Value { return variant.String{T: variant.TagLPWStr, V: s} }

func sample() *sliceSource {
	return &sliceSource{
		columns: []string{"System.ItemPathDisplay", "System.Keywords", "System.Size"},
		rows: []search.Row{
			{str(`C:\Docs\a.txt`), variant.Strings{V: []string{"x", "y"}}, variant.Uint{T: variant.TagUI8, V: 12}},
			{str(`C:\Docs\say "hi", twice.txt`), variant.Strings{V: []string{}}, variant.Empty{}},
		},
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"  leading space", "  leading space"},
		{`a,b"c`, `"a,b""c"`},
		{"line\nbreak", "\"line\nbreak\""},
		{"cr\r", "\"cr\r\""},
		{`only"quote`, `"only""quote"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), "Escape(%q)", tt.in)
	}
}

func TestCSVWriter_Row(t *testing.T) {
	var buf bytes.Buffer
	c := NewCSVWriter(&buf)
	require.NoError(t, c.WriteRow([]string{"x", "y,z"}))
	require.NoError(t, c.Flush())

	assert.Equal(t, "x,\"y,z\"\n", buf.String())
	assert.Equal(t, 1, c.Rows())
}

func TestWriteAll(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteAll(sample(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := "System.ItemPathDisplay,System.Keywords,System.Size\n" +
		"C:\\Docs\\a.txt,x; y,12\n" +
		"\"C:\\Docs\\say \"\"hi\"\", twice.txt\",,\n"
	assert.Equal(t, want, buf.String())
}

func TestCountRows_MatchesWriteAll(t *testing.T) {
	written, err := WriteAll(sample(), io.Discard)
	require.NoError(t, err)

	counted, err := CountRows(sample())
	require.NoError(t, err)
	assert.Equal(t, written, counted)
}

func TestDrainPropagatesCursorError(t *testing.T) {
	src := sample()
	src.err = errors.New("query timed out")

	var buf bytes.Buffer
	n, err := WriteAll(src, &buf)
	assert.EqualError(t, err, "query timed out")
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(buf.String(), "System.ItemPathDisplay"), "partial output flushed")
}

func TestRecords(t *testing.T) {
	columns, records, err := Records(sample())
	require.NoError(t, err)
	assert.Equal(t, []string{"System.ItemPathDisplay", "System.Keywords", "System.Size"}, columns)
	require.Len(t, records, 2)
	assert.Equal(t, variant.Uint{T: variant.TagUI8, V: 12}, records[0]["System.Size"])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteJSON(sample(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"System.ItemPathDisplay":"C:\\Docs\\a.txt","System.Keywords":["x","y"],"System.Size":12}`, lines[0])
	assert.JSONEq(t, `{"System.ItemPathDisplay":"C:\\Docs\\say \"hi\", twice.txt","System.Keywords":[],"System.Size":null}`, lines[1])
}

func TestWritePaths(t *testing.T) {
	var buf bytes.Buffer
	n, err := WritePaths(sample(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "C:\\Docs\\a.txt\nC:\\Docs\\say \"hi\", twice.txt\n", buf.String())
}
