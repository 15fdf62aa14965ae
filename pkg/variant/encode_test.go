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

package variant

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_TextAlwaysWide(t *testing.T) {
	a := NewArena()
	raw, err := Encode(String{T: TagBSTR, V: "x"}, a)
	require.NoError(t, err)
	assert.Equal(t, TagLPWStr, raw.Tag())
	require.NoError(t, Clear(&raw, a))
}

func TestEncode_RoundTrip(t *testing.T) {
	when := time.Date(2023, 11, 5, 14, 0, 0, 0, time.UTC)
	values := []Value{
		Int{T: TagI2, V: -300},
		Int{T: TagI8, V: 1 << 40},
		Uint{T: TagUI4, V: 4000000000},
		Float{T: TagR8, V: 3.25},
		Bool{V: true},
		Currency{Scaled: -5},
		Decimal{Scale: 3, Hi: 1, Lo: 7},
		ErrorCode{T: TagHResult, Code: -1},
		Date{V: when},
		FileTime{V: when},
		String{T: TagLPStr, V: "naïve"},
		Strings{V: []string{"a", ""}},
		Float64s{V: []float64{}},
	}

	for _, v := range values {
		t.Run(v.Tag().String(), func(t *testing.T) {
			a := NewArena()
			raw, err := Encode(v, a)
			require.NoError(t, err)

			got, err := Decode(raw, a)
			require.NoError(t, err)
			assert.Equal(t, v.String(), got.String())
			assert.Equal(t, v.Tag(), got.Tag())

			require.NoError(t, Clear(&raw, a))
			assert.Equal(t, 0, a.Live(), "all buffers released")
		})
	}
}

func TestEncode_RejectsPlaceholder(t *testing.T) {
	_, err := Encode(Unsupported{T: TagBlob, Text: "x"}, NewArena())
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestEncode_RejectsEmbeddedNUL(t *testing.T) {
	a := NewArena()
	_, err := Encode(String{V: "a\x00b"}, a)
	assert.Error(t, err)
	assert.Equal(t, 0, a.Live())
}

func TestFromGo(t *testing.T) {
	v, err := FromGo("report")
	require.NoError(t, err)
	assert.Equal(t, String{T: TagLPWStr, V: "report"}, v)

	v, err = FromGo(int16(-2))
	require.NoError(t, err)
	assert.Equal(t, Int{T: TagI2, V: -2}, v)

	v, err = FromGo([]string{"x"})
	require.NoError(t, err)
	assert.Equal(t, Strings{V: []string{"x"}}, v)

	_, err = FromGo(struct{}{})
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestParse(t *testing.T) {
	v, err := Parse(TagVectorLPWStr, "draft; review ;;final")
	require.NoError(t, err)
	assert.Equal(t, Strings{V: []string{"draft", "review", "final"}}, v)

	v, err = Parse(TagUI4, "5")
	require.NoError(t, err)
	assert.Equal(t, Uint{T: TagUI4, V: 5}, v)

	v, err = Parse(TagFileTime, "2024-01-02 03:04:05")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 03:04:05", v.String())

	_, err = Parse(TagUI1, "300")
	assert.Error(t, err)

	_, err = Parse(TagCLSID, "x")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestClear_ContinuesAfterFailure(t *testing.T) {
	a := NewArena()
	raw, err := Encode(Strings{V: []string{"one", "two"}}, a)
	require.NoError(t, err)

	ptrs, err := readPointers(a, raw.Elems(), raw.Count())
	require.NoError(t, err)
	require.NoError(t, a.Free(ptrs[0]))

	err = Clear(&raw, a)
	assert.True(t, errors.Is(err, ErrDoubleFree))
	assert.Equal(t, 0, a.Live(), "remaining buffers still released")
	assert.Equal(t, TagEmpty, raw.Tag())
}

func TestClear_ByRefIsBorrowed(t *testing.T) {
	a := NewArena()
	addr, err := a.Alloc(4)
	require.NoError(t, err)

	raw := NewRaw(TagByRef|TagI4, addr)
	require.NoError(t, Clear(&raw, a))
	assert.Equal(t, 1, a.Live())
}

func TestArena(t *testing.T) {
	a := NewArena()
	addr, err := a.Alloc(4)
	require.NoError(t, err)

	n, err := a.WriteAt([]byte{1, 2, 3, 4}, int64(addr))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = a.WriteAt([]byte{1, 2}, int64(addr+3))
	assert.True(t, errors.Is(err, ErrBadAddress), "write past block end")

	buf := make([]byte, 8)
	n, err = a.ReadAt(buf, int64(addr+1))
	assert.Equal(t, 3, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []byte{2, 3, 4}, buf[:3])

	other, err := a.Alloc(1)
	require.NoError(t, err)
	assert.NotEqual(t, addr, other)

	require.NoError(t, a.Free(addr))
	assert.True(t, errors.Is(a.Free(addr), ErrDoubleFree))
	assert.True(t, errors.Is(a.Free(addr+1), ErrBadAddress))

	_, err = a.ReadAt(buf, int64(addr))
	assert.True(t, errors.Is(err, ErrBadAddress), "read after free")
	assert.Equal(t, 1, a.Live())
}
