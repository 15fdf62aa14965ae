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

package search

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// rawDialer serves one row of hand-built cells, for shapes the recording
// executor cannot encode.
type rawDialer struct {
	cells    []variant.Raw
	heap     *variant.Arena
	closeErr error
}

func (d *rawDialer) Connect(context.Context, string) (index.Conn, error) { return rawConn{d}, nil }

type rawConn struct{ d *rawDialer }

func (c rawConn) Query(context.Context, string) (index.Rows, error) {
	return &rawRows{d: c.d}, nil
}
func (c rawConn) Close() error { return nil }

type rawRows struct {
	d    *rawDialer
	sent bool
}

func (r *rawRows) Columns() []string {
	cols := make([]string, len(r.d.cells))
	for i := range cols {
		cols[i] = string(rune('a' + i))
	}
	return cols
}

func (r *rawRows) Next(dst []variant.Raw) (bool, error) {
	if r.sent {
		return false, nil
	}
	r.sent = true
	copy(dst, r.d.cells)
	return true, nil
}

func (r *rawRows) Heap() variant.Heap { return r.d.heap }
func (r *rawRows) Close() error       { return r.d.closeErr }

func TestCursor_UndecodableCellsBecomePlaceholders(t *testing.T) {
	heap := variant.NewArena()
	good, err := variant.FromString("ok", heap)
	require.NoError(t, err)
	elems, err := heap.Alloc(16)
	require.NoError(t, err)
	var huge variant.Raw
	huge.SetTag(variant.TagVectorLPWStr)
	huge.SetVector(0xFFFFFFFF, elems)

	d := &rawDialer{
		heap: heap,
		cells: []variant.Raw{
			good,
			variant.NewRaw(variant.TagLPWStr, 0xdead),
			variant.NewRaw(variant.TagArray|variant.TagI4, 1),
			huge,
		},
		closeErr: errors.New("release failed"),
	}

	sess, err := Open(context.Background(), d, `C:\Docs`, Options{})
	require.NoError(t, err)
	defer sess.Close()

	cur, err := sess.Query(context.Background(), "SELECT a, b, c, d FROM SystemIndex")
	require.NoError(t, err)

	row, err := cur.Next()
	require.NoError(t, err)
	require.Len(t, row, 4)
	assert.Equal(t, variant.String{T: variant.TagLPWStr, V: "ok"}, row[0])
	assert.Equal(t, variant.Unsupported{T: variant.TagLPWStr, Text: "(Unsupported type 0x001f)"}, row[1])
	assert.Equal(t, variant.Unsupported{T: variant.TagArray | variant.TagI4, Text: "(Unsupported type 0x2003)"}, row[2])
	assert.Equal(t, variant.Unsupported{T: variant.TagVectorLPWStr, Text: "(Unsupported type 0x101f)"}, row[3])
	assert.Equal(t, 0, heap.Live())

	_, err = cur.Next()
	assert.ErrorIs(t, err, io.EOF)

	// A failed release is logged, never surfaced.
	assert.NotPanics(t, cur.Close)
}
