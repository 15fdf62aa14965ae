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
	"bufio"
	"encoding/json"
	"io"

	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// WriteJSON writes every remaining row of src as one JSON object per line,
// keyed by column name, and returns the row count.
func WriteJSON(src RowSource, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	columns := src.Columns()

	n := 0
	err := drain(src, func(row search.Row) error {
		obj := make(map[string]any, len(columns))
		for i, name := range columns {
			if i < len(row) {
				obj[name] = variant.Interface(row[i])
			}
		}
		n++
		return enc.Encode(obj)
	})
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	return n, err
}

// WritePaths writes the first column of every remaining row, one per line,
// without escaping. It suits piping results into other tools.
func WritePaths(src RowSource, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	err := drain(src, func(row search.Row) error {
		n++
		if len(row) == 0 || row[0] == nil {
			_, err := bw.WriteString("\n")
			return err
		}
		_, err := bw.WriteString(row[0].String() + "\n")
		return err
	})
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	return n, err
}
