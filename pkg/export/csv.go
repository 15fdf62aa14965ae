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

// Package export renders decoded result rows as delimited text.
//
// The CSV dialect is the one the index tooling has always produced: fields
// are comma-joined, rows end with "\n", and a field is quoted only when it
// contains a comma, a double quote, a carriage return or a line feed.
// Embedded quotes are doubled inside a quoted field. encoding/csv is not
// used because it also quotes fields with leading spaces and empty fields on
// a single-column row, which changes the output.
package export

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// RowSource is the part of a cursor the projector consumes.
// *search.Cursor implements it.
type RowSource interface {
	Columns() []string
	Next() (search.Row, error)
}

const specialChars = ",\"\r\n"

// Escape returns field as it appears in CSV output.
func Escape(field string) string {
	if !strings.ContainsAny(field, specialChars) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// CSVWriter writes rows to an underlying writer. Output is buffered; call
// Flush when done.
type CSVWriter struct {
	w    *bufio.Writer
	rows int
}

// NewCSVWriter returns a writer on w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the column names as one line. Names are written as
// given.
func (c *CSVWriter) WriteHeader(columns []string) error {
	_, err := c.w.WriteString(strings.Join(columns, ",") + "\n")
	return err
}

// WriteRow writes one row of display values and advances Rows.
func (c *CSVWriter) WriteRow(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := c.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := c.w.WriteString(Escape(f)); err != nil {
			return err
		}
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return err
	}
	c.rows++
	return nil
}

// WriteValues writes one row of decoded cells.
func (c *CSVWriter) WriteValues(row search.Row) error {
	return c.WriteRow(row.Strings())
}

// Rows returns the number of rows written so far, header excluded.
func (c *CSVWriter) Rows() int { return c.rows }

// Flush writes any buffered output.
func (c *CSVWriter) Flush() error { return c.w.Flush() }

// WriteAll writes the header and every remaining row of src to w and
// returns the row count.
func WriteAll(src RowSource, w io.Writer) (int, error) {
	c := NewCSVWriter(w)
	if err := c.WriteHeader(src.Columns()); err != nil {
		return 0, err
	}
	err := drain(src, c.WriteValues)
	if ferr := c.Flush(); err == nil {
		err = ferr
	}
	return c.Rows(), err
}

// CountRows reads and discards every remaining row of src. Every cell is
// still decoded, so timings match a normal run without the output volume.
func CountRows(src RowSource) (int, error) {
	n := 0
	err := drain(src, func(search.Row) error {
		n++
		return nil
	})
	return n, err
}

// Records materializes every remaining row of src keyed by column name, and
// returns the column order alongside.
func Records(src RowSource) ([]string, []map[string]variant.Value, error) {
	columns := src.Columns()
	var records []map[string]variant.Value
	err := drain(src, func(row search.Row) error {
		rec := make(map[string]variant.Value, len(columns))
		for i, name := range columns {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
		return nil
	})
	return columns, records, err
}

func drain(src RowSource, fn func(search.Row) error) error {
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
