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
	"log/slog"
	"time"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// Row is one decoded result row, one value per column.
type Row []variant.Value

// Strings renders every cell with its display form.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		if v != nil {
			out[i] = v.String()
		}
	}
	return out
}

// Stats describes one statement's progress.
type Stats struct {
	Rows     int
	FirstRow time.Duration
	Elapsed  time.Duration
}

// Cursor streams the rows of one statement. It is not safe for concurrent use.
type Cursor struct {
	ctx     context.Context
	cancel  context.CancelFunc
	rows    index.Rows
	columns []string
	cells   []variant.Raw
	opts    Options
	logger  *slog.Logger

	start    time.Time
	stats    Stats
	answered bool
	done     bool
	err      error
	closed   bool
}

func newCursor(ctx context.Context, cancel context.CancelFunc, rows index.Rows, start time.Time, opts Options) *Cursor {
	cols := rows.Columns()
	return &Cursor{
		ctx:     ctx,
		cancel:  cancel,
		rows:    rows,
		columns: append([]string(nil), cols...),
		cells:   make([]variant.Raw, len(cols)),
		opts:    opts,
		logger:  opts.Logger,
		start:   start,
	}
}

// Columns returns the column names in select order.
func (c *Cursor) Columns() []string { return append([]string(nil), c.columns...) }

// Next returns the next row, or io.EOF once the result is exhausted. Calling
// Next again after io.EOF keeps returning io.EOF. An executor failure ends
// the cursor; the same error is returned from then on.
func (c *Cursor) Next() (Row, error) {
	switch {
	case c.closed:
		return nil, ErrClosed
	case c.err != nil:
		return nil, c.err
	case c.done:
		return nil, io.EOF
	}

	ok, err := c.rows.Next(c.cells)
	if err != nil {
		c.err = executionError(c.ctx, "read row", err)
		return nil, c.err
	}
	if !c.answered {
		c.answered = true
		c.stats.FirstRow = time.Since(c.start)
	}
	if !ok {
		c.done = true
		return nil, io.EOF
	}

	c.stats.Rows++
	recordRow()
	return c.decodeRow(), nil
}

// decodeRow decodes and releases every cell of the current row.
func (c *Cursor) decodeRow() Row {
	heap := c.rows.Heap()
	row := make(Row, len(c.cells))
	for i := range c.cells {
		tag := c.cells[i].Tag()
		v, err := variant.Decode(c.cells[i], heap)
		if err != nil {
			recordPlaceholder()
			c.logger.Debug("search.cursor.decode.placeholder",
				"column", c.columns[i],
				"tag", tag.String(),
				"err", err,
			)
			v = variant.Unsupported{T: tag, Text: "(Unsupported type " + tag.Hex() + ")"}
		}
		if err := variant.Clear(&c.cells[i], heap); err != nil {
			recordReleaseFailure()
			c.logger.Warn("search.cursor.release.warning",
				"column", c.columns[i],
				"tag", tag.String(),
				"err", err,
			)
		}
		row[i] = v
	}
	return row
}

// Stats returns the progress so far. After Close it is final.
func (c *Cursor) Stats() Stats {
	s := c.stats
	if !c.closed {
		s.Elapsed = time.Since(c.start)
	}
	return s
}

// Close releases the result and reports the row count and timings to the
// progress sink. It is safe to call more than once; a failed release is
// logged, not returned.
func (c *Cursor) Close() {
	if c.closed {
		return
	}
	c.stats.Elapsed = time.Since(c.start)
	if !c.answered {
		c.stats.FirstRow = c.stats.Elapsed
	}
	c.closed = true

	if err := c.rows.Close(); err != nil {
		recordReleaseFailure()
		c.logger.Warn("search.cursor.release.warning", "err", err)
	}
	c.cancel()

	recordQuery(outcome(c.err))
	recordTimings(c.stats)

	c.opts.report("%d rows.", c.stats.Rows)
	c.opts.report("%s until first read.", FormatElapsed(c.stats.FirstRow))
	c.opts.report("%s seconds elapsed.", FormatElapsed(c.stats.Elapsed))

	c.logger.Debug("search.query.done",
		"rows", c.stats.Rows,
		"first_row", c.stats.FirstRow,
		"elapsed", c.stats.Elapsed,
		"exhausted", c.done,
	)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrQueryTimeout):
		return "timeout"
	default:
		return "error"
	}
}
