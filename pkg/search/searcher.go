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
	"fmt"
	"io"
	"strings"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// Columns Result picks its fields from, in order of preference.
var (
	pathColumns    = []string{"System.ItemPathDisplay", "System.ItemUrl", "System.ItemPath"}
	contentColumns = []string{"System.Search.AutoSummary", "System.Search.Contents"}
)

// Result is one materialized row.
type Result struct {
	// FilePath is the item path: the first path-like column, else column 0.
	FilePath string

	// Content is the summary column when selected, else column 1.
	Content string

	// Values holds every cell by column name.
	Values map[string]variant.Value
}

// NewResult builds a Result from a decoded row.
func NewResult(columns []string, row Row) Result {
	r := Result{Values: make(map[string]variant.Value, len(columns))}
	for i, name := range columns {
		if i < len(row) {
			r.Values[name] = row[i]
		}
	}
	r.FilePath = pick(columns, row, pathColumns, 0)
	r.Content = pick(columns, row, contentColumns, 1)
	return r
}

func pick(columns []string, row Row, preferred []string, fallback int) string {
	for _, want := range preferred {
		for i, name := range columns {
			if strings.EqualFold(name, want) && i < len(row) && row[i] != nil {
				return row[i].String()
			}
		}
	}
	if fallback < len(row) && row[fallback] != nil {
		return row[fallback].String()
	}
	return ""
}

// Searcher runs one-shot searches: each call opens a session, runs one
// statement, materializes the rows and closes everything.
type Searcher struct {
	dialer    index.Dialer
	generator index.QueryGenerator
	opts      Options
}

// NewSearcher returns a Searcher. generator may be nil when only
// PerformQuery and AllKeywords are used.
func NewSearcher(dialer index.Dialer, generator index.QueryGenerator, opts Options) *Searcher {
	return &Searcher{dialer: dialer, generator: generator, opts: opts.withDefaults()}
}

// GenerateSQL turns a keyword query into unscoped SQL and reports it.
func (s *Searcher) GenerateSQL(ctx context.Context, query string) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: no query generator configured", ErrQueryGeneration)
	}
	sql, err := s.generator.GenerateSQL(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQueryGeneration, err)
	}
	s.opts.report("Full query: %s", sql)
	return sql, nil
}

// PerformSearch runs a keyword query under root.
func (s *Searcher) PerformSearch(ctx context.Context, root, query string) ([]Result, error) {
	sql, err := s.GenerateSQL(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.PerformQuery(ctx, root, sql)
}

// PerformQuery runs a SQL statement under root.
func (s *Searcher) PerformQuery(ctx context.Context, root, sql string) ([]Result, error) {
	var results []Result
	err := s.Each(ctx, root, sql, func(columns []string, row Row) error {
		results = append(results, NewResult(columns, row))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Each runs a SQL statement under root and calls fn for every row without
// materializing the result. An error from fn stops the iteration and is
// returned as is.
func (s *Searcher) Each(ctx context.Context, root, sql string, fn func(columns []string, row Row) error) error {
	return s.WithCursor(ctx, root, sql, func(cur *Cursor) error {
		columns := cur.Columns()
		for {
			row, err := cur.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := fn(columns, row); err != nil {
				return err
			}
		}
	})
}

// WithCursor runs a SQL statement under root and hands the open cursor to
// fn. Session and cursor are released when fn returns.
func (s *Searcher) WithCursor(ctx context.Context, root, sql string, fn func(*Cursor) error) error {
	sess, err := Open(ctx, s.dialer, root, s.opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	cur, err := sess.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer cur.Close()

	return fn(cur)
}

// AllKeywords returns the sorted distinct keywords of every item under root.
func (s *Searcher) AllKeywords(ctx context.Context, root string) ([]string, error) {
	sess, err := Open(ctx, s.dialer, root, s.opts)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.AllKeywords(ctx)
}
