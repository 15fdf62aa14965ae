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
	"fmt"
	"io"

	"github.com/natefinch/atomic"

	cerrors "github.com/kraklabs/scopeq/internal/errors"
	"github.com/kraklabs/scopeq/pkg/aqs"
	"github.com/kraklabs/scopeq/pkg/export"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/storage"
)

// queryRequest is one scoped statement and how to print its rows.
type queryRequest struct {
	root    string
	keyword string
	sql     string
	format  string
	silent  bool
}

// runQuery executes the root command: a keyword search or SQL query scoped
// to --lib, with rows written as CSV, JSON or bare paths.
//
// Examples:
//
//	scopeq --lib ~/Documents --search report
//	scopeq --lib ~/Documents --query "SELECT System.ItemName FROM SystemIndex" --out names.csv
//	scopeq --lib ~/Documents --search 'kind:pdf' --silent
func runQuery(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("scopeq", usageText)
	lib := fs.String("lib", "", "Library root")
	keyword := fs.String("search", "", "Keyword query")
	sql := fs.String("query", "", "SQL query")
	silent := fs.Bool("silent", false, "Count rows without printing them")
	format := fs.String("format", "", "csv, json or paths")
	out := fs.String("out", "", "Write results to file")
	showVersion := fs.Bool("version", false, "Show version and exit")

	if err := c.parse(fs, args); err != nil {
		return err
	}
	if *showVersion {
		return c.printVersion(false)
	}
	if fs.NArg() > 0 {
		return usagef("unexpected argument %q", fs.Arg(0))
	}
	if *lib == "" {
		return usagef("--lib is required")
	}
	if (*keyword == "") == (*sql == "") {
		return usagef("pass exactly one of --search or --query")
	}

	req := queryRequest{root: *lib, keyword: *keyword, sql: *sql, format: c.cfg.Format, silent: *silent}
	if fs.Changed("format") {
		req.format = *format
	}
	switch req.format {
	case "csv", "json", "paths":
	default:
		return usagef("--format %q: want csv, json or paths", req.format)
	}
	c.globals.JSON = req.format == "json"

	root, err := search.ValidateRoot(*lib)
	if err != nil {
		return err
	}
	req.root = root.Abs

	backend, err := c.openIndex(false)
	if err != nil {
		return err
	}
	defer backend.Close()

	if *out == "" {
		_, err := c.execute(ctx, backend, req, c.stdout)
		return err
	}

	var buf bytes.Buffer
	if _, err := c.execute(ctx, backend, req, &buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(*out, &buf); err != nil {
		return cerrors.NewPermissionError("Cannot write results", err.Error(),
			"Check that the directory of --out exists and is writable", err)
	}
	return nil
}

// execute runs req against backend and writes the rows to w. It returns
// the number of rows read.
func (c *cli) execute(ctx context.Context, backend *storage.EmbeddedBackend, req queryRequest, w io.Writer) (int, error) {
	spinner := NewSpinner(NewProgressConfig(c.stderr, c.globals), "Querying")
	sink := newProgressSink(c.stderr, spinner)
	searcher := search.NewSearcher(backend, aqs.Generator{Catalog: backend}, c.searchOptions(sink))

	statement := req.sql
	if req.keyword != "" {
		var err error
		if statement, err = searcher.GenerateSQL(ctx, req.keyword); err != nil {
			return 0, err
		}
	}

	var n int
	err := searcher.WithCursor(ctx, req.root, statement, func(cur *search.Cursor) error {
		src := trackedSource{RowSource: cur, sink: sink}
		var err error
		n, err = project(src, req, w)
		return err
	})
	if err != nil {
		return n, fmt.Errorf("query %s: %w", req.root, err)
	}
	return n, nil
}

// project drains src into w in the requested format.
func project(src export.RowSource, req queryRequest, w io.Writer) (int, error) {
	switch {
	case req.silent:
		return export.CountRows(src)
	case req.format == "json":
		return export.WriteJSON(src, w)
	case req.format == "paths":
		return export.WritePaths(src, w)
	default:
		return export.WriteAll(src, w)
	}
}
