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
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// KeywordsColumn is the array-valued property AllKeywords collects.
const KeywordsColumn = "System.Keywords"

// Session is one index connection scoped to a root folder. It is not safe
// for concurrent use; open one session per goroutine.
type Session struct {
	path   scope.Path
	conn   index.Conn
	opts   Options
	logger *slog.Logger
	closed bool
}

// Open canonicalizes root and connects through dialer with index.Provider.
// It does not require root to exist; use ValidateRoot for that.
func Open(ctx context.Context, dialer index.Dialer, root string, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	p, err := scope.NewPath(root)
	if err != nil {
		return nil, err
	}

	conn, err := dialer.Connect(ctx, index.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrQueryExecution, err)
	}
	recordSessionOpened()

	opts.Logger.Debug("search.session.open",
		"root", p.Abs,
		"url", p.URL,
		"host", p.Host(),
	)
	return &Session{path: p, conn: conn, opts: opts, logger: opts.Logger}, nil
}

// Path returns the canonical scope root.
func (s *Session) Path() scope.Path { return s.path }

// Query scopes sql to the session root and submits it. The returned cursor
// must be closed.
func (s *Session) Query(ctx context.Context, sql string) (*Cursor, error) {
	scoped, err := scope.Rewrite(sql, s.path)
	if err != nil {
		recordQuery("rejected")
		return nil, fmt.Errorf("scope query: %w", err)
	}
	return s.execute(ctx, scoped)
}

// execute submits sql as given, under the session timeout.
func (s *Session) execute(ctx context.Context, sql string) (*Cursor, error) {
	if s.closed {
		return nil, ErrClosed
	}

	s.logger.Debug("search.query.start", "sql", sql, "timeout", s.opts.Timeout)

	qctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	start := time.Now()
	rows, err := s.conn.Query(qctx, sql)
	if err != nil {
		err = executionError(qctx, "submit", err)
		cancel()
		recordQuery(outcome(err))
		s.logger.Debug("search.query.error", "err", err)
		return nil, err
	}
	return newCursor(qctx, cancel, rows, start, s.opts), nil
}

// AllKeywords returns every distinct keyword assigned to an item under the
// root, sorted. The statement is built here with the scope clause inline
// rather than through the rewriter.
func (s *Session) AllKeywords(ctx context.Context) ([]string, error) {
	sql := "SELECT " + KeywordsColumn + " FROM " + s.path.Table() + " WHERE " + s.path.ScopeClause()

	cur, err := s.execute(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	set := make(map[string]struct{})
	reads, values, maxPerRead := 0, 0, 0
	for {
		row, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		reads++
		n := 0
		for _, cell := range row {
			switch v := cell.(type) {
			case variant.Strings:
				for _, kw := range v.V {
					set[kw] = struct{}{}
				}
				n += len(v.V)
			case variant.String:
				if v.V != "" {
					set[v.V] = struct{}{}
					n++
				}
			}
		}
		values += n
		maxPerRead = max(maxPerRead, n)
	}

	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	s.logger.Debug("search.keywords.done",
		"reads", reads,
		"values", values,
		"max_values_per_read", maxPerRead,
		"distinct", len(keywords),
	)
	return keywords, nil
}

// Close releases the connection. It is safe to call more than once; a
// failed release is logged, not returned.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		recordReleaseFailure()
		s.logger.Warn("search.session.release.warning", "err", err)
	}
}

// ValidateRoot canonicalizes root and requires it to be an existing
// directory.
func ValidateRoot(root string) (scope.Path, error) {
	p, err := scope.NewPath(root)
	if err != nil {
		return scope.Path{}, err
	}
	info, err := os.Stat(p.Abs)
	if err != nil {
		return scope.Path{}, fmt.Errorf("%w: %s: %w", ErrInvalidPath, p.Abs, err)
	}
	if !info.IsDir() {
		return scope.Path{}, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, p.Abs)
	}
	return p, nil
}
