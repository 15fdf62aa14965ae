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
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/kraklabs/scopeq/internal/bootstrap"
	cerrors "github.com/kraklabs/scopeq/internal/errors"
	"github.com/kraklabs/scopeq/internal/output"
	"github.com/kraklabs/scopeq/internal/ui"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/storage"
)

// DefaultExcludes are always skipped by 'scopeq index': editor and Office
// lock files plus shell thumbnails.
var DefaultExcludes = []string{
	"~$*",
	"*.tmp",
	"*.swp",
	"Thumbs.db",
	"desktop.ini",
	".DS_Store",
	"node_modules",
	"$RECYCLE.BIN",
}

const indexUsage = `Usage: scopeq index <dir> [options]
       scopeq index rm <path> [options]
       scopeq index stat [--json] [options]

Crawls a directory into the local index. Every file gets its name,
extension, size and modification time; the first 64 KiB of text files are
stored as System.Search.Contents. Directories starting with a dot are
skipped, as are editor lock files, thumbnails and node_modules.
Re-running updates items in place.

Exclude patterns match paths relative to <dir>: "*" stays within one
path component and "**" spans several. A pattern starting with "/" only
matches from <dir>; other patterns match at any depth. Patterns from the
config file (indexing.exclude) are added to those given on the command
line.

Examples:
  scopeq index ~/Documents
  scopeq index ~/Documents --exclude '*.iso' --exclude 'archive/**'
  scopeq index /srv/share --max-size 104857600
  scopeq index rm ~/Documents/old.txt
  scopeq index stat --json
`

// runIndex executes the 'index' command and its rm and stat forms.
func runIndex(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("index", indexUsage)
	jsonOut := fs.Bool("json", false, "Output as JSON (stat)")
	exclude := fs.StringArray("exclude", nil, "Skip paths matching this glob (repeatable)")
	maxSize := fs.Int64("max-size", 0, "Skip files larger than this many bytes (0: no limit)")

	if err := c.parse(fs, args); err != nil {
		return err
	}

	switch {
	case fs.NArg() == 1 && fs.Arg(0) == "stat":
		c.globals.JSON = *jsonOut
		return c.indexStat(ctx, *jsonOut)
	case fs.NArg() == 2 && fs.Arg(0) == "rm":
		return c.indexRemove(ctx, fs.Arg(1))
	case fs.NArg() == 1:
		if *maxSize < 0 {
			return usagef("--max-size must not be negative")
		}
		opts := storage.CrawlOptions{
			Exclude:     append(append(append([]string{}, DefaultExcludes...), c.cfg.Indexing.Exclude...), *exclude...),
			MaxFileSize: c.cfg.Indexing.MaxFileSize,
		}
		if fs.Changed("max-size") {
			opts.MaxFileSize = *maxSize
		}
		return c.indexCrawl(ctx, fs.Arg(0), opts)
	}
	return usagef("index takes a directory, 'rm <path>' or 'stat'")
}

func (c *cli) indexCrawl(ctx context.Context, dir string, opts storage.CrawlOptions) error {
	root, err := search.ValidateRoot(dir)
	if err != nil {
		return err
	}

	backend, err := c.openIndex(true)
	if err != nil {
		return err
	}
	defer backend.Close()

	spinner := NewSpinner(NewProgressConfig(c.stderr, c.globals), "Indexing")
	opts.OnFile = func(string) {
		if spinner != nil {
			_ = spinner.Add(1)
		}
	}
	stats, err := backend.CrawlWith(ctx, root.Abs, opts)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if errors.Is(err, path.ErrBadPattern) {
		return usagef("%v", err)
	}
	if err != nil {
		return err
	}

	ui.Successf(c.stderr, "Indexed %s files from %s", ui.CountText(stats.Files), root.Abs)
	if n := stats.Reasons[storage.SkipUnreadable]; n > 0 {
		ui.Warningf(c.stderr, "%d entries could not be read (run with --verbose for details)", n)
	}
	if stats.Skipped > stats.Reasons[storage.SkipUnreadable] {
		ui.Infof(c.stderr, "Skipped %s", skipSummary(stats.Reasons))
	}
	return nil
}

// skipSummary renders skip counts as "excluded: 2, too_large: 1", leaving
// out unreadable entries.
func skipSummary(reasons map[string]int) string {
	var parts []string
	for reason, n := range reasons {
		if reason != storage.SkipUnreadable {
			parts = append(parts, fmt.Sprintf("%s: %d", reason, n))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func (c *cli) indexRemove(ctx context.Context, target string) error {
	p, err := scope.NewPath(target)
	if err != nil {
		return err
	}

	backend, err := c.openIndex(false)
	if err != nil {
		return err
	}
	defer backend.Close()

	removed, err := backend.DeleteItem(ctx, p.Abs)
	if err != nil {
		return err
	}
	if !removed {
		return cerrors.NewNotFoundError("Item not indexed", p.Abs,
			"Check the path with 'scopeq --lib <root> --search <name> --format paths'")
	}
	ui.Successf(c.stderr, "Removed %s", p.Abs)
	return nil
}

func (c *cli) indexStat(ctx context.Context, jsonOut bool) error {
	backend, err := c.openIndex(false)
	if err != nil {
		return err
	}
	defer backend.Close()

	info, err := bootstrap.Stat(ctx, backend)
	if err != nil {
		return err
	}
	if jsonOut {
		return output.JSONTo(c.stdout, info)
	}
	ui.KeyValues(c.stdout, [][2]string{
		{"Index", info.Path},
		{"Items", strconv.Itoa(info.Items)},
		{"Properties", strconv.Itoa(info.Properties)},
	})
	return nil
}
