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

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kraklabs/scopeq/pkg/variant"
)

// MaxContentBytes bounds how much of a text file Crawl stores as contents.
const MaxContentBytes = 64 << 10

// SummaryRunes bounds the summary Crawl derives from file contents.
const SummaryRunes = 160

// Skip reasons reported in CrawlStats.Reasons.
const (
	SkipExcludedDir = "excluded_dir"
	SkipExcluded    = "excluded"
	SkipTooLarge    = "too_large"
	SkipUnreadable  = "unreadable"
)

// CrawlOptions tunes a crawl. The zero value indexes every regular file
// outside dot-directories.
type CrawlOptions struct {
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the crawl root. "*" and "?" stay within one path
	// component, "**" spans any number of them, and a pattern without a
	// leading "**/" or "/" may match at any depth.
	Exclude []string

	// MaxFileSize skips files larger than this many bytes. Zero means no
	// limit.
	MaxFileSize int64

	// OnFile is called after each file is indexed.
	OnFile func(path string)
}

// CrawlStats summarises a crawl.
type CrawlStats struct {
	Files   int
	Skipped int
	Reasons map[string]int
}

func (s *CrawlStats) skip(reason string) {
	s.Skipped++
	if s.Reasons == nil {
		s.Reasons = map[string]int{}
	}
	s.Reasons[reason]++
	recordCrawlSkip(reason)
}

// Crawl walks root and upserts every regular file it finds. Directories
// whose name starts with a dot are skipped. Unreadable entries are logged
// and counted, not fatal.
func (b *EmbeddedBackend) Crawl(ctx context.Context, root string) (CrawlStats, error) {
	return b.CrawlWith(ctx, root, CrawlOptions{})
}

// CrawlWith is Crawl with exclusion, size and progress options.
func (b *EmbeddedBackend) CrawlWith(ctx context.Context, root string, opts CrawlOptions) (CrawlStats, error) {
	var stats CrawlStats
	abs, err := filepath.Abs(root)
	if err != nil {
		return stats, fmt.Errorf("crawl %s: %w", root, err)
	}
	for _, pattern := range opts.Exclude {
		if _, err := path.Match(strings.ReplaceAll(pattern, "**", "*"), ""); err != nil {
			return stats, fmt.Errorf("crawl %s: exclude pattern %q: %w", root, pattern, err)
		}
	}

	start := time.Now()
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			b.logger.Warn("storage.crawl.skip", "path", p, "err", walkErr)
			stats.skip(SkipUnreadable)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == abs {
			return nil
		}
		rel, _ := filepath.Rel(abs, p)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if excluded(rel, opts.Exclude) {
				b.logger.Debug("storage.crawl.exclude", "path", rel, "reason", SkipExcludedDir)
				stats.skip(SkipExcludedDir)
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if excluded(rel, opts.Exclude) {
			b.logger.Debug("storage.crawl.exclude", "path", rel, "reason", SkipExcluded)
			stats.skip(SkipExcluded)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			b.logger.Warn("storage.crawl.skip", "path", p, "err", err)
			stats.skip(SkipUnreadable)
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			b.logger.Debug("storage.crawl.exclude", "path", rel, "reason", SkipTooLarge, "size", info.Size())
			stats.skip(SkipTooLarge)
			return nil
		}

		props := fileProperties(p, info)
		if text, ok := readText(p); ok {
			props["System.Search.Contents"] = variant.String{T: variant.TagLPWStr, V: text}
			props["System.Search.AutoSummary"] = variant.String{T: variant.TagLPWStr, V: summarize(text)}
		}
		if err := b.UpsertItem(ctx, Item{Path: p, Properties: props}); err != nil {
			return err
		}
		stats.Files++
		recordCrawlFile()
		if opts.OnFile != nil {
			opts.OnFile(p)
		}
		return nil
	})
	recordCrawlDuration(time.Since(start))
	if err != nil {
		return stats, fmt.Errorf("crawl %s: %w", root, err)
	}

	b.logger.Info("storage.crawl.done", "root", abs, "files", stats.Files, "skipped", stats.Skipped,
		"elapsed", time.Since(start))
	return stats, nil
}

// excluded reports whether rel matches any of the patterns.
func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchGlob(rel, pattern) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated relative path against a pattern. A
// pattern anchored with "/" matches from the root only; otherwise it may
// start at any component. A trailing "/**" also matches the directory
// itself.
func matchGlob(rel, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.Trim(pattern, "/")
	if pattern == "" {
		return false
	}
	pat := strings.Split(pattern, "/")
	if !anchored && pat[0] != "**" {
		pat = append([]string{"**"}, pat...)
	}
	return matchSegments(strings.Split(rel, "/"), pat)
}

func matchSegments(segs, pat []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(segs[i:], rest) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], segs[0]); !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

// fileProperties returns the properties os.Stat yields for a file.
func fileProperties(path string, info fs.FileInfo) map[string]variant.Value {
	props := derivedProperties(path)
	props[ColumnPath] = variant.String{T: variant.TagLPWStr, V: path}
	props[ColumnModified] = variant.FileTime{V: info.ModTime().UTC()}
	if info.IsDir() {
		props["System.ItemType"] = variant.String{T: variant.TagLPWStr, V: "Directory"}
		props["System.Kind"] = variant.Strings{V: []string{"folder"}}
		return props
	}
	props[ColumnSize] = variant.Uint{T: variant.TagUI8, V: uint64(info.Size())}
	if ext, ok := props[ColumnExtension]; ok {
		props["System.ItemType"] = ext
	}
	return props
}

// readText returns the head of a file when it looks like UTF-8 text.
func readText(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, MaxContentBytes))
	if err != nil || bytes.IndexByte(buf, 0) >= 0 {
		return "", false
	}
	// A cut in the middle of a rune is not a reason to reject the file.
	for i := 0; i < utf8.UTFMax && len(buf) > 0 && !utf8.Valid(buf); i++ {
		buf = buf[:len(buf)-1]
	}
	if !utf8.Valid(buf) {
		return "", false
	}
	return string(buf), true
}

// summarize collapses whitespace and keeps the first SummaryRunes runes.
func summarize(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) <= SummaryRunes {
		return s
	}
	r := []rune(s)
	return string(r[:SummaryRunes]) + "..."
}
