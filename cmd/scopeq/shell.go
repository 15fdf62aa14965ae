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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	cerrors "github.com/kraklabs/scopeq/internal/errors"
	"github.com/kraklabs/scopeq/internal/output"
	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/storage"
)

const shellUsage = `Usage: scopeq shell --lib <root> [options]

Starts an interactive shell scoped to the library root. Lines starting
with SELECT run as SQL; anything else is a keyword search.

Shell commands:
  .help               Show this help
  .lib <root>         Change the library root
  .format <f>         csv, json or paths
  .keywords           List distinct keywords under the root
  .props <file>       Show the properties of a file
  .quit               Leave the shell (also Ctrl-D)
`

// runShell executes the 'shell' command.
func runShell(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("shell", shellUsage)
	lib := fs.String("lib", "", "Library root")

	if err := c.parse(fs, args); err != nil {
		return err
	}
	if *lib == "" {
		return usagef("--lib is required")
	}
	if _, err := search.ValidateRoot(*lib); err != nil {
		return err
	}

	backend, err := c.openIndex(false)
	if err != nil {
		return err
	}
	defer backend.Close()

	sh := &shell{c: c, backend: backend, root: *lib, format: c.cfg.Format}
	return sh.run(ctx)
}

// shell is the interactive query loop.
type shell struct {
	c       *cli
	backend *storage.EmbeddedBackend
	root    string
	format  string
	liner   *liner.State
}

// historyFile returns the path to the shell history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scopeq", "history")
}

func (s *shell) run(ctx context.Context) error {
	s.liner = liner.NewLiner()
	defer s.liner.Close()

	s.liner.SetCtrlCAborts(true)
	s.liner.SetCompleter(s.complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = s.liner.ReadHistory(f)
		f.Close()
	}
	defer s.saveHistory()

	fmt.Fprintf(s.c.stderr, "scopeq %s, library %s\nType .help for commands.\n", version, s.root)

	for {
		line, err := s.liner.Prompt("scopeq> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.c.stderr)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.liner.AppendHistory(line)

		quit, err := s.dispatch(ctx, line)
		if err != nil {
			cerrors.Report(s.c.stderr, err, false, s.c.globals.Verbose)
		}
		if quit {
			return nil
		}
	}
}

// dispatch runs one input line and reports whether the shell should exit.
func (s *shell) dispatch(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, ".") {
		req := queryRequest{root: s.root, format: s.format}
		if strings.EqualFold(firstWord(line), "select") {
			req.sql = line
		} else {
			req.keyword = line
		}
		_, err := s.c.execute(ctx, s.backend, req, s.c.stdout)
		return false, err
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case ".quit", ".exit", ".q":
		return true, nil

	case ".help", ".h":
		fmt.Fprint(s.c.stdout, shellUsage)

	case ".lib":
		if arg == "" {
			fmt.Fprintln(s.c.stdout, s.root)
			return false, nil
		}
		if _, err := search.ValidateRoot(arg); err != nil {
			return false, err
		}
		s.root = arg

	case ".format":
		switch arg {
		case "csv", "json", "paths":
			s.format = arg
		case "":
			fmt.Fprintln(s.c.stdout, s.format)
		default:
			return false, cerrors.NewInputError("Unknown format", arg, "Use csv, json or paths")
		}

	case ".keywords":
		searcher := search.NewSearcher(s.backend, nil, s.c.searchOptions(newProgressSink(s.c.stderr, nil)))
		keywords, err := searcher.AllKeywords(ctx, s.root)
		if err != nil {
			return false, err
		}
		return false, output.WriteKeywords(s.c.stdout, keywords, s.format == "json")

	case ".props":
		if arg == "" {
			return false, cerrors.NewInputError("Missing file", ".props needs a path", "Type .props <file>")
		}
		return false, s.props(ctx, arg)

	default:
		return false, cerrors.NewInputError("Unknown shell command", cmd, "Type .help for commands")
	}
	return false, nil
}

func (s *shell) props(ctx context.Context, file string) error {
	p, err := scope.NewPath(file)
	if err != nil {
		return err
	}
	store, err := propstore.Open(ctx, s.backend, p.Abs, propstore.ModeBestEffort, s.c.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	props, err := store.All()
	if err != nil {
		return err
	}
	return output.WriteProperties(s.c.stdout, p.Abs, output.Properties(ctx, s.backend, props), s.format == "json")
}

// complete offers shell commands and property names.
func (s *shell) complete(line string) []string {
	var candidates []string
	if strings.HasPrefix(line, ".") {
		for _, cmd := range []string{".help", ".lib ", ".format ", ".keywords", ".props ", ".quit"} {
			if strings.HasPrefix(cmd, line) {
				candidates = append(candidates, cmd)
			}
		}
		return candidates
	}

	i := strings.LastIndexAny(line, " (,") + 1
	head, word := line[:i], line[i:]
	if word == "" {
		return nil
	}
	for _, d := range s.backend.Properties() {
		if strings.HasPrefix(strings.ToLower(d.CanonicalName), strings.ToLower(word)) {
			candidates = append(candidates, head+d.CanonicalName)
		}
	}
	sort.Strings(candidates)
	return candidates
}

func (s *shell) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = s.liner.WriteHistory(f)
		f.Close()
	}
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
