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
	"fmt"
	"strings"

	"github.com/kraklabs/scopeq/internal/output"
	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/variant"
)

const propsUsage = `Usage: scopeq props <file> [--mode m] [--set Name=Value ...] [--json] [options]

Shows the properties of one file, merged from the file system, the index
row and stored overrides.

Modes:
  best-effort  Read what is available (default)
  strict       Fail when any source cannot be read
  read-write   Allow --set and persist the changes
  temporary    Allow --set without persisting

Examples:
  scopeq props ~/Documents/report.pdf
  scopeq props ~/Documents/report.pdf --mode read-write --set System.Title="Q3 report"
  scopeq props ~/Documents/report.pdf --mode read-write --set System.Keywords="finance; q3"
`

// runProps executes the 'props' command.
func runProps(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("props", propsUsage)
	modeName := fs.String("mode", "best-effort", "best-effort, strict, read-write or temporary")
	sets := fs.StringArray("set", nil, "Set a property, Name=Value (repeatable)")
	jsonOut := fs.Bool("json", false, "Output as JSON")

	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("props takes exactly one file")
	}
	mode, err := propstore.ParseMode(*modeName)
	if err != nil {
		return usagef("%v", err)
	}
	if len(*sets) > 0 && !mode.Writable() {
		return usagef("--set needs --mode read-write or temporary")
	}
	c.globals.JSON = *jsonOut

	p, err := scope.NewPath(fs.Arg(0))
	if err != nil {
		return err
	}

	backend, err := c.openIndex(mode == propstore.ModeReadWrite)
	if err != nil {
		return err
	}
	defer backend.Close()

	store, err := propstore.Open(ctx, backend, p.Abs, mode, c.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, assignment := range *sets {
		if err := setProperty(ctx, backend, store, assignment); err != nil {
			return err
		}
	}
	if len(*sets) > 0 {
		if err := store.Commit(); err != nil {
			return err
		}
	}

	props, err := store.All()
	if err != nil {
		return err
	}
	return output.WriteProperties(c.stdout, p.Abs, output.Properties(ctx, backend, props), *jsonOut)
}

// setProperty applies one Name=Value assignment, parsing the value as the
// type the catalog records for the property.
func setProperty(ctx context.Context, catalog propstore.Catalog, store *propstore.Store, assignment string) error {
	name, text, ok := strings.Cut(assignment, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return usagef("--set %q: want Name=Value", assignment)
	}

	d, err := catalog.DescribeByName(ctx, name)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	value, err := variant.Parse(d.Type, text)
	if err != nil {
		return usagef("--set %s: %v", name, err)
	}
	return store.Set(d.Key, value)
}
