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
	"runtime"

	"github.com/kraklabs/scopeq/internal/output"
	"github.com/kraklabs/scopeq/pkg/search"
)

const keywordsUsage = `Usage: scopeq keywords --lib <root> [--json] [options]

Lists the distinct System.Keywords values of every item under the library
root, sorted. Read statistics are printed to stderr.
`

// runKeywords executes the 'keywords' command.
func runKeywords(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("keywords", keywordsUsage)
	lib := fs.String("lib", "", "Library root")
	jsonOut := fs.Bool("json", false, "Output as JSON")

	if err := c.parse(fs, args); err != nil {
		return err
	}
	if *lib == "" {
		return usagef("--lib is required")
	}
	c.globals.JSON = *jsonOut

	root, err := search.ValidateRoot(*lib)
	if err != nil {
		return err
	}

	backend, err := c.openIndex(false)
	if err != nil {
		return err
	}
	defer backend.Close()

	searcher := search.NewSearcher(backend, nil, c.searchOptions(newProgressSink(c.stderr, nil)))
	keywords, err := searcher.AllKeywords(ctx, root.Abs)
	if err != nil {
		return err
	}
	return output.WriteKeywords(c.stdout, keywords, *jsonOut)
}

const versionUsage = `Usage: scopeq version [--json]
`

// runVersion executes the 'version' command.
func runVersion(_ context.Context, c *cli, args []string) error {
	fs := c.flagSet("version", versionUsage)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	return c.printVersion(*jsonOut)
}

func (c *cli) printVersion(jsonOut bool) error {
	return output.WriteVersion(c.stdout, output.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
	}, jsonOut)
}
