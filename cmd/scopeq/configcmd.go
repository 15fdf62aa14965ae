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
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	cerrors "github.com/kraklabs/scopeq/internal/errors"
	"github.com/kraklabs/scopeq/internal/ui"
)

const configUsage = `Usage: scopeq config [--save[=file]] [options]

Prints the effective configuration: the config file, then SCOPEQ_*
environment variables, then flags. With --save the result is written to
~/.scopeq/config.yaml, or to the file given.

Examples:
  scopeq config
  scopeq config --index /data/index.db --timeout 30s --save
  scopeq config --save=.scopeq/config.yaml
`

// runConfig executes the 'config' command.
func runConfig(_ context.Context, c *cli, args []string) error {
	fs := c.flagSet("config", configUsage)
	save := fs.String("save", "", "Write the configuration to this file")
	fs.Lookup("save").NoOptDefVal = "-"

	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("unexpected argument %q", fs.Arg(0))
	}

	if !fs.Changed("save") {
		if src := c.cfg.Source(); src != "" {
			ui.Infof(c.stderr, "from %s", src)
		}
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(c.cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	path := *save
	if path == "-" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cerrors.NewConfigError("Cannot locate home directory", err.Error(),
				"Pass a file to --save", err)
		}
		path = filepath.Join(home, ".scopeq", "config.yaml")
	}
	if err := c.cfg.Save(path); err != nil {
		return cerrors.NewPermissionError("Cannot save configuration", err.Error(),
			"Check that the directory is writable", err)
	}
	ui.Successf(c.stderr, "Saved configuration to %s", path)
	return nil
}
