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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/scopeq/pkg/search"
)

// Config is the persistent configuration, .scopeq/config.yaml.
type Config struct {
	// Index is the index file; empty means ~/.scopeq/index.db.
	Index string `yaml:"index,omitempty"`

	// Hosts are the UNC host names the local index answers for.
	Hosts []string `yaml:"hosts,omitempty"`

	// Timeout bounds one statement.
	Timeout time.Duration `yaml:"timeout"`

	// Format is the default result format: csv, json or paths.
	Format string `yaml:"format"`

	NoColor bool `yaml:"no_color,omitempty"`

	Indexing IndexingConfig `yaml:"indexing,omitempty"`

	// source is the file the configuration was read from, if any.
	source string
}

// IndexingConfig tunes 'scopeq index'.
type IndexingConfig struct {
	// Exclude adds glob patterns to DefaultExcludes.
	Exclude []string `yaml:"exclude,omitempty"`

	// MaxFileSize skips larger files, in bytes. Zero means no limit.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Timeout: search.DefaultTimeout,
		Format:  "csv",
	}
}

// configCandidates lists the files LoadConfig tries when no path is given.
func configCandidates() []string {
	candidates := []string{filepath.Join(".scopeq", "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".scopeq", "config.yaml"))
	}
	return candidates
}

// LoadConfig reads the configuration file and applies environment
// overrides. An explicit path must exist; without one the first existing
// candidate is used, and none at all yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range configCandidates() {
			err := cfg.readFile(candidate)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			break
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.source = path
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCOPEQ_INDEX"); v != "" {
		c.Index = v
	}
	if v := os.Getenv("SCOPEQ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCOPEQ_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("SCOPEQ_HOST"); v != "" {
		c.Hosts = nil
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				c.Hosts = append(c.Hosts, h)
			}
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Format {
	case "csv", "json", "paths":
	default:
		return fmt.Errorf("format %q: want csv, json or paths", c.Format)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %s: must not be negative", c.Timeout)
	}
	if c.Indexing.MaxFileSize < 0 {
		return fmt.Errorf("indexing.max_file_size %d: must not be negative", c.Indexing.MaxFileSize)
	}
	return nil
}

// applyFlags overrides the configuration with flags set on the command line.
func (c *Config) applyFlags(fs *flag.FlagSet, g GlobalFlags) {
	if fs.Changed("index") {
		c.Index = g.Index
	}
	if fs.Changed("host") {
		c.Hosts = g.Hosts
	}
	if fs.Changed("timeout") {
		c.Timeout = g.Timeout
	}
	if fs.Changed("no-color") {
		c.NoColor = g.NoColor
	}
}

// Source returns the file the configuration came from, or "" for defaults.
func (c *Config) Source() string { return c.source }

// Save writes the configuration to path atomically, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
