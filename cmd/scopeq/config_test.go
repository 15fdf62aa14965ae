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
	"os"
	"path/filepath"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/search"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, search.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "csv", cfg.Format)
	assert.Empty(t, cfg.Index)
	assert.Empty(t, cfg.Source())
}

func TestLoadConfig_HomeFile(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".scopeq"), 0o755))
	path := writeConfig(t, filepath.Join(home, ".scopeq"),
		"index: /data/index.db\ntimeout: 30s\nformat: paths\nhosts: [fileserver]\nindexing:\n  exclude: ['*.iso']\n  max_file_size: 1048576\n")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/data/index.db", cfg.Index)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "paths", cfg.Format)
	assert.Equal(t, []string{"fileserver"}, cfg.Hosts)
	assert.Equal(t, IndexingConfig{Exclude: []string{"*.iso"}, MaxFileSize: 1 << 20}, cfg.Indexing)
	assert.Equal(t, path, cfg.Source())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "index: /from/file.db\ntimeout: 30s\n")
	t.Setenv("SCOPEQ_INDEX", "/from/env.db")
	t.Setenv("SCOPEQ_TIMEOUT", "5s")
	t.Setenv("SCOPEQ_HOST", "nas, fileserver ,")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.Index)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"nas", "fileserver"}, cfg.Hosts)
}

func TestLoadConfig_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
		env  string
	}{
		{"bad yaml", "index: [unclosed\n", ""},
		{"bad format", "format: xml\n", ""},
		{"negative timeout", "timeout: -1s\n", ""},
		{"negative max size", "indexing:\n  max_file_size: -1\n", ""},
		{"bad env timeout", "", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCOPEQ_TIMEOUT", tt.env)
			_, err := LoadConfig(writeConfig(t, dir, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_ApplyFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index = "/from/file.db"

	var g GlobalFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&g.Index, "index", "", "")
	fs.StringSliceVar(&g.Hosts, "host", nil, "")
	fs.DurationVar(&g.Timeout, "timeout", 0, "")
	fs.BoolVar(&g.NoColor, "no-color", false, "")
	require.NoError(t, fs.Parse([]string{"--timeout", "2s", "--host", "a", "--host", "b"}))

	cfg.applyFlags(fs, g)
	assert.Equal(t, "/from/file.db", cfg.Index, "unset flags keep the file value")
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Hosts)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Index = "/data/index.db"
	cfg.Timeout = 90 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Index, loaded.Index)
	assert.Equal(t, cfg.Timeout, loaded.Timeout)
	assert.Equal(t, cfg.Format, loaded.Format)
}

func TestRun_Config(t *testing.T) {
	isolate(t)

	code, stdout, stderr := runCLI(t, "config", "--timeout", "45s")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "timeout: 45s")
	assert.Contains(t, stdout, "format: csv")

	code, _, stderr = runCLI(t, "config", "--index", "/data/x.db", "--save")
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(os.Getenv("HOME"), ".scopeq", "config.yaml"))

	code, stdout, _ = runCLI(t, "config")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "index: /data/x.db")
}
