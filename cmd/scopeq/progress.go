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
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/scopeq/pkg/export"
	"github.com/kraklabs/scopeq/pkg/search"
)

// ProgressConfig determines if and how the spinner is displayed.
type ProgressConfig struct {
	// Enabled is false when the writer is not a terminal or --verbose is
	// set, since debug logs would tear the spinner line.
	Enabled bool

	// Writer is where progress output goes.
	Writer io.Writer

	// NoColor disables colored output in the spinner.
	NoColor bool
}

// NewProgressConfig creates a progress configuration for w.
func NewProgressConfig(w io.Writer, globals GlobalFlags) ProgressConfig {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = !globals.Verbose && isatty.IsTerminal(f.Fd())
	}
	return ProgressConfig{Enabled: enabled, Writer: w, NoColor: globals.NoColor}
}

// NewSpinner creates a spinner that counts rows while a query streams.
// Returns nil if progress is disabled.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// progressSink prints search diagnostics one per line, clearing the
// spinner first so the two never share a line.
type progressSink struct {
	mu      sync.Mutex
	w       io.Writer
	spinner *progressbar.ProgressBar
}

var _ search.Progress = (*progressSink)(nil)

func newProgressSink(w io.Writer, spinner *progressbar.ProgressBar) *progressSink {
	return &progressSink{w: w, spinner: spinner}
}

// Report implements search.Progress.
func (p *progressSink) Report(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spinner != nil {
		_ = p.spinner.Finish()
		p.spinner = nil
	}
	fmt.Fprintln(p.w, msg)
}

// tick advances the spinner by one row.
func (p *progressSink) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spinner != nil {
		_ = p.spinner.Add(1)
	}
}

// trackedSource ticks the spinner for every row a projector reads.
type trackedSource struct {
	export.RowSource
	sink *progressSink
}

func (t trackedSource) Next() (search.Row, error) {
	row, err := t.RowSource.Next()
	if err == nil {
		t.sink.tick()
	}
	return row, err
}
