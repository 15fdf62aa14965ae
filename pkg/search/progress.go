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
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a query when Options.Timeout is zero.
const DefaultTimeout = 600 * time.Second

// Progress receives human-readable diagnostics: the generated SQL of a
// keyword search, row counts and timings. It never affects results.
type Progress interface {
	Report(msg string)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(msg string)

// Report implements Progress.
func (f ProgressFunc) Report(msg string) { f(msg) }

// Options configures sessions and searchers.
type Options struct {
	// Timeout bounds one statement, from submission until its cursor is
	// closed. Zero means DefaultTimeout.
	Timeout time.Duration

	// Progress is optional.
	Progress Progress

	// Logger is optional; nil uses slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) report(format string, args ...any) {
	if o.Progress != nil {
		o.Progress.Report(fmt.Sprintf(format, args...))
	}
}

// FormatElapsed renders d as whole seconds and zero-padded milliseconds,
// e.g. "12.045".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%d.%03d", d/time.Second, (d%time.Second)/time.Millisecond)
}
