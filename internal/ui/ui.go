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

// Package ui provides terminal message helpers for the scopeq CLI.
//
// Messages go to an explicit writer, normally stderr, so that stdout
// carries nothing but result rows. Colors respect the --no-color flag and
// the NO_COLOR environment variable, and are off when the writer is not a
// terminal.
//
//   - Red: errors
//   - Yellow: warnings, skipped items
//   - Green: completions
//   - Cyan: counts and informational notes
//   - Bold: labels
//   - Dim: paths and SQL
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output. Colors are disabled when
// noColor is set, NO_COLOR is present, or stderr is not a terminal.
func InitColors(noColor bool) {
	color.NoColor = noColor || os.Getenv("NO_COLOR") != "" || !IsTerminal(os.Stderr)
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Successf prints a green completion line.
func Successf(w io.Writer, format string, args ...any) {
	_, _ = Green.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warningf prints a yellow warning line.
func Warningf(w io.Writer, format string, args ...any) {
	_, _ = Yellow.Fprintf(w, "⚠ "+format+"\n", args...)
}

// Errorf prints a red error line.
func Errorf(w io.Writer, format string, args ...any) {
	_, _ = Red.Fprintf(w, "✗ "+format+"\n", args...)
}

// Infof prints a cyan note.
func Infof(w io.Writer, format string, args ...any) {
	_, _ = Cyan.Fprintf(w, "ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline.
func Header(w io.Writer, text string) {
	_, _ = Bold.Fprintln(w, text)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(text))))
}

// Label returns a bold label for inline use.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns text for less important details such as SQL and paths.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a cyan count.
func CountText(count int) string { return Cyan.Sprint(count) }

// KeyValues prints aligned "label  value" lines. Multi-line values are
// indented under their first line.
func KeyValues(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, len([]rune(p[0])))
	}
	pad := strings.Repeat(" ", width+2)
	for _, p := range pairs {
		label := p[0] + strings.Repeat(" ", width-len([]rune(p[0])))
		value := strings.ReplaceAll(p[1], "\n", "\n"+pad)
		fmt.Fprintf(w, "%s  %s\n", Label(label), value)
	}
}
