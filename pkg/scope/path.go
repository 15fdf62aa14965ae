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

package scope

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned when a root cannot be canonicalized, such as a
// UNC path without a share.
var ErrInvalidPath = errors.New("invalid path")

// Path is a canonicalized scope root.
type Path struct {
	// Abs is the absolute path in its native separator form.
	Abs string

	// URL is Abs with every backslash turned into a forward slash.
	URL string

	// HostPrefix is "host." for UNC roots and empty for local roots.
	HostPrefix string
}

// NewPath canonicalizes root. Drive-letter and UNC roots are handled
// lexically with Windows rules on every platform, so the same root yields the
// same scope wherever the query is built. Other roots are made absolute
// against the working directory.
func NewPath(root string) (Path, error) {
	if strings.TrimSpace(root) == "" {
		return Path{}, fmt.Errorf("%w: empty root", ErrInvalidPath)
	}
	s := strings.ReplaceAll(root, `\`, "/")

	switch {
	case strings.HasPrefix(s, "//"):
		return uncPath(root, s[2:])
	case hasDrive(s):
		rest := strings.TrimPrefix(s[2:], "/")
		url := s[:1] + ":" + path.Clean("/"+rest)
		return Path{Abs: strings.ReplaceAll(url, "/", `\`), URL: url}, nil
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %s: %v", ErrInvalidPath, root, err)
	}
	return Path{Abs: abs, URL: strings.ReplaceAll(abs, `\`, "/")}, nil
}

func uncPath(root, rest string) (Path, error) {
	host, tail, ok := strings.Cut(rest, "/")
	if !ok || host == "" {
		return Path{}, fmt.Errorf("%w: %s: UNC path must be of the form \\\\host\\share", ErrInvalidPath, root)
	}
	tail = path.Clean("/" + tail)
	if tail == "/" {
		return Path{}, fmt.Errorf("%w: %s: UNC path has no share", ErrInvalidPath, root)
	}
	url := "//" + host + tail
	return Path{
		Abs:        strings.ReplaceAll(url, "/", `\`),
		URL:        url,
		HostPrefix: host + ".",
	}, nil
}

func hasDrive(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// IsUNC reports whether the root names a network share.
func (p Path) IsUNC() bool { return p.HostPrefix != "" }

// Host returns the UNC host, or "" for local roots.
func (p Path) Host() string { return strings.TrimSuffix(p.HostPrefix, ".") }

// Table returns the host-qualified index table name.
func (p Path) Table() string { return p.HostPrefix + Table }

// ScopeClause returns the predicate restricting rows to the subtree.
func (p Path) ScopeClause() string {
	return "SCOPE='file:" + quoteLiteral(p.URL) + "'"
}

func (p Path) String() string { return p.Abs }

// Contains reports whether item lies within the subtree named by scopeURL.
// scopeURL may carry the "file:" scheme. Comparison ignores case and
// separator style, matching how the index treats Windows paths.
func Contains(scopeURL, item string) bool {
	root := normalizeForMatch(strings.TrimPrefix(scopeURL, "file:"))
	target := normalizeForMatch(strings.TrimPrefix(item, "file:"))
	if root == "" {
		return false
	}
	if target == root {
		return true
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return strings.HasPrefix(target, root)
}

func normalizeForMatch(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, `\`, "/"))
	if len(s) > 1 && strings.HasSuffix(s, "/") && !strings.HasSuffix(s, ":/") {
		s = strings.TrimRight(s, "/")
	}
	return s
}

func quoteLiteral(s string) string { return strings.ReplaceAll(s, "'", "''") }
