// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output renders scopeq command results for machines and humans.
//
// Query rows are written by pkg/export. This package covers everything
// else a command prints: property listings, keyword lists and version
// information, either as indented JSON or as aligned text.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/kraklabs/scopeq/internal/ui"
	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// JSONTo writes data as indented JSON followed by a newline.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONCompactTo writes data as single-line JSON followed by a newline.
func JSONCompactTo(w io.Writer, data any) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// Property is one entry of a property listing.
type Property struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value any    `json:"value"`
	Text  string `json:"text"`
}

// Properties converts store properties into listing entries, naming each
// through the catalog and sorting by name.
func Properties(ctx context.Context, catalog propstore.Catalog, props []propstore.Property) []Property {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		out = append(out, Property{
			Name:  propstore.NameOf(ctx, catalog, p.Key),
			Key:   p.Key.String(),
			Type:  p.Value.Tag().String(),
			Value: variant.Interface(p.Value),
			Text:  p.Value.String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WriteProperties prints a listing as JSON or as aligned "name  value" text.
func WriteProperties(w io.Writer, path string, props []Property, asJSON bool) error {
	if asJSON {
		return JSONTo(w, struct {
			Path       string     `json:"path"`
			Properties []Property `json:"properties"`
		}{path, props})
	}
	ui.Header(w, path)
	pairs := make([][2]string, 0, len(props))
	for _, p := range props {
		pairs = append(pairs, [2]string{p.Name, p.Text})
	}
	ui.KeyValues(w, pairs)
	return nil
}

// WriteKeywords prints distinct keywords, one per line or as a JSON array.
func WriteKeywords(w io.Writer, keywords []string, asJSON bool) error {
	if asJSON {
		if keywords == nil {
			keywords = []string{}
		}
		return JSONTo(w, keywords)
	}
	for _, k := range keywords {
		if _, err := fmt.Fprintln(w, k); err != nil {
			return err
		}
	}
	return nil
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// WriteVersion prints version information.
func WriteVersion(w io.Writer, v VersionInfo, asJSON bool) error {
	if asJSON {
		return JSONTo(w, v)
	}
	_, err := fmt.Fprintf(w, "scopeq %s (commit %s, built %s, %s)\n", v.Version, v.Commit, v.BuildDate, v.GoVersion)
	return err
}
