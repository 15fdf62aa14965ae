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

package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/scopeq/pkg/variant"
)

// toColumn converts a value into its SQLite storage form. Multi-valued
// arms are stored as JSON arrays and times as RFC 3339 text in UTC, so that
// text comparison orders them.
func toColumn(v variant.Value) (any, error) {
	switch v := v.(type) {
	case nil, variant.Empty, variant.Null:
		return nil, nil
	case variant.Int:
		return v.V, nil
	case variant.Uint:
		if v.V > math.MaxInt64 {
			return strconv.FormatUint(v.V, 10), nil
		}
		return int64(v.V), nil
	case variant.Float:
		return v.V, nil
	case variant.Bool:
		if v.V {
			return int64(1), nil
		}
		return int64(0), nil
	case variant.Currency:
		return float64(v.Scaled) / 10000, nil
	case variant.Date:
		return formatTime(v.V), nil
	case variant.FileTime:
		return formatTime(v.V), nil
	case variant.ErrorCode:
		return int64(v.Code), nil
	case variant.String:
		return v.V, nil
	case variant.Strings:
		b, err := json.Marshal(v.V)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case variant.Float64s:
		b, err := json.Marshal(v.V)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case variant.Decimal, variant.Unsupported:
		return v.String(), nil
	}
	return nil, fmt.Errorf("%w: %T", variant.ErrUnsupported, v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// fromColumn is the inverse of toColumn for a column of type vt. Columns
// outside the catalog pass vt 0 and get a type inferred from the storage
// class.
func fromColumn(x any, vt variant.Tag) (variant.Value, error) {
	if x == nil {
		return variant.Empty{}, nil
	}
	if b, ok := x.([]byte); ok {
		x = string(b)
	}

	switch vt {
	case variant.TagEmpty:
		return inferValue(x), nil
	case variant.TagI1, variant.TagI2, variant.TagI4, variant.TagI8, variant.TagInt:
		n, err := asInt(x)
		return variant.Int{T: vt, V: n}, err
	case variant.TagUI1, variant.TagUI2, variant.TagUI4, variant.TagUI8, variant.TagUInt:
		if s, ok := x.(string); ok {
			n, err := strconv.ParseUint(s, 10, 64)
			return variant.Uint{T: vt, V: n}, err
		}
		n, err := asInt(x)
		return variant.Uint{T: vt, V: uint64(n)}, err
	case variant.TagR4, variant.TagR8:
		f, err := asFloat(x)
		return variant.Float{T: vt, V: f}, err
	case variant.TagBool:
		n, err := asInt(x)
		return variant.Bool{V: n != 0}, err
	case variant.TagFileTime, variant.TagDate:
		t, err := asTime(x)
		if vt == variant.TagDate {
			return variant.Date{V: t}, err
		}
		return variant.FileTime{V: t}, err
	case variant.TagLPStr, variant.TagLPWStr, variant.TagBSTR:
		return variant.String{T: vt, V: fmt.Sprint(x)}, nil
	case variant.TagVectorLPWStr:
		var out []string
		if err := unmarshalList(x, &out); err != nil {
			return nil, err
		}
		return variant.Strings{V: out}, nil
	case variant.TagVectorR8:
		var out []float64
		if err := unmarshalList(x, &out); err != nil {
			return nil, err
		}
		return variant.Float64s{V: out}, nil
	}
	return variant.Parse(vt, fmt.Sprint(x))
}

func inferValue(x any) variant.Value {
	switch x := x.(type) {
	case int64:
		return variant.Int{T: variant.TagI8, V: x}
	case float64:
		return variant.Float{T: variant.TagR8, V: x}
	case bool:
		return variant.Bool{V: x}
	case time.Time:
		return variant.FileTime{V: x.UTC()}
	}
	return variant.String{T: variant.TagLPWStr, V: fmt.Sprint(x)}
}

func asInt(x any) (int64, error) {
	switch x := x.(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("not an integer: %T", x)
}

func asFloat(x any) (float64, error) {
	switch x := x.(type) {
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("not a number: %T", x)
}

func asTime(x any) (time.Time, error) {
	switch x := x.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, variant.TimeLayout, time.DateOnly} {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("not a time: %q", x)
	case int64:
		return variant.FileTimeToTime(x), nil
	}
	return time.Time{}, fmt.Errorf("not a time: %T", x)
}

// unmarshalList accepts a JSON array or, for hand-written rows, a
// "; "-separated list.
func unmarshalList(x any, out any) error {
	s := fmt.Sprint(x)
	if len(s) > 0 && s[0] == '[' {
		return json.Unmarshal([]byte(s), out)
	}
	switch out := out.(type) {
	case *[]string:
		*out = variant.SplitList(s)
	case *[]float64:
		for _, part := range variant.SplitList(s) {
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return err
			}
			*out = append(*out, f)
		}
	}
	return nil
}

// columnText is the text a cell contributes to the full-text column.
func columnText(v variant.Value) string {
	switch v := v.(type) {
	case variant.Strings:
		return strings.Join(v.V, " ")
	case nil, variant.Empty, variant.Null:
		return ""
	}
	return v.String()
}
