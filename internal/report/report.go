// Package report normalizes heterogeneous API responses. Upstream sources
// disagree on where the item list lives and what individual fields are
// called, so every accessor here takes an ordered list of candidates and
// settles for a type-appropriate default instead of returning an error.
package report

import (
	"strings"

	"github.com/tidwall/gjson"
)

// listKeys is the fallback order tried after the explicitly configured key.
var listKeys = []string{"items", "results", "data"}

// ResolveList extracts the item list from a response body. A root-level array
// is used as-is; otherwise configuredKey is tried first, then the fixed
// fallback order. A body with no recognisable list yields an empty slice.
func ResolveList(raw []byte, configuredKey string) []gjson.Result {
	root := gjson.ParseBytes(raw)
	if root.IsArray() {
		return root.Array()
	}
	keys := listKeys
	if configuredKey != "" {
		keys = append([]string{configuredKey}, listKeys...)
	}
	for _, key := range keys {
		if v := root.Get(key); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

// FirstString returns the first candidate path holding a non-empty string,
// or "" when none match.
func FirstString(item gjson.Result, candidates ...string) string {
	for _, path := range candidates {
		v := item.Get(path)
		if v.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt returns the first candidate path holding a number, or 0.
func FirstInt(item gjson.Result, candidates ...string) int {
	for _, path := range candidates {
		if v := item.Get(path); v.Type == gjson.Number {
			return int(v.Int())
		}
	}
	return 0
}

// FirstFloat returns the first candidate path holding a number, or 0.
func FirstFloat(item gjson.Result, candidates ...string) float64 {
	for _, path := range candidates {
		if v := item.Get(path); v.Type == gjson.Number {
			return v.Float()
		}
	}
	return 0
}

// FirstStringList resolves a list-valued field that may arrive as an array of
// strings, an array of objects carrying a name, or a single comma-separated
// string. Entries are trimmed and empties dropped. Candidates that resolve to
// nothing usable (e.g. an array of numeric IDs) are skipped so a later
// candidate can supply the names.
func FirstStringList(item gjson.Result, candidates ...string) []string {
	for _, path := range candidates {
		v := item.Get(path)
		if !v.Exists() {
			continue
		}
		if out := coerceList(v); len(out) > 0 {
			return out
		}
	}
	return []string{}
}

func coerceList(v gjson.Result) []string {
	var out []string
	switch {
	case v.IsArray():
		for _, el := range v.Array() {
			out = appendName(out, el)
		}
	case v.Type == gjson.String:
		for _, part := range strings.Split(v.String(), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func appendName(out []string, el gjson.Result) []string {
	switch el.Type {
	case gjson.String:
		if s := strings.TrimSpace(el.String()); s != "" {
			out = append(out, s)
		}
	case gjson.JSON:
		if s := FirstString(el, "name", "title", "slug"); s != "" {
			out = append(out, s)
		}
	}
	return out
}
