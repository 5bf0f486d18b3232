// Package variant encodes product variant selections (size, color, ...)
// into canonical string keys used for per-combination stock tracking.
package variant

import (
	"sort"
	"strings"
)

const (
	pairSep  = ","
	valueSep = ":"
)

// GenerateKey renders a selection map as a canonical key. Entries are
// sorted by option name, so the same selections always produce the same
// key regardless of input order.
func GenerateKey(selections map[string]string) string {
	if len(selections) == 0 {
		return ""
	}

	names := make([]string, 0, len(selections))
	for name := range selections {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+valueSep+selections[name])
	}
	return strings.Join(pairs, pairSep)
}

// ParseKey is the inverse of GenerateKey. Segments without a name:value
// separator are skipped rather than treated as errors.
func ParseKey(key string) map[string]string {
	selections := make(map[string]string)
	if key == "" {
		return selections
	}

	for _, pair := range strings.Split(key, pairSep) {
		name, value, ok := strings.Cut(pair, valueSep)
		if !ok {
			continue
		}
		selections[name] = value
	}
	return selections
}

// Combinations enumerates the cartesian product of a variant schema's
// option values, each rendered through GenerateKey. An empty schema
// yields no combinations.
func Combinations(schema map[string][]string) []string {
	if len(schema) == 0 {
		return []string{}
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	selections := []map[string]string{{}}
	for _, name := range names {
		next := make([]map[string]string, 0, len(selections)*len(schema[name]))
		for _, partial := range selections {
			for _, value := range schema[name] {
				combined := make(map[string]string, len(partial)+1)
				for k, v := range partial {
					combined[k] = v
				}
				combined[name] = value
				next = append(next, combined)
			}
		}
		selections = next
	}

	keys := make([]string, 0, len(selections))
	for _, s := range selections {
		keys = append(keys, GenerateKey(s))
	}
	return keys
}

// Matches reports whether key encodes exactly one allowed value for every
// option in the schema. Partial selections fail: a key covering only some
// options would resolve against stock entries that can never exist. Used
// at write boundaries to reject drifted client keys.
func Matches(key string, schema map[string][]string) bool {
	selections := ParseKey(key)
	if len(selections) != len(schema) {
		return false
	}
	for name, value := range selections {
		allowed, ok := schema[name]
		if !ok {
			return false
		}
		found := false
		for _, v := range allowed {
			if v == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
