// Package buildhash computes content-addressed definition hashes for
// build nodes and propagates them across the dependency graph.
//
// A node's hash covers exactly the configuration that affects its built
// image, including the hashes of its direct dependencies, so any change to
// a transitive dependency changes every downstream hash.
package buildhash

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Normalize renders a nested value as canonical, order-stable text
// suitable for hashing.
//
// Map keys are sorted lexicographically; sequence order is preserved
// because it is semantically significant (source declarations, dependency
// lists). Strings are quoted so the nil literal ("null") can never collide
// with a string value. Two values normalize identically iff they are equal
// under key-order-insensitive, sequence-order-sensitive equality.
func Normalize(v any) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(strconv.Quote(val))
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case int:
		sb.WriteString(strconv.Itoa(val))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case map[string]any:
		writeMap(sb, val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		writeMap(sb, m)
	case []any:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, elem)
		}
		sb.WriteByte(']')
	case []string:
		elems := make([]any, len(val))
		for i, s := range val {
			elems[i] = s
		}
		writeValue(sb, elems)
	default:
		// Keeps Normalize total; the extractor only emits the types above.
		sb.WriteString(strconv.Quote(fmt.Sprint(val)))
	}
}

func writeMap(sb *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(k))
		sb.WriteByte(':')
		writeValue(sb, m[k])
	}
	sb.WriteByte('}')
}
