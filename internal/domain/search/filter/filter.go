// Package filter holds the opaque equality filter passed through to the store.
package filter

import (
	"fmt"
	"sort"
)

// EmbeddingPresent is the reserved predicate key selecting documents with
// (true) or without (false) a stored vector.
const EmbeddingPresent = "embeddingPresent"

// Filter maps field names to expected values. A list value matches any of
// its elements. The search path never interprets the contents beyond
// merging the EmbeddingPresent predicate.
type Filter map[string]any

// WithEmbedding returns a copy of f with the EmbeddingPresent predicate set.
// The predicate wins over a caller-supplied value under the same key.
func (f Filter) WithEmbedding(present bool) Filter {
	merged := make(Filter, len(f)+1)
	for k, v := range f {
		merged[k] = v
	}
	merged[EmbeddingPresent] = present
	return merged
}

// Keys returns the filter keys in sorted order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Embedding reports the EmbeddingPresent predicate, if set.
func (f Filter) Embedding() (present, ok bool) {
	v, ok := f[EmbeddingPresent]
	if !ok {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// Matches evaluates the filter against a document's fields.
func (f Filter) Matches(fields map[string]any, hasVector bool) bool {
	for k, want := range f {
		if k == EmbeddingPresent {
			if present, ok := want.(bool); ok && present != hasVector {
				return false
			}
			continue
		}
		got, ok := fields[k]
		if !ok || !matchValue(want, got) {
			return false
		}
	}
	return true
}

func matchValue(want, got any) bool {
	switch w := want.(type) {
	case []any:
		for _, item := range w {
			if matchValue(item, got) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range w {
			if matchValue(item, got) {
				return true
			}
		}
		return false
	}

	// A stored list matches when any element equals the wanted scalar.
	if list, ok := got.([]any); ok {
		for _, item := range list {
			if scalarEqual(want, item) {
				return true
			}
		}
		return false
	}
	return scalarEqual(want, got)
}

func scalarEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
