// Package collection maps configured collections to the fields that feed
// their embeddings.
package collection

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/semindex/internal/domain"
)

// DefaultFields is used for a configured collection without an explicit list.
var DefaultFields = []string{"title", "name", "content", "body", "summary", "description", "excerpt"}

// InternalPrefix marks system collections that are never indexed.
const InternalPrefix = "_"

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// FieldMap is an immutable mapping from collection id to ordered field names.
type FieldMap struct {
	fields   map[string][]string
	excluded map[string]bool
}

// NewFieldMap validates the configured collections. A nil or empty field list
// selects DefaultFields.
func NewFieldMap(collections map[string][]string, excluded []string) (FieldMap, error) {
	m := FieldMap{
		fields:   make(map[string][]string, len(collections)),
		excluded: make(map[string]bool, len(excluded)),
	}
	for name, fields := range collections {
		if err := ValidateName(name); err != nil {
			return FieldMap{}, err
		}
		if len(fields) == 0 {
			m.fields[name] = DefaultFields
			continue
		}
		seen := make(map[string]bool, len(fields))
		list := make([]string, 0, len(fields))
		for _, f := range fields {
			f = strings.TrimSpace(f)
			if f == "" {
				return FieldMap{}, fmt.Errorf("collection %q: empty field name: %w", name, domain.ErrInvalidInput)
			}
			if seen[f] {
				return FieldMap{}, fmt.Errorf("collection %q: duplicate field %q: %w", name, f, domain.ErrInvalidInput)
			}
			seen[f] = true
			list = append(list, f)
		}
		m.fields[name] = list
	}
	for _, name := range excluded {
		m.excluded[name] = true
	}
	return m, nil
}

// ValidateName checks a collection id.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required: %w", domain.ErrInvalidInput)
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64): %w", domain.ErrInvalidInput)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens: %w", domain.ErrInvalidInput)
	}
	return nil
}

// Has reports whether the collection is configured.
func (m FieldMap) Has(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// Fields returns the ordered field names for a configured collection.
func (m FieldMap) Fields(name string) ([]string, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Names returns the configured collection ids in sorted order.
func (m FieldMap) Names() []string {
	names := make([]string, 0, len(m.fields))
	for name := range m.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsInternal reports whether a collection is a system collection that must
// never be auto-indexed.
func (m FieldMap) IsInternal(name string) bool {
	return strings.HasPrefix(name, InternalPrefix) || m.excluded[name]
}

// Indexable reports whether writes to the collection get embeddings.
func (m FieldMap) Indexable(name string) bool {
	return m.Has(name) && !m.IsInternal(name)
}
