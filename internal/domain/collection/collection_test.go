package collection

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/semindex/internal/domain"
)

func TestNewFieldMap_FallbackFields(t *testing.T) {
	m, err := NewFieldMap(map[string][]string{
		"articles": nil,
		"products": {"name", "description"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := m.Fields("articles")
	if !ok {
		t.Fatal("articles must be configured")
	}
	if !reflect.DeepEqual(got, DefaultFields) {
		t.Errorf("Fields(articles) = %v, want fallback list", got)
	}

	got, _ = m.Fields("products")
	if !reflect.DeepEqual(got, []string{"name", "description"}) {
		t.Errorf("Fields(products) = %v", got)
	}
}

func TestNewFieldMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   map[string][]string
	}{
		{"bad name", map[string][]string{"a b": nil}},
		{"empty field", map[string][]string{"a": {"title", " "}}},
		{"duplicate field", map[string][]string{"a": {"title", "title"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFieldMap(tt.in, nil)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestFieldMap_Names(t *testing.T) {
	m, _ := NewFieldMap(map[string][]string{"blogs": nil, "articles": nil}, nil)
	if got := m.Names(); !reflect.DeepEqual(got, []string{"articles", "blogs"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestFieldMap_Indexable(t *testing.T) {
	m, _ := NewFieldMap(map[string][]string{
		"articles":  nil,
		"_sessions": nil,
		"audit":     nil,
	}, []string{"audit"})

	tests := []struct {
		name string
		want bool
	}{
		{"articles", true},
		{"_sessions", false},
		{"audit", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Indexable(tt.name); got != tt.want {
				t.Errorf("Indexable(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
