// Package text prepares raw document text for embedding.
package text

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/semindex/internal/domain"
)

// Default limits.
const (
	DefaultMaxLength = 8000
	DefaultMinLength = 10
	// TruncationMarker is appended after a hard cut at MaxLength.
	TruncationMarker = "..."
)

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// Normalizer strips markup, collapses whitespace and bounds text length.
// The zero value uses the default limits.
type Normalizer struct {
	MaxLength int
	MinLength int
}

// Result is the normalized text with its before/after rune lengths.
type Result struct {
	Text           string
	OriginalLength int
	Length         int
	Truncated      bool
}

// Normalize applies the default limits.
func Normalize(raw string) (Result, error) {
	return Normalizer{}.Normalize(raw)
}

// Normalize cleans raw text. It fails with domain.ErrTextTooShort when fewer
// than MinLength characters remain.
func (n Normalizer) Normalize(raw string) (Result, error) {
	maxLen, minLen := n.limits()

	s := tagRegex.ReplaceAllString(raw, " ")
	// Fields splits on any Unicode space, NBSP and \v included.
	s = strings.Join(strings.Fields(s), " ")

	res := Result{OriginalLength: utf8.RuneCountInString(raw)}

	length := utf8.RuneCountInString(s)
	if length > maxLen {
		// Hard cut, may split a word.
		s = string([]rune(s)[:maxLen]) + TruncationMarker
		length = utf8.RuneCountInString(s)
		res.Truncated = true
	}

	if length < minLen {
		return Result{}, fmt.Errorf("%d characters after normalization, need %d: %w",
			length, minLen, domain.ErrTextTooShort)
	}

	res.Text = s
	res.Length = length
	return res, nil
}

func (n Normalizer) limits() (maxLen, minLen int) {
	maxLen, minLen = n.MaxLength, n.MinLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	return maxLen, minLen
}
