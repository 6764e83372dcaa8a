package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/semindex/internal/domain"
)

func TestNormalize_StripsMarkupAndWhitespace(t *testing.T) {
	res, err := Normalize("<p>Hello   world</p>")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, 20, res.OriginalLength)
	assert.Equal(t, 11, res.Length)
	assert.False(t, res.Truncated)
}

func TestNormalize_TagBecomesSpace(t *testing.T) {
	res, err := Normalize("first<br/>second\n\n\tthird")
	require.NoError(t, err)
	assert.Equal(t, "first second third", res.Text)
}

func TestNormalize_CollapsesUnicodeSpace(t *testing.T) {
	tests := map[string]string{
		"nbsp":           "Hello\u00a0\u00a0\u00a0world again",
		"vertical tab":   "Hello\v\v\vworld again",
		"em space":       "Hello\u2003\u2003world again",
		"mixed":          "\u00a0Hello \u2003\t\vworld\u3000again\u00a0",
		"line separator": "Hello\u2028world\u2029again",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, "Hello world again", res.Text)
		})
	}
}

func TestNormalize_TooShort(t *testing.T) {
	tests := []string{"ab ", "", "   ", "<div></div>", "<b>short</b>"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			require.ErrorIs(t, err, domain.ErrTextTooShort)
		})
	}
}

func TestNormalize_ExactMinimum(t *testing.T) {
	res, err := Normalize("0123456789")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Length)
}

func TestNormalize_Truncates(t *testing.T) {
	raw := strings.Repeat("a", DefaultMaxLength+500)
	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.True(t, strings.HasSuffix(res.Text, TruncationMarker))
	assert.Equal(t, DefaultMaxLength+len(TruncationMarker), res.Length)
	assert.Equal(t, DefaultMaxLength+500, res.OriginalLength)
}

func TestNormalize_TruncatesByRunes(t *testing.T) {
	n := Normalizer{MaxLength: 12}
	res, err := n.Normalize("привет мир и всем")
	require.NoError(t, err)
	assert.Equal(t, "привет мир и...", res.Text)
	assert.Equal(t, 15, res.Length)
}

func TestNormalize_CustomMinimum(t *testing.T) {
	n := Normalizer{MinLength: 3}
	res, err := n.Normalize(" abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Text)
}
