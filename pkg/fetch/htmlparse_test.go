package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHTMLWithFallbackExtractsArticleTextAndTitle(t *testing.T) {
	raw := `<html><head><title>Thermodynamics 101</title></head>
<body><article><p>Heat flows from hot to cold objects spontaneously.</p></article></body></html>`

	parsed := ParseHTMLWithFallback(raw)
	assert.Equal(t, "structured", parsed.Parser)
	assert.False(t, parsed.FallbackUsed)
	assert.Equal(t, "Thermodynamics 101", parsed.Title)
	assert.Contains(t, parsed.Content, "Heat flows from hot to cold")
}

func TestParseHTMLWithFallbackSkipsScriptAndStyleText(t *testing.T) {
	raw := `<html><body><article><script>alert('x')</script><style>.a{color:red}</style><p>Real content about gravity.</p></article></body></html>`

	parsed := ParseHTMLWithFallback(raw)
	assert.NotContains(t, parsed.Content, "alert")
	assert.NotContains(t, parsed.Content, "color:red")
	assert.Contains(t, parsed.Content, "Real content about gravity")
}

func TestParseHTMLWithFallbackUsesMinimalFallbackWhenContentTooShort(t *testing.T) {
	raw := `<html><body><div class="nav">x</div></body></html>`

	parsed := ParseHTMLWithFallback(raw)
	assert.Equal(t, "minimal_fallback", parsed.Parser)
	assert.True(t, parsed.FallbackUsed)
}

func TestParseHTMLWithFallbackMinimalFallbackCapsLength(t *testing.T) {
	raw := "<div>" + strings.Repeat("word ", 2000) + "</div>"
	parsed := ParseHTMLWithFallback(raw)
	if parsed.FallbackUsed {
		assert.LessOrEqual(t, len(parsed.Content), minimalFallbackLimit)
	}
}

func TestParseHTMLWithFallbackEmptyInput(t *testing.T) {
	parsed := ParseHTMLWithFallback("")
	assert.Empty(t, parsed.Content)
}
