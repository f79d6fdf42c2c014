package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldUseModelShortTextForcesModel(t *testing.T) {
	result := ShouldUseModel("too short")
	assert.True(t, result.UseModel)
}

func TestShouldUseModelLongTextForcesModel(t *testing.T) {
	result := ShouldUseModel(strings.Repeat("word ", 3000))
	assert.True(t, result.UseModel)
}

func TestShouldUseModelLowConfidenceForcesModel(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over ", 3)
	result := ShouldUseModel(text)
	assert.True(t, result.UseModel)
}

func TestShouldUseModelHighConfidenceEntityRichTextSkipsModel(t *testing.T) {
	text := "Contact John Smith at john.smith@example.com or visit https://example.com on 2024-01-15. " +
		"Isaac Newton Isaac Newton Isaac Newton discussed gravity gravity gravity theory theory theory extensively extensively extensively in detail detail detail."
	result := ShouldUseModel(text)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
}

func TestSimpleNERExtractsDatesURLsEmailsAndProperNouns(t *testing.T) {
	text := "Isaac Newton published on 2024-01-15, see https://example.com or email a@b.com"
	ner := simpleNER(text)
	assert.Contains(t, ner.Dates, "2024-01-15")
	assert.Contains(t, ner.URLs, "https://example.com")
	assert.Contains(t, ner.Emails, "a@b.com")
	assert.Contains(t, ner.ProperNouns, "Isaac Newton")
}

func TestTopicNameUsesKeyValueSuffixWhenPresent(t *testing.T) {
	assert.Equal(t, "thermodynamics", topicName("domain=thermodynamics", NERResults{}))
}

func TestTopicNamePrefersFirstProperNoun(t *testing.T) {
	assert.Equal(t, "Isaac Newton", topicName("some text", NERResults{ProperNouns: []string{"Isaac Newton"}}))
}
