package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cmeth990/kgctl/pkg/kgschema"
)

func TestValidateParsedIntentClampsAndDedupes(t *testing.T) {
	out := ValidateParsedIntent(ParsedIntent{
		MaxSources:  0,
		MinPriority: 1.5,
		Domains:     []string{"physics", "physics", "biology"},
	})
	assert.Equal(t, 1, out.MaxSources)
	assert.Equal(t, 1.0, out.MinPriority)
	assert.Equal(t, []string{"physics", "biology"}, out.Domains)
}

func TestValidateParsedIntentClampsUpperBound(t *testing.T) {
	out := ValidateParsedIntent(ParsedIntent{MaxSources: kgschema.MaxSourcesPerDomain + 100, MinPriority: -1})
	assert.Equal(t, kgschema.MaxSourcesPerDomain, out.MaxSources)
	assert.Equal(t, 0.0, out.MinPriority)
}
