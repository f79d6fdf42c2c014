package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryForDomainKeywordMatch(t *testing.T) {
	assert.Equal(t, "mathematics", CategoryForDomain("Linear Algebra"))
	assert.Equal(t, "natural_sciences", CategoryForDomain("Organic Chemistry"))
	assert.Equal(t, "health_medicine", CategoryForDomain("Clinical Medicine"))
}

func TestCategoryForDomainFallsBackToInterdisciplinary(t *testing.T) {
	assert.Equal(t, "interdisciplinary", CategoryForDomain("Xenolinguistic Futures Studies Quark"))
}

func TestAnnotateReturnsConsistentTriple(t *testing.T) {
	category, upper, role := Annotate("Calculus")
	assert.Equal(t, "mathematics", category)
	assert.Equal(t, UpperOntologyRelations, upper)
	assert.Equal(t, ORPRelations, role)
}

func TestCategoriesAgreeWithUpperOntologyRoles(t *testing.T) {
	roleByOntology := make(map[UpperOntologyKey]ORPRole, len(UpperOntologies))
	for _, uo := range UpperOntologies {
		roleByOntology[uo.Key] = uo.ORPRole
	}
	for key, cat := range Categories {
		assert.Equal(t, roleByOntology[cat.UpperOntology], cat.ORPRole, "category %s", key)
	}
}
