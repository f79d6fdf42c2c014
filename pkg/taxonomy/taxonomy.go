// Package taxonomy holds the static domain-category reference data used by
// the writer to annotate Concept nodes with a category, upper-ontology, and
// ORP role. The full ~300-domain taxonomy is treated as external static
// data; this package carries the two levels above it: the 3 upper-ontology
// groups and their 12 member categories.
package taxonomy

import "strings"

// UpperOntologyKey identifies one of the three top-level ORP groupings.
type UpperOntologyKey string

// Recognized upper-ontology keys.
const (
	UpperOntologyEntities  UpperOntologyKey = "entities"
	UpperOntologyRelations UpperOntologyKey = "relations"
	UpperOntologyEvents    UpperOntologyKey = "events_processes"
)

// ORPRole is the Object/Relation/Process role a category or concept plays.
type ORPRole string

// Recognized ORP roles.
const (
	ORPObjects   ORPRole = "Objects"
	ORPRelations ORPRole = "Relations"
	ORPProcesses ORPRole = "Processes"
)

// UpperOntology describes one of the three root groupings.
type UpperOntology struct {
	Key         UpperOntologyKey
	Label       string
	Description string
	ORPRole     ORPRole
}

// UpperOntologies lists the three upper-ontology groups, in a stable order.
var UpperOntologies = []UpperOntology{
	{
		Key:         UpperOntologyEntities,
		Label:       "Entities",
		Description: "Concrete/abstract objects; domains focusing on things",
		ORPRole:     ORPObjects,
	},
	{
		Key:         UpperOntologyRelations,
		Label:       "Relations",
		Description: "Causal and logical connections; domains emphasizing interactions",
		ORPRole:     ORPRelations,
	},
	{
		Key:         UpperOntologyEvents,
		Label:       "Events/Processes",
		Description: "Dynamic changes; domains modeling sequences and temporal phenomena",
		ORPRole:     ORPProcesses,
	},
}

// Category describes one of the twelve primary domain groupings.
type Category struct {
	Key            string
	Label          string
	UpperOntology  UpperOntologyKey
	ORPRole        ORPRole
	DomainCount    int
}

// Categories lists the twelve primary categories, keyed by category key.
var Categories = map[string]Category{
	"mathematics": {
		Key: "mathematics", Label: "Mathematics & Computational Sciences",
		UpperOntology: UpperOntologyRelations, ORPRole: ORPRelations, DomainCount: 44,
	},
	"natural_sciences": {
		Key: "natural_sciences", Label: "Natural Sciences",
		UpperOntology: UpperOntologyEntities, ORPRole: ORPObjects, DomainCount: 40,
	},
	"engineering": {
		Key: "engineering", Label: "Engineering & Applied Sciences",
		UpperOntology: UpperOntologyRelations, ORPRole: ORPRelations, DomainCount: 14,
	},
	"social_sciences": {
		Key: "social_sciences", Label: "Social Sciences & Human Behavior",
		UpperOntology: UpperOntologyEntities, ORPRole: ORPObjects, DomainCount: 20,
	},
	"history": {
		Key: "history", Label: "History & Cultural Studies",
		UpperOntology: UpperOntologyEvents, ORPRole: ORPProcesses, DomainCount: 20,
	},
	"languages_literature": {
		Key: "languages_literature", Label: "Languages & Literature",
		UpperOntology: UpperOntologyEvents, ORPRole: ORPProcesses, DomainCount: 34,
	},
	"arts": {
		Key: "arts", Label: "Arts, Music & Performance",
		UpperOntology: UpperOntologyEvents, ORPRole: ORPProcesses, DomainCount: 21,
	},
	"business_economics": {
		Key: "business_economics", Label: "Business, Economics & Law",
		UpperOntology: UpperOntologyEvents, ORPRole: ORPProcesses, DomainCount: 26,
	},
	"health_medicine": {
		Key: "health_medicine", Label: "Health & Medicine",
		UpperOntology: UpperOntologyEntities, ORPRole: ORPObjects, DomainCount: 15,
	},
	"philosophy_religion": {
		Key: "philosophy_religion", Label: "Philosophy, Religion & Ethics",
		UpperOntology: UpperOntologyRelations, ORPRole: ORPRelations, DomainCount: 15,
	},
	"vocational": {
		Key: "vocational", Label: "Applied & Vocational Skills",
		UpperOntology: UpperOntologyEvents, ORPRole: ORPProcesses, DomainCount: 12,
	},
	"interdisciplinary": {
		Key: "interdisciplinary", Label: "Interdisciplinary & Emerging Fields",
		UpperOntology: UpperOntologyEvents, ORPRole: ORPProcesses, DomainCount: 16,
	},
}

// defaultCategory is returned by CategoryForDomain when no keyword matches.
const defaultCategory = "interdisciplinary"

// categoryKeywords maps each non-default category to the substrings that
// identify it in a free-text domain or concept name.
var categoryKeywords = []struct {
	category string
	terms    []string
}{
	{"mathematics", []string{"math", "algebra", "calculus", "geometry", "statistics", "computer science", "programming"}},
	{"natural_sciences", []string{"biology", "chemistry", "physics", "earth science", "astronomy", "geology"}},
	{"social_sciences", []string{"psychology", "sociology", "political", "geography"}},
	{"history", []string{"history"}},
	{"languages_literature", []string{"language", "literature", "writing", "reading"}},
	{"arts", []string{"art", "music", "theater", "dance", "performance"}},
	{"business_economics", []string{"business", "economics", "law", "finance"}},
	{"health_medicine", []string{"health", "medicine", "medical", "nursing"}},
	{"philosophy_religion", []string{"philosophy", "religion", "ethics", "logic"}},
	{"vocational", []string{"vocational", "trade", "culinary", "automotive"}},
	{"engineering", []string{"engineering", "mechanical", "electrical", "civil engineering"}},
}

// CategoryForDomain maps a free-text domain or concept name to a category
// key using keyword matching, falling back to "interdisciplinary" when
// nothing matches.
func CategoryForDomain(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, term := range entry.terms {
			if strings.Contains(lower, term) {
				return entry.category
			}
		}
	}
	return defaultCategory
}

// Annotate returns the (category, upper_ontology, orp_role) triple for a
// free-text name, ready to attach to a Concept node's properties.
func Annotate(name string) (category string, upperOntology UpperOntologyKey, role ORPRole) {
	key := CategoryForDomain(name)
	cat, ok := Categories[key]
	if !ok {
		cat = Categories[defaultCategory]
		key = defaultCategory
	}
	return key, cat.UpperOntology, cat.ORPRole
}
