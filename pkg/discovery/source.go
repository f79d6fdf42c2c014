// Package discovery finds candidate Sources for a domain across academic,
// educational, and general provider pools, scores and ranks them, and
// enforces source-type diversity.
package discovery

// SourceType is the provenance category of a discovered source.
type SourceType string

// Recognized source types.
const (
	TypeAcademicPaper SourceType = "academic_paper"
	TypeTextbook      SourceType = "textbook"
	TypeCourse        SourceType = "course"
	TypeEncyclopedia  SourceType = "encyclopedia"
	TypeWeb           SourceType = "web"
	TypeUnknown       SourceType = "unknown"
)

// PoolName is one of the three discovery pools.
type PoolName string

// Recognized pools.
const (
	PoolAcademic    PoolName = "academic"
	PoolEducational PoolName = "educational"
	PoolGeneral     PoolName = "general"
)

// QualitySignals are the raw inputs to the quality score: provenance,
// peer-review, recency, and citation counts when present.
type QualitySignals struct {
	PeerReviewed   bool
	PublishedYear  int    // 0 = unknown
	CitationCount  int    // -1 = unknown/not applicable
	Provenance     string // e.g. "semantic_scholar", "wikipedia", "openstax"
	DomainRelevant bool
}

// Source is a single discovered candidate, annotated with scores as
// discovery proceeds.
type Source struct {
	URL      string
	Title    string
	Type     SourceType
	Provider string
	Domain   string
	Snippet  string
	Signals  QualitySignals

	QualityScore float64
	CostScore    float64
	PriorityScore float64
	CostTier      string
}
