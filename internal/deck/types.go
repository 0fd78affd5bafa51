package deck

import "time"

// Role classifies what an outline slot is for.
type Role string

const (
	RoleTitle      Role = "title"
	RoleOverview   Role = "overview"
	RoleTopic      Role = "topic"
	RoleConclusion Role = "conclusion"
	RoleReferences Role = "references"
)

// Document is the raw input handed to the pipeline.
type Document struct {
	RawText    string
	SourceKind string // "pdf", "text", "html"
	SourceName string
}

// Summary is a condensed representation of the source text.
type Summary struct {
	KeyThemes     []string
	CondensedText string
	TargetRatio   float64
}

// OutlineEntry is a planned slide slot, before content exists for it.
type OutlineEntry struct {
	Index           int
	Role            Role
	TopicRef        string
	EstimatedWeight float64
}

// Slide is the generated content for one outline entry.
type Slide struct {
	OutlineIndex   int
	Title          string
	Bullets        []string
	PresenterNotes string
}

// Explanation is the presenter-facing enrichment bundle for one slide.
type Explanation struct {
	SlideIndex         int
	Detail             string
	Context            string
	Example            string
	SuggestedQuestions []string
}

// ExplainedSlide pairs a slide with its explanation.
type ExplainedSlide struct {
	Slide       Slide
	Explanation Explanation
}

// DegradedSlide records a slide that was assembled in degraded form.
type DegradedSlide struct {
	Index  int
	Reason string
}

// Metadata describes a finished deck.
type Metadata struct {
	Title       string
	GeneratedAt time.Time
}

// Deck is the finished, ordered collection consumed by the rendering sink.
type Deck struct {
	Slides   []ExplainedSlide
	Metadata Metadata
	Degraded []DegradedSlide
}

// IsDegraded reports whether the slide at index appears in the manifest.
func (d *Deck) IsDegraded(index int) bool {
	for _, g := range d.Degraded {
		if g.Index == index {
			return true
		}
	}
	return false
}
