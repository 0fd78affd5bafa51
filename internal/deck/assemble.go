package deck

import (
	"fmt"
	"sort"
	"time"
)

// AssemblyError reports a structural violation that could not be repaired.
type AssemblyError struct {
	Reason string
	Index  int // offending outline index, -1 when not index-specific
}

func (e *AssemblyError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("deck assembly: %s (outline index %d)", e.Reason, e.Index)
	}
	return "deck assembly: " + e.Reason
}

const placeholderNote = "Content for this slide could not be generated."

// Assemble merges outline, slides and explanations into one ordered deck.
//
// Repairable gaps are filled rather than failing the whole deck: a missing
// non-title slide becomes a placeholder, a missing explanation becomes an
// empty-but-well-formed one, and both are recorded in the degraded manifest.
// Duplicate outline indexes, non-contiguous outline numbering and a missing
// title slide cannot be repaired and return an AssemblyError.
func Assemble(outline []OutlineEntry, slides []Slide, explanations []Explanation) (*Deck, error) {
	if len(outline) == 0 {
		return nil, &AssemblyError{Reason: "empty outline", Index: -1}
	}

	entries := make(map[int]OutlineEntry, len(outline))
	for _, e := range outline {
		if _, dup := entries[e.Index]; dup {
			return nil, &AssemblyError{Reason: "duplicate outline index", Index: e.Index}
		}
		entries[e.Index] = e
	}
	for i := 0; i < len(outline); i++ {
		if _, ok := entries[i]; !ok {
			return nil, &AssemblyError{Reason: "gap in outline indexes", Index: i}
		}
	}
	if entries[0].Role != RoleTitle {
		return nil, &AssemblyError{Reason: "first outline entry is not the title slide", Index: 0}
	}

	bySlide := make(map[int]Slide, len(slides))
	for _, s := range slides {
		if _, ok := entries[s.OutlineIndex]; !ok {
			return nil, &AssemblyError{Reason: "slide references unknown outline index", Index: s.OutlineIndex}
		}
		if _, dup := bySlide[s.OutlineIndex]; dup {
			return nil, &AssemblyError{Reason: "duplicate slide for outline index", Index: s.OutlineIndex}
		}
		bySlide[s.OutlineIndex] = s
	}
	if _, ok := bySlide[0]; !ok {
		return nil, &AssemblyError{Reason: "missing title slide", Index: 0}
	}

	byExplanation := make(map[int]Explanation, len(explanations))
	for _, x := range explanations {
		byExplanation[x.SlideIndex] = x
	}

	d := &Deck{
		Slides: make([]ExplainedSlide, 0, len(outline)),
		Metadata: Metadata{
			Title:       bySlide[0].Title,
			GeneratedAt: time.Now().UTC(),
		},
	}

	for i := 0; i < len(outline); i++ {
		entry := entries[i]
		slide, ok := bySlide[i]
		if !ok {
			slide = placeholderSlide(entry)
			d.Degraded = append(d.Degraded, DegradedSlide{Index: i, Reason: "placeholder slide"})
		}

		explanation, ok := byExplanation[i]
		if !ok {
			explanation = Explanation{SlideIndex: i}
			d.Degraded = append(d.Degraded, DegradedSlide{Index: i, Reason: "missing explanation"})
		}

		d.Slides = append(d.Slides, ExplainedSlide{Slide: slide, Explanation: explanation})
	}

	sort.Slice(d.Slides, func(a, b int) bool {
		return d.Slides[a].Slide.OutlineIndex < d.Slides[b].Slide.OutlineIndex
	})

	return d, nil
}

func placeholderSlide(entry OutlineEntry) Slide {
	title := entry.TopicRef
	if title == "" {
		title = string(entry.Role)
	}
	return Slide{
		OutlineIndex:   entry.Index,
		Title:          title,
		Bullets:        []string{placeholderNote},
		PresenterNotes: placeholderNote,
	}
}
