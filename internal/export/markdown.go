package export

import (
	"fmt"
	"strings"

	"github.com/nikhil7591/slidex/internal/deck"
)

// Markdown renders a deck as a markdown handout: one section per slide
// with bullets, presenter notes and the explanation material beneath.
func Markdown(d *deck.Deck) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Metadata.Title)
	if !d.Metadata.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "*Generated %s*\n\n", d.Metadata.GeneratedAt.Format("January 2, 2006 15:04 MST"))
	}

	for _, es := range d.Slides {
		fmt.Fprintf(&b, "## %d. %s\n\n", es.Slide.OutlineIndex+1, es.Slide.Title)
		if d.IsDegraded(es.Slide.OutlineIndex) {
			b.WriteString("> Note: this slide was assembled in degraded form.\n\n")
		}

		for _, bullet := range es.Slide.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		if len(es.Slide.Bullets) > 0 {
			b.WriteString("\n")
		}

		if es.Slide.PresenterNotes != "" {
			fmt.Fprintf(&b, "**Presenter notes:** %s\n\n", es.Slide.PresenterNotes)
		}

		x := es.Explanation
		if x.Detail != "" {
			fmt.Fprintf(&b, "### Explanation\n\n%s\n\n", x.Detail)
		}
		if x.Context != "" {
			fmt.Fprintf(&b, "**Context:** %s\n\n", x.Context)
		}
		if x.Example != "" {
			fmt.Fprintf(&b, "**Example:** %s\n\n", x.Example)
		}
		if len(x.SuggestedQuestions) > 0 {
			b.WriteString("**Likely audience questions:**\n\n")
			for _, q := range x.SuggestedQuestions {
				fmt.Fprintf(&b, "- %s\n", q)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
