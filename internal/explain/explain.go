package explain

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nikhil7591/slidex/internal/deck"
	"github.com/nikhil7591/slidex/internal/llm"
	"github.com/nikhil7591/slidex/internal/outline"
)

const explainPrompt = `You are preparing presenter support material for one slide of a presentation.

Slide title: %s
Slide bullets:
%s

Surrounding material for this slide's theme:
%s

Produce four things: a detailed explanation of the slide (2-3 paragraphs), the context that places it in the wider document, one concrete example or analogy, and 3-5 questions the audience might ask. Ground every statement in the material above; if you mention a number that does not appear in it, mark that number with "(unverified)".

Respond with ONLY this JSON:
{
    "detail": "Detailed explanation",
    "context": "Where this fits in the wider story",
    "example": "A concrete example or analogy",
    "suggested_questions": ["Question one?", "Question two?"]
}`

// ExplanationError tags a slide whose enrichment failed. The slide is
// still usable without it; callers record the index as degraded.
type ExplanationError struct {
	SlideIndex int
	Err        error
}

func (e *ExplanationError) Error() string {
	return fmt.Sprintf("explaining slide %d: %v", e.SlideIndex, e.Err)
}

func (e *ExplanationError) Unwrap() error { return e.Err }

// Agent produces explanation bundles for generated slides.
type Agent struct {
	provider    llm.Completer
	concurrency int
	maxTokens   int
}

// NewAgent creates an explanation agent.
func NewAgent(provider llm.Completer, concurrency, maxTokens int) *Agent {
	if concurrency <= 0 {
		concurrency = 4
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Agent{provider: provider, concurrency: concurrency, maxTokens: maxTokens}
}

// Result carries the explanations plus the slide indexes that were
// skipped because enrichment failed.
type Result struct {
	Explanations []deck.Explanation
	Skipped      []ExplanationError
}

// ExplainAll enriches every slide with bounded parallelism. Failures skip
// that slide's explanation instead of aborting; only context cancellation
// stops the run. Output is sorted by slide index.
func (a *Agent) ExplainAll(ctx context.Context, slides []deck.Slide, entries []deck.OutlineEntry, summary *deck.Summary) (*Result, error) {
	byIndex := make(map[int]deck.OutlineEntry, len(entries))
	for _, e := range entries {
		byIndex[e.Index] = e
	}

	slots := make([]*deck.Explanation, len(slides))
	skipped := make([]*ExplanationError, len(slides))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)

	for i, slide := range slides {
		i, slide := i, slide
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			explanation, err := a.Explain(ctx, slide, byIndex[slide.OutlineIndex], summary)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("Explanation for slide %d skipped: %v", slide.OutlineIndex, err)
				skipped[i] = &ExplanationError{SlideIndex: slide.OutlineIndex, Err: err}
				return nil
			}
			slots[i] = explanation
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &Result{}
	for i := range slides {
		if slots[i] != nil {
			result.Explanations = append(result.Explanations, *slots[i])
		}
		if skipped[i] != nil {
			result.Skipped = append(result.Skipped, *skipped[i])
		}
	}
	sort.Slice(result.Explanations, func(x, y int) bool {
		return result.Explanations[x].SlideIndex < result.Explanations[y].SlideIndex
	})
	return result, nil
}

// Explain produces the explanation bundle for one slide from its own
// content plus the theme-local slice of the summary. Grounding stays
// local so prompts remain small.
func (a *Agent) Explain(ctx context.Context, slide deck.Slide, entry deck.OutlineEntry, summary *deck.Summary) (*deck.Explanation, error) {
	bullets := make([]string, len(slide.Bullets))
	for i, b := range slide.Bullets {
		bullets[i] = "- " + b
	}

	prompt := fmt.Sprintf(explainPrompt,
		slide.Title,
		strings.Join(bullets, "\n"),
		outline.TopicSlice(summary, entry))

	response, err := a.provider.Complete(ctx, prompt, a.maxTokens)
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		return nil, fmt.Errorf("explanation response was not a JSON object")
	}

	explanation := &deck.Explanation{
		SlideIndex:         slide.OutlineIndex,
		Detail:             strings.TrimSpace(llm.GetString(parsed, "detail", "")),
		Context:            strings.TrimSpace(llm.GetString(parsed, "context", "")),
		Example:            strings.TrimSpace(llm.GetString(parsed, "example", "")),
		SuggestedQuestions: llm.GetStringList(parsed, "suggested_questions"),
	}
	if explanation.Detail == "" {
		return nil, fmt.Errorf("explanation response missing detail")
	}
	return explanation, nil
}
