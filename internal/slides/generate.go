package slides

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

const slidePrompt = `You are writing one slide of a presentation titled around: %s

Slide role: %s
Slide topic: %s

Source material for this slide:
%s

Write a concise slide: a short title (3-8 words), %d to %d bullet points (each a single line, no nested lists), and presenter notes (2-4 sentences the speaker would say out loud).

Respond with ONLY this JSON:
{
    "title": "Slide title",
    "bullets": ["First point", "Second point"],
    "presenter_notes": "What the presenter says for this slide."
}`

const correctiveSuffix = `

Your previous answer was invalid: %s. Respond again with ONLY the JSON object, a non-empty title, and between %d and %d bullets.`

// GenerationError tags a slide that stayed invalid after the corrective
// re-request. A single failed slide does not abort the deck; the caller
// decides between a placeholder and aborting.
type GenerationError struct {
	Index int
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating slide %d: %v", e.Index, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Options bound the generated content and the request fan-out.
type Options struct {
	MaxBullets  int
	MinBullets  int
	Concurrency int
	MaxTokens   int
}

func (o Options) withDefaults() Options {
	if o.MaxBullets <= 0 {
		o.MaxBullets = 7
	}
	if o.MinBullets <= 0 {
		o.MinBullets = 1
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	return o
}

// Generator produces slide content for outline entries.
type Generator struct {
	provider llm.Completer
	opts     Options
}

// NewGenerator creates a slide content generator.
func NewGenerator(provider llm.Completer, opts Options) *Generator {
	return &Generator{provider: provider, opts: opts.withDefaults()}
}

// Result carries the generated slides plus per-entry failures.
type Result struct {
	Slides []deck.Slide
	Failed []GenerationError
}

// GenerateAll generates content for every outline entry with bounded
// parallelism. Slides may complete in any order; the result is re-sorted
// by outline index. Per-entry failures are collected in Result.Failed
// rather than aborting the run; only context cancellation stops it.
func (g *Generator) GenerateAll(ctx context.Context, entries []deck.OutlineEntry, summary *deck.Summary) (*Result, error) {
	slots := make([]*deck.Slide, len(entries))
	failures := make([]*GenerationError, len(entries))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(g.opts.Concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err // canceled: stop issuing new calls
			}
			slide, err := g.Generate(ctx, entry, summary)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				ge := &GenerationError{Index: entry.Index, Err: err}
				log.Printf("Slide %d failed: %v", entry.Index, err)
				failures[i] = ge
				return nil
			}
			slots[i] = slide
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &Result{}
	for i := range entries {
		if slots[i] != nil {
			result.Slides = append(result.Slides, *slots[i])
		}
		if failures[i] != nil {
			result.Failed = append(result.Failed, *failures[i])
		}
	}
	sort.Slice(result.Slides, func(a, b int) bool {
		return result.Slides[a].OutlineIndex < result.Slides[b].OutlineIndex
	})
	return result, nil
}

// Generate produces one slide from its outline entry and the summary
// slice scoped to the entry's topic. An invalid structured response is
// re-requested once with a corrective instruction before failing.
func (g *Generator) Generate(ctx context.Context, entry deck.OutlineEntry, summary *deck.Summary) (*deck.Slide, error) {
	deckTopic := entry.TopicRef
	if len(summary.KeyThemes) > 0 {
		deckTopic = summary.KeyThemes[0]
	}
	prompt := fmt.Sprintf(slidePrompt,
		deckTopic, entry.Role, entry.TopicRef,
		outline.TopicSlice(summary, entry),
		g.opts.MinBullets, g.opts.MaxBullets)

	slide, problem, err := g.request(ctx, entry, prompt)
	if err != nil {
		return nil, err
	}
	if problem == "" {
		return slide, nil
	}

	// One corrective re-request, then give up on this slide.
	corrective := prompt + fmt.Sprintf(correctiveSuffix, problem, g.opts.MinBullets, g.opts.MaxBullets)
	slide, problem, err = g.request(ctx, entry, corrective)
	if err != nil {
		return nil, err
	}
	if problem != "" {
		return nil, fmt.Errorf("invalid slide content after corrective request: %s", problem)
	}
	return slide, nil
}

// request issues one completion call and validates the response shape.
// problem is non-empty for structurally invalid content.
func (g *Generator) request(ctx context.Context, entry deck.OutlineEntry, prompt string) (*deck.Slide, string, error) {
	response, err := g.provider.Complete(ctx, prompt, g.opts.MaxTokens)
	if err != nil {
		return nil, "", err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		return nil, "response was not a JSON object", nil
	}

	slide := &deck.Slide{
		OutlineIndex:   entry.Index,
		Title:          strings.TrimSpace(llm.GetString(parsed, "title", "")),
		Bullets:        llm.GetStringList(parsed, "bullets"),
		PresenterNotes: strings.TrimSpace(llm.GetString(parsed, "presenter_notes", "")),
	}

	if problem := g.validate(slide); problem != "" {
		return nil, problem, nil
	}
	return slide, "", nil
}

func (g *Generator) validate(slide *deck.Slide) string {
	if slide.Title == "" {
		return "empty title"
	}
	if len(slide.Bullets) < g.opts.MinBullets {
		return fmt.Sprintf("too few bullets (%d)", len(slide.Bullets))
	}
	if len(slide.Bullets) > g.opts.MaxBullets {
		return fmt.Sprintf("too many bullets (%d)", len(slide.Bullets))
	}
	return ""
}
