package summarize

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/nikhil7591/slidex/internal/deck"
	"github.com/nikhil7591/slidex/internal/llm"
)

const chunkPrompt = `You are condensing one chunk of a document that will become a slide presentation.

Summarize the chunk below to roughly %d characters. Preserve concrete facts, numbers and section structure. Also list the main themes (short noun phrases, like section headings) the chunk covers.

Chunk:
%s

Respond with ONLY this JSON:
{
    "summary": "The condensed text",
    "themes": ["Theme one", "Theme two"]
}`

const reducePrompt = `You are condensing the combined summary of a document that will become a slide presentation.

Shorten the text below to at most %d characters while keeping every distinct theme represented.

Text:
%s

Respond with ONLY this JSON:
{
    "summary": "The condensed text"
}`

const maxThemes = 8

// SummarizeError reports a completion failure that survived retries.
type SummarizeError struct {
	Chunk int // offending chunk, -1 for the reduction phase
	Err   error
}

func (e *SummarizeError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("summarizing chunk %d: %v", e.Chunk, e.Err)
	}
	return fmt.Sprintf("reducing summary: %v", e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }

// Summarizer condenses normalized text hierarchically: chunks are
// summarized independently, then the concatenation is reduced until it
// fits the target ratio or the pass budget runs out.
type Summarizer struct {
	provider  llm.Completer
	chunkSize int
	maxPasses int
	maxTokens int
}

// New creates a summarizer. Zero options fall back to 4000-char chunks
// and 3 reduction passes.
func New(provider llm.Completer, chunkSize, maxPasses, maxTokens int) *Summarizer {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	if maxPasses <= 0 {
		maxPasses = 3
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Summarizer{
		provider:  provider,
		chunkSize: chunkSize,
		maxPasses: maxPasses,
		maxTokens: maxTokens,
	}
}

// Summarize condenses text to within targetRatio of its original length.
// Ratios outside (0,1] fall back to 0.3.
func (s *Summarizer) Summarize(ctx context.Context, text string, targetRatio float64) (*deck.Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &deck.Summary{TargetRatio: targetRatio}, nil
	}
	if targetRatio <= 0 || targetRatio > 1 {
		targetRatio = 0.3
	}

	target := int(math.Ceil(float64(len(text)) * targetRatio))

	// Short inputs fit one slide deck's worth of context already.
	if len(text) <= target {
		return &deck.Summary{
			KeyThemes:     harvestFallbackThemes(text),
			CondensedText: text,
			TargetRatio:   targetRatio,
		}, nil
	}

	chunks := splitChunks(text, s.chunkSize)
	log.Printf("Summarizing %d chars in %d chunks (target %d chars)", len(text), len(chunks), target)

	perChunkTarget := target / len(chunks)
	if perChunkTarget < 200 {
		perChunkTarget = 200
	}

	var themes []string
	seen := make(map[string]bool)
	summaries := make([]string, len(chunks))
	for i, chunk := range chunks {
		summary, chunkThemes, err := s.summarizeChunk(ctx, chunk, perChunkTarget)
		if err != nil {
			return nil, &SummarizeError{Chunk: i, Err: err}
		}
		summaries[i] = summary
		for _, theme := range chunkThemes {
			key := strings.ToLower(strings.TrimSpace(theme))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			themes = append(themes, strings.TrimSpace(theme))
		}
	}

	condensed := strings.TrimSpace(strings.Join(summaries, "\n"))

	for pass := 0; len(condensed) > target && pass < s.maxPasses; pass++ {
		reduced, err := s.reduce(ctx, condensed, target)
		if err != nil {
			return nil, &SummarizeError{Chunk: -1, Err: err}
		}
		if reduced == "" || len(reduced) >= len(condensed) {
			break
		}
		condensed = reduced
	}

	// Pass budget exhausted: trim at a sentence boundary so the length
	// invariant holds for downstream slide-count planning.
	if len(condensed) > target {
		condensed = truncateAtBoundary(condensed, target)
	}
	if condensed == "" {
		condensed = truncateAtBoundary(text, target)
	}

	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	if len(themes) == 0 {
		themes = harvestFallbackThemes(condensed)
	}

	return &deck.Summary{
		KeyThemes:     themes,
		CondensedText: condensed,
		TargetRatio:   targetRatio,
	}, nil
}

func (s *Summarizer) summarizeChunk(ctx context.Context, chunk string, target int) (string, []string, error) {
	prompt := fmt.Sprintf(chunkPrompt, target, chunk)
	response, err := s.provider.Complete(ctx, prompt, s.maxTokens)
	if err != nil {
		return "", nil, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		// Unstructured response: use it verbatim, harvest themes later.
		summary := strings.TrimSpace(response)
		if summary == "" {
			summary = truncateAtBoundary(chunk, target)
		}
		return summary, nil, nil
	}

	summary := strings.TrimSpace(llm.GetString(parsed, "summary", ""))
	if summary == "" {
		summary = truncateAtBoundary(chunk, target)
	}
	return summary, llm.GetStringList(parsed, "themes"), nil
}

func (s *Summarizer) reduce(ctx context.Context, text string, target int) (string, error) {
	prompt := fmt.Sprintf(reducePrompt, target, text)
	response, err := s.provider.Complete(ctx, prompt, s.maxTokens)
	if err != nil {
		return "", err
	}

	if parsed := llm.ParseJSONResponse(response); parsed != nil {
		return strings.TrimSpace(llm.GetString(parsed, "summary", "")), nil
	}
	return strings.TrimSpace(response), nil
}
