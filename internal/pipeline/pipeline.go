package pipeline

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/nikhil7591/slidex/internal/config"
	"github.com/nikhil7591/slidex/internal/deck"
	"github.com/nikhil7591/slidex/internal/explain"
	"github.com/nikhil7591/slidex/internal/llm"
	"github.com/nikhil7591/slidex/internal/normalize"
	"github.com/nikhil7591/slidex/internal/outline"
	"github.com/nikhil7591/slidex/internal/slides"
	"github.com/nikhil7591/slidex/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
	Deck  *deck.Deck
}

// Failed returns the first step error, or nil if every step succeeded.
func (r *Result) Failed() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Options are per-run overrides on top of the config defaults.
type Options struct {
	TargetSlides int     // 0 means derive from document length
	TargetRatio  float64 // 0 means use config default
	Title        string  // overrides the deck title when non-empty
}

// Pipeline orchestrates the 6-step deck generation pipeline.
type Pipeline struct {
	cfg      *config.Config
	provider llm.Completer
}

// New creates a pipeline with the provider selected by the config.
// Call Preflight before Run to surface credential problems early.
func New(cfg *config.Config) *Pipeline {
	gen := cfg.Generation
	provider := llm.CreateProvider(
		gen.Provider,
		gen.GeminiModel,
		gen.GeminiKeyEnv,
		gen.OpenAIModel,
		gen.OpenAIKeyEnv,
		gen.OllamaModel,
		gen.OllamaURL,
	)
	return NewWithProvider(cfg, provider)
}

// NewWithProvider creates a pipeline around an explicit provider.
func NewWithProvider(cfg *config.Config, provider llm.Completer) *Pipeline {
	if provider != nil {
		timeout := time.Duration(cfg.Generation.TimeoutSeconds) * time.Second
		provider = llm.WithRetries(provider, cfg.Pipeline.RetryCount, timeout)
	}
	return &Pipeline{cfg: cfg, provider: provider}
}

// Preflight verifies that a completion provider is configured.
// It runs before any document processing so a missing API key
// produces one clear error instead of a mid-pipeline failure.
func (p *Pipeline) Preflight() error {
	if p.provider == nil || !p.provider.IsConfigured() {
		gen := p.cfg.Generation
		return fmt.Errorf(
			"no completion provider configured: set %s or %s, or run Ollama at %s",
			gen.GeminiKeyEnv, gen.OpenAIKeyEnv, gen.OllamaURL,
		)
	}
	return nil
}

// Run executes the full pipeline: normalize, summarize, plan,
// generate, explain, assemble. It stops at the first step whose
// output the next step cannot work without.
func (p *Pipeline) Run(ctx context.Context, doc deck.Document, opts Options) *Result {
	r := &Result{}

	// Step 1: Normalize
	clean, step := p.runNormalize(doc)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Summarize
	ratio := opts.TargetRatio
	if ratio == 0 {
		ratio = p.cfg.Pipeline.TargetRatio
	}
	summary, step := p.runSummarize(ctx, clean, ratio)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 3: Plan outline
	entries, step := p.runPlan(summary, clean, opts.TargetSlides)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 4: Generate slides
	genResult, step := p.runGenerate(ctx, entries, summary)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 5: Explain slides
	explResult, step := p.runExplain(ctx, genResult.Slides, entries, summary)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 6: Assemble
	d, step := p.runAssemble(entries, genResult.Slides, explResult.Explanations)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if opts.Title != "" {
		d.Metadata.Title = opts.Title
	}
	r.Deck = d
	return r
}

// DryRun reports what a run would do without calling the provider.
func (p *Pipeline) DryRun(doc deck.Document, opts Options) *Result {
	r := &Result{}

	clean, step := p.runNormalize(doc)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	ratio := opts.TargetRatio
	if ratio == 0 {
		ratio = p.cfg.Pipeline.TargetRatio
	}
	chunks := (len(clean) + p.cfg.Pipeline.ChunkSize - 1) / p.cfg.Pipeline.ChunkSize
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("[dry-run] would summarize %d chars in %d chunk(s) at ratio %.2f", len(clean), chunks, ratio),
	})

	n := opts.TargetSlides
	if n == 0 {
		condensed := float64(len(clean)) * ratio
		n = int(math.Round(condensed / float64(p.cfg.Pipeline.AvgCharsPerSlide)))
		if n < p.cfg.Pipeline.MinSlides {
			n = p.cfg.Pipeline.MinSlides
		}
		if n > p.cfg.Pipeline.MaxSlides {
			n = p.cfg.Pipeline.MaxSlides
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Plan",
		Summary: fmt.Sprintf("[dry-run] would plan roughly %d slides", n),
	})
	r.Steps = append(r.Steps, StepResult{
		Name:    "Generate",
		Summary: fmt.Sprintf("[dry-run] would issue about %d slide and %d explanation requests", n, n),
	})
	return r
}

func (p *Pipeline) runNormalize(doc deck.Document) (string, StepResult) {
	log.Println("Step 1/6: Normalizing input...")
	clean, err := normalize.Clean(doc.RawText)
	if err != nil {
		return "", StepResult{Name: "Normalize", Err: err}
	}
	return clean, StepResult{
		Name:    "Normalize",
		Summary: fmt.Sprintf("Cleaned %s input: %d chars", doc.SourceKind, len(clean)),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context, text string, ratio float64) (*deck.Summary, StepResult) {
	log.Println("Step 2/6: Summarizing document...")
	pl := p.cfg.Pipeline
	summ := summarize.New(p.provider, pl.ChunkSize, pl.MaxReductionPasses, p.cfg.Generation.MaxTokens)
	summary, err := summ.Summarize(ctx, text, ratio)
	if err != nil {
		return nil, StepResult{Name: "Summarize", Err: err}
	}
	return summary, StepResult{
		Name: "Summarize",
		Summary: fmt.Sprintf("Condensed %d chars to %d, %d themes: %s",
			len(text), len(summary.CondensedText), len(summary.KeyThemes),
			strings.Join(summary.KeyThemes, ", ")),
	}
}

func (p *Pipeline) runPlan(summary *deck.Summary, clean string, targetSlides int) ([]deck.OutlineEntry, StepResult) {
	log.Println("Step 3/6: Planning outline...")
	pl := p.cfg.Pipeline
	entries, err := outline.Plan(summary, outline.Options{
		MinSlides:        pl.MinSlides,
		MaxSlides:        pl.MaxSlides,
		AvgCharsPerSlide: pl.AvgCharsPerSlide,
		TargetSlides:     targetSlides,
		HasCitations:     outline.DetectCitations(clean),
	})
	if err != nil {
		return nil, StepResult{Name: "Plan", Err: err}
	}
	return entries, StepResult{
		Name:    "Plan",
		Summary: fmt.Sprintf("Planned %d slides: %s", len(entries), outline.String(entries)),
	}
}

func (p *Pipeline) runGenerate(ctx context.Context, entries []deck.OutlineEntry, summary *deck.Summary) (*slides.Result, StepResult) {
	log.Println("Step 4/6: Generating slide content...")
	pl := p.cfg.Pipeline
	gen := slides.NewGenerator(p.provider, slides.Options{
		MaxBullets:  pl.MaxBullets,
		Concurrency: pl.ConcurrencyLimit,
		MaxTokens:   p.cfg.Generation.MaxTokens,
	})
	result, err := gen.GenerateAll(ctx, entries, summary)
	if err != nil {
		return nil, StepResult{Name: "Generate", Err: err}
	}
	return result, StepResult{
		Name:    "Generate",
		Summary: fmt.Sprintf("Generated %d slides, %d failed", len(result.Slides), len(result.Failed)),
	}
}

func (p *Pipeline) runExplain(ctx context.Context, generated []deck.Slide, entries []deck.OutlineEntry, summary *deck.Summary) (*explain.Result, StepResult) {
	log.Println("Step 5/6: Expanding presenter explanations...")
	agent := explain.NewAgent(p.provider, p.cfg.Pipeline.ConcurrencyLimit, p.cfg.Generation.MaxTokens)
	result, err := agent.ExplainAll(ctx, generated, entries, summary)
	if err != nil {
		return nil, StepResult{Name: "Explain", Err: err}
	}
	return result, StepResult{
		Name:    "Explain",
		Summary: fmt.Sprintf("Explained %d slides, %d skipped", len(result.Explanations), len(result.Skipped)),
	}
}

func (p *Pipeline) runAssemble(entries []deck.OutlineEntry, generated []deck.Slide, explanations []deck.Explanation) (*deck.Deck, StepResult) {
	log.Println("Step 6/6: Assembling deck...")
	d, err := deck.Assemble(entries, generated, explanations)
	if err != nil {
		return nil, StepResult{Name: "Assemble", Err: err}
	}
	summary := fmt.Sprintf("Assembled %d slides", len(d.Slides))
	if len(d.Degraded) > 0 {
		summary += fmt.Sprintf(" (%d degraded)", len(d.Degraded))
	}
	return d, StepResult{Name: "Assemble", Summary: summary}
}
