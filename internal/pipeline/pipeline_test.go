package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nikhil7591/slidex/internal/config"
	"github.com/nikhil7591/slidex/internal/deck"
	"github.com/nikhil7591/slidex/internal/normalize"
	"github.com/nikhil7591/slidex/internal/outline"
	"github.com/nikhil7591/slidex/internal/summarize"
)

// stubCompleter answers each prompt kind with canned, well-formed JSON.
type stubCompleter struct {
	mu    sync.Mutex
	calls int
}

func (s *stubCompleter) IsConfigured() bool { return true }

func (s *stubCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	switch {
	case strings.Contains(prompt, "condensing one chunk"):
		return mustJSON(map[string]any{
			"summary": chunkSummary(),
			"themes":  []string{"Consensus Protocols", "Log Replication"},
		}), nil
	case strings.Contains(prompt, "condensing the combined summary"):
		return mustJSON(map[string]any{"summary": chunkSummary()}), nil
	case strings.Contains(prompt, "writing one slide"):
		return mustJSON(map[string]any{
			"title":           "Reaching Agreement",
			"bullets":         []string{"Quorums tolerate failures", "Leaders order writes", "Logs replay on recovery"},
			"presenter_notes": "Walk through the happy path before the failure cases.",
		}), nil
	case strings.Contains(prompt, "presenter support material"):
		return mustJSON(map[string]any{
			"detail":              "Agreement requires a majority of nodes to accept each entry before it commits.",
			"context":             "This is the core mechanism the rest of the system builds on.",
			"example":             "Three servers electing a leader after one crashes.",
			"suggested_questions": []string{"What happens on a split vote?", "How long can an election take?"},
		}), nil
	default:
		return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
	}
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// chunkSummary is sized so two chunks condense to under the reduction
// target, yielding a small deck clamped to the minimum slide count.
func chunkSummary() string {
	var b strings.Builder
	b.WriteString("Consensus Protocols let a cluster agree on one history of operations even when individual machines crash or lose connectivity. A majority quorum accepts each decision, so any two quorums overlap and no two conflicting values can both commit. Elections pick a single coordinator per term.\n\n")
	b.WriteString("Log Replication carries the agreed decisions to every replica in order. The leader appends entries, followers acknowledge them, and an entry becomes durable once a majority has written it. Recovering nodes replay the log from their last known index.")
	return b.String()
}

func sourceDocument(minChars int) string {
	var b strings.Builder
	for i := 0; b.Len() < minChars; i++ {
		fmt.Fprintf(&b, "Section %d examines how distributed systems coordinate state changes across machines that fail independently and communicate over unreliable links, covering quorum intersection, term numbers, and the cost of leader changes in wide-area deployments.\n\n", i)
	}
	return b.String()
}

func testConfig() *config.Config {
	return config.Default()
}

func TestRunEndToEnd(t *testing.T) {
	stub := &stubCompleter{}
	p := NewWithProvider(testConfig(), stub)

	doc := deck.Document{RawText: sourceDocument(6000), SourceKind: "text", SourceName: "notes.txt"}
	r := p.Run(context.Background(), doc, Options{})

	if err := r.Failed(); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if r.Deck == nil {
		t.Fatal("expected a deck")
	}
	if len(r.Steps) != 6 {
		t.Errorf("expected 6 steps, got %d", len(r.Steps))
	}

	d := r.Deck
	if len(d.Slides) < 5 || len(d.Slides) > 20 {
		t.Fatalf("slide count %d outside bounds", len(d.Slides))
	}
	for i, es := range d.Slides {
		if es.Slide.OutlineIndex != i {
			t.Errorf("slide %d has outline index %d", i, es.Slide.OutlineIndex)
		}
		if es.Slide.Title == "" {
			t.Errorf("slide %d has empty title", i)
		}
		if es.Explanation.Detail == "" {
			t.Errorf("slide %d has empty explanation", i)
		}
	}
	if len(d.Degraded) != 0 {
		t.Errorf("expected no degraded slides, got %d", len(d.Degraded))
	}
	if d.Metadata.Title == "" {
		t.Error("expected metadata title from title slide")
	}
	if d.Metadata.GeneratedAt.IsZero() {
		t.Error("expected generated_at timestamp")
	}
}

func TestRunEmptyInputAbortsBeforeSummarizer(t *testing.T) {
	stub := &stubCompleter{}
	p := NewWithProvider(testConfig(), stub)

	doc := deck.Document{RawText: "   \n\n  ", SourceKind: "text"}
	r := p.Run(context.Background(), doc, Options{})

	err := r.Failed()
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if !errors.Is(err, normalize.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if len(r.Steps) != 1 {
		t.Errorf("expected pipeline to stop after step 1, got %d steps", len(r.Steps))
	}
	if stub.callCount() != 0 {
		t.Errorf("expected no provider calls, got %d", stub.callCount())
	}
	if Classify(err) != KindInput {
		t.Errorf("expected KindInput, got %v", Classify(err))
	}
}

func TestRunTitleOverride(t *testing.T) {
	stub := &stubCompleter{}
	p := NewWithProvider(testConfig(), stub)

	doc := deck.Document{RawText: sourceDocument(6000), SourceKind: "text"}
	r := p.Run(context.Background(), doc, Options{Title: "My Custom Title"})

	if err := r.Failed(); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if r.Deck.Metadata.Title != "My Custom Title" {
		t.Errorf("expected title override, got %q", r.Deck.Metadata.Title)
	}
}

func TestRunTargetSlidesOverride(t *testing.T) {
	stub := &stubCompleter{}
	p := NewWithProvider(testConfig(), stub)

	doc := deck.Document{RawText: sourceDocument(6000), SourceKind: "text"}
	r := p.Run(context.Background(), doc, Options{TargetSlides: 8})

	if err := r.Failed(); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if len(r.Deck.Slides) != 8 {
		t.Errorf("expected 8 slides, got %d", len(r.Deck.Slides))
	}
}

func TestDryRunMakesNoProviderCalls(t *testing.T) {
	stub := &stubCompleter{}
	p := NewWithProvider(testConfig(), stub)

	doc := deck.Document{RawText: sourceDocument(6000), SourceKind: "text"}
	r := p.DryRun(doc, Options{})

	if err := r.Failed(); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if stub.callCount() != 0 {
		t.Errorf("expected no provider calls during dry run, got %d", stub.callCount())
	}
	if len(r.Steps) != 4 {
		t.Errorf("expected 4 dry-run steps, got %d", len(r.Steps))
	}
	for _, s := range r.Steps[1:] {
		if !strings.Contains(s.Summary, "[dry-run]") {
			t.Errorf("step %s missing dry-run marker: %q", s.Name, s.Summary)
		}
	}
}

func TestPreflightNoProvider(t *testing.T) {
	p := NewWithProvider(testConfig(), nil)
	err := p.Preflight()
	if err == nil {
		t.Fatal("expected preflight error with no provider")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("expected error to name the key env var, got %q", err.Error())
	}
}

func TestPreflightConfiguredProvider(t *testing.T) {
	p := NewWithProvider(testConfig(), &stubCompleter{})
	if err := p.Preflight(); err != nil {
		t.Errorf("unexpected preflight error: %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"empty input", fmt.Errorf("step: %w", normalize.ErrEmptyInput), KindInput},
		{"plan error", &outline.PlanError{Reason: "no content"}, KindStructural},
		{"assembly error", &deck.AssemblyError{Reason: "duplicate index", Index: 2}, KindStructural},
		{"summarize error", &summarize.SummarizeError{Chunk: 0, Err: errors.New("boom")}, KindUpstream},
		{"canceled", context.Canceled, KindCanceled},
		{"unknown", errors.New("something else"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
