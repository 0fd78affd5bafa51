package explain

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nikhil7591/slidex/internal/deck"
)

func explanationJSON(detail string) string {
	resp, _ := json.Marshal(map[string]any{
		"detail":              detail,
		"context":             "Fits the wider results story.",
		"example":             "Like a household budget growing.",
		"suggested_questions": []string{"Why did it grow?", "Is it sustainable?"},
	})
	return string(resp)
}

type stubCompleter struct {
	mu      sync.Mutex
	calls   int
	respond func(call int) (string, error)
}

func (s *stubCompleter) Complete(_ context.Context, _ string, _ int) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.respond(call)
}

func (s *stubCompleter) IsConfigured() bool { return true }

func slidesOf(n int) ([]deck.Slide, []deck.OutlineEntry) {
	slides := make([]deck.Slide, n)
	entries := make([]deck.OutlineEntry, n)
	for i := range slides {
		slides[i] = deck.Slide{OutlineIndex: i, Title: "Slide", Bullets: []string{"point"}}
		entries[i] = deck.OutlineEntry{Index: i, Role: deck.RoleTopic, TopicRef: "Results"}
	}
	return slides, entries
}

func testSummary() *deck.Summary {
	return &deck.Summary{
		KeyThemes:     []string{"Results"},
		CondensedText: "The Results improved during the year.",
	}
}

func TestExplainBuildsBundle(t *testing.T) {
	provider := &stubCompleter{respond: func(int) (string, error) {
		return explanationJSON("A detailed walkthrough."), nil
	}}
	agent := NewAgent(provider, 2, 512)

	slides, entries := slidesOf(1)
	explanation, err := agent.Explain(context.Background(), slides[0], entries[0], testSummary())
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	if explanation.SlideIndex != 0 {
		t.Errorf("expected slide index 0, got %d", explanation.SlideIndex)
	}
	if explanation.Detail == "" || explanation.Example == "" {
		t.Errorf("incomplete bundle: %+v", explanation)
	}
	if len(explanation.SuggestedQuestions) != 2 {
		t.Errorf("expected 2 questions, got %v", explanation.SuggestedQuestions)
	}
}

func TestExplainRejectsUnparseableResponse(t *testing.T) {
	provider := &stubCompleter{respond: func(int) (string, error) {
		return "I cannot produce JSON today.", nil
	}}
	agent := NewAgent(provider, 2, 512)

	slides, entries := slidesOf(1)
	if _, err := agent.Explain(context.Background(), slides[0], entries[0], testSummary()); err == nil {
		t.Fatal("expected error for unparseable response")
	}
}

func TestExplainAllSkipsFailedSlides(t *testing.T) {
	slides, entries := slidesOf(6)
	provider := &stubCompleter{respond: func(call int) (string, error) {
		if call == 4 {
			return "", errors.New("timeout")
		}
		return explanationJSON("Detail."), nil
	}}
	// Serial execution so call numbers map to slide order.
	agent := NewAgent(provider, 1, 512)

	result, err := agent.ExplainAll(context.Background(), slides, entries, testSummary())
	if err != nil {
		t.Fatalf("explain all failed: %v", err)
	}
	if len(result.Explanations) != 5 {
		t.Errorf("expected 5 explanations, got %d", len(result.Explanations))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].SlideIndex != 3 {
		t.Errorf("expected slide 3 skipped, got %+v", result.Skipped)
	}
	for i := 1; i < len(result.Explanations); i++ {
		if result.Explanations[i].SlideIndex <= result.Explanations[i-1].SlideIndex {
			t.Error("explanations not sorted by slide index")
		}
	}
}

func TestExplainAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slides, entries := slidesOf(4)
	provider := &stubCompleter{respond: func(int) (string, error) {
		return explanationJSON("Detail."), nil
	}}
	agent := NewAgent(provider, 2, 512)

	if _, err := agent.ExplainAll(ctx, slides, entries, testSummary()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
