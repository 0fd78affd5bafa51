package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// scriptedCompleter returns canned JSON chunk summaries.
type scriptedCompleter struct {
	calls     int
	err       error
	summaryFn func(call int) string
	themes    []string
}

func (m *scriptedCompleter) Complete(_ context.Context, _ string, _ int) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	summary := "A short condensed chunk."
	if m.summaryFn != nil {
		summary = m.summaryFn(m.calls)
	}
	resp, _ := json.Marshal(map[string]any{
		"summary": summary,
		"themes":  m.themes,
	})
	return string(resp), nil
}

func (m *scriptedCompleter) IsConfigured() bool { return true }

func repeatText(sentence string, chars int) string {
	var b strings.Builder
	for b.Len() < chars {
		b.WriteString(sentence)
		b.WriteString(" ")
	}
	return b.String()
}

func TestSummarizeRespectsTargetRatio(t *testing.T) {
	text := repeatText("The quarterly results improved across every region this year.", 12000)
	provider := &scriptedCompleter{themes: []string{"Results"}}
	s := New(provider, 4000, 3, 512)

	for _, ratio := range []float64{0.1, 0.3, 0.5, 1.0} {
		summary, err := s.Summarize(context.Background(), text, ratio)
		if err != nil {
			t.Fatalf("ratio %v: %v", ratio, err)
		}
		limit := int(math.Ceil(float64(len(text)) * ratio))
		if len(summary.CondensedText) > limit {
			t.Errorf("ratio %v: condensed %d chars exceeds limit %d", ratio, len(summary.CondensedText), limit)
		}
		if summary.CondensedText == "" {
			t.Errorf("ratio %v: condensed text is empty", ratio)
		}
	}
}

func TestSummarizeChunksLongInput(t *testing.T) {
	text := repeatText("Machine learning systems need careful evaluation before deployment.", 10000)
	provider := &scriptedCompleter{themes: []string{"Evaluation", "Deployment"}}
	s := New(provider, 4000, 3, 512)

	_, err := s.Summarize(context.Background(), text, 0.1)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	// 10k chars at 4k chunk size means at least 3 map calls.
	if provider.calls < 3 {
		t.Errorf("expected at least 3 completion calls, got %d", provider.calls)
	}
}

func TestSummarizeDeduplicatesThemes(t *testing.T) {
	text := repeatText("Alpha beta gamma delta epsilon sentence content for chunks.", 9000)
	provider := &scriptedCompleter{themes: []string{"Intro", "intro", "Results", " INTRO "}}
	s := New(provider, 4000, 3, 512)

	summary, err := s.Summarize(context.Background(), text, 0.2)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	var introCount int
	for _, theme := range summary.KeyThemes {
		if strings.EqualFold(strings.TrimSpace(theme), "intro") {
			introCount++
		}
	}
	if introCount != 1 {
		t.Errorf("expected case-insensitive dedupe, got themes %v", summary.KeyThemes)
	}
	if summary.KeyThemes[0] != "Intro" {
		t.Errorf("expected first-seen order, got %v", summary.KeyThemes)
	}
}

func TestSummarizePropagatesProviderFailure(t *testing.T) {
	text := repeatText("Text that needs the external capability to condense properly.", 9000)
	provider := &scriptedCompleter{err: errors.New("quota exceeded")}
	s := New(provider, 4000, 3, 512)

	_, err := s.Summarize(context.Background(), text, 0.2)
	var se *SummarizeError
	if !errors.As(err, &se) {
		t.Fatalf("expected SummarizeError, got %v", err)
	}
	if se.Chunk != 0 {
		t.Errorf("expected failing chunk 0, got %d", se.Chunk)
	}
}

func TestSummarizeShortInputSkipsCompletion(t *testing.T) {
	provider := &scriptedCompleter{}
	s := New(provider, 4000, 3, 512)

	summary, err := s.Summarize(context.Background(), "Short note about Budget Planning.", 1.0)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("expected no completion calls for short input, got %d", provider.calls)
	}
	if summary.CondensedText == "" || len(summary.KeyThemes) == 0 {
		t.Errorf("expected non-empty summary and themes, got %+v", summary)
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	s := New(&scriptedCompleter{}, 4000, 3, 512)
	summary, err := s.Summarize(context.Background(), "   ", 0.3)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary.CondensedText != "" {
		t.Errorf("expected empty condensed text, got %q", summary.CondensedText)
	}
}

func TestSplitChunksBounded(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, fmt.Sprintf("Paragraph %d with a reasonable amount of content in it.", i))
	}
	text := strings.Join(paras, "\n")

	chunks := splitChunks(text, 500)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 500 {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	// No content lost.
	joined := strings.Join(chunks, "\n")
	for i := 0; i < 40; i++ {
		if !strings.Contains(joined, fmt.Sprintf("Paragraph %d ", i)) {
			t.Errorf("paragraph %d missing from chunks", i)
		}
	}
}

func TestSplitChunksOverlongParagraph(t *testing.T) {
	text := repeatText("No newlines here just sentences.", 3000)
	chunks := splitChunks(strings.TrimSpace(text), 800)
	for i, c := range chunks {
		if len(c) > 800 {
			t.Errorf("chunk %d exceeds max size: %d", i, len(c))
		}
	}
}

func TestTruncateAtBoundary(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one is cut."
	got := truncateAtBoundary(text, 30)
	if got != "First sentence here." {
		t.Errorf("expected sentence-boundary cut, got %q", got)
	}
	if truncateAtBoundary("short", 30) != "short" {
		t.Error("short text should pass through")
	}
}

func TestHarvestFallbackThemesFromHeadings(t *testing.T) {
	text := "Introduction\nSome prose about the topic.\nKey Results\nMore prose follows here.\nConclusion\nFinal prose."
	themes := harvestFallbackThemes(text)
	if len(themes) < 3 {
		t.Fatalf("expected heading themes, got %v", themes)
	}
	if themes[0] != "Introduction" {
		t.Errorf("expected first-seen order, got %v", themes)
	}
}
