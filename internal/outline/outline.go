package outline

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nikhil7591/slidex/internal/deck"
)

// PlanError reports degenerate input that cannot produce a deck.
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string { return "outline planning: " + e.Reason }

// Options control slide-count policy and role layout.
type Options struct {
	MinSlides        int
	MaxSlides        int
	AvgCharsPerSlide int
	// TargetSlides forces the clamp to an exact count when > 0.
	TargetSlides int
	// HasCitations switches on the trailing references slide. Callers
	// detect citations with DetectCitations or their own heuristic.
	HasCitations bool
}

func (o Options) withDefaults() Options {
	if o.MinSlides <= 0 {
		o.MinSlides = 5
	}
	if o.MaxSlides <= 0 {
		o.MaxSlides = 20
	}
	if o.MaxSlides < o.MinSlides {
		o.MaxSlides = o.MinSlides
	}
	if o.AvgCharsPerSlide <= 0 {
		o.AvgCharsPerSlide = 400
	}
	return o
}

var citationRe = regexp.MustCompile(`https?://|www\.|\[\d+\]|\bdoi:|\bet al\.|\(\d{4}\)`)

// DetectCitations reports whether the text carries links or
// bibliography-style markers.
func DetectCitations(text string) bool {
	return citationRe.MatchString(text)
}

// Plan decides the slide count and assigns every slide slot a role and a
// topic slice of the summary.
//
// Layout: title at index 0, overview at index 1 (when n >= 3), topic
// slides partitioned across key themes proportionally to theme weight
// using largest-remainder rounding, a conclusion near the end (when
// n >= 4), and a references slide last only when citations were detected.
func Plan(summary *deck.Summary, opts Options) ([]deck.OutlineEntry, error) {
	opts = opts.withDefaults()

	if summary == nil || strings.TrimSpace(summary.CondensedText) == "" {
		return nil, &PlanError{Reason: "empty summary"}
	}

	n := opts.TargetSlides
	if n <= 0 {
		n = int(math.Round(float64(len(summary.CondensedText)) / float64(opts.AvgCharsPerSlide)))
	}
	n = clamp(n, opts.MinSlides, opts.MaxSlides)
	if n < 1 {
		return nil, &PlanError{Reason: "slide count resolved to zero"}
	}

	var entries []deck.OutlineEntry
	add := func(role deck.Role, topicRef string, weight float64) {
		entries = append(entries, deck.OutlineEntry{
			Index:           len(entries),
			Role:            role,
			TopicRef:        topicRef,
			EstimatedWeight: weight,
		})
	}

	deckTopic := firstTheme(summary)
	add(deck.RoleTitle, deckTopic, 0)

	reserved := 1
	hasOverview := n >= 3
	hasConclusion := n >= 4
	hasReferences := opts.HasCitations && n >= 5
	if hasOverview {
		reserved++
	}
	if hasConclusion {
		reserved++
	}
	if hasReferences {
		reserved++
	}

	if hasOverview {
		add(deck.RoleOverview, deckTopic, 0)
	}

	budget := n - reserved
	weights := themeWeights(summary)
	counts := apportion(weights, budget)
	for i, theme := range summary.KeyThemes {
		if i >= len(counts) {
			break
		}
		for j := 0; j < counts[i]; j++ {
			add(deck.RoleTopic, theme, weights[i])
		}
	}
	// No themes at all (or zero budget themes): fill remaining topic
	// slots against the deck topic so indexes stay contiguous.
	for len(entries) < n-boolCount(hasConclusion)-boolCount(hasReferences) {
		add(deck.RoleTopic, deckTopic, 0)
	}

	if hasConclusion {
		add(deck.RoleConclusion, deckTopic, 0)
	}
	if hasReferences {
		add(deck.RoleReferences, deckTopic, 0)
	}

	return entries, nil
}

// themeWeights estimates each theme's share of the deck as its occurrence
// frequency in the condensed text, floor 1, normalized to sum to 1.
func themeWeights(summary *deck.Summary) []float64 {
	if len(summary.KeyThemes) == 0 {
		return nil
	}
	lower := strings.ToLower(summary.CondensedText)

	raw := make([]float64, len(summary.KeyThemes))
	var total float64
	for i, theme := range summary.KeyThemes {
		count := strings.Count(lower, strings.ToLower(theme))
		if count < 1 {
			count = 1
		}
		raw[i] = float64(count)
		total += raw[i]
	}
	for i := range raw {
		raw[i] /= total
	}
	return raw
}

// apportion distributes budget slots across weights with largest-remainder
// rounding. The result always sums exactly to budget; remainder ties go to
// the earlier-discovered theme.
func apportion(weights []float64, budget int) []int {
	if len(weights) == 0 || budget <= 0 {
		return make([]int, len(weights))
	}

	counts := make([]int, len(weights))
	remainders := make([]float64, len(weights))
	assigned := 0
	for i, w := range weights {
		quota := w * float64(budget)
		counts[i] = int(math.Floor(quota))
		remainders[i] = quota - math.Floor(quota)
		assigned += counts[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for i := 0; assigned < budget; i++ {
		counts[order[i%len(order)]]++
		assigned++
	}
	return counts
}

func firstTheme(summary *deck.Summary) string {
	if len(summary.KeyThemes) > 0 {
		return summary.KeyThemes[0]
	}
	words := strings.Fields(summary.CondensedText)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// TopicSlice extracts the part of the condensed text relevant to an
// outline entry: paragraphs mentioning its theme, or the whole condensed
// text (bounded) when the theme never appears verbatim.
func TopicSlice(summary *deck.Summary, entry deck.OutlineEntry) string {
	const maxSlice = 2500

	if entry.Role != deck.RoleTopic || entry.TopicRef == "" {
		return truncate(summary.CondensedText, maxSlice)
	}

	needle := strings.ToLower(entry.TopicRef)
	var matched []string
	for _, para := range strings.Split(summary.CondensedText, "\n") {
		if strings.Contains(strings.ToLower(para), needle) {
			matched = append(matched, para)
		}
	}
	if len(matched) == 0 {
		return truncate(summary.CondensedText, maxSlice)
	}
	return truncate(strings.Join(matched, "\n"), maxSlice)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// String renders an outline for logs and dry runs.
func String(entries []deck.OutlineEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%d:%s(%s)", e.Index, e.Role, e.TopicRef)
	}
	return strings.Join(parts, " ")
}
