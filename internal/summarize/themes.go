package summarize

import "strings"

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "can": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "into": true,
	"and": true, "but": true, "or": true, "not": true, "so": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "about": true, "also": true, "such": true, "than": true,
	"more": true, "most": true, "other": true, "some": true, "which": true,
	"what": true, "when": true, "where": true, "how": true, "all": true,
	"each": true, "between": true, "their": true, "there": true, "we": true,
	"our": true, "they": true, "them": true, "using": true,
}

// harvestFallbackThemes extracts recurring headings and capitalized terms
// when no themes were returned by the completion capability. First-seen
// order is preserved so earlier sections rank higher.
func harvestFallbackThemes(text string) []string {
	var themes []string
	seen := make(map[string]bool)
	add := func(theme string) {
		key := strings.ToLower(theme)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		themes = append(themes, theme)
	}

	// Heading-like lines: short, no terminal punctuation.
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#*- "))
		if line == "" || len(line) > 60 {
			continue
		}
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") || strings.HasSuffix(line, ";") {
			continue
		}
		if words := strings.Fields(line); len(words) >= 1 && len(words) <= 6 && startsUpper(line) {
			add(line)
		}
	}

	if len(themes) >= 2 {
		if len(themes) > maxThemes {
			themes = themes[:maxThemes]
		}
		return themes
	}

	// Fall back to recurring capitalized words in first-seen order.
	counts := make(map[string]int)
	var order []string
	for _, sentence := range strings.Split(text, ".") {
		words := strings.Fields(sentence)
		for i, word := range words {
			if i == 0 {
				continue // sentence-initial capitals carry no signal
			}
			word = strings.Trim(word, ".,!?:;\"'()[]")
			if len(word) < 4 || !startsUpper(word) || stopWords[strings.ToLower(word)] {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}
	for _, word := range order {
		if counts[word] >= 2 {
			add(word)
		}
	}

	// Last resort: the opening words of the text.
	if len(themes) == 0 {
		words := strings.Fields(text)
		if len(words) > 5 {
			words = words[:5]
		}
		if len(words) > 0 {
			add(strings.Join(words, " "))
		}
	}

	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
