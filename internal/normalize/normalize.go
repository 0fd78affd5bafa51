package normalize

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrEmptyInput reports input with no meaningful tokens after cleaning.
var ErrEmptyInput = errors.New("document has no meaningful content after cleaning")

var (
	pageMarkerRe = regexp.MustCompile(`(?mi)^\s*(?:page\s+\d+(?:\s+of\s+\d+)?|-+\s*\d+\s*-+|\d+)\s*$`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	blankRunRe   = regexp.MustCompile(`\n{2,}`)
)

// Clean turns raw extracted text into a single normalized content string.
//
// Runs of whitespace collapse to a single space, paragraph boundaries are
// preserved as single newlines, page-number artifacts and non-printable
// characters are stripped. Returns ErrEmptyInput when nothing meaningful
// survives.
func Clean(raw string) (string, error) {
	text := stripControl(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = dropRepeatedLines(text)

	// Collapse intra-line whitespace, then blank-line runs to one boundary.
	text = spaceRunRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)

	if !hasMeaningfulToken(text) {
		return "", ErrEmptyInput
	}
	return text, nil
}

// stripControl removes non-printable characters, keeping newlines and tabs.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// dropRepeatedLines removes short lines that repeat many times across the
// document, which are almost always running headers or footers from a PDF.
func dropRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")
	counts := make(map[string]int)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(trimmed) < 80 {
			counts[trimmed]++
		}
	}

	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(trimmed) < 80 && counts[trimmed] >= 4 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func hasMeaningfulToken(text string) bool {
	for _, token := range strings.Fields(text) {
		for _, r := range token {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return true
			}
		}
	}
	return false
}
