package summarize

import "strings"

// splitChunks cuts text into pieces of at most maxSize characters,
// preferring paragraph boundaries, then sentence boundaries, then a hard
// cut for pathological inputs.
func splitChunks(text string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n") {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		if len(para) > maxSize {
			flush()
			chunks = append(chunks, splitLong(para, maxSize)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+1 > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(para)
	}
	flush()

	if len(chunks) == 0 {
		chunks = []string{text}
	}
	return chunks
}

// splitLong breaks a single over-long paragraph on sentence ends.
func splitLong(para string, maxSize int) []string {
	var chunks []string
	for len(para) > maxSize {
		cut := lastSentenceEnd(para[:maxSize])
		if cut <= 0 {
			cut = maxSize
		}
		chunks = append(chunks, strings.TrimSpace(para[:cut]))
		para = strings.TrimSpace(para[cut:])
	}
	if para != "" {
		chunks = append(chunks, para)
	}
	return chunks
}

// truncateAtBoundary cuts text to at most max characters, ending at the
// last full sentence when one exists.
func truncateAtBoundary(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := lastSentenceEnd(text[:max])
	if cut <= 0 {
		cut = max
	}
	return strings.TrimSpace(text[:cut])
}

func lastSentenceEnd(s string) int {
	end := -1
	for _, mark := range []string{". ", ".\n", "! ", "? "} {
		if i := strings.LastIndex(s, mark); i+1 > end {
			end = i + 1
		}
	}
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		end = len(s)
	}
	return end
}
