// Package chunk splits long document text into bounded segments for
// one-request-per-chunk model analysis.
package chunk

import (
	"strings"

	"github.com/policywatch/policywatch-backend/pkg/logger"
)

// DefaultMaxChars leaves headroom under typical model context windows for
// the system prompt and the structured response.
const DefaultMaxChars = 12000

// Split divides text into chunks no larger than maxChars, preferring
// heading boundaries and falling back to blank-line paragraph boundaries
// for oversize sections. A single paragraph larger than the budget is
// passed through whole; the boundary is best effort, not a hard cap.
// Chunk order always equals original document order.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= maxChars {
		return []string{trimmed}
	}

	var chunks []string
	var buf strings.Builder
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
	}

	for _, section := range splitSections(trimmed) {
		if len(section) > maxChars {
			// Oversize section: flush what we have and split the section
			// itself at paragraph boundaries.
			flush()
			chunks = append(chunks, splitParagraphs(section, maxChars)...)
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(section)+2 > maxChars {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(section)
	}
	flush()
	return chunks
}

// splitSections cuts text at markdown headings of level 1 or 2. Text
// before the first heading forms its own section.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	var cur []string
	for _, line := range lines {
		if isHeading(line) && len(cur) > 0 {
			sections = append(sections, strings.TrimSpace(strings.Join(cur, "\n")))
			cur = cur[:0]
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		sections = append(sections, strings.TrimSpace(strings.Join(cur, "\n")))
	}
	var out []string
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isHeading(line string) bool {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "# ") || strings.HasPrefix(t, "## ") {
		return true
	}
	return t == "#" || t == "##"
}

// splitParagraphs splits one oversize section at blank-line boundaries.
// A lone paragraph exceeding the budget is emitted as-is and logged.
func splitParagraphs(section string, maxChars int) []string {
	var chunks []string
	var buf strings.Builder
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
	}

	for _, para := range strings.Split(section, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > maxChars {
			flush()
			logger.GetLogger().Warn().
				Int("paragraph_chars", len(para)).
				Int("max_chars", maxChars).
				Msg("paragraph exceeds chunk budget, passing through whole")
			chunks = append(chunks, para)
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(para)+2 > maxChars {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush()
	return chunks
}
