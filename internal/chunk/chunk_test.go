package chunk

import (
	"strings"
	"testing"
)

func TestSplit_FitsInOneChunk(t *testing.T) {
	text := "# Terms\n\nShort document."
	chunks := Split(text, 1000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("single chunk should be the whole text")
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("   \n  ", 1000); chunks != nil {
		t.Errorf("expected nil for blank text, got %v", chunks)
	}
}

func TestSplit_AtHeadings(t *testing.T) {
	section := strings.Repeat("Lorem ipsum dolor sit amet. ", 10) // ~280 chars
	text := "# One\n" + section + "\n## Two\n" + section + "\n# Three\n" + section

	chunks := Split(text, 400)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0], "# One") {
		t.Errorf("chunk 0 should start at first heading, got %q", chunks[0][:20])
	}
	if !strings.HasPrefix(chunks[1], "## Two") {
		t.Errorf("chunk 1 should start at second heading, got %q", chunks[1][:20])
	}
	if !strings.HasPrefix(chunks[2], "# Three") {
		t.Errorf("chunk 2 should start at third heading, got %q", chunks[2][:20])
	}
}

func TestSplit_AccumulatesSmallSections(t *testing.T) {
	text := "# A\nshort\n# B\nshort\n# C\nshort"
	chunks := Split(text, 25)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 25 {
			t.Errorf("chunk exceeds budget: %d chars", len(c))
		}
	}
}

func TestSplit_OversizeSectionFallsBackToParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 40) // ~200 chars
	text := "# Big\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)

	chunks := Split(text, 300)
	if len(chunks) < 2 {
		t.Fatalf("oversize section should split at paragraphs, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 300 {
			t.Errorf("chunk exceeds budget: %d chars", len(c))
		}
	}
}

func TestSplit_OversizeParagraphPassesThrough(t *testing.T) {
	giant := strings.Repeat("x", 500)
	chunks := Split("small\n\n"+giant, 100)

	found := false
	for _, c := range chunks {
		if c == giant {
			found = true
		}
	}
	if !found {
		t.Error("oversize paragraph should pass through whole, not be sub-split")
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	var sections []string
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta"} {
		sections = append(sections, "# "+name+"\n"+strings.Repeat(name+" content. ", 20))
	}
	text := strings.Join(sections, "\n")

	chunks := Split(text, 300)
	joined := strings.Join(chunks, "\n")
	last := -1
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta"} {
		idx := strings.Index(joined, "# "+name)
		if idx < 0 {
			t.Fatalf("section %s missing from chunks", name)
		}
		if idx < last {
			t.Errorf("section %s out of order", name)
		}
		last = idx
	}
}
