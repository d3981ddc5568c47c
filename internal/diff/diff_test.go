package diff

import (
	"strings"
	"testing"
)

func TestCompute_IdenticalTexts(t *testing.T) {
	text := "line one\nline two\nline three"
	result := Compute(text, text)

	if result.Stats.LinesAdded != 0 {
		t.Errorf("expected 0 added lines, got %d", result.Stats.LinesAdded)
	}
	if result.Stats.LinesRemoved != 0 {
		t.Errorf("expected 0 removed lines, got %d", result.Stats.LinesRemoved)
	}
	if result.Stats.LinesUnchanged != 3 {
		t.Errorf("expected 3 unchanged lines, got %d", result.Stats.LinesUnchanged)
	}
	if result.Stats.ChangePercentage != 0 {
		t.Errorf("expected 0 change percentage, got %f", result.Stats.ChangePercentage)
	}
	for _, b := range result.Blocks {
		if b.Type != BlockUnchanged {
			t.Errorf("expected only unchanged blocks, got %s", b.Type)
		}
	}
	if sim := Similarity(text, text); sim != 1.0 {
		t.Errorf("expected similarity 1.0, got %f", sim)
	}
}

func TestCompute_AddAndRemove(t *testing.T) {
	oldText := "alpha\nbeta\ngamma"
	newText := "alpha\ndelta\ngamma\nepsilon"

	result := Compute(oldText, newText)
	if result.Stats.LinesAdded != 2 {
		t.Errorf("expected 2 added lines, got %d", result.Stats.LinesAdded)
	}
	if result.Stats.LinesRemoved != 1 {
		t.Errorf("expected 1 removed line, got %d", result.Stats.LinesRemoved)
	}
	if result.Stats.LinesUnchanged != 2 {
		t.Errorf("expected 2 unchanged lines, got %d", result.Stats.LinesUnchanged)
	}
}

// Additions in one direction must equal deletions in the other.
func TestCompute_SymmetryOfCounts(t *testing.T) {
	a := "one\ntwo\nthree\nfour"
	b := "one\nthree\nfive\nsix"

	ab := Compute(a, b)
	ba := Compute(b, a)

	if ab.Stats.LinesAdded != ba.Stats.LinesRemoved {
		t.Errorf("A->B additions (%d) != B->A deletions (%d)",
			ab.Stats.LinesAdded, ba.Stats.LinesRemoved)
	}
	if ab.Stats.LinesRemoved != ba.Stats.LinesAdded {
		t.Errorf("A->B deletions (%d) != B->A additions (%d)",
			ab.Stats.LinesRemoved, ba.Stats.LinesAdded)
	}
}

func TestCompute_TrimmedLineEquality(t *testing.T) {
	result := Compute("  hello  \nworld", "hello\n  world  ")
	if result.Stats.LinesAdded != 0 || result.Stats.LinesRemoved != 0 {
		t.Errorf("whitespace-only differences should not register as changes: %+v", result.Stats)
	}
}

func TestCompute_CollapsesLongUnchangedRuns(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "unchanged line")
	}
	oldText := "removed me\n" + strings.Join(lines, "\n")
	newText := strings.Join(lines, "\n") + "\nadded me"

	result := Compute(oldText, newText)

	var collapsed *Block
	for i := range result.Blocks {
		if result.Blocks[i].Type == BlockCollapsed {
			collapsed = &result.Blocks[i]
		}
	}
	if collapsed == nil {
		t.Fatal("expected a collapsed block for a 30-line unchanged run")
	}
	if collapsed.SkippedLines != 30-2*DefaultContext {
		t.Errorf("expected %d skipped lines, got %d", 30-2*DefaultContext, collapsed.SkippedLines)
	}
	// Context lines must survive on both sides of the collapse.
	for i, b := range result.Blocks {
		if b.Type == BlockCollapsed {
			if i == 0 || result.Blocks[i-1].Type != BlockUnchanged {
				t.Error("expected unchanged context before collapsed block")
			}
			if i == len(result.Blocks)-1 || result.Blocks[i+1].Type != BlockUnchanged {
				t.Error("expected unchanged context after collapsed block")
			}
		}
	}
}

func TestCompute_ShortUnchangedRunNotCollapsed(t *testing.T) {
	// 2*context+3 = 9 lines with default context; exactly 9 should stay.
	lines := strings.Repeat("same\n", 8) + "same"
	result := Compute("removed\n"+lines, lines+"\nadded")
	for _, b := range result.Blocks {
		if b.Type == BlockCollapsed {
			t.Error("9-line unchanged run should not be collapsed")
		}
	}
}

func TestSimilarity_Buckets(t *testing.T) {
	tests := []struct {
		similarity float64
		want       string
	}{
		{1.0, "minor"},
		{0.95, "minor"},
		{0.90, "moderate"},
		{0.80, "moderate"},
		{0.60, "major"},
		{0.50, "major"},
		{0.30, "critical"},
		{0.0, "critical"},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.similarity); got != tt.want {
			t.Errorf("SeverityFor(%f) = %s, want %s", tt.similarity, got, tt.want)
		}
	}
}

func TestSimilarity_EmptyInputs(t *testing.T) {
	if Similarity("", "something") != 0 {
		t.Error("empty vs non-empty should be 0")
	}
	if Similarity("", "") != 1.0 {
		t.Error("two empty strings are identical")
	}
}

func TestSimilarity_RetentionChangeScenario(t *testing.T) {
	oldText := "Data is deleted within 30 days."
	newText := "Data is deleted within 90 days. Disputes must be resolved through binding arbitration."

	sim := Similarity(oldText, newText)
	if sim >= 0.8 {
		t.Errorf("expected similarity below 0.8 for a substantive change, got %f", sim)
	}
	if sev := SeverityFor(sim); sev == "minor" {
		t.Errorf("substantive change must not be classified minor (similarity %f)", sim)
	}

	result := Compute(oldText,
		"Data is deleted within 90 days.\nDisputes must be resolved through binding arbitration.")
	if result.Stats.LinesAdded < 2 {
		t.Errorf("expected at least 2 added lines, got %d", result.Stats.LinesAdded)
	}
}

func TestChangedSections(t *testing.T) {
	oldText := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	newText := "First paragraph.\n\nBrand new paragraph.\n\nThird paragraph."

	added, removed := ChangedSections(oldText, newText)
	if len(added) != 1 || added[0] != "Brand new paragraph." {
		t.Errorf("unexpected added sections: %v", added)
	}
	if len(removed) != 1 || removed[0] != "Second paragraph." {
		t.Errorf("unexpected removed sections: %v", removed)
	}
}

func TestCompute_EmptyOldText(t *testing.T) {
	result := Compute("", "brand new\ncontent")
	if result.Stats.LinesAdded != 2 {
		t.Errorf("expected 2 added lines from empty base, got %d", result.Stats.LinesAdded)
	}
	if result.Stats.LinesRemoved != 0 {
		t.Errorf("expected 0 removed lines, got %d", result.Stats.LinesRemoved)
	}
}
