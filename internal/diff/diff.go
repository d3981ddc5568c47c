// Package diff computes line-level diffs between two document snapshots.
// It is pure computation: no I/O, no persistence, callers cap input size.
package diff

import (
	"math"
	"strings"
)

// Block types emitted by Compute.
const (
	BlockUnchanged = "unchanged"
	BlockAdded     = "added"
	BlockRemoved   = "removed"
	BlockCollapsed = "collapsed"
)

// DefaultContext is the number of unchanged lines kept adjacent to a
// change when a long unchanged run is collapsed.
const DefaultContext = 3

// Block is a run of consecutive same-type lines.
type Block struct {
	Type         string   `json:"type"`
	Lines        []string `json:"lines,omitempty"`
	SkippedLines int      `json:"skipped_lines,omitempty"`
}

// Stats summarizes a diff.
type Stats struct {
	LinesAdded       int     `json:"lines_added"`
	LinesRemoved     int     `json:"lines_removed"`
	LinesUnchanged   int     `json:"lines_unchanged"`
	ChangePercentage float64 `json:"change_percentage"`
}

// Result is the full output of Compute.
type Result struct {
	Blocks []Block `json:"blocks"`
	Stats  Stats   `json:"stats"`
}

type entry struct {
	typ  string
	line string
}

// Compute diffs two text blobs line by line using a longest-common-
// subsequence table over trimmed-line equality, then groups the entries
// into blocks and collapses long unchanged runs.
func Compute(oldText, newText string) Result {
	return ComputeContext(oldText, newText, DefaultContext)
}

// ComputeContext is Compute with an explicit context line count.
func ComputeContext(oldText, newText string, context int) Result {
	if context < 0 {
		context = DefaultContext
	}
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	entries := backtrack(oldLines, newLines, lcsTable(oldLines, newLines))
	blocks := groupBlocks(entries)
	blocks = collapseBlocks(blocks, context)

	var st Stats
	for _, e := range entries {
		switch e.typ {
		case BlockAdded:
			st.LinesAdded++
		case BlockRemoved:
			st.LinesRemoved++
		default:
			st.LinesUnchanged++
		}
	}
	total := st.LinesAdded + st.LinesRemoved + st.LinesUnchanged
	if total > 0 {
		st.ChangePercentage = float64(st.LinesAdded+st.LinesRemoved) / float64(total)
	}

	return Result{Blocks: blocks, Stats: st}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func lineEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// lcsTable builds the standard O(m*n) LCS length table.
func lcsTable(oldLines, newLines []string) [][]int {
	m, n := len(oldLines), len(newLines)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if lineEqual(oldLines[i-1], newLines[j-1]) {
				table[i][j] = table[i-1][j-1] + 1
			} else if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}
	return table
}

// backtrack walks the table from the bottom-right corner and emits the
// diff entries in original line order.
func backtrack(oldLines, newLines []string, table [][]int) []entry {
	var reversed []entry
	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && lineEqual(oldLines[i-1], newLines[j-1]):
			reversed = append(reversed, entry{BlockUnchanged, newLines[j-1]})
			i--
			j--
		case j > 0 && (i == 0 || table[i][j-1] >= table[i-1][j]):
			reversed = append(reversed, entry{BlockAdded, newLines[j-1]})
			j--
		default:
			reversed = append(reversed, entry{BlockRemoved, oldLines[i-1]})
			i--
		}
	}
	entries := make([]entry, len(reversed))
	for k, e := range reversed {
		entries[len(reversed)-1-k] = e
	}
	return entries
}

func groupBlocks(entries []entry) []Block {
	var blocks []Block
	for _, e := range entries {
		if n := len(blocks); n > 0 && blocks[n-1].Type == e.typ {
			blocks[n-1].Lines = append(blocks[n-1].Lines, e.line)
			continue
		}
		blocks = append(blocks, Block{Type: e.typ, Lines: []string{e.line}})
	}
	return blocks
}

// collapseBlocks replaces the middle of long unchanged runs with a
// collapsed marker, keeping `context` lines next to any neighboring
// change block so reviewers see surrounding text.
func collapseBlocks(blocks []Block, context int) []Block {
	threshold := 2*context + 3
	var out []Block
	for idx, b := range blocks {
		if b.Type != BlockUnchanged || len(b.Lines) <= threshold {
			out = append(out, b)
			continue
		}
		keepHead := 0
		if idx > 0 {
			keepHead = context
		}
		keepTail := 0
		if idx < len(blocks)-1 {
			keepTail = context
		}
		skipped := len(b.Lines) - keepHead - keepTail
		if skipped <= 0 {
			out = append(out, b)
			continue
		}
		if keepHead > 0 {
			out = append(out, Block{Type: BlockUnchanged, Lines: b.Lines[:keepHead]})
		}
		out = append(out, Block{Type: BlockCollapsed, SkippedLines: skipped})
		if keepTail > 0 {
			out = append(out, Block{Type: BlockUnchanged, Lines: b.Lines[len(b.Lines)-keepTail:]})
		}
	}
	return out
}

// Similarity returns a 0..1 character-level similarity between two texts.
// It uses a greedy common-substring ratio rather than a full LCS, which is
// cheap enough to run on every scrape.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	// Walk the shorter text in fixed windows and count the characters of
	// every window that occurs verbatim in the longer text. Dividing the
	// doubled match count by the combined length penalizes both edits and
	// pure growth.
	const window = 16
	matched := 0
	i := 0
	for ; i+window <= len(shorter); i += window {
		if strings.Contains(longer, shorter[i:i+window]) {
			matched += window
		}
	}
	if tail := shorter[i:]; len(tail) > 0 && strings.Contains(longer, tail) {
		matched += len(tail)
	}
	return math.Min(1.0, float64(2*matched)/float64(len(a)+len(b)))
}

// SeverityFor maps a similarity score to a severity bucket.
func SeverityFor(similarity float64) string {
	switch {
	case similarity >= 0.95:
		return "minor"
	case similarity >= 0.80:
		return "moderate"
	case similarity >= 0.50:
		return "major"
	default:
		return "critical"
	}
}

// ChangedSections extracts paragraph-level added/removed sets by exact
// trimmed-paragraph match, a simpler view for UI consumption.
func ChangedSections(oldText, newText string) (added, removed []string) {
	oldParas := paragraphSet(oldText)
	newParas := paragraphSet(newText)
	for _, p := range paragraphList(newText) {
		if !oldParas[p] {
			added = append(added, p)
		}
	}
	for _, p := range paragraphList(oldText) {
		if !newParas[p] {
			removed = append(removed, p)
		}
	}
	return added, removed
}

func paragraphList(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func paragraphSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, p := range paragraphList(text) {
		set[p] = true
	}
	return set
}
