package domain

// Flag is a discrete risk/benefit finding extracted from document text.
// The type string is an open taxonomy: the scoring registry maps known
// types to dimension effects and ignores the rest, so new model-suggested
// types never crash scoring.
type Flag struct {
	Type             string `json:"type"`
	Description      string `json:"description"`
	SectionReference string `json:"section_reference,omitempty"`
	Severity         int    `json:"severity"`
	Color            string `json:"color"`
}

// Flag colors
const (
	FlagRed    = "red"
	FlagYellow = "yellow"
	FlagGreen  = "green"
)

// DeduplicateFlags collapses flags sharing a type, keeping the occurrence
// with the highest severity. Order of first occurrence is preserved.
func DeduplicateFlags(flags []Flag) []Flag {
	byType := make(map[string]int, len(flags))
	out := make([]Flag, 0, len(flags))
	for _, f := range flags {
		if idx, ok := byType[f.Type]; ok {
			if f.Severity > out[idx].Severity {
				out[idx] = f
			}
			continue
		}
		byType[f.Type] = len(out)
		out = append(out, f)
	}
	return out
}
