package service

import (
	"fmt"
	"strings"
)

// analystSystemPrompt fixes the model's role for every pipeline call.
const analystSystemPrompt = `You are an expert legal analyst specializing in consumer protection.
You review Terms of Service and Privacy Policies on behalf of ordinary users and
explain, in plain English, what a document means for the people who must accept it.
You are precise, you cite the section you are referring to, and you never invent
clauses that are not in the text. Always respond with only the requested JSON;
no surrounding prose, no markdown fences.`

// flagTaxonomy enumerates the flag types the model should prefer. The
// scoring registry is an open taxonomy, so unknown types are tolerated
// downstream, but a fixed vocabulary keeps deduplication effective.
var flagTaxonomy = []string{
	"forced_arbitration",
	"class_action_waiver",
	"extended_retention",
	"broad_data_sharing",
	"data_sale",
	"unilateral_changes",
	"no_change_notice",
	"vague_language",
	"hidden_terms",
	"account_termination",
	"content_license_grab",
	"liability_waiver",
	"jurisdiction_restriction",
	"tracking_expansion",
	"clear_language",
	"data_deletion_right",
	"explicit_opt_out",
	"advance_notice",
	"data_portability",
}

func buildChunkPrompt(chunkText string, index, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze section %d of %d of a legal document.\n\n", index+1, total)
	b.WriteString("Identify findings as flags. Colors: red = harmful to users, yellow = concerning, green = user-friendly.\n")
	b.WriteString("Prefer these flag types when they apply: ")
	b.WriteString(strings.Join(flagTaxonomy, ", "))
	b.WriteString(".\nSeverity is 1 (trivial) to 10 (egregious).\n\n")
	b.WriteString("Return exactly this JSON shape:\n")
	b.WriteString(`{
  "summary": "plain-English summary of this section",
  "flags": {
    "red": [{"type": "...", "description": "...", "section_reference": "...", "severity": 1}],
    "yellow": [],
    "green": []
  }
}`)
	b.WriteString("\n\nDocument section:\n\n")
	b.WriteString(chunkText)
	return b.String()
}

func buildSummaryPrompt(chunkSummaries []string, flagCounts map[string]int) string {
	var b strings.Builder
	b.WriteString("You analyzed a legal document section by section. Combine the section summaries below into an executive overview.\n\n")
	fmt.Fprintf(&b, "Flag counts: %d red, %d yellow, %d green.\n\n", flagCounts["red"], flagCounts["yellow"], flagCounts["green"])
	b.WriteString("Section summaries:\n")
	for i, s := range chunkSummaries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nReturn exactly this JSON shape:\n")
	b.WriteString(`{
  "summary": "2-3 paragraph executive summary for a non-lawyer",
  "concerns": "the most important risks, one short paragraph",
  "positives": "user-friendly aspects worth noting, one short paragraph"
}`)
	return b.String()
}

func buildFAQPrompt(flagTypes []string) string {
	var b strings.Builder
	b.WriteString("Based on a legal document analysis that raised these finding types:\n")
	b.WriteString(strings.Join(flagTypes, ", "))
	b.WriteString("\n\nWrite 5-8 frequently-asked questions an ordinary user would have, with short plain-English answers grounded in those findings.\n")
	b.WriteString("Return exactly this JSON shape:\n")
	b.WriteString(`{"faq": [{"question": "...", "answer": "..."}]}`)
	return b.String()
}

func buildDiffPrompt(diffText string) string {
	var b strings.Builder
	b.WriteString("Below is a line diff between two versions of a legal document. Lines starting with + were added, lines starting with - were removed.\n\n")
	b.WriteString("Assess what changed for users. impact_delta is -50 (much worse for users) to +50 (much better), 0 for neutral housekeeping.\n")
	b.WriteString("Use the same flag taxonomy and severity scale as full-document analysis.\n\n")
	b.WriteString("Return exactly this JSON shape:\n")
	b.WriteString(`{
  "summary": "plain-English description of the change and who it affects",
  "impact_delta": 0,
  "flags": [{"type": "...", "description": "...", "severity": 1, "color": "red"}]
}`)
	b.WriteString("\n\nDiff:\n\n")
	b.WriteString(diffText)
	return b.String()
}
