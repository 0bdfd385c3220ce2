package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/ideascore/internal/evaluate"
)

// SystemPrompt frames every scoring call.
const SystemPrompt = "You are a venture analyst who scores business ideas. " +
	"Score each requested factor from 0 to 100 using only the information given. " +
	"Answer with JSON only."

const noResearch = "No research data available."

// BuildScoringPrompt renders a request as a deterministic prompt.
// The same request always yields byte-identical text.
func BuildScoringPrompt(req evaluate.Request) string {
	var b strings.Builder

	if req.Category != nil {
		fmt.Fprintf(&b, "Score this business idea on the %q category.\n\n", req.Category.Name)
	} else {
		b.WriteString("Score this business idea on the factors below.\n\n")
	}

	idea := req.Idea
	b.WriteString("Idea:\n")
	writeField(&b, "Title", idea.Title)
	writeField(&b, "Description", idea.Description)
	writeField(&b, "Problem", idea.ProblemStatement)
	writeField(&b, "Target Audience", idea.TargetAudience)
	writeField(&b, "Value Proposition", idea.ValueProposition)
	writeField(&b, "Category", idea.Category)
	writeField(&b, "Industry", idea.Industry)
	if len(idea.Tags) > 0 {
		writeField(&b, "Tags", strings.Join(idea.Tags, ", "))
	}

	b.WriteString("\nResearch Context:\n")
	if research := req.ResearchText(); research != "" {
		b.WriteString(research)
	} else {
		b.WriteString(noResearch)
	}
	b.WriteString("\n")

	if req.Category != nil && req.Category.Description != "" {
		fmt.Fprintf(&b, "\nCategory Description: %s\n", req.Category.Description)
	}

	b.WriteString("\nEvaluate the following factors (score each 0-100):\n")
	for _, f := range req.Factors {
		if f.Description != "" {
			fmt.Fprintf(&b, "- %s (%s): %s\n", f.Key, f.Name, f.Description)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", f.Key, f.Name)
		}
	}

	b.WriteString(`
Return a JSON object with:
1. "factor_scores": object keyed by factor code, each value {"score": 0-100, "rationale": "one sentence"}
2. "reasoning": brief overall explanation

Example:
{
  "factor_scores": {
`)
	for i, f := range req.Factors {
		sep := ","
		if i == len(req.Factors)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: {\"score\": 70, \"rationale\": \"...\"}%s\n", f.Key, sep)
	}
	b.WriteString(`  },
  "reasoning": "..."
}
`)
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
