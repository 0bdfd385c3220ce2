package model

// IdeaContext carries the descriptive attributes of a business idea.
// The scoring core never interprets these fields; they are forwarded to the oracle.
type IdeaContext struct {
	Title            string   `json:"title" yaml:"title"`
	Description      string   `json:"description" yaml:"description"`
	ProblemStatement string   `json:"problem_statement,omitempty" yaml:"problem_statement,omitempty"`
	TargetAudience   string   `json:"target_audience,omitempty" yaml:"target_audience,omitempty"`
	ValueProposition string   `json:"value_proposition,omitempty" yaml:"value_proposition,omitempty"`
	Category         string   `json:"category,omitempty" yaml:"category,omitempty"`
	Industry         string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	Tags             []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ResearchNote is one summarized research finding (competitor, market, trend, tech...).
type ResearchNote struct {
	Type    string `json:"type" yaml:"type"`
	Summary string `json:"summary" yaml:"summary"`
}

// ResearchContext is optional market/competitor context for an idea.
// A nil *ResearchContext means no research was performed.
type ResearchContext struct {
	Notes []ResearchNote `json:"notes" yaml:"notes"`
}

// MaxResearchNotes caps how many notes are forwarded to the oracle.
const MaxResearchNotes = 5

// IdeaInput is one idea queued for scoring.
type IdeaInput struct {
	ID       string           `json:"id" yaml:"id"`
	Idea     IdeaContext      `json:"idea" yaml:"idea"`
	Research *ResearchContext `json:"research,omitempty" yaml:"research,omitempty"`
}
