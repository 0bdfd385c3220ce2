package evaluate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/ppiankov/ideascore/internal/catalog"
	"github.com/ppiankov/ideascore/internal/model"
)

// FactorSpec is the part of a factor definition the oracle needs to see.
type FactorSpec struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategorySpec describes the category a request belongs to, when there is one.
type CategorySpec struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Request is one oracle call: a batch of factors plus idea and research context.
// Building it is deterministic, so equal inputs yield equal fingerprints.
type Request struct {
	IdeaID   string               `json:"idea_id"`
	Idea     model.IdeaContext    `json:"idea"`
	Research []model.ResearchNote `json:"research,omitempty"`
	Category *CategorySpec        `json:"category,omitempty"`
	Factors  []FactorSpec         `json:"factors"`
}

// BuildRequest assembles a request for the given factors in caller order.
// Research notes keep their order and are capped at model.MaxResearchNotes.
// Duplicate factor keys are collapsed, first occurrence wins.
func BuildRequest(input model.IdeaInput, factors []catalog.FactorDefinition) Request {
	req := Request{
		IdeaID:  input.ID,
		Idea:    input.Idea,
		Factors: make([]FactorSpec, 0, len(factors)),
	}

	if input.Research != nil {
		notes := input.Research.Notes
		if len(notes) > model.MaxResearchNotes {
			notes = notes[:model.MaxResearchNotes]
		}
		req.Research = append([]model.ResearchNote(nil), notes...)
	}

	seen := make(map[string]struct{}, len(factors))
	for _, f := range factors {
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}
		req.Factors = append(req.Factors, FactorSpec{
			Key:         f.Key,
			Name:        f.Name,
			Description: f.Description,
		})
	}
	return req
}

// BuildCategoryRequest requests every factor of one category.
func BuildCategoryRequest(input model.IdeaInput, cat catalog.CategoryDefinition) Request {
	req := BuildRequest(input, cat.Factors)
	req.Category = &CategorySpec{
		Key:         cat.Key,
		Name:        cat.Name,
		Description: cat.Description,
	}
	return req
}

// FactorKeys lists the requested keys in request order.
func (r Request) FactorKeys() []string {
	keys := make([]string, len(r.Factors))
	for i, f := range r.Factors {
		keys[i] = f.Key
	}
	return keys
}

// ResearchText renders notes as "TYPE: summary" lines.
func (r Request) ResearchText() string {
	if len(r.Research) == 0 {
		return ""
	}
	lines := make([]string, 0, len(r.Research))
	for _, n := range r.Research {
		lines = append(lines, strings.ToUpper(n.Type)+": "+n.Summary)
	}
	return strings.Join(lines, "\n")
}

// Fingerprint is a stable hash of the request content.
// The idea ID is excluded so identical ideas share cached responses.
func (r Request) Fingerprint() string {
	c := r
	c.IdeaID = ""
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
