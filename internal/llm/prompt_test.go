package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/ideascore/internal/evaluate"
	"github.com/ppiankov/ideascore/internal/model"
)

func sampleRequest(research *model.ResearchContext) evaluate.Request {
	input := model.IdeaInput{
		ID: "idea-1",
		Idea: model.IdeaContext{
			Title:          "Shared kitchen booking",
			Description:    "Marketplace for renting idle restaurant kitchens by the hour.",
			TargetAudience: "Food startups",
			Tags:           []string{"marketplace", "food"},
		},
		Research: research,
	}
	req := evaluate.Request{
		IdeaID:  input.ID,
		Idea:    input.Idea,
		Factors: []evaluate.FactorSpec{{Key: "MD001", Name: "Search volume", Description: "Monthly searches"}, {Key: "MD002", Name: "Growth"}},
		Category: &evaluate.CategorySpec{
			Key:         "market_demand",
			Name:        "Market Demand",
			Description: "How many people want this",
		},
	}
	if research != nil {
		req.Research = research.Notes
	}
	return req
}

func TestBuildScoringPrompt(t *testing.T) {
	req := sampleRequest(&model.ResearchContext{Notes: []model.ResearchNote{
		{Type: "competitor", Summary: "Two regional players"},
		{Type: "market", Summary: "Ghost kitchens growing 12% a year"},
	}})

	prompt := BuildScoringPrompt(req)

	assert.Contains(t, prompt, `Score this business idea on the "Market Demand" category.`)
	assert.Contains(t, prompt, "Title: Shared kitchen booking")
	assert.Contains(t, prompt, "Tags: marketplace, food")
	assert.NotContains(t, prompt, "Industry:")
	assert.Contains(t, prompt, "COMPETITOR: Two regional players\nMARKET: Ghost kitchens growing 12% a year")
	assert.Contains(t, prompt, "Category Description: How many people want this")
	assert.Contains(t, prompt, "- MD001 (Search volume): Monthly searches\n- MD002 (Growth)\n")
	assert.Contains(t, prompt, `"MD002": {"score": 70, "rationale": "..."}`+"\n")
	assert.Equal(t, 1, strings.Count(prompt, `"MD001": {"score"`))
}

func TestBuildScoringPrompt_NoResearch(t *testing.T) {
	prompt := BuildScoringPrompt(sampleRequest(nil))
	assert.Contains(t, prompt, "Research Context:\nNo research data available.\n")
}

func TestBuildScoringPrompt_Deterministic(t *testing.T) {
	req := sampleRequest(nil)
	assert.Equal(t, BuildScoringPrompt(req), BuildScoringPrompt(req))

	req.Category = nil
	assert.True(t, strings.HasPrefix(BuildScoringPrompt(req), "Score this business idea on the factors below."))
}
