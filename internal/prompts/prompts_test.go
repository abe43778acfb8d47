package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"compliance-backend/internal/compliance"
)

func sampleInput() compliance.AnalysisInput {
	due := 4
	return compliance.AnalysisInput{
		ContractorID:   "c-1",
		ContractorName: "Acme Scaffolding",
		Issues: []compliance.CriticalIssue{
			{ContractorName: "Acme Scaffolding", DocumentTypeName: "Insurance Certificate", RequiredCount: 2, ApprovedCount: 1, OverdueDays: 9},
			{ContractorName: "Acme Scaffolding", DocumentTypeName: "Method Statement", RequiredCount: 1, DaysUntilDue: &due},
		},
		RedCards: []compliance.RedCard{{
			CriticalIssue: compliance.CriticalIssue{ContractorName: "Acme Scaffolding", DocumentTypeName: "Insurance Certificate"},
			WarningLevel:  compliance.WarningOverdue, RiskScore: 85,
		}},
		Context:            compliance.ProjectContext{ProjectPhase: compliance.PhaseExecution, DeadlinePressure: compliance.PressureHigh, StakeholderVisibility: compliance.VisibilityClient},
		Historical:         []compliance.HistoricalRecord{{ContractorID: "c-1", DocumentTypeName: "Insurance Certificate", OverdueDays: 5, RecordedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}},
		AvailableResources: []string{"Compliance officer", "Site manager"},
	}
}

func TestBuildersAreDeterministic(t *testing.T) {
	in := sampleInput()
	req := compliance.RecommendationRequest{ContractorID: in.ContractorID, ContractorName: in.ContractorName, CriticalIssues: in.Issues, RedCards: in.RedCards, Context: in.Context}

	assert.Equal(t, Recommendations(req), Recommendations(req))
	assert.Equal(t, RootCause(in), RootCause(in))
	assert.Equal(t, Patterns(in), Patterns(in))
	assert.Equal(t, Impact(in), Impact(in))
	assert.Equal(t, Resources(in), Resources(in))
}

func TestRecommendationPromptEmbedsDataAndSchema(t *testing.T) {
	in := sampleInput()
	p := Recommendations(compliance.RecommendationRequest{ContractorID: "c-1", ContractorName: "Acme Scaffolding", CriticalIssues: in.Issues, RedCards: in.RedCards, Context: in.Context})

	assert.Contains(t, p.System, "JSON only")
	assert.Contains(t, p.Prompt, "Insurance Certificate approved 1/2, overdue 9 days")
	assert.Contains(t, p.Prompt, "Method Statement approved 0/1, due in 4 days")
	assert.Contains(t, p.Prompt, "level 3 Acme Scaffolding")
	assert.Contains(t, p.Prompt, "Deadline pressure: high")
	assert.Contains(t, p.Prompt, `"recommendations"`)
}

func TestAnalysisPromptsTolerateEmptyInput(t *testing.T) {
	var in compliance.AnalysisInput
	for _, p := range []string{RootCause(in).Prompt, Patterns(in).Prompt, Impact(in).Prompt, Resources(in).Prompt} {
		assert.Contains(t, p, "Scope: all contractors")
		assert.True(t, strings.Contains(p, "- none"), p)
	}
	assert.Contains(t, Patterns(sampleInput()).Prompt, "2026-03-01 contractor=c-1")
	assert.Contains(t, Resources(sampleInput()).Prompt, "- Site manager")
}
