package actions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-backend/internal/analysis"
	"compliance-backend/internal/compliance"
	"compliance-backend/internal/scoring"
)

func testReport() analysis.Report {
	in := compliance.AnalysisInput{
		Issues: []compliance.CriticalIssue{
			{ContractorID: "c1", DocumentTypeID: "d1", DocumentTypeName: "Insurance", RequiredCount: 1, OverdueDays: 10},
		},
		Context:            compliance.ProjectContext{DeadlinePressure: compliance.PressureHigh},
		AvailableResources: []string{"coordinator"},
	}
	return analysis.Report{
		RootCause: analysis.FallbackRootCause(in),
		Patterns:  analysis.FallbackPatterns(in),
		Impact:    analysis.FallbackImpact(in),
		Resources: analysis.FallbackResources(in),
	}
}

func newTestService() (*Service, *fakeAnalyzer) {
	an := &fakeAnalyzer{report: testReport()}
	svc := NewService(newTestStore(), an)
	svc.now = func() time.Time { return testNow }
	return svc, an
}

func TestCreateFromRecommendationScoresAndStoresPending(t *testing.T) {
	svc, an := newTestService()
	rec := compliance.Recommendation{
		ID:               "r1",
		Severity:         compliance.SeverityHigh,
		Message:          "Acme has 0/1 approved Insurance, 10 days overdue",
		ActionType:       compliance.ActionEscalation,
		RelatedDocuments: []string{"Insurance"},
		AIConfidence:     85,
	}
	in := compliance.AnalysisInput{
		ContractorID:   "c1",
		ContractorName: "Acme",
		Issues:         []compliance.CriticalIssue{{ContractorID: "c1", DocumentTypeID: "d1", DocumentTypeName: "Insurance"}},
		Context:        compliance.ProjectContext{DeadlinePressure: compliance.PressureHigh},
	}

	a, err := svc.CreateFromRecommendation(context.Background(), CreateInput{Recommendation: rec, Analysis: in})
	require.NoError(t, err)
	assert.Equal(t, 1, an.calls)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, compliance.ActionEscalation, a.Type)
	assert.Equal(t, "Escalation for Acme", a.Title)
	assert.Equal(t, []string{"c1"}, a.RelatedContractors)
	assert.Equal(t, []string{"c1-d1"}, a.RelatedIssues)
	assert.Equal(t, 85, a.AIConfidence)

	report := testReport()
	want := scoring.CalculatePriority(report.RootCause, report.Impact, report.Resources)
	assert.Equal(t, want, a.Priority)
	assert.Len(t, a.Timeline.Milestones, 2)
	assert.True(t, a.Timeline.StartDate.Equal(testNow))

	d, ok := a.Details.(EscalationDetails)
	require.True(t, ok)
	assert.Equal(t, "compliance-manager", d.EscalateTo)
	assert.Equal(t, string(want.Level), d.Urgency)

	stored, err := svc.Store().Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Priority, stored.Priority)
}

func TestCreateFromRecommendationHonorsOverrides(t *testing.T) {
	svc, _ := newTestService()
	a, err := svc.CreateFromRecommendation(context.Background(), CreateInput{
		Recommendation: compliance.Recommendation{Message: "review docs", ActionType: compliance.ActionMeeting},
		Type:           compliance.ActionAudit,
		Title:          "Q3 audit",
		Details:        json.RawMessage(`{"scope":["Insurance"],"auditor":"ext","checklist":["dates"]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.ActionAudit, a.Type)
	assert.Equal(t, "Q3 audit", a.Title)
	d, ok := a.Details.(AuditDetails)
	require.True(t, ok)
	assert.Equal(t, "ext", d.Auditor)
}

func TestCreateFromRecommendationRejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreateFromRecommendation(context.Background(), CreateInput{
		Recommendation: compliance.Recommendation{Message: "x", ActionType: "fax"},
	})
	require.ErrorIs(t, err, ErrUnsupportedActionType)

	_, err = svc.CreateFromRecommendation(context.Background(), CreateInput{
		Recommendation: compliance.Recommendation{ActionType: compliance.ActionEmail},
	})
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = svc.CreateFromRecommendation(context.Background(), CreateInput{
		Recommendation: compliance.Recommendation{Message: "x", ActionType: compliance.ActionEmail},
		Details:        json.RawMessage(`{"recipients":"not-a-list"}`),
	})
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestDefaultDetailsCoversEveryType(t *testing.T) {
	report := testReport()
	for _, typ := range compliance.ActionTypes {
		d := DefaultDetails(Action{Type: typ, Description: "x"}, report)
		require.NotNil(t, d, "type %s", typ)
		assert.Equal(t, typ, d.ActionType())
	}
}
