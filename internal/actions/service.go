package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/analysis"
	"compliance-backend/internal/compliance"
	"compliance-backend/internal/scoring"
)

// Analyzer runs the four analyses for one input.
type Analyzer interface {
	RunAll(ctx context.Context, in compliance.AnalysisInput) analysis.Report
}

// CreateInput derives an action from a recommendation. Type overrides the
// recommendation's action type; Details overrides the generated variant payload.
type CreateInput struct {
	Recommendation compliance.Recommendation `json:"recommendation"`
	Analysis       compliance.AnalysisInput  `json:"analysis"`
	Type           compliance.ActionType     `json:"type,omitempty"`
	Title          string                    `json:"title,omitempty"`
	Assignee       *string                   `json:"assignee,omitempty"`
	Attendees      []string                  `json:"attendees,omitempty"`
	Details        json.RawMessage           `json:"details,omitempty"`
}

// Service creates actions and exposes the store operations.
type Service struct {
	store    *Store
	analyzer Analyzer
	now      func() time.Time
}

// NewService constructs a Service over store. analyzer supplies the four analyses.
func NewService(store *Store, analyzer Analyzer) *Service {
	return &Service{store: store, analyzer: analyzer, now: time.Now}
}

// Store returns the underlying action store.
func (s *Service) Store() *Store {
	return s.store
}

// CreateFromRecommendation scores the recommendation against a fresh analysis
// report and stores the resulting action as pending.
func (s *Service) CreateFromRecommendation(ctx context.Context, in CreateInput) (Action, error) {
	rec := in.Recommendation
	t := in.Type
	if t == "" {
		t = rec.ActionType
	}
	if !t.IsValid() {
		return Action{}, fmt.Errorf("%w: %q", ErrUnsupportedActionType, t)
	}
	if strings.TrimSpace(rec.Message) == "" && strings.TrimSpace(in.Title) == "" {
		return Action{}, fmt.Errorf("%w: recommendation message or title is required", ErrInvalidAction)
	}

	report := s.analyzer.RunAll(ctx, in.Analysis)
	pc := in.Analysis.Context.Normalized()
	now := s.now().UTC()

	priority := scoring.CalculatePriority(report.RootCause, report.Impact, report.Resources)
	timeline := scoring.PlanTimeline(t, priority.Level, pc, now)
	success := scoring.EstimateSuccess(t, priority.Level, pc, report.Resources.AllocationEfficiency)

	a := Action{
		ID:                 uuid.NewString(),
		Type:               t,
		Title:              in.Title,
		Description:        rec.Message,
		Priority:           priority,
		Status:             StatusPending,
		RootCause:          report.RootCause,
		Impact:             report.Impact,
		Resources:          report.Resources,
		Timeline:           timeline,
		SuccessProbability: success,
		Assignee:           in.Assignee,
		Attendees:          nonNil(in.Attendees),
		RelatedDocuments:   nonNil(rec.RelatedDocuments),
		RelatedContractors: nonNil(compliance.ContractorIDs(in.Analysis.Issues)),
		RelatedIssues:      issueIDs(in.Analysis.Issues),
		CreatedAt:          now,
		UpdatedAt:          now,
		AIConfidence:       rec.AIConfidence,
		AIGenerated:        rec.AIGenerated,
	}
	if a.Title == "" {
		a.Title = defaultTitle(t, in.Analysis.ContractorName)
	}
	if len(a.RelatedContractors) == 0 && in.Analysis.ContractorID != "" {
		a.RelatedContractors = []string{in.Analysis.ContractorID}
	}

	if len(in.Details) > 0 {
		d, err := DecodeDetails(t, in.Details)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		a.Details = d
	} else {
		a.Details = DefaultDetails(a, report)
	}

	if err := s.store.Create(ctx, a); err != nil {
		return Action{}, err
	}
	return a, nil
}

// DefaultDetails builds the variant payload for a's type from the action and report.
func DefaultDetails(a Action, report analysis.Report) Details {
	switch a.Type {
	case compliance.ActionMeeting:
		return MeetingDetails{
			Attendees:       a.Attendees,
			Agenda:          append([]string{a.Description}, report.RootCause.ContributingFactors...),
			ScheduledFor:    a.Timeline.StartDate,
			DurationMinutes: 60,
		}
	case compliance.ActionEmail:
		return EmailDetails{
			Recipients: a.Attendees,
			Subject:    a.Title,
			Body:       a.Description,
			Template:   "compliance_reminder",
		}
	case compliance.ActionEscalation:
		escalateTo := "compliance-manager"
		if a.Assignee != nil && *a.Assignee != "" {
			escalateTo = *a.Assignee
		}
		return EscalationDetails{
			EscalateTo: escalateTo,
			Reason:     a.Description,
			Urgency:    string(a.Priority.Level),
		}
	case compliance.ActionSupport:
		return SupportDetails{
			SupportType:  "document_preparation",
			Resources:    nonNil(report.Resources.RecommendedResources),
			DurationDays: scoring.BaseDuration(a.Type, a.Priority.Level),
		}
	case compliance.ActionTraining:
		return TrainingDetails{
			Topics:        nonNil(a.RelatedDocuments),
			Trainees:      a.Attendees,
			Format:        "workshop",
			DurationHours: 4,
		}
	case compliance.ActionAudit:
		return AuditDetails{
			Scope:     nonNil(a.RelatedDocuments),
			Checklist: nonNil(report.RootCause.ContributingFactors),
		}
	case compliance.ActionReview:
		reviewer := ""
		if a.Assignee != nil {
			reviewer = *a.Assignee
		}
		return ReviewDetails{
			Reviewer:  reviewer,
			Documents: nonNil(a.RelatedDocuments),
			Criteria:  []string{"completeness", "approval status"},
		}
	}
	return nil
}

func defaultTitle(t compliance.ActionType, contractor string) string {
	label := strings.ToUpper(string(t[:1])) + string(t[1:])
	if contractor == "" {
		return label + " for compliance issues"
	}
	return label + " for " + contractor
}

func issueIDs(issues []compliance.CriticalIssue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.ContractorID+"-"+issue.DocumentTypeID)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
