// Package compliance holds the issue and context types shared by the
// recommendation, analysis, scoring and action packages.
package compliance

import "time"

// ProjectPhase is the lifecycle stage of the project a contractor works on.
type ProjectPhase string

const (
	PhasePlanning  ProjectPhase = "planning"
	PhaseExecution ProjectPhase = "execution"
	PhaseCloseout  ProjectPhase = "closeout"
)

// DeadlinePressure describes how tight the project schedule is.
type DeadlinePressure string

const (
	PressureLow    DeadlinePressure = "low"
	PressureMedium DeadlinePressure = "medium"
	PressureHigh   DeadlinePressure = "high"
)

// StakeholderVisibility describes who is watching the compliance outcome.
type StakeholderVisibility string

const (
	VisibilityInternal   StakeholderVisibility = "internal"
	VisibilityClient     StakeholderVisibility = "client"
	VisibilityRegulatory StakeholderVisibility = "regulatory"
)

// ProjectContext is an immutable value object.
type ProjectContext struct {
	ProjectPhase          ProjectPhase          `json:"projectPhase"`
	DeadlinePressure      DeadlinePressure      `json:"deadlinePressure"`
	StakeholderVisibility StakeholderVisibility `json:"stakeholderVisibility"`
}

// Normalized fills blank or unknown fields with execution/medium/internal.
func (p ProjectContext) Normalized() ProjectContext {
	switch p.ProjectPhase {
	case PhasePlanning, PhaseExecution, PhaseCloseout:
	default:
		p.ProjectPhase = PhaseExecution
	}
	switch p.DeadlinePressure {
	case PressureLow, PressureMedium, PressureHigh:
	default:
		p.DeadlinePressure = PressureMedium
	}
	switch p.StakeholderVisibility {
	case VisibilityInternal, VisibilityClient, VisibilityRegulatory:
	default:
		p.StakeholderVisibility = VisibilityInternal
	}
	return p
}

// CriticalIssue is a contractor/document pairing that is overdue or under-approved.
// At most one of OverdueDays and DaysUntilDue is meaningful at a time.
type CriticalIssue struct {
	ContractorID     string `json:"contractorId"`
	ContractorName   string `json:"contractorName"`
	DocumentTypeID   string `json:"documentTypeId"`
	DocumentTypeName string `json:"documentTypeName"`
	RequiredCount    int    `json:"requiredCount"`
	ApprovedCount    int    `json:"approvedCount"`
	OverdueDays      int    `json:"overdueDays"`
	DaysUntilDue     *int   `json:"daysUntilDue,omitempty"`
}

// WarningLevel is the red-card escalation tier.
type WarningLevel int

const (
	WarningEarly   WarningLevel = 1
	WarningUrgent  WarningLevel = 2
	WarningOverdue WarningLevel = 3
)

// IsValid reports whether the level is 1, 2 or 3.
func (w WarningLevel) IsValid() bool {
	return w >= WarningEarly && w <= WarningOverdue
}

// RedCard is a critical issue classified into the three-level warning scheme.
type RedCard struct {
	CriticalIssue
	WarningLevel       WarningLevel `json:"warningLevel"`
	RiskScore          int          `json:"riskScore"`
	RecommendedActions []string     `json:"recommendedActions,omitempty"`
	ProgressPercentage int          `json:"progressPercentage"`
}

// Severity of a recommendation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IsValid reports whether s is one of the three severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ActionType names both recommendation action kinds and Action variants.
type ActionType string

const (
	ActionMeeting    ActionType = "meeting"
	ActionEmail      ActionType = "email"
	ActionEscalation ActionType = "escalation"
	ActionSupport    ActionType = "support"
	ActionTraining   ActionType = "training"
	ActionAudit      ActionType = "audit"
	ActionReview     ActionType = "review"
)

// ActionTypes lists every executable action type.
var ActionTypes = []ActionType{
	ActionMeeting, ActionEmail, ActionSupport, ActionEscalation, ActionTraining, ActionAudit, ActionReview,
}

// IsValid reports whether t is an executable action type.
func (t ActionType) IsValid() bool {
	for _, v := range ActionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsRecommendable reports whether a recommendation may carry t.
// Audit and review actions are only created directly, never recommended.
func (t ActionType) IsRecommendable() bool {
	switch t {
	case ActionMeeting, ActionEmail, ActionEscalation, ActionSupport, ActionTraining:
		return true
	}
	return false
}

// RecommendationRequest is the input to the recommendation service.
type RecommendationRequest struct {
	ContractorID   string          `json:"contractorId"`
	ContractorName string          `json:"contractorName"`
	CriticalIssues []CriticalIssue `json:"criticalIssues"`
	RedCards       []RedCard       `json:"redCards,omitempty"`
	Context        ProjectContext  `json:"context"`
}

// Recommendation is one ranked, explainable suggestion.
type Recommendation struct {
	ID               string       `json:"id"`
	Severity         Severity     `json:"severity"`
	Message          string       `json:"message"`
	ActionType       ActionType   `json:"actionType"`
	EstimatedImpact  string       `json:"estimatedImpact"`
	TimeToImplement  string       `json:"timeToImplement"`
	RelatedDocuments []string     `json:"relatedDocuments"`
	AIConfidence     int          `json:"aiConfidence"`
	AIGenerated      bool         `json:"aiGenerated"`
	WarningLevel     WarningLevel `json:"warningLevel,omitempty"`
	RiskScore        *int         `json:"riskScore,omitempty"`
}

// HistoricalRecord is one past overdue observation used for pattern recognition.
type HistoricalRecord struct {
	ContractorID     string    `json:"contractorId"`
	DocumentTypeID   string    `json:"documentTypeId"`
	DocumentTypeName string    `json:"documentTypeName"`
	OverdueDays      int       `json:"overdueDays"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// AnalysisInput is shared by the four analyses.
type AnalysisInput struct {
	ContractorID       string             `json:"contractorId"`
	ContractorName     string             `json:"contractorName"`
	Issues             []CriticalIssue    `json:"criticalIssues"`
	RedCards           []RedCard          `json:"redCards,omitempty"`
	Context            ProjectContext     `json:"context"`
	Historical         []HistoricalRecord `json:"historicalData,omitempty"`
	AvailableResources []string           `json:"availableResources,omitempty"`
}

// DocumentNames returns the document type names of issues, in order.
func DocumentNames(issues []CriticalIssue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.DocumentTypeName)
	}
	return out
}

// ContractorIDs returns the distinct contractor ids of issues in first-seen order.
func ContractorIDs(issues []CriticalIssue) []string {
	seen := make(map[string]struct{}, len(issues))
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.ContractorID == "" {
			continue
		}
		if _, ok := seen[issue.ContractorID]; ok {
			continue
		}
		seen[issue.ContractorID] = struct{}{}
		out = append(out, issue.ContractorID)
	}
	return out
}
