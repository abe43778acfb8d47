package actions

import (
	"encoding/json"
	"fmt"
	"time"

	"compliance-backend/internal/analysis"
	"compliance-backend/internal/compliance"
	"compliance-backend/internal/scoring"
)

// Status is the lifecycle state of an Action.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Details is the variant payload of an Action. Exactly one implementation
// exists per action type.
type Details interface {
	ActionType() compliance.ActionType
	isDetails()
}

// MeetingDetails describes a meeting to schedule.
type MeetingDetails struct {
	Attendees       []string  `json:"attendees"`
	Agenda          []string  `json:"agenda"`
	ScheduledFor    time.Time `json:"scheduledFor"`
	DurationMinutes int       `json:"durationMinutes"`
	Location        string    `json:"location,omitempty"`
}

// EmailDetails describes a notification email.
type EmailDetails struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Template   string   `json:"template,omitempty"`
}

// SupportDetails describes hands-on support for a contractor.
type SupportDetails struct {
	SupportType  string   `json:"supportType"`
	Resources    []string `json:"resources"`
	DurationDays int      `json:"durationDays"`
}

// EscalationDetails names who an issue is escalated to and why.
type EscalationDetails struct {
	EscalateTo string `json:"escalateTo"`
	Reason     string `json:"reason"`
	Urgency    string `json:"urgency"`
}

// TrainingDetails describes a training session.
type TrainingDetails struct {
	Topics        []string `json:"topics"`
	Trainees      []string `json:"trainees"`
	Format        string   `json:"format"`
	DurationHours int      `json:"durationHours"`
}

// AuditDetails describes a compliance audit.
type AuditDetails struct {
	Scope     []string `json:"scope"`
	Auditor   string   `json:"auditor,omitempty"`
	Checklist []string `json:"checklist"`
}

// ReviewDetails describes a document review.
type ReviewDetails struct {
	Reviewer  string   `json:"reviewer,omitempty"`
	Documents []string `json:"documents"`
	Criteria  []string `json:"criteria"`
}

func (MeetingDetails) ActionType() compliance.ActionType    { return compliance.ActionMeeting }
func (EmailDetails) ActionType() compliance.ActionType      { return compliance.ActionEmail }
func (SupportDetails) ActionType() compliance.ActionType    { return compliance.ActionSupport }
func (EscalationDetails) ActionType() compliance.ActionType { return compliance.ActionEscalation }
func (TrainingDetails) ActionType() compliance.ActionType   { return compliance.ActionTraining }
func (AuditDetails) ActionType() compliance.ActionType      { return compliance.ActionAudit }
func (ReviewDetails) ActionType() compliance.ActionType     { return compliance.ActionReview }

func (MeetingDetails) isDetails()    {}
func (EmailDetails) isDetails()      {}
func (SupportDetails) isDetails()    {}
func (EscalationDetails) isDetails() {}
func (TrainingDetails) isDetails()   {}
func (AuditDetails) isDetails()      {}
func (ReviewDetails) isDetails()     {}

// DecodeDetails decodes raw into the variant for t.
func DecodeDetails(t compliance.ActionType, raw json.RawMessage) (Details, error) {
	var (
		d   Details
		err error
	)
	switch t {
	case compliance.ActionMeeting:
		d, err = decodeAs[MeetingDetails](raw)
	case compliance.ActionEmail:
		d, err = decodeAs[EmailDetails](raw)
	case compliance.ActionSupport:
		d, err = decodeAs[SupportDetails](raw)
	case compliance.ActionEscalation:
		d, err = decodeAs[EscalationDetails](raw)
	case compliance.ActionTraining:
		d, err = decodeAs[TrainingDetails](raw)
	case compliance.ActionAudit:
		d, err = decodeAs[AuditDetails](raw)
	case compliance.ActionReview:
		d, err = decodeAs[ReviewDetails](raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedActionType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", t, err)
	}
	return d, nil
}

func decodeAs[T Details](raw json.RawMessage) (Details, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Action is a trackable unit of remedial work.
type Action struct {
	ID                 string                        `json:"id"`
	Type               compliance.ActionType         `json:"type"`
	Title              string                        `json:"title"`
	Description        string                        `json:"description"`
	Priority           scoring.ActionPriority        `json:"priority"`
	Status             Status                        `json:"status"`
	PauseReason        string                        `json:"pauseReason,omitempty"`
	PausedAt           *time.Time                    `json:"pausedAt,omitempty"`
	CancelReason       string                        `json:"cancelReason,omitempty"`
	CancelledAt        *time.Time                    `json:"cancelledAt,omitempty"`
	RootCause          analysis.RootCauseAnalysis    `json:"rootCauseAnalysis"`
	Impact             analysis.ImpactAssessment     `json:"impactAssessment"`
	Resources          analysis.ResourceOptimization `json:"resourceOptimization"`
	Timeline           scoring.TimelinePlanning      `json:"timeline"`
	SuccessProbability scoring.SuccessProbability    `json:"successProbability"`
	Assignee           *string                       `json:"assignee"`
	Attendees          []string                      `json:"attendees"`
	RelatedDocuments   []string                      `json:"relatedDocuments"`
	RelatedContractors []string                      `json:"relatedContractors"`
	RelatedIssues      []string                      `json:"relatedIssues"`
	CreatedAt          time.Time                     `json:"createdAt"`
	UpdatedAt          time.Time                     `json:"updatedAt"`
	AIConfidence       int                           `json:"aiConfidence"`
	AIGenerated        bool                          `json:"aiGenerated"`
	Details            Details                       `json:"details"`
	Result             json.RawMessage               `json:"result,omitempty"`
	Error              string                        `json:"error,omitempty"`
	StartedAt          *time.Time                    `json:"startedAt,omitempty"`
	CompletedAt        *time.Time                    `json:"completedAt,omitempty"`
}

// IsPaused reports whether a pause reason is recorded.
func (a Action) IsPaused() bool {
	return a.PauseReason != ""
}

// Validate enforces that Details is present and matches Type.
func (a Action) Validate() error {
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedActionType, a.Type)
	}
	if a.Details == nil {
		return fmt.Errorf("%w: %s action has no details", ErrInvalidAction, a.Type)
	}
	if a.Details.ActionType() != a.Type {
		return fmt.Errorf("%w: %s action carries %s details", ErrInvalidAction, a.Type, a.Details.ActionType())
	}
	return nil
}

// UnmarshalJSON decodes Details according to Type.
func (a *Action) UnmarshalJSON(b []byte) error {
	type alias Action
	var raw struct {
		alias
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = Action(raw.alias)
	d, err := DecodeDetails(a.Type, raw.Details)
	if err != nil {
		return err
	}
	a.Details = d
	return nil
}

// ExecutionMetrics describes one execution for the learning signal.
type ExecutionMetrics struct {
	TimeToExecute  int64                     `json:"timeToExecute"`
	ResourcesUsed  []string                  `json:"resourcesUsed"`
	ActualImpact   analysis.ImpactAssessment `json:"actualImpact"`
	LessonsLearned []string                  `json:"lessonsLearned"`
}

// ExecutionResult is returned for every execution attempt, successful or not.
type ExecutionResult struct {
	ActionID      string           `json:"actionId"`
	Success       bool             `json:"success"`
	ExecutedAt    time.Time        `json:"executedAt"`
	ExecutionTime int64            `json:"executionTime"`
	Result        json.RawMessage  `json:"result,omitempty"`
	Error         *string          `json:"error"`
	Metrics       ExecutionMetrics `json:"metrics"`
}

// ExecutionMode of a batch.
type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
)

// FailureMode of a batch.
type FailureMode string

const (
	StopOnFirst     FailureMode = "stop_on_first"
	ContinueOnError FailureMode = "continue_on_error"
)

// BatchRequest selects actions and the batch policy.
type BatchRequest struct {
	ActionIDs      []string      `json:"actionIds"`
	ExecutionMode  ExecutionMode `json:"executionMode"`
	FailureMode    FailureMode   `json:"failureMode"`
	MaxConcurrency int           `json:"maxConcurrency,omitempty"`
}

// Validate checks the modes and that at least one action is requested.
func (r BatchRequest) Validate() error {
	if len(r.ActionIDs) == 0 {
		return fmt.Errorf("%w: actionIds is required", ErrInvalidBatch)
	}
	if r.ExecutionMode != ModeSequential && r.ExecutionMode != ModeParallel {
		return fmt.Errorf("%w: executionMode must be sequential or parallel", ErrInvalidBatch)
	}
	if r.FailureMode != StopOnFirst && r.FailureMode != ContinueOnError {
		return fmt.Errorf("%w: failureMode must be stop_on_first or continue_on_error", ErrInvalidBatch)
	}
	if r.MaxConcurrency < 0 {
		return fmt.Errorf("%w: maxConcurrency must not be negative", ErrInvalidBatch)
	}
	return nil
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	BatchID       string            `json:"batchId"`
	TotalActions  int               `json:"totalActions"`
	Successful    int               `json:"successful"`
	Failed        int               `json:"failed"`
	Results       []ExecutionResult `json:"results"`
	StartTime     time.Time         `json:"startTime"`
	EndTime       time.Time         `json:"endTime"`
	TotalDuration int64             `json:"totalDuration"`
}
