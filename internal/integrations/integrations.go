// Package integrations defines the outbound capabilities action handlers may
// delegate to: calendar, email and task management.
package integrations

import (
	"context"
	"time"
)

// Config enables and parameterizes one integration.
type Config struct {
	Enabled         bool   `json:"enabled"`
	Provider        string `json:"provider"`
	Endpoint        string `json:"endpoint,omitempty"`
	DefaultCalendar string `json:"defaultCalendar,omitempty"`
	DefaultProject  string `json:"defaultProject,omitempty"`
	ClientID        string `json:"-"`
	ClientSecret    string `json:"-"`
	TokenURL        string `json:"-"`
}

// Receipt identifies what an integration created.
type Receipt struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"externalId"`
	URL        string `json:"url,omitempty"`
}

// Meeting is a calendar event request.
type Meeting struct {
	Calendar        string    `json:"calendar"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Attendees       []string  `json:"attendees"`
	Agenda          []string  `json:"agenda,omitempty"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Location        string    `json:"location,omitempty"`
}

// EmailMessage is an outbound email.
type EmailMessage struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Priority string   `json:"priority,omitempty"`
}

// Task is a work item filed with a task manager.
type Task struct {
	Project     string    `json:"project"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	Labels      []string  `json:"labels,omitempty"`
}

// Calendar schedules meetings.
type Calendar interface {
	ScheduleMeeting(ctx context.Context, m Meeting) (Receipt, error)
}

// Email delivers messages.
type Email interface {
	Send(ctx context.Context, msg EmailMessage) (Receipt, error)
}

// TaskManager files tasks.
type TaskManager interface {
	CreateTask(ctx context.Context, t Task) (Receipt, error)
}

// Set is passed explicitly to the action executor. A capability is used only
// when its client is non-nil and its config is enabled.
type Set struct {
	Calendar       Calendar
	CalendarConfig Config
	Email          Email
	EmailConfig    Config
	Tasks          TaskManager
	TasksConfig    Config
}

// CalendarEnabled reports whether meetings should be sent to the calendar.
func (s Set) CalendarEnabled() bool { return s.Calendar != nil && s.CalendarConfig.Enabled }

// EmailEnabled reports whether emails and escalations should be sent.
func (s Set) EmailEnabled() bool { return s.Email != nil && s.EmailConfig.Enabled }

// TasksEnabled reports whether task-based actions should be filed.
func (s Set) TasksEnabled() bool { return s.Tasks != nil && s.TasksConfig.Enabled }
