package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/integrations"
)

// outcome is what a type handler reports back to the executor.
type outcome struct {
	payload       map[string]any
	resourcesUsed []string
}

type handlerFunc func(ctx context.Context, a Action) (outcome, error)

func (e *Executor) registerHandlers() {
	e.handlers = map[compliance.ActionType]handlerFunc{
		compliance.ActionMeeting:    e.handleMeeting,
		compliance.ActionEmail:      e.handleEmail,
		compliance.ActionEscalation: e.handleEscalation,
		compliance.ActionSupport:    e.taskHandler("support_scheduled"),
		compliance.ActionTraining:   e.taskHandler("training_scheduled"),
		compliance.ActionAudit:      e.taskHandler("audit_scheduled"),
		compliance.ActionReview:     e.taskHandler("review_requested"),
	}
}

func (e *Executor) handleMeeting(ctx context.Context, a Action) (outcome, error) {
	d, ok := a.Details.(MeetingDetails)
	if !ok {
		return outcome{}, detailsMismatch(a)
	}
	attendees := d.Attendees
	if len(attendees) == 0 {
		attendees = a.Attendees
	}
	scheduled := d.ScheduledFor
	if scheduled.IsZero() {
		scheduled = a.Timeline.StartDate
	}
	duration := d.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	payload := map[string]any{
		"type":            "meeting_scheduled",
		"attendees":       attendees,
		"scheduledFor":    scheduled,
		"durationMinutes": duration,
		"agenda":          d.Agenda,
	}

	if !e.integrations.CalendarEnabled() {
		payload["calendar"] = e.integrations.CalendarConfig.DefaultCalendar
		payload["delivered"] = false
		return outcome{payload: payload, resourcesUsed: []string{"calendar:fallback"}}, nil
	}
	receipt, err := e.integrations.Calendar.ScheduleMeeting(ctx, integrations.Meeting{
		Calendar:        e.integrations.CalendarConfig.DefaultCalendar,
		Title:           a.Title,
		Description:     a.Description,
		Attendees:       attendees,
		Agenda:          d.Agenda,
		Start:           scheduled,
		DurationMinutes: duration,
		Location:        d.Location,
	})
	if err != nil {
		return outcome{}, err
	}
	payload["delivered"] = true
	payload["receipt"] = receipt
	return outcome{payload: payload, resourcesUsed: []string{"calendar:" + receipt.Provider}}, nil
}

func (e *Executor) handleEmail(ctx context.Context, a Action) (outcome, error) {
	d, ok := a.Details.(EmailDetails)
	if !ok {
		return outcome{}, detailsMismatch(a)
	}
	payload := map[string]any{
		"type":       "email_sent",
		"recipients": d.Recipients,
		"subject":    d.Subject,
	}
	return e.sendEmail(ctx, payload, integrations.EmailMessage{
		To:      d.Recipients,
		Subject: d.Subject,
		Body:    d.Body,
	})
}

func (e *Executor) handleEscalation(ctx context.Context, a Action) (outcome, error) {
	d, ok := a.Details.(EscalationDetails)
	if !ok {
		return outcome{}, detailsMismatch(a)
	}
	if strings.TrimSpace(d.EscalateTo) == "" {
		return outcome{}, fmt.Errorf("escalation has no recipient")
	}
	payload := map[string]any{
		"type":        "escalation_created",
		"escalatedTo": d.EscalateTo,
		"reason":      d.Reason,
		"urgency":     d.Urgency,
	}
	return e.sendEmail(ctx, payload, integrations.EmailMessage{
		To:       []string{d.EscalateTo},
		Subject:  "Escalation: " + a.Title,
		Body:     d.Reason + "\n\n" + a.Description,
		Priority: d.Urgency,
	})
}

func (e *Executor) sendEmail(ctx context.Context, payload map[string]any, msg integrations.EmailMessage) (outcome, error) {
	if !e.integrations.EmailEnabled() {
		payload["delivered"] = false
		return outcome{payload: payload, resourcesUsed: []string{"email:fallback"}}, nil
	}
	receipt, err := e.integrations.Email.Send(ctx, msg)
	if err != nil {
		return outcome{}, err
	}
	payload["delivered"] = true
	payload["receipt"] = receipt
	return outcome{payload: payload, resourcesUsed: []string{"email:" + receipt.Provider}}, nil
}

// taskHandler files support, training, audit and review actions as tasks.
func (e *Executor) taskHandler(resultType string) handlerFunc {
	return func(ctx context.Context, a Action) (outcome, error) {
		if a.Details == nil || a.Details.ActionType() != a.Type {
			return outcome{}, detailsMismatch(a)
		}
		assignee := ""
		if a.Assignee != nil {
			assignee = *a.Assignee
		}
		due := a.Timeline.EndDate
		if due.IsZero() {
			due = e.now().UTC()
		}
		payload := map[string]any{
			"type":     resultType,
			"title":    a.Title,
			"assignee": assignee,
			"dueDate":  due.Format(time.RFC3339),
			"details":  a.Details,
		}
		if !e.integrations.TasksEnabled() {
			payload["project"] = e.integrations.TasksConfig.DefaultProject
			payload["delivered"] = false
			return outcome{payload: payload, resourcesUsed: []string{"tasks:fallback"}}, nil
		}
		receipt, err := e.integrations.Tasks.CreateTask(ctx, integrations.Task{
			Project:     e.integrations.TasksConfig.DefaultProject,
			Title:       a.Title,
			Description: a.Description,
			Assignee:    assignee,
			DueDate:     due,
			Labels:      []string{"compliance", string(a.Type)},
		})
		if err != nil {
			return outcome{}, err
		}
		payload["delivered"] = true
		payload["receipt"] = receipt
		return outcome{payload: payload, resourcesUsed: []string{"tasks:" + receipt.Provider}}, nil
	}
}

func detailsMismatch(a Action) error {
	return fmt.Errorf("%w: %s action has mismatched details", ErrInvalidAction, a.Type)
}
