package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/shared/storage/kv"
	"compliance-backend/internal/shared/telemetry"
)

const actionPrefix = "action:"

// errNoChange aborts an update without writing; the caller maps it to false.
var errNoChange = errors.New("no change")

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status Status
	Type   compliance.ActionType
}

// Store persists actions and owns every status transition. Each transition is
// an atomic read-modify-write on a single action key.
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// NewStore constructs a Store. A nil now uses time.Now.
func NewStore(store kv.Store, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{kv: store, now: now}
}

// Create stores a new action. The action must validate.
func (s *Store) Create(ctx context.Context, a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return kv.PutJSON(ctx, s.kv, actionPrefix+a.ID, a)
}

// Get returns the action or ErrActionNotFound.
func (s *Store) Get(ctx context.Context, id string) (Action, error) {
	a, err := kv.GetJSON[Action](ctx, s.kv, actionPrefix+id)
	if errors.Is(err, kv.ErrNotFound) {
		return Action{}, ErrActionNotFound
	}
	return a, err
}

// List returns matching actions, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Action, error) {
	all, err := kv.ListJSON[Action](ctx, s.kv, actionPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]Action, 0, len(all))
	for _, a := range all {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Start moves a pending, unpaused action to in_progress. Any other state fails
// with ErrInvalidTransition, so at most one execution can hold an action.
func (s *Store) Start(ctx context.Context, id string) (Action, error) {
	return s.transition(ctx, id, StatusInProgress, func(a *Action, now time.Time) error {
		switch {
		case a.Status != StatusPending:
			return fmt.Errorf("%w: action is %s", ErrInvalidTransition, a.Status)
		case a.IsPaused():
			return fmt.Errorf("%w: action is paused", ErrInvalidTransition)
		}
		a.StartedAt = &now
		return nil
	})
}

// Complete records a successful result.
func (s *Store) Complete(ctx context.Context, id string, result json.RawMessage) (Action, error) {
	return s.transition(ctx, id, StatusCompleted, func(a *Action, now time.Time) error {
		if a.Status != StatusInProgress {
			return fmt.Errorf("%w: cannot complete a %s action", ErrInvalidTransition, a.Status)
		}
		a.Result = result
		a.Error = ""
		a.CompletedAt = &now
		return nil
	})
}

// Fail records an execution error. Pending actions may fail directly when
// execution could not start (for example an unsupported type).
func (s *Store) Fail(ctx context.Context, id string, message string) (Action, error) {
	return s.transition(ctx, id, StatusFailed, func(a *Action, now time.Time) error {
		if a.Status.IsTerminal() {
			return fmt.Errorf("%w: cannot fail a %s action", ErrInvalidTransition, a.Status)
		}
		a.Error = message
		a.CompletedAt = &now
		return nil
	})
}

// Cancel moves any non-terminal action to cancelled. It returns false for
// missing or terminal actions.
func (s *Store) Cancel(ctx context.Context, id, reason string) (bool, error) {
	_, err := s.transition(ctx, id, StatusCancelled, func(a *Action, now time.Time) error {
		if a.Status.IsTerminal() {
			return errNoChange
		}
		a.CancelReason = reason
		a.CancelledAt = &now
		a.PauseReason = ""
		a.PausedAt = nil
		return nil
	})
	return boolResult(err)
}

// Pause records a pause reason on a non-terminal, unpaused action. Status is unchanged.
func (s *Store) Pause(ctx context.Context, id, reason string) (bool, error) {
	if reason == "" {
		reason = "paused"
	}
	_, err := s.transition(ctx, id, "", func(a *Action, now time.Time) error {
		if a.Status.IsTerminal() || a.IsPaused() {
			return errNoChange
		}
		a.PauseReason = reason
		a.PausedAt = &now
		return nil
	})
	return boolResult(err)
}

// Resume clears the pause reason. Status is unchanged.
func (s *Store) Resume(ctx context.Context, id string) (bool, error) {
	_, err := s.transition(ctx, id, "", func(a *Action, _ time.Time) error {
		if a.Status.IsTerminal() || !a.IsPaused() {
			return errNoChange
		}
		a.PauseReason = ""
		a.PausedAt = nil
		return nil
	})
	return boolResult(err)
}

func boolResult(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNoChange), errors.Is(err, ErrActionNotFound):
		return false, nil
	default:
		return false, err
	}
}

// transition applies mutate atomically and sets the status to next when next is non-empty.
func (s *Store) transition(ctx context.Context, id string, next Status, mutate func(*Action, time.Time) error) (Action, error) {
	var (
		updated Action
		from    Status
	)
	err := s.kv.Update(ctx, actionPrefix+id, func(current []byte, exists bool) ([]byte, error) {
		if !exists {
			return nil, ErrActionNotFound
		}
		var a Action
		if err := json.Unmarshal(current, &a); err != nil {
			return nil, fmt.Errorf("decode action %s: %w", id, err)
		}
		now := s.now().UTC()
		from = a.Status
		if err := mutate(&a, now); err != nil {
			return nil, err
		}
		if next != "" {
			a.Status = next
		}
		a.UpdatedAt = now
		updated = a
		return json.Marshal(a)
	})
	if err != nil {
		return Action{}, err
	}
	fields := map[string]any{"action_id": id, "from": string(from), "to": string(updated.Status)}
	if updated.PauseReason != "" {
		fields["pause_reason"] = updated.PauseReason
	}
	telemetry.Info("action.transition", fields)
	return updated, nil
}
