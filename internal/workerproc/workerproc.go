// Package workerproc parses queued batch messages and runs them.
package workerproc

import (
	"context"
	"errors"
	"strings"

	"compliance-backend/internal/actions"
	"compliance-backend/internal/queue"
	"compliance-backend/internal/shared/util"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	return MessageMeta{BodyLen: len(body), BodySHA: util.HashKey(body)}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a payload that is not a valid batch message.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrInvalidRequest indicates a decoded message whose batch request fails validation.
type ErrInvalidRequest struct {
	BatchID   string
	RequestID string
	Err       error
}

func (e ErrInvalidRequest) Error() string { return "invalid batch request: " + e.Err.Error() }

// ErrProcess indicates the batch could not be run or its result not stored.
type ErrProcess struct {
	BatchID   string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process batch"
	}
	return "process batch: " + e.Err.Error()
}

// BatchRunner runs a batch and persists its record.
type BatchRunner interface {
	RunBatch(ctx context.Context, batchID string, req actions.BatchRequest) (actions.BatchResult, error)
}

// BatchRunnerFunc adapts a function to BatchRunner.
type BatchRunnerFunc func(ctx context.Context, batchID string, req actions.BatchRequest) (actions.BatchResult, error)

func (f BatchRunnerFunc) RunBatch(ctx context.Context, batchID string, req actions.BatchRequest) (actions.BatchResult, error) {
	return f(ctx, batchID, req)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	return msg, meta, nil
}

// RequestFromMessage converts a queue message into a batch request.
func RequestFromMessage(msg queue.Message) actions.BatchRequest {
	return actions.BatchRequest{
		ActionIDs:      msg.ActionIDs,
		ExecutionMode:  actions.ExecutionMode(msg.ExecutionMode),
		FailureMode:    actions.FailureMode(msg.FailureMode),
		MaxConcurrency: msg.MaxConcurrency,
	}
}

// HandleMessage runs a decoded batch message. Invalid requests are reported
// as ErrInvalidRequest so callers can drop them instead of retrying.
func HandleMessage(ctx context.Context, runner BatchRunner, msg queue.Message) (actions.BatchResult, error) {
	if runner == nil {
		return actions.BatchResult{}, errors.New("batch runner not configured")
	}
	req := RequestFromMessage(msg)
	if err := req.Validate(); err != nil {
		return actions.BatchResult{}, ErrInvalidRequest{BatchID: msg.BatchID, RequestID: msg.RequestID, Err: err}
	}
	res, err := runner.RunBatch(ctx, msg.BatchID, req)
	if err != nil {
		return res, ErrProcess{BatchID: msg.BatchID, RequestID: msg.RequestID, Err: err}
	}
	return res, nil
}
