package queue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MessageVersion is the payload version written by this build.
const MessageVersion = 1

// Message asks a worker to run one action batch.
type Message struct {
	BatchID        string   `json:"batchId"`
	RequestID      string   `json:"requestId"`
	ActionIDs      []string `json:"actionIds"`
	ExecutionMode  string   `json:"executionMode"`
	FailureMode    string   `json:"failureMode"`
	MaxConcurrency int      `json:"maxConcurrency,omitempty"`
	EnqueuedAt     string   `json:"enqueuedAt"`
	Version        int      `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message and checks the fields a
// worker needs.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(msg.BatchID) == "" {
		return Message{}, fmt.Errorf("batchId is required")
	}
	if len(msg.ActionIDs) == 0 {
		return Message{}, fmt.Errorf("actionIds is required")
	}
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}
