package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a provider reply that could not be decoded into the expected shape.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s reply: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Unfence strips a surrounding Markdown code fence (``` or ```json) from raw.
func Unfence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimSpace(s), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeReply unfences raw and decodes it into out, returning *ParseError on failure.
func DecodeReply(kind, raw string, out any) error {
	body := Unfence(raw)
	if body == "" {
		return &ParseError{Kind: kind, Err: fmt.Errorf("empty reply")}
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &ParseError{Kind: kind, Err: err}
	}
	return nil
}
