package recommendations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/llm"
)

// DefaultAIConfidence is used when the provider omits aiConfidence.
const DefaultAIConfidence = 75

type rawRecommendation struct {
	Severity        string `json:"severity"`
	Message         string `json:"message"`
	ActionType      string `json:"actionType"`
	EstimatedImpact string `json:"estimatedImpact"`
	TimeToImplement string `json:"timeToImplement"`
	AIConfidence    *int   `json:"aiConfidence"`
}

// Parse decodes a provider reply into recommendations. The reply may be a bare
// array or an object with a "recommendations" array, optionally fenced.
// relatedDocuments always come from issues, never from the reply.
func Parse(raw string, issues []compliance.CriticalIssue) ([]compliance.Recommendation, error) {
	body := llm.Unfence(raw)
	var items []rawRecommendation
	if strings.HasPrefix(body, "[") {
		if err := llm.DecodeReply("recommendations", body, &items); err != nil {
			return nil, err
		}
	} else {
		var wrapper struct {
			Recommendations json.RawMessage `json:"recommendations"`
		}
		if err := llm.DecodeReply("recommendations", body, &wrapper); err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(wrapper.Recommendations)) == 0 {
			return nil, &llm.ParseError{Kind: "recommendations", Err: fmt.Errorf("missing recommendations array")}
		}
		if err := json.Unmarshal(wrapper.Recommendations, &items); err != nil {
			return nil, &llm.ParseError{Kind: "recommendations", Err: err}
		}
	}

	docs := compliance.DocumentNames(issues)
	out := make([]compliance.Recommendation, 0, len(items))
	for _, item := range items {
		msg := strings.TrimSpace(item.Message)
		if msg == "" {
			continue
		}
		confidence := DefaultAIConfidence
		if item.AIConfidence != nil {
			confidence = clamp(*item.AIConfidence, 0, 100)
		}
		out = append(out, compliance.Recommendation{
			ID:               uuid.NewString(),
			Severity:         normalizeSeverity(item.Severity),
			Message:          msg,
			ActionType:       normalizeActionType(item.ActionType),
			EstimatedImpact:  strings.TrimSpace(item.EstimatedImpact),
			TimeToImplement:  strings.TrimSpace(item.TimeToImplement),
			RelatedDocuments: append([]string(nil), docs...),
			AIConfidence:     confidence,
			AIGenerated:      true,
		})
	}
	if len(out) == 0 {
		return nil, &llm.ParseError{Kind: "recommendations", Err: fmt.Errorf("reply contained no usable recommendations")}
	}
	return out, nil
}

func normalizeSeverity(raw string) compliance.Severity {
	s := compliance.Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s
	}
	return compliance.SeverityMedium
}

func normalizeActionType(raw string) compliance.ActionType {
	t := compliance.ActionType(strings.ToLower(strings.TrimSpace(raw)))
	if t.IsRecommendable() {
		return t
	}
	return compliance.ActionMeeting
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
