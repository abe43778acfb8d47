package recommendations

import (
	"fmt"
	"strings"

	"compliance-backend/internal/compliance"
)

const maxIssueFallbacks = 3

type bucketRule struct {
	level      compliance.WarningLevel
	label      string
	severity   compliance.Severity
	actionType compliance.ActionType
	confidence int
	impact     string
	timeframe  string
}

// Buckets are evaluated highest level first.
var bucketRules = []bucketRule{
	{level: compliance.WarningOverdue, label: "overdue", severity: compliance.SeverityHigh, actionType: compliance.ActionEscalation,
		confidence: 90, impact: "Prevents work stoppage on overdue compliance items", timeframe: "24 hours"},
	{level: compliance.WarningUrgent, label: "urgent", severity: compliance.SeverityMedium, actionType: compliance.ActionMeeting,
		confidence: 80, impact: "Resolves urgent items before they become overdue", timeframe: "2-3 days"},
	{level: compliance.WarningEarly, label: "early warning", severity: compliance.SeverityLow, actionType: compliance.ActionEmail,
		confidence: 70, impact: "Keeps upcoming submissions on schedule", timeframe: "1 week"},
}

type issueRule struct {
	minOverdue int
	severity   compliance.Severity
	actionType compliance.ActionType
	confidence int
	impact     string
	timeframe  string
}

// Rules match when overdue days exceed minOverdue, checked in order.
var issueRules = []issueRule{
	{minOverdue: 7, severity: compliance.SeverityHigh, actionType: compliance.ActionEscalation, confidence: 85,
		impact: "High: document is more than a week overdue", timeframe: "24-48 hours"},
	{minOverdue: 3, severity: compliance.SeverityMedium, actionType: compliance.ActionMeeting, confidence: 75,
		impact: "Medium: document is several days overdue", timeframe: "2-3 days"},
	{minOverdue: -1, severity: compliance.SeverityLow, actionType: compliance.ActionEmail, confidence: 65,
		impact: "Low: reminder keeps the submission on track", timeframe: "1 week"},
}

// Fallback produces recommendations from local data only. It is deterministic
// and never fails: red cards are grouped by warning level when present,
// otherwise the first three issues are classified by overdue days. Red cards
// outside the known levels fall through to the issue rules.
func Fallback(req compliance.RecommendationRequest) []compliance.Recommendation {
	if len(req.RedCards) > 0 {
		if recs := redCardFallback(req.RedCards); len(recs) > 0 {
			return recs
		}
	}
	return issueFallback(req.CriticalIssues)
}

func redCardFallback(cards []compliance.RedCard) []compliance.Recommendation {
	out := make([]compliance.Recommendation, 0, len(bucketRules))
	for _, rule := range bucketRules {
		var bucket []compliance.RedCard
		for _, card := range cards {
			if card.WarningLevel == rule.level {
				bucket = append(bucket, card)
			}
		}
		if len(bucket) == 0 {
			continue
		}

		maxRisk := bucket[0].RiskScore
		docs := make([]string, 0, len(bucket))
		contractors := make([]string, 0, len(bucket))
		seen := map[string]bool{}
		for _, card := range bucket {
			if card.RiskScore > maxRisk {
				maxRisk = card.RiskScore
			}
			docs = append(docs, card.DocumentTypeName)
			if name := card.ContractorName; name != "" && !seen[name] {
				seen[name] = true
				contractors = append(contractors, name)
			}
		}
		risk := clamp(maxRisk, 0, 100)

		out = append(out, compliance.Recommendation{
			ID:       fmt.Sprintf("fallback-level-%d", rule.level),
			Severity: rule.severity,
			Message: fmt.Sprintf("%d %s item(s) for %s: %s",
				len(bucket), rule.label, joinOrUnknown(contractors), strings.Join(docs, ", ")),
			ActionType:       rule.actionType,
			EstimatedImpact:  rule.impact,
			TimeToImplement:  rule.timeframe,
			RelatedDocuments: docs,
			AIConfidence:     rule.confidence,
			AIGenerated:      false,
			WarningLevel:     rule.level,
			RiskScore:        &risk,
		})
	}
	return out
}

func issueFallback(issues []compliance.CriticalIssue) []compliance.Recommendation {
	n := len(issues)
	if n > maxIssueFallbacks {
		n = maxIssueFallbacks
	}
	out := make([]compliance.Recommendation, 0, n)
	for i := 0; i < n; i++ {
		issue := issues[i]
		rule := matchIssueRule(issue.OverdueDays)
		msg := fmt.Sprintf("%s has %d/%d approved %s", issue.ContractorName, issue.ApprovedCount, issue.RequiredCount, issue.DocumentTypeName)
		if issue.OverdueDays > 0 {
			msg += fmt.Sprintf(", %d days overdue", issue.OverdueDays)
		}
		out = append(out, compliance.Recommendation{
			ID:               fmt.Sprintf("fallback-issue-%d-%s-%s", i, issue.ContractorID, issue.DocumentTypeID),
			Severity:         rule.severity,
			Message:          msg,
			ActionType:       rule.actionType,
			EstimatedImpact:  rule.impact,
			TimeToImplement:  rule.timeframe,
			RelatedDocuments: []string{issue.DocumentTypeName},
			AIConfidence:     rule.confidence,
			AIGenerated:      false,
		})
	}
	return out
}

func matchIssueRule(overdueDays int) issueRule {
	for _, rule := range issueRules {
		if overdueDays > rule.minOverdue {
			return rule
		}
	}
	return issueRules[len(issueRules)-1]
}

func joinOrUnknown(names []string) string {
	if len(names) == 0 {
		return "unknown contractor"
	}
	return strings.Join(names, ", ")
}
