// Package prompts renders provider prompts for each analysis kind. Every
// builder is pure: identical inputs produce identical text.
package prompts

import (
	"fmt"
	"strings"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/llm"
)

const systemPrompt = "You are a construction compliance analyst. You review contractor document " +
	"compliance data and respond with JSON only, matching the schema you are given exactly. " +
	"Do not wrap the JSON in Markdown and do not add commentary."

const recommendationSchema = `{
  "recommendations": [
    {
      "severity": "high" | "medium" | "low",
      "message": string,
      "actionType": "meeting" | "email" | "escalation" | "support" | "training",
      "estimatedImpact": string,
      "timeToImplement": string,
      "aiConfidence": integer 0-100
    }
  ]
}`

const rootCauseSchema = `{
  "primaryCause": string,
  "contributingFactors": [string],
  "patternType": "recurring" | "isolated" | "systemic" | "resource-related",
  "confidence": integer 0-100
}`

const patternSchema = `{
  "patterns": [
    {
      "description": string,
      "frequency": integer,
      "affectedContractors": [string],
      "trend": "increasing" | "stable" | "decreasing",
      "confidence": integer 0-100
    }
  ]
}`

const impactSchema = `{
  "projectImpact": "critical" | "high" | "medium" | "low",
  "timelineImpact": integer days >= 0,
  "costImpact": integer >= 0,
  "qualityImpact": "critical" | "high" | "medium" | "low",
  "safetyImpact": "critical" | "high" | "medium" | "low"
}`

const resourceSchema = `{
  "recommendedResources": [string],
  "allocationEfficiency": integer 0-100,
  "bottlenecks": [string],
  "optimizationPotential": integer 0-100
}`

// Recommendations renders the prompt for ranked recommendations.
func Recommendations(req compliance.RecommendationRequest) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Contractor: %s (%s)\n", req.ContractorName, req.ContractorID)
	writeContext(&b, req.Context)
	writeIssues(&b, req.CriticalIssues)
	writeRedCards(&b, req.RedCards)
	b.WriteString("\nTask: recommend at most 5 concrete actions that bring this contractor back into compliance, ")
	b.WriteString("most urgent first. Prefer escalation for documents overdue more than a week and for level 3 red cards.\n")
	writeSchema(&b, recommendationSchema)
	return llm.Request{System: systemPrompt, Prompt: b.String()}
}

// RootCause renders the root-cause analysis prompt.
func RootCause(in compliance.AnalysisInput) llm.Request {
	var b strings.Builder
	writeSubject(&b, in)
	writeContext(&b, in.Context)
	writeIssues(&b, in.Issues)
	writeRedCards(&b, in.RedCards)
	b.WriteString("\nTask: identify the primary root cause of these compliance gaps, the contributing factors ")
	b.WriteString("in order of importance, and whether the pattern is recurring, isolated, systemic or resource-related.\n")
	writeSchema(&b, rootCauseSchema)
	return llm.Request{System: systemPrompt, Prompt: b.String()}
}

// Patterns renders the pattern-recognition prompt over historical records.
func Patterns(in compliance.AnalysisInput) llm.Request {
	var b strings.Builder
	writeSubject(&b, in)
	b.WriteString("Historical overdue records:\n")
	if len(in.Historical) == 0 {
		b.WriteString("- none\n")
	}
	for _, h := range in.Historical {
		fmt.Fprintf(&b, "- %s contractor=%s document=%s (%s) overdue=%dd\n",
			h.RecordedAt.UTC().Format("2006-01-02"), h.ContractorID, h.DocumentTypeName, h.DocumentTypeID, h.OverdueDays)
	}
	writeIssues(&b, in.Issues)
	b.WriteString("\nTask: find recurring compliance patterns across contractors and documents, with how often ")
	b.WriteString("each occurs, which contractors it affects and whether it is increasing, stable or decreasing.\n")
	writeSchema(&b, patternSchema)
	return llm.Request{System: systemPrompt, Prompt: b.String()}
}

// Impact renders the impact-assessment prompt.
func Impact(in compliance.AnalysisInput) llm.Request {
	var b strings.Builder
	writeSubject(&b, in)
	writeContext(&b, in.Context)
	writeIssues(&b, in.Issues)
	writeRedCards(&b, in.RedCards)
	b.WriteString("\nTask: assess the impact of these gaps on the project: overall severity, schedule slip in days, ")
	b.WriteString("relative cost units, and quality and safety impact.\n")
	writeSchema(&b, impactSchema)
	return llm.Request{System: systemPrompt, Prompt: b.String()}
}

// Resources renders the resource-optimization prompt.
func Resources(in compliance.AnalysisInput) llm.Request {
	var b strings.Builder
	writeSubject(&b, in)
	writeContext(&b, in.Context)
	writeIssues(&b, in.Issues)
	b.WriteString("Available resources:\n")
	if len(in.AvailableResources) == 0 {
		b.WriteString("- none listed\n")
	}
	for _, r := range in.AvailableResources {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\nTask: choose which of the available resources to assign, estimate how efficiently they ")
	b.WriteString("are currently allocated, list bottlenecks, and estimate the optimization potential.\n")
	writeSchema(&b, resourceSchema)
	return llm.Request{System: systemPrompt, Prompt: b.String()}
}

func writeSubject(b *strings.Builder, in compliance.AnalysisInput) {
	if in.ContractorID == "" && in.ContractorName == "" {
		b.WriteString("Scope: all contractors\n")
		return
	}
	fmt.Fprintf(b, "Contractor: %s (%s)\n", in.ContractorName, in.ContractorID)
}

func writeContext(b *strings.Builder, ctx compliance.ProjectContext) {
	ctx = ctx.Normalized()
	fmt.Fprintf(b, "Project phase: %s\nDeadline pressure: %s\nStakeholder visibility: %s\n",
		ctx.ProjectPhase, ctx.DeadlinePressure, ctx.StakeholderVisibility)
}

func writeIssues(b *strings.Builder, issues []compliance.CriticalIssue) {
	b.WriteString("Critical issues:\n")
	if len(issues) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, issue := range issues {
		fmt.Fprintf(b, "- %s: %s approved %d/%d", issue.ContractorName, issue.DocumentTypeName, issue.ApprovedCount, issue.RequiredCount)
		switch {
		case issue.OverdueDays > 0:
			fmt.Fprintf(b, ", overdue %d days", issue.OverdueDays)
		case issue.DaysUntilDue != nil:
			fmt.Fprintf(b, ", due in %d days", *issue.DaysUntilDue)
		}
		b.WriteString("\n")
	}
}

func writeRedCards(b *strings.Builder, cards []compliance.RedCard) {
	if len(cards) == 0 {
		return
	}
	b.WriteString("Red cards:\n")
	for _, card := range cards {
		fmt.Fprintf(b, "- level %d %s: %s risk=%d progress=%d%%", card.WarningLevel, card.ContractorName,
			card.DocumentTypeName, card.RiskScore, card.ProgressPercentage)
		if len(card.RecommendedActions) > 0 {
			fmt.Fprintf(b, " suggested=%s", strings.Join(card.RecommendedActions, "; "))
		}
		b.WriteString("\n")
	}
}

func writeSchema(b *strings.Builder, schema string) {
	b.WriteString("\nRespond with a single JSON value in exactly this shape and nothing else:\n")
	b.WriteString(schema)
	b.WriteString("\n")
}
