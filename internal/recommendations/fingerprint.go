package recommendations

import (
	"sort"
	"strings"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/shared/util"
)

// Fingerprint derives the cache key of a request from its sorted
// contractorId-docTypeId pairs and the three normalized context fields. Other
// request fields (names, counts, red cards) do not participate.
func Fingerprint(req compliance.RecommendationRequest) string {
	pairs := make([]string, 0, len(req.CriticalIssues))
	for _, issue := range req.CriticalIssues {
		pairs = append(pairs, issue.ContractorID+"-"+issue.DocumentTypeID)
	}
	sort.Strings(pairs)

	pc := req.Context.Normalized()
	var b strings.Builder
	b.WriteString(strings.Join(pairs, ","))
	b.WriteString("|")
	b.WriteString(string(pc.ProjectPhase))
	b.WriteString("|")
	b.WriteString(string(pc.DeadlinePressure))
	b.WriteString("|")
	b.WriteString(string(pc.StakeholderVisibility))
	return util.ShortHash(b.String())
}
