package recommendations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/shared/storage/kv"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	key   string
	reply string
	err   error
}

func (f *fakeProvider) ResolveConfig(context.Context) llm.Config {
	return llm.Config{ID: "test", Provider: llm.ProviderOpenAI, APIKey: f.key}
}

func (f *fakeProvider) Available(cfg llm.Config) bool { return cfg.HasCredentials() }

func (f *fakeProvider) Call(context.Context, llm.Request, llm.Config) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func sampleRequest() compliance.RecommendationRequest {
	return compliance.RecommendationRequest{
		ContractorID:   "c-1",
		ContractorName: "Acme Scaffolding",
		CriticalIssues: []compliance.CriticalIssue{
			{ContractorID: "c-1", ContractorName: "Acme Scaffolding", DocumentTypeID: "d-ins", DocumentTypeName: "Insurance Certificate", RequiredCount: 2, ApprovedCount: 1, OverdueDays: 10},
			{ContractorID: "c-1", ContractorName: "Acme Scaffolding", DocumentTypeID: "d-ms", DocumentTypeName: "Method Statement", RequiredCount: 1, OverdueDays: 5},
			{ContractorID: "c-1", ContractorName: "Acme Scaffolding", DocumentTypeID: "d-ra", DocumentTypeName: "Risk Assessment", RequiredCount: 1, OverdueDays: 1},
			{ContractorID: "c-1", ContractorName: "Acme Scaffolding", DocumentTypeID: "d-tc", DocumentTypeName: "Training Cert", RequiredCount: 3, OverdueDays: 20},
		},
		Context: compliance.ProjectContext{ProjectPhase: compliance.PhaseExecution, DeadlinePressure: compliance.PressureHigh, StakeholderVisibility: compliance.VisibilityClient},
	}
}

func TestFingerprintIgnoresOrderAndNonIdentityFields(t *testing.T) {
	a := sampleRequest()
	b := sampleRequest()
	b.CriticalIssues[0], b.CriticalIssues[3] = b.CriticalIssues[3], b.CriticalIssues[0]
	b.ContractorName = "renamed"
	b.CriticalIssues[1].OverdueDays = 99
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 32)

	c := sampleRequest()
	c.Context.DeadlinePressure = compliance.PressureLow
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestFingerprintNormalizesBlankContext(t *testing.T) {
	blank := sampleRequest()
	blank.Context = compliance.ProjectContext{}
	explicit := sampleRequest()
	explicit.Context = compliance.ProjectContext{
		ProjectPhase:          compliance.PhaseExecution,
		DeadlinePressure:      compliance.PressureMedium,
		StakeholderVisibility: compliance.VisibilityInternal,
	}
	assert.Equal(t, Fingerprint(explicit), Fingerprint(blank))
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := kv.NewMemoryStore()
	cache := NewCache(store, time.Hour, clk.Now)

	require.NoError(t, cache.Set(ctx, "h1", SourceAI, []compliance.Recommendation{{ID: "r1"}}))
	clk.t = clk.t.Add(59 * time.Minute)
	_, ok := cache.Get(ctx, "h1")
	assert.True(t, ok)

	clk.t = clk.t.Add(time.Minute)
	_, ok = cache.Get(ctx, "h1")
	assert.False(t, ok)
	_, err := store.Get(ctx, cachePrefix+"h1")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestServiceCallsProviderOncePerTTLWindow(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	provider := &fakeProvider{key: "k", reply: `{"recommendations":[{"severity":"high","message":"Call the contractor","actionType":"meeting","aiConfidence":88}]}`}
	svc := NewService(provider, NewCache(kv.NewMemoryStore(), time.Hour, clk.Now))

	first := svc.GetRecommendations(ctx, sampleRequest())
	second := svc.GetRecommendations(ctx, sampleRequest())
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, SourceAI, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Recommendations, second.Recommendations)

	clk.t = clk.t.Add(time.Hour + time.Second)
	third := svc.GetRecommendations(ctx, sampleRequest())
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, SourceAI, third.Source)
}

func TestServiceFallsBackWhenProviderFails(t *testing.T) {
	provider := &fakeProvider{key: "k", err: &llm.ProviderError{Provider: llm.ProviderOpenAI, StatusCode: 500, Reason: llm.ReasonHTTPStatus}}
	svc := NewService(provider, NewCache(kv.NewMemoryStore(), time.Hour, nil))

	res := svc.GetRecommendations(context.Background(), sampleRequest())
	assert.Equal(t, SourceFallback, res.Source)
	require.Len(t, res.Recommendations, 3)
	for _, rec := range res.Recommendations {
		assert.False(t, rec.AIGenerated)
	}
}

func TestServiceFallsBackOnMalformedReply(t *testing.T) {
	provider := &fakeProvider{key: "k", reply: "Sure! Here are some ideas."}
	svc := NewService(provider, NewCache(kv.NewMemoryStore(), time.Hour, nil))
	res := svc.GetRecommendations(context.Background(), sampleRequest())
	assert.Equal(t, SourceFallback, res.Source)
	assert.NotEmpty(t, res.Recommendations)
}

func TestServiceSkipsProviderWithoutKey(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, NewCache(kv.NewMemoryStore(), time.Hour, nil))

	req := compliance.RecommendationRequest{
		ContractorID: "c-9",
		RedCards: []compliance.RedCard{
			{CriticalIssue: compliance.CriticalIssue{ContractorName: "Beta Electrical", DocumentTypeName: "Permit"}, WarningLevel: 3, RiskScore: 85},
			{CriticalIssue: compliance.CriticalIssue{ContractorName: "Beta Electrical", DocumentTypeName: "Toolbox Talk"}, WarningLevel: 1, RiskScore: 40},
		},
	}
	res := svc.GetRecommendations(context.Background(), req)
	assert.Equal(t, 0, provider.calls)
	require.Len(t, res.Recommendations, 2)

	first, second := res.Recommendations[0], res.Recommendations[1]
	assert.Equal(t, compliance.SeverityHigh, first.Severity)
	assert.Equal(t, compliance.ActionEscalation, first.ActionType)
	require.NotNil(t, first.RiskScore)
	assert.Equal(t, 85, *first.RiskScore)
	assert.Equal(t, compliance.SeverityLow, second.Severity)
	assert.Equal(t, compliance.ActionEmail, second.ActionType)
	require.NotNil(t, second.RiskScore)
	assert.Equal(t, 40, *second.RiskScore)
}

func TestFallbackIssueThresholdsAndDeterminism(t *testing.T) {
	req := sampleRequest()
	recs := Fallback(req)
	require.Len(t, recs, 3)

	assert.Equal(t, compliance.SeverityHigh, recs[0].Severity)
	assert.Equal(t, compliance.ActionEscalation, recs[0].ActionType)
	assert.Contains(t, recs[0].Message, "Acme Scaffolding")
	assert.Contains(t, recs[0].Message, "Insurance Certificate")
	assert.Contains(t, recs[0].Message, "1/2")

	assert.Equal(t, compliance.SeverityMedium, recs[1].Severity)
	assert.Equal(t, compliance.ActionMeeting, recs[1].ActionType)
	assert.Equal(t, compliance.SeverityLow, recs[2].Severity)
	assert.Equal(t, compliance.ActionEmail, recs[2].ActionType)

	assert.Equal(t, recs, Fallback(req))
	assert.Empty(t, Fallback(compliance.RecommendationRequest{}))
}

func TestFallbackRedCardBucketUsesMaxRisk(t *testing.T) {
	recs := Fallback(compliance.RecommendationRequest{RedCards: []compliance.RedCard{
		{WarningLevel: 2, RiskScore: 50},
		{WarningLevel: 2, RiskScore: 72},
	}})
	require.Len(t, recs, 1)
	assert.Equal(t, compliance.ActionMeeting, recs[0].ActionType)
	assert.Equal(t, 72, *recs[0].RiskScore)
	assert.Equal(t, compliance.WarningUrgent, recs[0].WarningLevel)
}

func TestFallbackUnknownRedCardLevelsUseIssueRules(t *testing.T) {
	req := sampleRequest()
	req.RedCards = []compliance.RedCard{{WarningLevel: 7, RiskScore: 90}}
	recs := Fallback(req)
	require.Len(t, recs, 3)
	assert.Equal(t, compliance.ActionEscalation, recs[0].ActionType)
	assert.Contains(t, recs[0].Message, "Insurance Certificate")
}

func TestParseNormalizesAndOverridesDocuments(t *testing.T) {
	issues := sampleRequest().CriticalIssues[:2]
	raw := "```json\n[" +
		`{"severity":"HIGH","message":"Escalate insurance","actionType":"escalation","aiConfidence":140},` +
		`{"severity":"critical","message":"Book a site visit","actionType":"visit"},` +
		`{"severity":"low","message":"  "}` +
		"]\n```"

	recs, err := Parse(raw, issues)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, compliance.SeverityHigh, recs[0].Severity)
	assert.Equal(t, 100, recs[0].AIConfidence)
	assert.True(t, recs[0].AIGenerated)
	assert.Equal(t, []string{"Insurance Certificate", "Method Statement"}, recs[0].RelatedDocuments)

	assert.Equal(t, compliance.SeverityMedium, recs[1].Severity)
	assert.Equal(t, compliance.ActionMeeting, recs[1].ActionType)
	assert.Equal(t, DefaultAIConfidence, recs[1].AIConfidence)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestParseRejectsWrongShapes(t *testing.T) {
	var perr *llm.ParseError
	for _, raw := range []string{`{"items":[]}`, `[]`, `{"recommendations":"x"}`, `oops`} {
		_, err := Parse(raw, nil)
		assert.True(t, errors.As(err, &perr), raw)
	}
}
