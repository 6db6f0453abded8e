package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"veritrack/internal/model"
	"veritrack/internal/oracle"
	"veritrack/internal/report"
	"veritrack/internal/resolve"
	"veritrack/internal/store"
)

// stubOracle serves canned extraction and verification responses
type stubOracle struct {
	extractBatches [][]model.ExtractedClaim
	extractCalls   atomic.Int32
	verifySummary  string
	verifyErr      error
}

func (s *stubOracle) Extract(ctx context.Context, text string, source model.Source) []model.ExtractedClaim {
	n := int(s.extractCalls.Add(1)) - 1
	if n < len(s.extractBatches) {
		return s.extractBatches[n]
	}
	return []model.ExtractedClaim{}
}

func (s *stubOracle) Verify(ctx context.Context, claim model.Claim) (*model.VerificationResult, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &model.VerificationResult{
		IsVerified: true,
		Summary:    s.verifySummary,
	}, nil
}

// stubClassifier returns fixed interactions and can mutate the store
// mid-classification to simulate a racing per-claim update.
type stubClassifier struct {
	interactions []model.Interaction
	err          error
	during       func()
}

func (s *stubClassifier) Classify(ctx context.Context, existing, incoming []oracle.ClaimRef) ([]model.Interaction, error) {
	if s.during != nil {
		s.during()
	}
	return s.interactions, s.err
}

type stubSynth struct{ narrative string }

func (s *stubSynth) Synthesize(ctx context.Context, items []model.ReportItem) string {
	return s.narrative
}

func newTestPipeline(o Oracle, c resolve.Classifier) *Pipeline {
	return New(Options{
		Store:    store.New(),
		Oracle:   o,
		Resolver: resolve.New(c, nil),
		Reporter: report.NewBuilder(&stubSynth{narrative: "all clear"}, nil),
	})
}

func TestIngest_FirstRound(t *testing.T) {
	o := &stubOracle{extractBatches: [][]model.ExtractedClaim{{
		{ClaimText: "Revenue grew 12%", Score: 55},
		{ClaimText: "Margins doubled", Score: 90},
	}}}
	p := newTestPipeline(o, &stubClassifier{})

	res, err := p.Ingest(context.Background(), "Q3 report", "bogus-category", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Source.Category != model.CategoryUserInput {
		t.Errorf("unknown category must default to user input, got %s", res.Source.Category)
	}
	if res.Merged {
		t.Error("first round must insert, not merge")
	}
	if res.Extracted != 2 || res.Claims != 2 {
		t.Errorf("result = %+v", res)
	}

	claims := p.Claims()
	if claims[0].CredibilityScore != 55 || claims[0].Status != model.StatusFlagged {
		t.Errorf("claim[0] = %+v", claims[0])
	}
	if claims[1].CredibilityScore != 90 || claims[1].Status != model.StatusAnalyzing {
		t.Errorf("claim[1] = %+v", claims[1])
	}
	for _, c := range claims {
		if !c.IsNew {
			t.Errorf("freshly minted claim %s must carry the new flag", c.ID)
		}
	}
}

func TestIngest_SecondRoundMerges(t *testing.T) {
	o := &stubOracle{extractBatches: [][]model.ExtractedClaim{
		{{ClaimText: "Old figure", Score: 70}},
		{{ClaimText: "Corrected figure", Score: 85}},
	}}
	classifier := &stubClassifier{}
	p := newTestPipeline(o, classifier)

	if _, err := p.Ingest(context.Background(), "round one", model.CategoryFinancialReport, "v1"); err != nil {
		t.Fatal(err)
	}

	oldID := p.Claims()[0].ID
	classifier.interactions = []model.Interaction{
		{ExistingClaimID: oldID, Kind: model.InteractionContradicts, Reason: "figure restated"},
	}

	res, err := p.Ingest(context.Background(), "round two", model.CategorySupplementalUpdate, "v2")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Merged {
		t.Error("second round must go through conflict resolution")
	}

	claims := p.Claims()
	if len(claims) != 2 {
		t.Fatalf("claims = %d, want 2 (merge never drops claims)", len(claims))
	}

	// Incoming first, then the contradicted existing claim
	if claims[0].Text != "Corrected figure" {
		t.Errorf("claims[0] = %+v", claims[0])
	}
	if !claims[0].IsNew {
		t.Error("incoming claim must carry the new flag")
	}

	old := claims[1]
	if old.IsNew {
		t.Error("prior-round claim must have its new flag cleared")
	}
	if old.CredibilityScore != 40 || old.CredibilityLevel != model.LevelLow || old.Status != model.StatusFlagged {
		t.Errorf("contradicted claim = %+v", old)
	}
	if !strings.HasPrefix(old.BiasAnalysis, "[UPDATE WARNING]") {
		t.Errorf("bias = %q", old.BiasAnalysis)
	}
}

func TestIngest_StaleSnapshotReplay(t *testing.T) {
	o := &stubOracle{extractBatches: [][]model.ExtractedClaim{
		{{ClaimText: "Base claim", Score: 70}},
		{{ClaimText: "Update claim", Score: 80}},
	}}
	classifier := &stubClassifier{}
	p := newTestPipeline(o, classifier)

	if _, err := p.Ingest(context.Background(), "one", model.CategoryUserInput, "v1"); err != nil {
		t.Fatal(err)
	}
	baseID := p.Claims()[0].ID

	// A verification lands on the existing claim while classification is
	// in flight, invalidating the snapshot the merge was computed from.
	classifier.during = func() {
		p.Store().UpdateClaim(baseID, func(c model.Claim) model.Claim {
			c.CredibilityScore = 99
			c.Status = model.StatusVerified
			return c
		})
	}

	if _, err := p.Ingest(context.Background(), "two", model.CategoryUserInput, "v2"); err != nil {
		t.Fatal(err)
	}

	claims := p.Claims()
	if len(claims) != 2 {
		t.Fatalf("claims = %d, want 2", len(claims))
	}

	var base model.Claim
	for _, c := range claims {
		if c.ID == baseID {
			base = c
		}
	}
	if base.CredibilityScore != 99 || base.Status != model.StatusVerified {
		t.Errorf("racing update was clobbered by the merge: %+v", base)
	}
}

func TestVerifyClaim_Success(t *testing.T) {
	o := &stubOracle{
		extractBatches: [][]model.ExtractedClaim{{{ClaimText: "x", Score: 55, BiasAnalysis: "self-reported"}}},
		verifySummary:  "Independent filings confirm this is accurate.",
	}
	p := newTestPipeline(o, &stubClassifier{})
	if _, err := p.Ingest(context.Background(), "s", model.CategoryUserInput, "t"); err != nil {
		t.Fatal(err)
	}
	id := p.Claims()[0].ID

	if err := p.VerifyClaim(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claim, _ := p.Store().Claim(id)
	if claim.CredibilityScore != 85 || claim.Status != model.StatusVerified {
		t.Errorf("claim = %+v", claim)
	}
	if claim.CredibilityLevel != model.LevelHigh {
		t.Errorf("level = %s", claim.CredibilityLevel)
	}
	if claim.Verification == nil || claim.Verification.Summary == "" {
		t.Error("verification result must be attached")
	}
	if !strings.Contains(claim.BiasAnalysis, "[VERIFICATION]") ||
		!strings.HasPrefix(claim.BiasAnalysis, "self-reported") {
		t.Errorf("bias must grow, not be replaced: %q", claim.BiasAnalysis)
	}
}

func TestVerifyClaim_OracleFailure(t *testing.T) {
	o := &stubOracle{
		extractBatches: [][]model.ExtractedClaim{{{ClaimText: "x", Score: 75}}},
		verifyErr:      errors.New("oracle unreachable"),
	}
	p := newTestPipeline(o, &stubClassifier{})
	if _, err := p.Ingest(context.Background(), "s", model.CategoryUserInput, "t"); err != nil {
		t.Fatal(err)
	}
	id := p.Claims()[0].ID

	if err := p.VerifyClaim(context.Background(), id); err == nil {
		t.Fatal("expected error")
	}

	claim, _ := p.Store().Claim(id)
	if claim.Status != model.StatusFlagged {
		t.Errorf("status = %s, want flagged", claim.Status)
	}
	if claim.Verification != nil {
		t.Error("verification must be left absent on failure")
	}
}

func TestVerifyClaim_NotFound(t *testing.T) {
	p := newTestPipeline(&stubOracle{}, &stubClassifier{})
	if err := p.VerifyClaim(context.Background(), "no-such-id"); err == nil {
		t.Error("expected error for unknown claim id")
	}
}

func TestVerifyAll(t *testing.T) {
	o := &stubOracle{
		extractBatches: [][]model.ExtractedClaim{{
			{ClaimText: "a", Score: 70},
			{ClaimText: "b", Score: 70},
			{ClaimText: "c", Score: 70},
		}},
		verifySummary: "This is accurate.",
	}
	p := newTestPipeline(o, &stubClassifier{})
	if _, err := p.Ingest(context.Background(), "s", model.CategoryUserInput, "t"); err != nil {
		t.Fatal(err)
	}

	results := p.VerifyAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("claim %s: %v", r.ClaimID, r.GetError())
		}
	}

	for _, c := range p.Claims() {
		if c.Status != model.StatusVerified {
			t.Errorf("claim %s status = %s", c.ID, c.Status)
		}
	}
}

func TestReport(t *testing.T) {
	o := &stubOracle{extractBatches: [][]model.ExtractedClaim{{
		{ClaimText: "a", Score: 90},
		{ClaimText: "b", Score: 40},
	}}}
	p := newTestPipeline(o, &stubClassifier{})
	if _, err := p.Ingest(context.Background(), "s", model.CategoryUserInput, "t"); err != nil {
		t.Fatal(err)
	}

	rep := p.Report(context.Background(), false)
	if rep.ClaimCount != 2 || len(rep.Items) != 2 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Narrative != "all clear" {
		t.Errorf("narrative = %q", rep.Narrative)
	}
	if rep.Items[1].VerificationSummary != report.NotVerified {
		t.Errorf("summary = %q", rep.Items[1].VerificationSummary)
	}
}

func TestIngestURL_NotConfigured(t *testing.T) {
	p := newTestPipeline(&stubOracle{}, &stubClassifier{})
	if _, err := p.IngestURL(context.Background(), "https://example.com", model.CategoryNewsArticle); err == nil {
		t.Error("expected error when no fetcher is configured")
	}
}
