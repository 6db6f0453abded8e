// Package report projects the claim snapshot into synthesis inputs and
// delegates the prose to the oracle. The projection is deliberately
// lossless and order-preserving: the truth filter that excludes flagged
// or uncorrected low-score claims runs inside the oracle, because the
// exclusion rule depends on verification content only the oracle
// interprets.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"veritrack/internal/model"
)

// NotVerified is the verification summary placeholder for claims that
// have never been through verification.
const NotVerified = "Not verified"

// BuildReportInputs projects every claim into a ReportItem. No claim is
// pre-dropped and the snapshot order is preserved.
func BuildReportInputs(claims []model.Claim) []model.ReportItem {
	items := make([]model.ReportItem, 0, len(claims))
	for _, c := range claims {
		summary := NotVerified
		if c.Verification != nil {
			summary = c.Verification.Summary
		}
		items = append(items, model.ReportItem{
			Text:                c.Text,
			Score:               c.CredibilityScore,
			VerificationSummary: summary,
			IsFlagged:           c.Status == model.StatusFlagged,
		})
	}
	return items
}

// Synthesizer is the oracle operation the builder depends on. It never
// fails: on oracle failure it returns a fixed fallback string.
type Synthesizer interface {
	Synthesize(ctx context.Context, items []model.ReportItem) string
}

// Builder assembles reports from claim snapshots
type Builder struct {
	synth Synthesizer
	log   *zap.Logger
}

// NewBuilder creates a report builder
func NewBuilder(synth Synthesizer, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{synth: synth, log: logger}
}

// Build projects the snapshot and asks the oracle for the narrative
func (b *Builder) Build(ctx context.Context, claims []model.Claim) model.Report {
	items := BuildReportInputs(claims)

	b.log.Debug("building report", zap.Int("claims", len(claims)))
	narrative := b.synth.Synthesize(ctx, items)

	return model.Report{
		GeneratedAt: time.Now().UTC(),
		ClaimCount:  len(claims),
		Items:       items,
		Narrative:   narrative,
	}
}
