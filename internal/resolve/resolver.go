// Package resolve reconciles a freshly extracted claim batch against
// the existing corpus. The oracle judges pairwise interactions; this
// package applies them. Claims are never dropped by a merge, only
// rescored or flagged.
package resolve

import (
	"context"

	"go.uber.org/zap"

	"veritrack/internal/model"
	"veritrack/internal/oracle"
	"veritrack/internal/score"
)

// Classifier is the oracle operation the resolver depends on. An empty
// interaction list with a nil error means "nothing relates"; an error
// means the call failed and the merge fails open.
type Classifier interface {
	Classify(ctx context.Context, existing, incoming []oracle.ClaimRef) ([]model.Interaction, error)
}

// Resolver merges claim batches using oracle interaction judgments
type Resolver struct {
	classifier Classifier
	log        *zap.Logger
}

// New creates a resolver
func New(classifier Classifier, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{classifier: classifier, log: logger}
}

// Merge produces the merged claim set for one ingestion round. Ordering
// is a display contract: new claims first, then the (possibly mutated)
// existing claims, each list keeping its internal order.
func (r *Resolver) Merge(ctx context.Context, existing, incoming []model.Claim) []model.Claim {
	merged, _, _ := r.MergeDetailed(ctx, existing, incoming)
	return merged
}

// MergeDetailed is Merge plus the interaction list it applied and
// whether classification succeeded, so a caller whose snapshot went
// stale can replay ApplyInteractions on fresh claims without a second
// oracle call.
func (r *Resolver) MergeDetailed(ctx context.Context, existing, incoming []model.Claim) ([]model.Claim, []model.Interaction, bool) {
	// Fast path: nothing to reconcile against, and no oracle call
	if len(existing) == 0 {
		return incoming, nil, true
	}

	interactions, err := r.classifier.Classify(ctx, claimRefs(existing), claimRefs(incoming))
	if err != nil {
		r.log.Warn("conflict classification failed, merging fail-open",
			zap.Int("existing", len(existing)),
			zap.Int("incoming", len(incoming)),
			zap.Error(err))
		// Fail open: incoming followed by existing, all untouched
		out := make([]model.Claim, 0, len(incoming)+len(existing))
		out = append(out, incoming...)
		out = append(out, existing...)
		return out, nil, false
	}

	r.log.Debug("conflict classification completed",
		zap.Int("existing", len(existing)),
		zap.Int("incoming", len(incoming)),
		zap.Int("interactions", len(interactions)))

	return ApplyInteractions(existing, incoming, interactions), interactions, true
}

// ApplyInteractions is the pure half of the merge. Interactions are
// keyed by existing claim id; an existing claim without an entry passes
// through unchanged, and an interaction referencing an unknown id is
// silently ignored.
func ApplyInteractions(existing, incoming []model.Claim, interactions []model.Interaction) []model.Claim {
	byID := make(map[string]model.Interaction, len(interactions))
	for _, in := range interactions {
		byID[in.ExistingClaimID] = in
	}

	out := make([]model.Claim, 0, len(incoming)+len(existing))
	out = append(out, incoming...)

	for _, claim := range existing {
		interaction, ok := byID[claim.ID]
		if !ok {
			out = append(out, claim)
			continue
		}

		outcome := score.ApplyInteraction(claim.CredibilityScore, claim.Status, interaction.Kind, interaction.Reason)
		if !outcome.Changed {
			out = append(out, claim)
			continue
		}

		claim.CredibilityScore = outcome.Score
		claim.CredibilityLevel = outcome.Level
		claim.Status = outcome.Status
		if outcome.ReplaceBias {
			// The single exception to the append-only bias narrative
			claim.BiasAnalysis = outcome.BiasText
		} else {
			claim.BiasAnalysis += outcome.BiasText
		}
		out = append(out, claim)
	}

	return out
}

func claimRefs(claims []model.Claim) []oracle.ClaimRef {
	refs := make([]oracle.ClaimRef, len(claims))
	for i, c := range claims {
		refs[i] = oracle.ClaimRef{ID: c.ID, Text: c.Text}
	}
	return refs
}
