// Package score implements the pure credibility arithmetic: score-to-level
// banding and the score deltas applied by extraction, verification, and
// conflict interactions. Everything here is side-effect free so the exact
// keyword priority and clamping behavior stay enforceable by unit tests.
package score

import (
	"fmt"
	"math"
	"strings"

	"veritrack/internal/model"
)

const (
	// FlagThreshold is the extraction-time score below which a claim
	// starts its life flagged instead of analyzing.
	FlagThreshold = 60

	refutedScore         = 10
	verifiedFloor        = 80
	verificationBonus    = 30
	unverifiedBonus      = 10
	contradictionPenalty = 30
	reinforcementBonus   = 10
)

// Keyword sets for verification summaries, checked case-insensitively.
// Refutation beats support: the order is load-bearing.
var (
	refuteKeywords  = []string{"false", "incorrect", "misleading", "contradicts"}
	supportKeywords = []string{"true", "accurate", "supports"}
)

// Clamp bounds a score to [0,100]
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// LevelFor maps a credibility score to its band. It never returns
// LevelUnknown: unscored claims never reach the engine.
func LevelFor(score int) model.Level {
	switch {
	case score >= 80:
		return model.LevelHigh
	case score >= 50:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// ApplyExtraction converts a raw oracle score into a claim's initial
// score, level, and status. This is the only place extraction-time
// status is decided.
func ApplyExtraction(raw float64) (int, model.Level, model.Status) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		raw = 0
	}
	score := Clamp(int(math.Round(raw)))

	status := model.StatusAnalyzing
	if score < FlagThreshold {
		status = model.StatusFlagged
	}
	return score, LevelFor(score), status
}

// ApplyVerification classifies a verification summary by keyword
// presence and returns the new score and status. The keyword heuristic
// is a deliberate, cheap substitute for deeper language understanding;
// its priority order (refutation first) must not change.
func ApplyVerification(prior int, summary string) (int, model.Status) {
	lower := strings.ToLower(summary)

	if containsAny(lower, refuteKeywords) {
		return refutedScore, model.StatusFlagged
	}

	if containsAny(lower, supportKeywords) {
		score := prior + verificationBonus
		if score < verifiedFloor {
			score = verifiedFloor
		}
		return Clamp(score), model.StatusVerified
	}

	return Clamp(prior + unverifiedBonus), model.StatusVerified
}

// InteractionOutcome describes how a conflict interaction changes a claim
type InteractionOutcome struct {
	Score       int
	Level       model.Level
	Status      model.Status
	BiasText    string // Replacement text or suffix, see ReplaceBias
	ReplaceBias bool   // Contradiction overwrites the bias narrative; reinforcement appends
	Changed     bool
}

// ApplyInteraction computes the effect of a conflict interaction on an
// existing claim. For contradictions the level is pinned to LOW rather
// than recomputed from the new score; the pinning is part of the
// contract even when the recomputed band would agree.
func ApplyInteraction(prior int, priorStatus model.Status, kind model.InteractionKind, reason string) InteractionOutcome {
	switch kind {
	case model.InteractionContradicts:
		score := prior - contradictionPenalty
		if score < 0 {
			score = 0
		}
		return InteractionOutcome{
			Score:       score,
			Level:       model.LevelLow,
			Status:      model.StatusFlagged,
			BiasText:    fmt.Sprintf("[UPDATE WARNING] Contradicted by newer source: %s", reason),
			ReplaceBias: true,
			Changed:     true,
		}

	case model.InteractionReinforces:
		score := prior + reinforcementBonus
		if score > 100 {
			score = 100
		}
		return InteractionOutcome{
			Score:    score,
			Level:    LevelFor(score),
			Status:   priorStatus, // Reinforcement never changes status
			BiasText: " [UPDATE] Reinforced by newer source.",
			Changed:  true,
		}

	default:
		// Neutral and anything unrecognized leaves the claim untouched
		return InteractionOutcome{Score: prior, Changed: false}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
