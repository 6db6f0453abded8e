package model

// Level is the three-band credibility classification derived from a score
type Level string

const (
	LevelHigh   Level = "HIGH"   // score >= 80
	LevelMedium Level = "MEDIUM" // 50 <= score < 80
	LevelLow    Level = "LOW"    // score < 50
	// LevelUnknown is reserved for claims that have not been scored yet;
	// the score engine itself never produces it.
	LevelUnknown Level = "UNKNOWN"
)

// Status tracks where a claim is in its lifecycle
type Status string

const (
	StatusPending   Status = "pending"   // Created but not yet scored
	StatusAnalyzing Status = "analyzing" // Scored at extraction, awaiting verification
	StatusVerified  Status = "verified"  // Verification completed
	StatusFlagged   Status = "flagged"   // Low score, refuted, or contradicted; not terminal
)

// Claim represents a factual assertion extracted from a source.
// Once created a claim is never destroyed, only mutated.
type Claim struct {
	ID               string              `json:"id"`                // Unique for the process lifetime, never reused
	Text             string              `json:"text"`              // Current claim text
	OriginalText     string              `json:"original_text"`     // Text as extracted, never rewritten
	SourceID         string              `json:"source_id"`         // Must reference an existing Source at creation
	CredibilityScore int                 `json:"credibility_score"` // Always clamped to [0,100]
	CredibilityLevel Level               `json:"credibility_level"` // Derived from score, never set independently
	BiasAnalysis     string              `json:"bias_analysis"`     // Append-only narrative (single contradiction overwrite excepted)
	Context          string              `json:"context,omitempty"`
	Verification     *VerificationResult `json:"verification,omitempty"`
	Status           Status              `json:"status"`
	IsNew            bool                `json:"is_new"` // Transient highlight flag, cleared on the next ingestion round
}

// VerificationResult is produced by the verification oracle. Once
// attached to a claim it may be replaced wholesale by a later
// re-verification but is never partially mutated.
type VerificationResult struct {
	IsVerified  bool   `json:"is_verified"`
	SourceURL   string `json:"source_url,omitempty"`
	SourceTitle string `json:"source_title,omitempty"`
	Summary     string `json:"summary"`
}

// ExtractedClaim is one candidate claim produced by the extraction oracle
type ExtractedClaim struct {
	ClaimText    string  `json:"claim_text"`
	Context      string  `json:"context,omitempty"`
	BiasAnalysis string  `json:"bias_analysis,omitempty"`
	Score        float64 `json:"score"` // Raw 0-100 score, clamped and rounded by the score engine
}

// InteractionKind classifies how an incoming batch relates to an existing claim
type InteractionKind string

const (
	InteractionContradicts InteractionKind = "contradicts"
	InteractionReinforces  InteractionKind = "reinforces"
	InteractionNeutral     InteractionKind = "neutral"
)

// Interaction is the oracle's judgment about one existing claim during
// conflict resolution. Ephemeral: consumed by the merge, never stored.
type Interaction struct {
	ExistingClaimID string          `json:"existing_claim_id"`
	Kind            InteractionKind `json:"kind"`
	Reason          string          `json:"reason,omitempty"`
}

// ValidInteractionKind reports whether k is one of the three known kinds
func ValidInteractionKind(k InteractionKind) bool {
	switch k {
	case InteractionContradicts, InteractionReinforces, InteractionNeutral:
		return true
	}
	return false
}
