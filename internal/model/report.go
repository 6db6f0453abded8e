package model

import "time"

// ReportItem is the lossless projection of one claim handed to the
// synthesis oracle. The truth filter (excluding flagged or uncorrected
// low-score claims) is applied by the oracle, not here, because the
// exclusion rule depends on verification content only the oracle
// interprets.
type ReportItem struct {
	Text                string `json:"text"`
	Score               int    `json:"score"`
	VerificationSummary string `json:"verification_summary"` // "Not verified" when absent
	IsFlagged           bool   `json:"is_flagged"`
}

// LinkCheck is the advisory accessibility result for one verification
// source URL. It never affects claim state.
type LinkCheck struct {
	ClaimID      string `json:"claim_id"`
	URL          string `json:"url"`
	IsAccessible bool   `json:"is_accessible"`
	StatusCode   int    `json:"status_code,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Report is the synthesized output for the current claim snapshot
type Report struct {
	GeneratedAt time.Time    `json:"generated_at"`
	ClaimCount  int          `json:"claim_count"`
	Items       []ReportItem `json:"items"`
	Narrative   string       `json:"narrative"` // Prose from the synthesis oracle, or its fixed fallback
	Links       []LinkCheck  `json:"links,omitempty"`
}
