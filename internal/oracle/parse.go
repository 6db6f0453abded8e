package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"veritrack/internal/model"
)

// defaultScore is assigned when the oracle omits or mangles a numeric
// score. It sits below the flag threshold so an unscorable claim always
// surfaces for review instead of propagating NaN.
const defaultScore = 30

// extractionItem mirrors the extraction response schema. Score is a
// pointer so a missing field is distinguishable from zero.
type extractionItem struct {
	ClaimText    string   `json:"claim_text"`
	Context      string   `json:"context"`
	BiasAnalysis string   `json:"bias_analysis"`
	Score        *float64 `json:"score"`
}

type verificationPayload struct {
	Summary     string `json:"summary"`
	IsVerified  bool   `json:"is_verified"`
	SourceTitle string `json:"source_title"`
	SourceURL   string `json:"source_url"`
}

type interactionItem struct {
	ExistingID  string `json:"existing_id"`
	Interaction string `json:"interaction"`
	Reason      string `json:"reason"`
}

// stripFences removes a wrapping markdown code fence. Models add them
// despite instructions, and a fenced payload is otherwise valid.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the opening fence
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseExtraction validates an extraction response. Items without claim
// text are dropped; missing or non-finite scores default to a safe low
// value rather than failing the batch.
func parseExtraction(raw string) ([]model.ExtractedClaim, error) {
	var items []extractionItem
	if err := json.Unmarshal([]byte(stripFences(raw)), &items); err != nil {
		return nil, fmt.Errorf("extraction response is not a JSON array: %w", err)
	}

	claims := make([]model.ExtractedClaim, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.ClaimText)
		if text == "" {
			continue
		}

		score := float64(defaultScore)
		if item.Score != nil && !math.IsNaN(*item.Score) && !math.IsInf(*item.Score, 0) {
			score = *item.Score
		}

		claims = append(claims, model.ExtractedClaim{
			ClaimText:    text,
			Context:      strings.TrimSpace(item.Context),
			BiasAnalysis: strings.TrimSpace(item.BiasAnalysis),
			Score:        score,
		})
	}

	return claims, nil
}

// parseVerification validates a verification response. A summary is the
// one field the core cannot do without.
func parseVerification(raw string) (*model.VerificationResult, error) {
	var payload verificationPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, fmt.Errorf("verification response is not a JSON object: %w", err)
	}

	summary := strings.TrimSpace(payload.Summary)
	if summary == "" {
		return nil, fmt.Errorf("verification response has no summary")
	}

	return &model.VerificationResult{
		IsVerified:  payload.IsVerified,
		SourceURL:   strings.TrimSpace(payload.SourceURL),
		SourceTitle: strings.TrimSpace(payload.SourceTitle),
		Summary:     summary,
	}, nil
}

// parseInteractions validates a classification response. Entries with a
// missing id or an unknown kind are dropped: a malformed entry must not
// poison the rest of the batch, and referential problems resolve to
// no-ops downstream anyway.
func parseInteractions(raw string) ([]model.Interaction, error) {
	var items []interactionItem
	if err := json.Unmarshal([]byte(stripFences(raw)), &items); err != nil {
		return nil, fmt.Errorf("classification response is not a JSON array: %w", err)
	}

	interactions := make([]model.Interaction, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ExistingID)
		kind := model.InteractionKind(strings.ToLower(strings.TrimSpace(item.Interaction)))
		if id == "" || !model.ValidInteractionKind(kind) {
			continue
		}
		interactions = append(interactions, model.Interaction{
			ExistingClaimID: id,
			Kind:            kind,
			Reason:          strings.TrimSpace(item.Reason),
		})
	}

	return interactions, nil
}
