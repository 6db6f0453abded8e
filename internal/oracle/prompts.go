package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"veritrack/internal/model"
)

const systemPrompt = "You are a careful research analyst. You respond with exactly the JSON or text requested, with no preamble and no markdown fences."

// buildExtractionPrompt asks the oracle for candidate claims with a bias
// rationale and an initial credibility score.
func buildExtractionPrompt(text string, source model.Source) string {
	return fmt.Sprintf(`Extract the factual claims from the following source.

Source name: %s
Source category: %s

Rules:
1. Each claim is one atomic factual assertion, quoted or lightly normalized from the text.
2. For each claim, write a one-sentence bias analysis that accounts for the source category (a %s has its own incentives).
3. Assign each claim an initial credibility score from 0 to 100 based on how verifiable and specific it is.
4. Respond with a JSON array only. Each element: {"claim_text": string, "context": string, "bias_analysis": string, "score": number}.
5. If the text contains no factual claims, respond with [].

Text:
%s`, source.Name, source.Category, source.Category, text)
}

// buildVerificationPrompt asks the oracle to check one claim against
// external evidence and narrate a verdict.
func buildVerificationPrompt(claim model.Claim) string {
	return fmt.Sprintf(`Verify the following claim against evidence you can reason about.

Claim: %s
Context: %s

Rules:
1. Summarize your verdict in 2-3 sentences. If the claim is wrong, say so plainly (use words like "false" or "incorrect"); if it holds, say it is "accurate" or that evidence "supports" it.
2. Respond with a JSON object only: {"summary": string, "is_verified": boolean, "source_title": string, "source_url": string}.
3. If you cannot find a relevant source, leave source_title and source_url empty but still give a summary.`, claim.Text, claim.Context)
}

// buildClassificationPrompt asks the oracle to judge how a new claim
// batch interacts with each existing claim.
func buildClassificationPrompt(existing, incoming []ClaimRef) string {
	existingJSON, _ := json.Marshal(existing)
	incomingJSON, _ := json.Marshal(incoming)

	return fmt.Sprintf(`Compare an existing set of claims against a newly extracted set.

Existing claims:
%s

New claims:
%s

Rules:
1. For each EXISTING claim that some new claim relates to, decide whether the new information "contradicts", "reinforces", or is "neutral" toward it.
2. Existing claims with no related new claim get no entry at all.
3. Respond with a JSON array only. Each element: {"existing_id": string, "interaction": "contradicts"|"reinforces"|"neutral", "reason": string}.
4. If nothing relates, respond with [].`, existingJSON, incomingJSON)
}

// buildSynthesisPrompt carries the fixed truth-filter rule set. The
// filter component deliberately never pre-drops claims: the exclusion
// rule depends on verification content only the oracle interprets.
func buildSynthesisPrompt(items []model.ReportItem) string {
	itemsJSON, _ := json.MarshalIndent(items, "", "  ")

	var b strings.Builder
	b.WriteString(`Write a research report from the claim list below.

Rules:
1. Exclude any claim marked is_flagged unless its verification summary establishes a correction; in that case report the corrected fact, not the original claim.
2. Exclude claims with score below 50 whose verification summary is "Not verified".
3. When a verification summary corrects or refines a claim, prefer the corrected wording over the original claim text.
4. Organize the surviving claims into coherent prose with a short conclusion about overall credibility.
5. Respond with plain markdown. Do not mention these rules or the JSON structure.

Claims:
`)
	b.Write(itemsJSON)
	return b.String()
}
