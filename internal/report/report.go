// Package report holds the cumulative claim report and the merge rules that
// grow it as teams complete. A report is only ever replaced field-by-field
// with newer non-empty values or appended to; a failure mid-team can never
// erase previously merged fields.
package report

import (
	"strings"

	"github.com/claimflow-ai/claimflow/internal/parse"
	"github.com/claimflow-ai/claimflow/internal/teams"
)

// TerminalOperationStatus is the operation status the summary team emits
// when the claim run is done.
const TerminalOperationStatus = "Claim processing completed"

// Report is the cumulative aggregate for one claim, keyed by claim id. The
// JSON shape matches the claim-report upsert endpoints.
type Report struct {
	ClaimID           int      `json:"claimId"`
	FraudScore        float64  `json:"fraudScore"`
	FraudIndicators   []string `json:"fraudIndicators"`
	AIRecommendations []string `json:"aiRecommendations"`
	PolicyReview      string   `json:"policyReview"`
	EvidenceProvided  []string `json:"evidenceProvided"`
	CoverageStatus    string   `json:"coverageStatus"`
	TypeOfIncident    string   `json:"typeOfIncident"`
	Details           string   `json:"details"`
	Discoveries       []string `json:"discoveries"`
	SettlementOffer   string   `json:"settlementOffer"`
	PreLossComparison string   `json:"preLossComparison"`
	OperationStatus   string   `json:"operationStatus"`
}

// New returns an empty report for a claim. Every field starts at its zero
// value; list fields are non-nil so merges and JSON stay uniform.
func New(claimID int) Report {
	return Report{
		ClaimID:           claimID,
		FraudIndicators:   []string{},
		AIRecommendations: []string{},
		EvidenceProvided:  []string{},
		Discoveries:       []string{},
	}
}

// TeamFields is the structured output parsed from one team's consolidated
// message. Zero values mean "nothing parsed": Merge falls back to the
// existing report value, never to a placeholder.
type TeamFields struct {
	FraudScore        float64
	HasFraudScore     bool
	FraudIndicators   []string
	AIRecommendations []string
	PolicyReview      string
	EvidenceProvided  []string
	CoverageStatus    string
	TypeOfIncident    string
	Details           string
	Discoveries       []string
	SettlementOffer   string
	PreLossComparison string
	OperationStatus   string
}

// Merge folds one team's parsed output into the existing report and returns
// the updated copy. Discoveries are an accumulator: new entries are appended
// after the existing ones, never replacing them. All other fields take the
// newest non-empty value. Merging an empty TeamFields returns the input
// unchanged, so the operation is idempotent and fails closed.
func Merge(existing Report, team teams.ID, parsed TeamFields) Report {
	out := existing
	out.FraudIndicators = cloneStrings(existing.FraudIndicators)
	out.AIRecommendations = cloneStrings(existing.AIRecommendations)
	out.EvidenceProvided = cloneStrings(existing.EvidenceProvided)
	out.Discoveries = cloneStrings(existing.Discoveries)

	if parsed.HasFraudScore {
		out.FraudScore = parsed.FraudScore
	}
	if len(parsed.FraudIndicators) > 0 {
		out.FraudIndicators = cloneStrings(parsed.FraudIndicators)
	}
	if len(parsed.AIRecommendations) > 0 {
		out.AIRecommendations = cloneStrings(parsed.AIRecommendations)
	}
	if len(parsed.EvidenceProvided) > 0 {
		out.EvidenceProvided = cloneStrings(parsed.EvidenceProvided)
	}
	if parsed.PolicyReview != "" {
		out.PolicyReview = parsed.PolicyReview
	}
	if parsed.CoverageStatus != "" {
		out.CoverageStatus = parsed.CoverageStatus
	}
	if parsed.TypeOfIncident != "" {
		out.TypeOfIncident = parsed.TypeOfIncident
	}
	if parsed.Details != "" {
		out.Details = parsed.Details
	}
	if parsed.SettlementOffer != "" {
		out.SettlementOffer = parsed.SettlementOffer
	}
	if parsed.PreLossComparison != "" {
		out.PreLossComparison = parsed.PreLossComparison
	}
	if parsed.OperationStatus != "" {
		out.OperationStatus = parsed.OperationStatus
	}

	out.Discoveries = append(out.Discoveries, parsed.Discoveries...)
	_ = team // attribution is carried by the caller's logging, not the record
	return out
}

// Extract parses one team's consolidated message into the fields that team
// is responsible for. Parsing failures on the numeric fraud score are
// returned so the orchestrator can treat them as input errors; everything
// else degrades to empty values.
func Extract(team teams.ID, message string) (TeamFields, error) {
	fields := TeamFields{
		Discoveries: parse.Discoveries(message),
	}

	switch team {
	case teams.DocumentScreening:
		fields.EvidenceProvided = parse.Discoveries(message)
		fields.Details = strings.TrimSpace(parse.StripWrapper(message))
	case teams.PolicyReview:
		fields.PolicyReview = strings.TrimSpace(parse.StripWrapper(message))
		fields.CoverageStatus = firstLine(parse.Recommendations(message))
	case teams.FraudDetection:
		score, err := parse.FraudScore(message)
		if err != nil {
			return TeamFields{}, err
		}
		fields.FraudScore = score
		fields.HasFraudScore = true
		fields.FraudIndicators = parse.Indicators(message)
		fields.AIRecommendations = parse.Recommendations(message)
	case teams.SettlementOffer:
		fields.SettlementOffer = strings.TrimSpace(parse.StripWrapper(message))
		fields.PreLossComparison = firstLine(parse.Recommendations(message))
	case teams.Summary:
		fields.Details = strings.TrimSpace(parse.StripWrapper(message))
	}

	fields.OperationStatus = parse.OperationStatus(message)
	return fields, nil
}

// IsTerminal reports whether an operation status marks the end of a run.
func IsTerminal(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), TerminalOperationStatus)
}

func firstLine(entries []string) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[0]
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
