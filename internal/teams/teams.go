// Package teams defines the closed set of claim-processing teams and the
// fixed worker roster inside each one. Routing never happens by free-form
// string lookup: the pipeline order and every roster are declared here and
// an unknown identifier is an error, not a fallback.
package teams

import "fmt"

// ID identifies one claim-processing team.
type ID string

const (
	DocumentScreening ID = "document_screening"
	PolicyReview      ID = "policy_review"
	FraudDetection    ID = "fraud_detection"
	SettlementOffer   ID = "settlement_offer"
	Summary           ID = "summary"
)

// Pipeline is the fixed end-to-end team order. A dispatch decision that
// deviates from this path is a defect, not a branch.
var Pipeline = []ID{
	DocumentScreening,
	PolicyReview,
	FraudDetection,
	SettlementOffer,
	Summary,
}

// WorkerID identifies one specialized worker within a team.
type WorkerID string

const (
	WorkerDocumentScreener       WorkerID = "document_screener"
	WorkerEvidenceAnalyst        WorkerID = "evidence_analyst"
	WorkerPolicyValidator        WorkerID = "policy_validator"
	WorkerCoverageAnalyst        WorkerID = "coverage_analyst"
	WorkerClaimFormInvestigator  WorkerID = "claim_form_investigator"
	WorkerVehicleInvestigator    WorkerID = "vehicle_fraud_investigator"
	WorkerDamageCostInvestigator WorkerID = "damage_cost_investigator"
	WorkerFraudRiskAnalyst       WorkerID = "fraud_risk_analyst"
	WorkerMarketPriceResearcher  WorkerID = "market_price_researcher"
	WorkerSettlementCalculator   WorkerID = "settlement_calculator"
	WorkerSummaryWriter          WorkerID = "summary_writer"
)

// rosters is the fixed, ordered worker chain per team. Synthesis is not a
// worker; it is the deterministic final step of every team.
var rosters = map[ID][]WorkerID{
	DocumentScreening: {WorkerDocumentScreener, WorkerEvidenceAnalyst},
	PolicyReview:      {WorkerPolicyValidator, WorkerCoverageAnalyst},
	FraudDetection: {
		WorkerClaimFormInvestigator,
		WorkerVehicleInvestigator,
		WorkerDamageCostInvestigator,
		WorkerFraudRiskAnalyst,
	},
	SettlementOffer: {WorkerMarketPriceResearcher, WorkerSettlementCalculator},
	Summary:         {WorkerSummaryWriter},
}

// statusLabels is the human-readable progress label pushed to the claims
// backend when a team starts.
var statusLabels = map[ID]string{
	DocumentScreening: "Screening submitted documents",
	PolicyReview:      "Reviewing policy coverage",
	FraudDetection:    "Running fraud checks",
	SettlementOffer:   "Preparing settlement offer",
	Summary:           "Summarizing claim findings",
}

// Roster returns the ordered worker chain for a team.
func Roster(team ID) ([]WorkerID, error) {
	roster, ok := rosters[team]
	if !ok {
		return nil, fmt.Errorf("unknown team %q", team)
	}
	out := make([]WorkerID, len(roster))
	copy(out, roster)
	return out, nil
}

// StatusLabel returns the progress label for a team.
func StatusLabel(team ID) (string, error) {
	label, ok := statusLabels[team]
	if !ok {
		return "", fmt.Errorf("unknown team %q", team)
	}
	return label, nil
}

// Valid reports whether id names a known team.
func Valid(id ID) bool {
	_, ok := rosters[id]
	return ok
}
