package teams

import (
	"fmt"
	"strings"
)

// Every worker prompt ends with the same output contract so the parsing
// utilities see a uniform micro-format across teams.
const outputContract = `Wrap findings in tags: <discovery>...</discovery> for each finding,
<indicator>name: value</indicator> for each indicator check,
<recommendation>...</recommendation> for each recommendation.
Use "Information Not Available" for values you cannot determine.`

var workerInstructions = map[WorkerID]string{
	WorkerDocumentScreener: `You are a document screener for vehicle insurance claims.
Review the submitted documents and evidence descriptions. Confirm the claim form
is complete and list what evidence was provided.`,

	WorkerEvidenceAnalyst: `You are an evidence analyst. Cross-check the evidence
descriptions against the incident details and note inconsistencies.`,

	WorkerPolicyValidator: `You are a policy validator. Verify the policy number,
its status on the incident date, and the insured party's identity.`,

	WorkerCoverageAnalyst: `You are a coverage analyst. Determine whether the
reported incident type is covered and state the coverage status plainly.`,

	WorkerClaimFormInvestigator: `You are a claim-form fraud investigator. Check the
claimant's existence, policy status, and whether the claimed items are insured.
Report an indicator value in [0,1] for: claimant_exists, policy_status_check,
item_insurance_check.`,

	WorkerVehicleInvestigator: `You are a vehicle fraud investigator. Check the
vehicle against ghost-claim patterns, registration records and the driver's
license status. Report an indicator value in [0,1] for: ghost_claims_vehicle_check,
vehicle_registration_match, drivers_license_status_check.`,

	WorkerDamageCostInvestigator: `You are a damage-cost fraud investigator. Check
the claimed repair costs against pricing benchmarks and the claimant's recent
claim frequency. Report an indicator value in [0,1] for: item_pricing_benchmarking,
rapid_policy_claims_check.`,

	WorkerFraudRiskAnalyst: `You are a fraud-risk analyst. You are given the
deterministic weighted risk breakdown for this claim. Write the fraud assessment,
emit the overall score as <fraud_score>...</fraud_score> and list the triggered
indicators and your recommendations.`,

	WorkerMarketPriceResearcher: `You are a market price researcher. Find comparable
market prices for the claimed vehicle and repairs. Emit each comparable as
<market_price>amount</market_price>.`,

	WorkerSettlementCalculator: `You are a settlement calculator. You are given a
price-realism analysis of the quoted repair cost. Propose a settlement offer and
a pre-loss value comparison.`,

	WorkerSummaryWriter: `You are the claims summary writer. Consolidate all prior
team findings into a final report narrative. When the report is complete emit
<claims_operation_status>Claim processing completed</claims_operation_status>.`,
}

// Instructions returns the role instructions for a worker.
func Instructions(worker WorkerID) (string, error) {
	inst, ok := workerInstructions[worker]
	if !ok {
		return "", fmt.Errorf("unknown worker %q", worker)
	}
	return inst, nil
}

// BuildPrompt assembles the full prompt for one worker invocation: role
// instructions, the claim form payload, the latest inbound team message,
// this team's own accumulated history, and any deterministic evidence
// (scorer or pricing output) computed for this step. Workers never see other
// workers' raw intermediate output except through their team's history and
// the synthesis step.
func BuildPrompt(worker WorkerID, claimForm, inbound string, history []string, evidence string) (string, error) {
	inst, err := Instructions(worker)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(inst)
	b.WriteString("\n\n## Claim form\n")
	b.WriteString(claimForm)
	if inbound != "" {
		b.WriteString("\n\n## Incoming findings\n")
		b.WriteString(inbound)
	}
	if len(history) > 0 {
		b.WriteString("\n\n## Team history\n")
		b.WriteString(strings.Join(history, "\n---\n"))
	}
	if evidence != "" {
		b.WriteString("\n\n## Computed evidence\n")
		b.WriteString(evidence)
	}
	b.WriteString("\n\n")
	b.WriteString(outputContract)
	return b.String(), nil
}
