package claims

import (
	"fmt"
	"strings"
)

// ClaimType is the kind of loss being claimed.
type ClaimType string

const (
	TypeAccident ClaimType = "accident"
	TypeTheft    ClaimType = "theft"
)

// ValidType reports whether t names a known claim type.
func ValidType(t ClaimType) bool {
	return t == TypeAccident || t == TypeTheft
}

// LineItem is one monetary line on the claim form.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Claim is the unit of work, immutable once fetched for a run. Evidence
// descriptions are free text produced upstream by document and vision
// analysis.
type Claim struct {
	ID           int       `json:"id"`
	ClaimType    ClaimType `json:"claimType"`
	PolicyNumber string    `json:"policyNumber"`
	InsuredName  string    `json:"insuredName"`

	VehicleMake  string `json:"vehicleMake"`
	VehicleModel string `json:"vehicleModel"`
	VehicleYear  int    `json:"vehicleYear"`

	IncidentDate        string `json:"incidentDate"`
	IncidentDescription string `json:"incidentDescription"`

	LineItems           []LineItem `json:"lineItems"`
	EstimatedRepairCost float64    `json:"estimatedRepairCost"`

	EvidenceDescriptions []string `json:"evidenceDescriptions"`
	RepairInvoice        string   `json:"repairInvoice,omitempty"`
	ResourceURLs         []string `json:"resourceUrls,omitempty"`
}

// FormPayload renders the claim form as the plain-text block carried through
// every team message alongside the investigators' findings.
func (c *Claim) FormPayload() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim ID: %d\n", c.ID)
	fmt.Fprintf(&b, "Claim type: %s\n", c.ClaimType)
	fmt.Fprintf(&b, "Policy number: %s\n", c.PolicyNumber)
	fmt.Fprintf(&b, "Insured party: %s\n", c.InsuredName)
	fmt.Fprintf(&b, "Vehicle: %d %s %s\n", c.VehicleYear, c.VehicleMake, c.VehicleModel)
	fmt.Fprintf(&b, "Incident date: %s\n", c.IncidentDate)
	fmt.Fprintf(&b, "Incident description: %s\n", c.IncidentDescription)
	fmt.Fprintf(&b, "Estimated repair cost: %.2f\n", c.EstimatedRepairCost)

	if len(c.LineItems) > 0 {
		b.WriteString("Line items:\n")
		for _, item := range c.LineItems {
			fmt.Fprintf(&b, "  - %s: %.2f\n", item.Description, item.Amount)
		}
	}
	if len(c.EvidenceDescriptions) > 0 {
		b.WriteString("Evidence:\n")
		for _, ev := range c.EvidenceDescriptions {
			fmt.Fprintf(&b, "  - %s\n", ev)
		}
	}
	if c.RepairInvoice != "" {
		b.WriteString("Repair invoice:\n")
		b.WriteString(c.RepairInvoice)
		b.WriteString("\n")
	}
	return b.String()
}

// QuotedPrice is the amount the settlement team benchmarks against market
// prices: the summed line items when present, otherwise the estimate.
func (c *Claim) QuotedPrice() float64 {
	var sum float64
	for _, item := range c.LineItems {
		sum += item.Amount
	}
	if sum > 0 {
		return sum
	}
	return c.EstimatedRepairCost
}
