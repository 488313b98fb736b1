/*
Package factory provides JSON to Go leave policy conversion.

PURPOSE:
  Converts JSON policy definitions into leave.Policy values. HR changes the
  paid-day threshold by editing a document, not the code.

JSON SCHEMA:
  {
    "name": "standard",
    "max_paid_days_per_month": 1.5,
    "annual_allotment": 18
  }

  annual_allotment is optional; when absent the yearly budget is
  12 x max_paid_days_per_month.

USAGE:
  f := factory.NewPolicyFactory()
  policy, err := f.ParsePolicy(jsonString)
  policy, err := f.LoadPolicyFile("configs/leave-policy.json")

SEE ALSO:
  - leave/types.go: Policy type definition
  - config/config.go: where the policy file path comes from
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a leave policy.
type PolicyJSON struct {
	Name                string           `json:"name"`
	MaxPaidDaysPerMonth decimal.Decimal  `json:"max_paid_days_per_month"`
	AnnualAllotment     *decimal.Decimal `json:"annual_allotment,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory creates leave policies from JSON.
type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON policy document.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (leave.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return leave.Policy{}, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return f.Build(pj)
}

// LoadPolicyFile reads and parses a policy document from disk.
func (f *PolicyFactory) LoadPolicyFile(path string) (leave.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return leave.Policy{}, fmt.Errorf("reading policy file %s: %w", path, err)
	}
	return f.ParsePolicy(string(data))
}

// Build converts a PolicyJSON into a validated leave.Policy.
func (f *PolicyFactory) Build(pj PolicyJSON) (leave.Policy, error) {
	policy := leave.Policy{
		Name:                pj.Name,
		MaxPaidDaysPerMonth: pj.MaxPaidDaysPerMonth,
	}
	if policy.Name == "" {
		policy.Name = "default"
	}
	if pj.AnnualAllotment != nil {
		policy.AnnualAllotment = *pj.AnnualAllotment
	}
	if err := policy.Validate(); err != nil {
		return leave.Policy{}, err
	}
	return policy, nil
}

// ToJSON converts a policy back to its JSON representation.
func ToJSON(p leave.Policy) PolicyJSON {
	pj := PolicyJSON{Name: p.Name, MaxPaidDaysPerMonth: p.MaxPaidDaysPerMonth}
	if !p.AnnualAllotment.IsZero() {
		allotment := p.AnnualAllotment
		pj.AnnualAllotment = &allotment
	}
	return pj
}

// DefaultPolicyJSON returns the JSON for the default 1.5 day policy.
func DefaultPolicyJSON() string {
	data, _ := json.Marshal(ToJSON(leave.DefaultPolicy()))
	return string(data)
}
