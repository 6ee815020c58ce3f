package compliance

import (
	"strings"

	"ihsan/internal/normalize"
)

// classifyCrypto applies the crypto rule set. Crypto assets carry no balance
// sheet, so ratios are always skipped.
func (c *Classifier) classifyCrypto(p normalize.FinancialProfile) Verdict {
	v := Verdict{
		Ticker:   p.Ticker,
		Branch:   BranchCrypto,
		Ratios:   Ratios{DebtPassed: true, CashPassed: true, Passed: true, Skipped: true},
		Activity: Activity{Reasons: []string{}},
		Reasons:  []string{},
	}
	ticker := strings.ToUpper(p.Ticker)
	if _, denied := c.cryptoDeny[ticker]; denied {
		v.Activity = Activity{Violated: true, Reasons: []string{"riba: interest-bearing or lending token"}, Categories: []string{"riba"}}
		v.Reasons = append(v.Reasons, v.Activity.Reasons...)
		v.ShariaScore = c.rules.Crypto.DenyScore
		v.Summary = "riba (stablecoin or lending)"
		return v
	}
	narrative := strings.ToLower(p.Narrative)
	found := newReasonSet()
	for _, term := range c.lendingTerms {
		if strings.Contains(narrative, term) {
			found.add(term, "lending")
		}
	}
	if len(found.reasons) > 0 {
		v.Activity = Activity{Violated: true, Reasons: found.reasons, Categories: found.categories}
		v.Reasons = append(v.Reasons, found.reasons...)
		v.ShariaScore = c.rules.Crypto.LendingScore
		v.Summary = "lending or interest mechanism"
		return v
	}
	v.IsHalal = true
	if _, ok := c.cryptoAllow[ticker]; ok {
		v.ShariaScore = c.rules.Crypto.AllowScore
		v.Summary = "established crypto asset"
		return v
	}
	v.ShariaScore = c.rules.Crypto.DefaultScore
	v.Summary = "compliant (crypto)"
	return v
}
