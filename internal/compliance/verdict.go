package compliance

// Branch names the rule path a verdict went through.
type Branch string

const (
	BranchAAOIFI       Branch = "aaoifi"
	BranchCrypto       Branch = "crypto"
	BranchActivityOnly Branch = "activity_only"
	BranchOverride     Branch = "override"
)

// Override names a manual list that decided the verdict.
type Override string

const (
	OverrideNone          Override = ""
	OverrideForcedHalal   Override = "forced_halal"
	OverrideForcedExclude Override = "forced_non_compliant"
)

// Ratios are debt and cash as a percentage of market capitalization.
type Ratios struct {
	Debt       float64 `json:"debt_ratio"`
	Cash       float64 `json:"cash_ratio"`
	DebtPassed bool    `json:"debt_passed"`
	CashPassed bool    `json:"cash_passed"`
	Passed     bool    `json:"passed"`
	Skipped    bool    `json:"skipped"` // no balance sheet applies
}

// Activity is the business-activity screen result.
type Activity struct {
	Violated   bool     `json:"failed"`
	Reasons    []string `json:"found_keywords"`
	Categories []string `json:"categories,omitempty"`
	Exempted   bool     `json:"islamic_finance_exempt,omitempty"`
}

// Verdict is the outcome of classifying one FinancialProfile.
type Verdict struct {
	Ticker      string   `json:"ticker"`
	Branch      Branch   `json:"branch"`
	Ratios      Ratios   `json:"ratios"`
	Activity    Activity `json:"business_check"`
	IsHalal     bool     `json:"is_halal"`
	ShariaScore int      `json:"sharia_score"`
	Reasons     []string `json:"reasons"`
	Override    Override `json:"override,omitempty"`
	Rating      int      `json:"rating"`
	Summary     string   `json:"reason"`
}
