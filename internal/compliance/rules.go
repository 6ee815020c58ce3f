package compliance

// KeywordCategory groups banned terms under one business activity.
type KeywordCategory struct {
	Name  string   `yaml:"name" json:"name"`
	Terms []string `yaml:"terms" json:"terms"`
}

// CryptoRules drive the crypto-asset branch, which has no balance sheet.
type CryptoRules struct {
	Denylist     []string `yaml:"denylist" json:"denylist"`
	Allowlist    []string `yaml:"allowlist" json:"allowlist"`
	LendingTerms []string `yaml:"lending_terms" json:"lending_terms"`
	DefaultScore int      `yaml:"default_score" json:"default_score"`
	DenyScore    int      `yaml:"deny_score" json:"deny_score"`
	LendingScore int      `yaml:"lending_score" json:"lending_score"`
	AllowScore   int      `yaml:"allow_score" json:"allow_score"`
}

// Rules is the complete, read-only rule set of a Classifier.
type Rules struct {
	RatioThreshold   float64 `yaml:"ratio_threshold" json:"ratio_threshold"`
	ScoreBase        float64 `yaml:"score_base" json:"score_base"`
	ScoreRatioWeight float64 `yaml:"score_ratio_weight" json:"score_ratio_weight"`
	ActivityFailCap  int     `yaml:"activity_fail_cap" json:"activity_fail_cap"`

	// Universal categories apply to every issuer and are never exempted.
	Universal []KeywordCategory `yaml:"universal" json:"universal"`
	// Finance categories apply only to financial-services sectors and are
	// exempted for self-identified Islamic-finance issuers.
	Finance []KeywordCategory `yaml:"finance" json:"finance"`

	FinancialSectors []string `yaml:"financial_sectors" json:"financial_sectors"`
	IslamicMarkers   []string `yaml:"islamic_markers" json:"islamic_markers"`

	ForcedHalal        []string `yaml:"forced_halal" json:"forced_halal"`
	ForcedNonCompliant []string `yaml:"forced_non_compliant" json:"forced_non_compliant"`

	Crypto CryptoRules `yaml:"crypto" json:"crypto"`
}

// DefaultRules returns the built-in AAOIFI-style rule set. Every call returns
// a fresh copy.
func DefaultRules() Rules {
	return Rules{
		RatioThreshold:   33,
		ScoreBase:        40,
		ScoreRatioWeight: 30,
		ActivityFailCap:  20,
		Universal: []KeywordCategory{
			{Name: "gambling", Terms: []string{"gambling", "casino", "betting", "lottery", "wagering"}},
			{Name: "alcohol", Terms: []string{"alcohol", "brewery", "brewer", "distiller", "winery", "wine", "beer", "liquor"}},
			{Name: "tobacco", Terms: []string{"tobacco", "cigarette", "cigar"}},
			{Name: "pork", Terms: []string{"pork", "swine", "ham products"}},
			{Name: "adult", Terms: []string{"adult entertainment", "pornograph", "adult content"}},
			{Name: "weapons", Terms: []string{"weapon", "defense contractor", "munition", "firearm", "military aircraft"}},
		},
		Finance: []KeywordCategory{
			{Name: "banking", Terms: []string{"bank"}},
			{Name: "interest", Terms: []string{"interest income", "interest-bearing", "interest rate"}},
			{Name: "lending", Terms: []string{"lending", "loan", "mortgage", "credit card"}},
			{Name: "insurance", Terms: []string{"insurance", "underwriting", "reinsurance"}},
		},
		FinancialSectors: []string{"financial", "bank", "insurance", "capital markets", "credit services"},
		IslamicMarkers: []string{
			"islamic", "sharia", "shariah", "sukuk", "takaful",
			"al rajhi", "alinma", "albilad", "kuwait finance house", "meezan", "masraf al rayan",
		},
		ForcedHalal:        []string{"SPUS", "HLAL", "ISDW.L", "ISDU.L", "GLDM", "SPSK"},
		ForcedNonCompliant: []string{"PLTR", "LMT", "RTX", "BA", "JPM", "BAC"},
		Crypto: CryptoRules{
			Denylist:     []string{"USDT-USD", "USDC-USD", "BUSD-USD", "DAI-USD", "AAVE-USD", "COMP-USD"},
			Allowlist:    []string{"BTC-USD", "ETH-USD"},
			LendingTerms: []string{"lending", "interest", "yield farming", "borrow"},
			DefaultScore: 80,
			DenyScore:    0,
			LendingScore: 20,
			AllowScore:   95,
		},
	}
}
