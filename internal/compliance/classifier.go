// Package compliance decides whether a normalized FinancialProfile is
// Sharia-compliant under AAOIFI-style thresholds, a business-activity keyword
// screen and a separate crypto rule set.
package compliance

import (
	"fmt"
	"math"
	"strings"

	"ihsan/internal/market"
	"ihsan/internal/normalize"
)

type category struct {
	name  string
	terms []string
}

// Classifier is stateless apart from its rules and is safe for concurrent use.
type Classifier struct {
	rules Rules

	universal        []category
	finance          []category
	financialSectors []string
	islamicMarkers   []string
	forcedHalal      map[string]struct{}
	forcedExclude    map[string]struct{}
	cryptoDeny       map[string]struct{}
	cryptoAllow      map[string]struct{}
	lendingTerms     []string
}

func New(rules Rules) *Classifier {
	return &Classifier{
		rules:            rules,
		universal:        compileCategories(rules.Universal),
		finance:          compileCategories(rules.Finance),
		financialSectors: lowerAll(rules.FinancialSectors),
		islamicMarkers:   lowerAll(rules.IslamicMarkers),
		forcedHalal:      tickerSet(rules.ForcedHalal),
		forcedExclude:    tickerSet(rules.ForcedNonCompliant),
		cryptoDeny:       tickerSet(rules.Crypto.Denylist),
		cryptoAllow:      tickerSet(rules.Crypto.Allowlist),
		lendingTerms:     lowerAll(rules.Crypto.LendingTerms),
	}
}

// Rules returns the rule set the classifier was built from.
func (c *Classifier) Rules() Rules { return c.rules }

// Classify runs overrides, the asset-class branch, the ratio and activity
// screens and scoring, in that order.
func (c *Classifier) Classify(p normalize.FinancialProfile) Verdict {
	v, ok := c.override(p)
	if !ok {
		if p.AssetClass == market.AssetCrypto {
			v = c.classifyCrypto(p)
		} else {
			v = c.classifyIssuer(p)
		}
	}
	v.Rating = Rating(p, v)
	return v
}

func (c *Classifier) override(p normalize.FinancialProfile) (Verdict, bool) {
	ticker := strings.ToUpper(p.Ticker)
	if _, ok := c.forcedExclude[ticker]; ok {
		return Verdict{
			Ticker:      p.Ticker,
			Branch:      BranchOverride,
			Ratios:      c.ratios(p),
			Activity:    Activity{Reasons: []string{}},
			IsHalal:     false,
			ShariaScore: 0,
			Reasons:     []string{"manual exclusion"},
			Override:    OverrideForcedExclude,
			Summary:     "manual exclusion",
		}, true
	}
	if _, ok := c.forcedHalal[ticker]; ok {
		return Verdict{
			Ticker:      p.Ticker,
			Branch:      BranchOverride,
			Ratios:      c.ratios(p),
			Activity:    Activity{Reasons: []string{}},
			IsHalal:     true,
			ShariaScore: 100,
			Reasons:     []string{},
			Override:    OverrideForcedHalal,
			Summary:     "certified compliant (manual list)",
		}, true
	}
	return Verdict{}, false
}

func (c *Classifier) classifyIssuer(p normalize.FinancialProfile) Verdict {
	ratios := c.ratios(p)
	activity := c.activity(p)

	branch := BranchAAOIFI
	if ratios.Skipped {
		branch = BranchActivityOnly
	}
	reasons := append([]string{}, activity.Reasons...)
	if !ratios.DebtPassed {
		reasons = append(reasons, fmt.Sprintf("debt ratio %.2f%% >= %g%%", ratios.Debt, c.rules.RatioThreshold))
	}
	if !ratios.CashPassed {
		reasons = append(reasons, fmt.Sprintf("cash ratio %.2f%% >= %g%%", ratios.Cash, c.rules.RatioThreshold))
	}
	halal := ratios.Passed && !activity.Violated
	return Verdict{
		Ticker:      p.Ticker,
		Branch:      branch,
		Ratios:      ratios,
		Activity:    activity,
		IsHalal:     halal,
		ShariaScore: c.score(ratios, activity.Violated),
		Reasons:     reasons,
		Summary:     summarize(halal, reasons),
	}
}

// ratios computes debt and cash as a percentage of market capitalization.
// Asset classes without a balance sheet, or profiles lacking one, score zero
// on both and pass. A missing market capitalization also yields zero ratios.
func (c *Classifier) ratios(p normalize.FinancialProfile) Ratios {
	if !p.AssetClass.HasBalanceSheetConcept() || !p.HasBalanceSheet {
		return Ratios{DebtPassed: true, CashPassed: true, Passed: true, Skipped: true}
	}
	if !p.HasMarketCap() {
		return Ratios{DebtPassed: true, CashPassed: true, Passed: true}
	}
	base := p.RatioBase()
	debt := p.TotalDebt / base * 100
	cash := p.Cash / base * 100
	r := Ratios{
		Debt:       normalize.Round2(debt),
		Cash:       normalize.Round2(cash),
		DebtPassed: debt < c.rules.RatioThreshold,
		CashPassed: cash < c.rules.RatioThreshold,
	}
	r.Passed = r.DebtPassed && r.CashPassed
	return r
}

func (c *Classifier) activity(p normalize.FinancialProfile) Activity {
	sector := strings.ToLower(p.Sector)
	industry := strings.ToLower(p.Industry)
	narrative := strings.ToLower(p.Narrative)

	found := newReasonSet()
	scan := func(cats []category) {
		for _, cat := range cats {
			for _, term := range cat.terms {
				hit := false
				if strings.Contains(sector, term) {
					found.add("sector: "+p.Sector, cat.name)
					hit = true
				}
				if strings.Contains(industry, term) {
					found.add("industry: "+p.Industry, cat.name)
					hit = true
				}
				if !hit && strings.Contains(narrative, term) {
					found.add(term, cat.name)
				}
			}
		}
	}

	scan(c.universal)
	exempt := false
	if c.isFinancial(sector, industry) {
		if c.isIslamicIssuer(strings.ToLower(p.Name), narrative) {
			exempt = true
		} else {
			scan(c.finance)
		}
	}
	return Activity{
		Violated:   len(found.reasons) > 0,
		Reasons:    found.reasons,
		Categories: found.categories,
		Exempted:   exempt,
	}
}

func (c *Classifier) isFinancial(sector, industry string) bool {
	return containsAny(sector, c.financialSectors) || containsAny(industry, c.financialSectors)
}

func (c *Classifier) isIslamicIssuer(name, narrative string) bool {
	return containsAny(name, c.islamicMarkers) || containsAny(narrative, c.islamicMarkers)
}

// score grants the ratio credit proportionally to the headroom under the
// threshold. A failed activity screen caps the score.
func (c *Classifier) score(r Ratios, activityViolated bool) int {
	th := c.rules.RatioThreshold
	credit := 0.0
	if th > 0 {
		if r.Debt < th {
			credit += c.rules.ScoreRatioWeight * (1 - r.Debt/th)
		}
		if r.Cash < th {
			credit += c.rules.ScoreRatioWeight * (1 - r.Cash/th)
		}
	}
	if activityViolated {
		return clampScore(math.Min(credit, float64(c.rules.ActivityFailCap)))
	}
	return clampScore(c.rules.ScoreBase + credit)
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func summarize(halal bool, reasons []string) string {
	if halal {
		return "compliant (AAOIFI)"
	}
	if len(reasons) == 0 {
		return "non-compliant"
	}
	return strings.Join(reasons, " & ")
}

type reasonSet struct {
	seen       map[string]struct{}
	seenCat    map[string]struct{}
	reasons    []string
	categories []string
}

func newReasonSet() *reasonSet {
	return &reasonSet{
		seen:       map[string]struct{}{},
		seenCat:    map[string]struct{}{},
		reasons:    []string{},
		categories: []string{},
	}
}

func (s *reasonSet) add(reason, cat string) {
	if _, ok := s.seen[reason]; !ok {
		s.seen[reason] = struct{}{}
		s.reasons = append(s.reasons, reason)
	}
	if _, ok := s.seenCat[cat]; !ok {
		s.seenCat[cat] = struct{}{}
		s.categories = append(s.categories, cat)
	}
}

func compileCategories(in []KeywordCategory) []category {
	out := make([]category, 0, len(in))
	for _, kc := range in {
		out = append(out, category{name: kc.Name, terms: lowerAll(kc.Terms)})
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func tickerSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	if text == "" {
		return false
	}
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
