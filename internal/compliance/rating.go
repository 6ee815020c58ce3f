package compliance

import "ihsan/internal/normalize"

const (
	maxRating         = 5
	ratingROEAbove    = 15.0
	ratingMarginAbove = 15.0
	ratingPEGBelow    = 1.5
)

// Rating is a 1 to 5 quality mark: one point each for a strong ROE, a strong
// profit margin, a reasonable PEG and a compliant verdict. Manually certified
// symbols always rate 5.
func Rating(p normalize.FinancialProfile, v Verdict) int {
	if v.Override == OverrideForcedHalal {
		return maxRating
	}
	r := 1
	if p.ROE.Valid && p.ROE.Value > ratingROEAbove {
		r++
	}
	if p.ProfitMargin.Valid && p.ProfitMargin.Value > ratingMarginAbove {
		r++
	}
	if p.PEG.Valid && p.PEG.Value > 0 && p.PEG.Value < ratingPEGBelow {
		r++
	}
	if v.IsHalal {
		r++
	}
	if r > maxRating {
		r = maxRating
	}
	return r
}
