// Package pricing implements the bond pricer: a pure function from pricing
// parameters to a fair value, with no stored state and no hidden randomness.
// Identical params always yield identical pricing.
package pricing

import (
	"math"

	"github.com/stylelend/rentbond/internal/domain"
)

// TenorYears is the fixed bond tenor used for discounting (one quarter).
const TenorYears = 0.25

// Price computes the pricing for a rental bond. The bundle's notional is
// base_price * bundle_rentals * holiday_multiplier; the fair value discounts
// that notional by the implied yield (risk_spread_bps / 10000) over the fixed
// tenor. Monetary outputs are rounded to two decimals after the computation.
// Callers must validate params before calling; Price does not re-check.
func Price(p domain.PricingParams) domain.Pricing {
	rentalsValue := p.BasePrice * float64(p.BundleRentals) * p.HolidayMultiplier
	yield := float64(p.RiskSpreadBps) / 10_000
	fairValue := rentalsValue / math.Pow(1+yield, TenorYears)

	return domain.Pricing{
		FairValue:    round2(fairValue),
		RentalsValue: round2(rentalsValue),
		Discount:     round2(rentalsValue - fairValue),
		ImpliedYield: yield,
		TenorYears:   TenorYears,
	}
}

// round2 rounds to two decimal places for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
