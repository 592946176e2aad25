package domain

import "time"

// QuoteTTL is how long a priced quote stays purchasable.
const QuoteTTL = 10 * time.Minute

// PricingParams are the caller-supplied inputs to the bond pricer.
type PricingParams struct {
	BasePrice         float64 `json:"base_price"`
	BundleRentals     int     `json:"bundle_rentals"`
	HolidayMultiplier float64 `json:"holiday_multiplier"`
	RiskSpreadBps     int     `json:"risk_spread_bps"`
}

// Validate rejects out-of-range pricing inputs before they reach the engine.
func (p PricingParams) Validate() error {
	if p.BasePrice <= 0 {
		return ErrValidation
	}
	if p.BundleRentals <= 0 {
		return ErrValidation
	}
	if p.HolidayMultiplier < 0 {
		return ErrValidation
	}
	if p.RiskSpreadBps < 0 {
		return ErrValidation
	}
	return nil
}

// Pricing is the output of the bond pricer. Monetary fields are rounded to
// two decimals for display; ImpliedYield and TenorYears are exact.
type Pricing struct {
	FairValue    float64 `json:"fair_value"`
	RentalsValue float64 `json:"rentals_value"`
	Discount     float64 `json:"discount"`
	ImpliedYield float64 `json:"implied_yield"`
	TenorYears   float64 `json:"tenor_years"`
}

// Quote is a short-lived priced proposal for a bond purchase. Immutable once
// created; past ExpiresAt it must be reported as expired, never silently served.
type Quote struct {
	QuoteID   string        `json:"quote_id"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Params    PricingParams `json:"params"`
	Pricing   Pricing       `json:"pricing"`
}

// Expired reports whether the quote is past its TTL at the given instant.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
